package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/delmic/odemis-sub008/pkg/domain"
)

// Store implements ports.StateStore using the local filesystem.
// Each instrument is kept as one JSON file in a configured directory.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".optpath/state".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".optpath", "state")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(instrument string) (string, error) {
	if instrument == "" {
		return "", fmt.Errorf("instrument cannot be empty")
	}
	if strings.ContainsAny(instrument, `/\`) || instrument == "." || instrument == ".." {
		return "", fmt.Errorf("invalid instrument name %q", instrument)
	}
	return filepath.Join(s.BasePath, instrument+".json"), nil
}

// Save persists the state to a JSON file atomically.
// It writes to a temporary file first, syncs it, and then renames it to the destination.
func (s *Store) Save(ctx context.Context, instrument string, state *domain.PathState) error {
	destPath, err := s.path(instrument)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure state directory: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	// Same directory, so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+instrument+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Cannot rename an open file on Windows.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// os.Rename fails on Windows if the destination exists.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing state file for overwrite: %w", err)
		}
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file to state file: %w", err)
	}
	return nil
}

// Load retrieves the state from its JSON file.
func (s *Store) Load(ctx context.Context, instrument string) (*domain.PathState, error) {
	filePath, err := s.path(instrument)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrStateNotFound
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var state domain.PathState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal path state: %w", err)
	}
	return &state, nil
}

// Delete removes the state file.
func (s *Store) Delete(ctx context.Context, instrument string) error {
	filePath, err := s.path(instrument)
	if err != nil {
		return err
	}

	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete state file: %w", err)
	}
	return nil
}

// List returns the instruments with a state file.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list states: %w", err)
	}

	var instruments []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		instruments = append(instruments, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(instruments)
	return instruments, nil
}
