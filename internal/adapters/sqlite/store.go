// Package sqlite implements ports.StateStore on an embedded SQLite database.
// It suits a single workstation driving one or a few instruments.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/delmic/odemis-sub008/pkg/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS path_state (
	instrument TEXT PRIMARY KEY,
	last_mode  TEXT NOT NULL DEFAULT '',
	data       TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

// Store implements ports.StateStore with a SQLite table.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and prepares the schema.
// Use ":memory:" for a throwaway database.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Save persists the state, replacing any previous one.
func (s *Store) Save(ctx context.Context, instrument string, state *domain.PathState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO path_state (instrument, last_mode, data, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(instrument) DO UPDATE SET
			last_mode = excluded.last_mode,
			data = excluded.data,
			updated_at = excluded.updated_at`,
		instrument, state.LastMode, string(data), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// Load retrieves the state of an instrument.
func (s *Store) Load(ctx context.Context, instrument string) (*domain.PathState, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM path_state WHERE instrument = ?`, instrument).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	var state domain.PathState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	return &state, nil
}

// Delete removes the state of an instrument.
func (s *Store) Delete(ctx context.Context, instrument string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM path_state WHERE instrument = ?`, instrument); err != nil {
		return fmt.Errorf("failed to delete state: %w", err)
	}
	return nil
}

// List returns the instruments with a saved state, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT instrument FROM path_state ORDER BY instrument`)
	if err != nil {
		return nil, fmt.Errorf("failed to list states: %w", err)
	}
	defer rows.Close()

	instruments := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		instruments = append(instruments, id)
	}
	return instruments, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
