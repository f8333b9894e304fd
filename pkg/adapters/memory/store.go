package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/delmic/odemis-sub008/pkg/domain"
)

// Store implements ports.StateStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.PathState
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.PathState),
	}
}

// Save persists a copy of the state in memory.
func (s *Store) Save(ctx context.Context, instrument string, state *domain.PathState) error {
	copied := state.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[instrument] = copied
	return nil
}

// Load retrieves a copy of the state, so callers can't mutate the stored one.
func (s *Store) Load(ctx context.Context, instrument string) (*domain.PathState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.data[instrument]
	if !ok {
		return nil, domain.ErrStateNotFound
	}
	return state.Clone(), nil
}

// Delete removes the state.
func (s *Store) Delete(ctx context.Context, instrument string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, instrument)
	return nil
}

// List returns the instruments with a saved state, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	instruments := make([]string, 0, len(s.data))
	for id := range s.data {
		instruments = append(instruments, id)
	}
	sort.Strings(instruments)
	return instruments, nil
}
