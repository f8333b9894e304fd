package ports

import (
	"context"

	"github.com/delmic/odemis-sub008/pkg/domain"
)

// StateStore persists the path manager memory of each instrument, so that
// values displaced by alignment modes survive a restart.
type StateStore interface {
	// Save persists the state of an instrument.
	Save(ctx context.Context, instrument string, state *domain.PathState) error

	// Load retrieves the state of an instrument.
	// Returns domain.ErrStateNotFound if nothing was saved.
	Load(ctx context.Context, instrument string) (*domain.PathState, error)

	// Delete removes the state of an instrument.
	Delete(ctx context.Context, instrument string) error

	// List returns the instruments with a saved state.
	List(ctx context.Context) ([]string, error)
}
