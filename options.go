package optpath

import (
	"log/slog"
	"time"

	"github.com/delmic/odemis-sub008/internal/runtime"
	"github.com/delmic/odemis-sub008/pkg/domain"
	"github.com/delmic/odemis-sub008/pkg/ports"
)

// Option defines a functional option for configuring the Manager.
type Option func(*Manager)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Manager) {
		m.hooks = hooks
	}
}

// WithInstrumentName sets the name under which the path state is persisted
// (default: the microscope family).
func WithInstrumentName(name string) Option {
	return func(m *Manager) {
		m.Name = name
	}
}

// WithStore persists the path state after every change and restores it on Start.
func WithStore(store ports.StateStore) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithLocker shares the instrument lock with other processes. Requires WithStore.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithModeTable replaces the built-in mode table.
func WithModeTable(table domain.ModeTable) Option {
	return func(m *Manager) {
		m.table = &table
	}
}

// WithModeOverrides merges overrides onto the mode table, in order.
// The family of the first override naming one selects the base table.
func WithModeOverrides(o ...*ports.ModeOverrides) Option {
	return func(m *Manager) {
		m.overrides = append(m.overrides, o...)
	}
}

// WithMoveTimeout bounds the wait for each component move (default: 180s).
func WithMoveTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.runtimeOpts = append(m.runtimeOpts, runtime.WithMoveTimeout(d))
	}
}

// WithFanPolicy overrides the camera cooling parameters.
func WithFanPolicy(p FanPolicy) Option {
	return func(m *Manager) {
		m.runtimeOpts = append(m.runtimeOpts, runtime.WithFanPolicy(p))
	}
}

// WithQuality sets the initial acquisition quality. A restored state takes precedence.
func WithQuality(q domain.Quality) Option {
	return func(m *Manager) {
		m.runtimeOpts = append(m.runtimeOpts, runtime.WithQuality(q))
	}
}
