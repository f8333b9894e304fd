package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/delmic/odemis-sub008/internal/logging"
	"github.com/delmic/odemis-sub008/pkg/domain"
	"github.com/delmic/odemis-sub008/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed process can hold the distributed lock.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates access to the persisted path state of each instrument.
// Operations on one instrument are serialized; locks of unused instruments
// are garbage collected by reference counting.
type Manager struct {
	store ports.StateStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks (default: 30s).
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new Manager with the given persistence store.
func NewManager(store ports.StateStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(instrument) after unlocking.
func (m *Manager) acquire(instrument string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[instrument]
	if !exists {
		entry = &lockEntry{}
		m.locks[instrument] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(instrument string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[instrument]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, instrument)
	}
}

// Load retrieves the saved state of an instrument.
func (m *Manager) Load(ctx context.Context, instrument string) (*domain.PathState, error) {
	var state *domain.PathState
	err := m.WithLock(ctx, instrument, func(ctx context.Context) error {
		var err error
		state, err = m.store.Load(ctx, instrument)
		return err
	})
	return state, err
}

// LoadOrNew loads the saved state, or creates and persists an empty one.
func (m *Manager) LoadOrNew(ctx context.Context, instrument string) (*domain.PathState, error) {
	var state *domain.PathState
	err := m.WithLock(ctx, instrument, func(ctx context.Context) error {
		var err error
		state, err = m.store.Load(ctx, instrument)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrStateNotFound) {
			return fmt.Errorf("failed to check saved state: %w", err)
		}

		state = domain.NewPathState(instrument)
		if err := m.store.Save(ctx, instrument, state); err != nil {
			return fmt.Errorf("failed to initialize state: %w", err)
		}
		return nil
	})
	return state, err
}

// Save persists the state of an instrument.
func (m *Manager) Save(ctx context.Context, instrument string, state *domain.PathState) error {
	return m.WithLock(ctx, instrument, func(ctx context.Context) error {
		return m.SaveLocked(ctx, instrument, state)
	})
}

// SaveLocked persists the state of an instrument without taking its lock.
// It must only be called from inside WithLock for the same instrument.
func (m *Manager) SaveLocked(ctx context.Context, instrument string, state *domain.PathState) error {
	state.UpdatedAt = time.Now()
	return m.store.Save(ctx, instrument, state)
}

// Delete removes the saved state of an instrument.
func (m *Manager) Delete(ctx context.Context, instrument string) error {
	return m.WithLock(ctx, instrument, func(ctx context.Context) error {
		return m.store.Delete(ctx, instrument)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying state store.
func (m *Manager) Store() ports.StateStore {
	return m.store
}

// WithLock executes fn while holding the lock of the instrument.
// With a distributed locker, the lock is shared with other processes.
func (m *Manager) WithLock(ctx context.Context, instrument string, fn func(context.Context) error) error {
	entry := m.acquire(instrument)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(instrument)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, instrument, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			// The caller's ctx may be done already; the release must still go through.
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"instrument", instrument,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
