package optpath

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/delmic/odemis-sub008/internal/executor"
	"github.com/delmic/odemis-sub008/internal/logging"
	"github.com/delmic/odemis-sub008/internal/runtime"
	"github.com/delmic/odemis-sub008/internal/topology"
	"github.com/delmic/odemis-sub008/pkg/domain"
	"github.com/delmic/odemis-sub008/pkg/future"
	"github.com/delmic/odemis-sub008/pkg/modes"
	"github.com/delmic/odemis-sub008/pkg/ports"
	"github.com/delmic/odemis-sub008/pkg/session"
)

// FanPolicy holds the camera cooling parameters of SPARC2 instruments.
type FanPolicy = runtime.FanPolicy

// Graph is the affects graph of an instrument.
type Graph = topology.Graph

// DefaultFanPolicy returns the default cooling parameters.
func DefaultFanPolicy() FanPolicy {
	return runtime.DefaultFanPolicy()
}

// Manager is the high-level entry point of the library.
// It owns the path worker: path changes are queued and run one at a time,
// and only the most recent queued change survives.
type Manager struct {
	Name string

	registry *topology.Registry
	engine   *runtime.Engine
	exec     *executor.Executor
	sessions *session.Manager
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	pruned   []string

	// engine options collected from Option
	table       *domain.ModeTable
	overrides   []*ports.ModeOverrides
	store       ports.StateStore
	locker      ports.DistributedLocker
	runtimeOpts []runtime.EngineOption

	mu       sync.Mutex
	snapshot *domain.PathState
	saving   sync.WaitGroup
}

// New builds a path manager for the given components.
//
// Unless WithModeTable is given, the mode table is the built-in table of the
// microscope family, found from the role of the microscope component. Modes
// whose detector is absent are dropped.
func New(components []domain.Component, opts ...Option) (*Manager, error) {
	m := &Manager{}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = logging.NewNop()
	}

	registry := topology.NewRegistry(components)
	table, err := m.modeTable(registry)
	if err != nil {
		return nil, err
	}
	if m.Name == "" {
		m.Name = string(table.Family)
	}
	m.logger = m.logger.With("instrument", m.Name)

	table, m.pruned = modes.Prune(table, registry.HasRole)
	if len(m.pruned) > 0 {
		m.logger.Debug("dropped modes without detector", "modes", m.pruned)
	}

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLogger(m.logger),
		runtime.WithLifecycleHooks(m.hooks),
	}
	runtimeOpts = append(runtimeOpts, m.runtimeOpts...)

	m.registry = registry
	m.engine = runtime.NewEngine(registry, table, runtimeOpts...)
	m.exec = executor.New(
		executor.WithLogger(m.logger),
		executor.WithDiscardHook(m.superseded),
	)
	if m.store != nil {
		sessOpts := []session.Option{session.WithLogger(m.logger)}
		if m.locker != nil {
			sessOpts = append(sessOpts, session.WithLocker(m.locker))
		}
		m.sessions = session.NewManager(m.store, sessOpts...)
	}
	m.snapshot = m.engine.State(m.Name)
	return m, nil
}

func (m *Manager) modeTable(registry *topology.Registry) (domain.ModeTable, error) {
	var family domain.Family
	for _, o := range m.overrides {
		if o != nil && o.Family != "" {
			family = o.Family
			break
		}
	}

	var table domain.ModeTable
	var err error
	switch {
	case m.table != nil:
		table = *m.table
	case family != "":
		table, err = modes.ForFamily(family)
	default:
		table, err = microscopeTable(registry)
	}
	if err != nil {
		return domain.ModeTable{}, err
	}

	for _, o := range m.overrides {
		if o != nil {
			table = modes.Merge(table, o.Table, o.Remove...)
		}
	}
	return table, nil
}

func microscopeTable(registry *topology.Registry) (domain.ModeTable, error) {
	for _, c := range registry.All() {
		if _, err := modes.FamilyForRole(c.Role()); err == nil {
			return modes.ForMicroscope(c.Role())
		}
	}
	return domain.ModeTable{}, fmt.Errorf("%w: no microscope component", domain.ErrUnsupportedFamily)
}

// Start restores the persisted state of the instrument, if any, and starts the path worker.
// The worker stops when ctx is done or Close is called.
func (m *Manager) Start(ctx context.Context) error {
	if m.sessions != nil {
		st, err := m.sessions.LoadOrNew(ctx, m.Name)
		if err != nil {
			return fmt.Errorf("failed to restore path state: %w", err)
		}
		m.engine.Restore(st)
		m.logger.Debug("path state restored", "last_mode", st.LastMode)
	}
	m.setSnapshot(m.engine.State(m.Name))
	m.exec.Start(ctx)
	return nil
}

// Close discards the queued path change and waits for the running one.
func (m *Manager) Close() error {
	err := m.exec.Close()
	m.saving.Wait()
	return err
}

// ApplyMode queues a change to the given mode and returns immediately.
// detector may be nil, in which case the detector of the mode is used.
func (m *Manager) ApplyMode(mode string, detector domain.Component) *future.Future {
	return m.exec.Submit(mode, func(ctx context.Context) error {
		return m.apply(ctx, domain.Target{Mode: mode, Detector: detector})
	})
}

// ApplyForRequest queues a change to the mode inferred from req.
func (m *Manager) ApplyForRequest(req domain.Request) *future.Future {
	label := "request:" + string(req.Kind())
	return m.exec.Submit(label, func(ctx context.Context) error {
		return m.apply(ctx, domain.Target{Request: req})
	})
}

func (m *Manager) apply(ctx context.Context, t domain.Target) error {
	if m.sessions == nil {
		err := m.engine.Apply(ctx, t)
		m.setSnapshot(m.engine.State(m.Name))
		return err
	}

	return m.sessions.WithLock(ctx, m.Name, func(ctx context.Context) error {
		err := m.engine.Apply(ctx, t)
		st := m.engine.State(m.Name)
		// The last mode is recorded even when the change failed, so the state is saved either way.
		// The session lock is already held here.
		if saveErr := m.sessions.SaveLocked(ctx, m.Name, st); saveErr != nil {
			m.logger.Warn("failed to persist path state", "err", saveErr)
		}
		m.setSnapshot(st)
		return err
	})
}

func (m *Manager) superseded(label string) {
	m.logger.Info("path request superseded", "request", label)
	if m.hooks.OnSuperseded != nil {
		m.hooks.OnSuperseded(context.Background(), &domain.ApplyEvent{
			EventBase: domain.EventBase{Type: domain.EventSuperseded},
			Mode:      label,
		})
	}
}

// SetAcquisitionQuality changes the quality used by the next path changes.
// It is safe to call at any time. With a state store, the quality is saved
// in the background as soon as no path change holds the instrument; Close
// waits for that save.
func (m *Manager) SetAcquisitionQuality(q domain.Quality) {
	m.engine.SetQuality(q)
	m.mu.Lock()
	m.snapshot.Quality = q
	m.mu.Unlock()

	if m.sessions == nil {
		return
	}
	m.saving.Add(1)
	go func() {
		defer m.saving.Done()
		m.persistQuality(context.Background())
	}()
}

func (m *Manager) persistQuality(ctx context.Context) {
	err := m.sessions.WithLock(ctx, m.Name, func(ctx context.Context) error {
		// Taken under the lock so a change that completed meanwhile is not overwritten.
		st := m.State()
		return m.sessions.SaveLocked(ctx, m.Name, st)
	})
	if err != nil {
		m.logger.Warn("failed to persist acquisition quality", "err", err)
	}
}

// GuessMode returns the mode that ApplyForRequest would select, without moving anything.
func (m *Manager) GuessMode(req domain.Request) (string, error) {
	return m.engine.GuessMode(req)
}

// Modes returns the names of the available modes, in table order.
func (m *Manager) Modes() []string {
	return m.engine.Table().Names()
}

// Table returns the mode table in use.
func (m *Manager) Table() domain.ModeTable {
	return m.engine.Table()
}

// Pruned returns the modes dropped because their detector is absent.
func (m *Manager) Pruned() []string {
	return append([]string(nil), m.pruned...)
}

// Graph returns the affects graph of the instrument.
func (m *Manager) Graph() *Graph {
	return m.engine.Graph()
}

// Components returns the components of the instrument, in registration order.
func (m *Manager) Components() []domain.Component {
	return m.registry.All()
}

// State returns a copy of the path state as of the last completed change.
func (m *Manager) State() *domain.PathState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot.Clone()
}

func (m *Manager) setSnapshot(st *domain.PathState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = st
}
