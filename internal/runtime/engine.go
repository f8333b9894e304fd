package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/delmic/odemis-sub008/internal/logging"
	"github.com/delmic/odemis-sub008/internal/topology"
	"github.com/delmic/odemis-sub008/pkg/domain"
)

// DefaultMoveTimeout bounds the wait for a single component move.
const DefaultMoveTimeout = 180 * time.Second

// Engine computes and applies optical path changes.
//
// Apply, RouteTo, GuessMode, State and Restore must be called from a single
// goroutine (the path worker): the hysteresis memory and the last mode are
// not protected. Only the acquisition quality may be changed concurrently.
type Engine struct {
	registry    *topology.Registry
	graph       *topology.Graph
	table       domain.ModeTable
	logger      *slog.Logger
	hooks       domain.LifecycleHooks
	moveTimeout time.Duration
	fanPolicy   FanPolicy
	fan         *fanController

	qmu     sync.Mutex
	quality domain.Quality

	lastMode string
	store    *hysteresis
	focusIn  map[string]any
	focusOut map[string]any
}

// NewEngine creates an engine driving the components of registry with the given mode table.
func NewEngine(registry *topology.Registry, table domain.ModeTable, opts ...EngineOption) *Engine {
	e := &Engine{
		registry:    registry,
		graph:       registry.Graph(),
		table:       table,
		logger:      logging.NewNop(),
		moveTimeout: DefaultMoveTimeout,
		fanPolicy:   DefaultFanPolicy(),
		quality:     domain.QualityFast,
		store:       newHysteresis(),
	}
	for _, opt := range opts {
		opt(e)
	}

	// Only the SPARC2 family controls the camera fan.
	if table.Family == domain.FamilySPARC2 {
		if cam, err := registry.ByRole("ccd"); err == nil {
			if cooler, ok := cam.(domain.Cooler); ok {
				e.fan = newFanController(cam, cooler, e.fanPolicy, e.logger)
			}
		}
	}
	return e
}

// Table returns the mode table in use.
func (e *Engine) Table() domain.ModeTable {
	return e.table
}

// Graph returns the affects graph of the instrument.
func (e *Engine) Graph() *topology.Graph {
	return e.graph
}

// LastMode returns the mode applied last, or "".
func (e *Engine) LastMode() string {
	return e.lastMode
}

// SetQuality changes the acquisition quality used by the next path changes.
func (e *Engine) SetQuality(q domain.Quality) {
	e.qmu.Lock()
	defer e.qmu.Unlock()
	e.quality = q
}

// Quality returns the acquisition quality.
func (e *Engine) Quality() domain.Quality {
	e.qmu.Lock()
	defer e.qmu.Unlock()
	return e.quality
}

// Apply drives the components into the configuration of the target mode.
//
// Components that are absent or do not lead to the target detector are left
// alone. Recoverable move failures are logged; any other failure stops the
// path change and is returned. The mode is recorded as the last mode even
// when the change fails halfway.
func (e *Engine) Apply(ctx context.Context, t domain.Target) (err error) {
	mode, target, err := e.resolve(t)
	if err != nil {
		return err
	}

	prev := e.lastMode
	prevAlign := e.table.IsAlign(prev)
	logger := e.logger.With("mode", mode.Name, "target", target.Name())
	start := time.Now()

	logger.Info("changing optical path", "previous", prev)
	e.emitApplyStart(ctx, mode.Name, target.Name(), prev)
	defer func() {
		e.lastMode = mode.Name
		e.emitApplyEnd(ctx, mode.Name, target.Name(), prev, time.Since(start), err)
		if err != nil {
			logger.Error("optical path change failed", "err", err)
		} else {
			logger.Info("optical path changed", "duration", time.Since(start))
		}
	}()

	e.adjustFan(ctx, target, logger)

	if prev == domain.ModeChamberView && mode.Name != domain.ModeChamberView {
		if err := e.leaveChamberView(ctx); err != nil {
			return err
		}
	}

	p := newPlan()
	for _, role := range mode.Roles() {
		comp, err := e.registry.ByRole(role)
		if err != nil {
			logger.Debug("no component for role, skipping", "role", role)
			continue
		}
		if !e.graph.Affects(comp.Name(), target.Name()) {
			logger.Debug("component does not affect target, skipping", "component", comp.Name())
			continue
		}
		e.configure(comp, role, mode, prevAlign, p, logger)
	}

	for _, mv := range e.RouteTo(target.Name()) {
		p.add(mv.Component, mv.Axis, mv.Value)
	}

	if prevAlign && !mode.Align {
		e.restoreDisplaced(p, logger)
	}

	if err := e.execute(ctx, p, logger); err != nil {
		return err
	}

	if mode.Name == domain.ModeChamberView && prev != domain.ModeChamberView {
		if err := e.enterChamberView(ctx); err != nil {
			return err
		}
	}
	return nil
}

// resolve finds the mode and the target detector of a path change.
func (e *Engine) resolve(t domain.Target) (domain.Mode, domain.Component, error) {
	if t.Request != nil {
		if t.Mode != "" || t.Detector != nil {
			return domain.Mode{}, nil, domain.ErrConflictingTarget
		}
		name, det, err := e.guess(t.Request)
		if err != nil {
			return domain.Mode{}, nil, err
		}
		mode, _ := e.table.Lookup(name)
		if det == nil {
			if det, err = e.registry.ByRole(mode.DetectorPattern); err != nil {
				return domain.Mode{}, nil, fmt.Errorf("mode %q: %w", name, err)
			}
		}
		return mode, det, nil
	}

	mode, ok := e.table.Lookup(t.Mode)
	if !ok {
		return domain.Mode{}, nil, fmt.Errorf("%w: %q", domain.ErrUnknownMode, t.Mode)
	}
	if t.Detector != nil {
		return mode, t.Detector, nil
	}
	det, err := e.registry.ByRole(mode.DetectorPattern)
	if err != nil {
		return domain.Mode{}, nil, fmt.Errorf("mode %q: %w", mode.Name, err)
	}
	return mode, det, nil
}

// configure plans the axes a mode declares for one component.
func (e *Engine) configure(comp domain.Component, role string, mode domain.Mode, prevAlign bool, p *plan, logger *slog.Logger) {
	defs := comp.Axes()
	specs := mode.Axes[role]
	axes := make([]string, 0, len(specs))
	for axis := range specs {
		axes = append(axes, axis)
	}
	sort.Strings(axes)

	for _, axis := range axes {
		spec := specs[axis]
		def, ok := defs[axis]
		if !ok {
			logger.Warn("axis not available", "component", comp.Name(), "axis", axis)
			continue
		}
		value, ok := resolveSpec(comp, axis, def, spec)
		if !ok {
			logger.Warn("no value could be resolved", "component", comp.Name(), "axis", axis, "spec", spec.String())
			continue
		}
		change := &axisChange{
			comp:      comp,
			role:      role,
			axis:      axis,
			def:       def,
			value:     value,
			mode:      mode,
			prevAlign: prevAlign,
			plan:      p,
			logger:    logger,
		}
		if pos, ok := axisStrategies[kindOf(axis)](e, change); ok {
			p.set(comp, axis, pos)
		}
	}
}

// restoreDisplaced plans the values displaced by the alignment mode being left.
func (e *Engine) restoreDisplaced(p *plan, logger *slog.Logger) {
	for _, s := range e.store.entries() {
		comp, err := e.registry.ByRole(s.Role)
		if err != nil {
			continue
		}
		logger.Info("restoring value displaced by alignment", "component", comp.Name(), "axis", s.Axis, "value", s.Value)
		p.set(comp, s.Axis, s.Value)
	}
	e.store.clearValues()
}

// execute dispatches every planned move at once and then waits for them in order.
func (e *Engine) execute(ctx context.Context, p *plan, logger *slog.Logger) error {
	type issued struct {
		comp  domain.Component
		pos   map[string]any
		fut   domain.Future
		start time.Time
	}

	moves := make([]issued, 0, p.len())
	for _, name := range p.order {
		comp, pos := p.comps[name], p.moves[name]
		logger.Debug("moving component", "component", name, "position", pos)
		e.emitMove(ctx, e.hooks.OnMoveIssued, domain.EventMoveIssued, name, pos, 0, nil)
		moves = append(moves, issued{comp: comp, pos: pos, fut: comp.MoveAbs(ctx, maps.Clone(pos)), start: time.Now()})
	}

	for _, mv := range moves {
		err := e.await(ctx, mv.fut)
		e.emitMove(ctx, e.hooks.OnMoveDone, domain.EventMoveDone, mv.comp.Name(), mv.pos, time.Since(mv.start), err)
		if err != nil {
			if domain.IsRecoverable(err) {
				logger.Warn("move failed, continuing", "component", mv.comp.Name(), "position", mv.pos, "err", err)
				continue
			}
			return fmt.Errorf("failed to move %s to %v: %w", mv.comp.Name(), mv.pos, err)
		}
		e.checkReferenced(mv.comp, mv.pos, logger)
	}
	return nil
}

func (e *Engine) await(ctx context.Context, fut domain.Future) error {
	wctx, cancel := context.WithTimeout(ctx, e.moveTimeout)
	defer cancel()
	err := fut.Wait(wctx)
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("move not finished after %s: %w", e.moveTimeout, err)
	}
	return err
}

// checkReferenced warns about moved axes that are not homed.
func (e *Engine) checkReferenced(comp domain.Component, pos map[string]any, logger *slog.Logger) {
	ref, ok := comp.(domain.Referencer)
	if !ok {
		return
	}
	refs := ref.Referenced()
	for axis := range pos {
		if done, known := refs[axis]; known && !done {
			logger.Warn("axis moved while not referenced", "component", comp.Name(), "axis", axis)
		}
	}
}

// adjustFan stops the camera fan only for best-quality acquisitions on that camera.
func (e *Engine) adjustFan(ctx context.Context, target domain.Component, logger *slog.Logger) {
	if e.fan == nil {
		return
	}
	enable := e.Quality() != domain.QualityBest || target.Name() != e.fan.camera.Name()
	if err := e.fan.set(ctx, enable); err != nil {
		logger.Warn("failed to adjust camera fan", "enable", enable, "err", err)
	}
}

// State returns a snapshot of the memory of the engine.
func (e *Engine) State(instrument string) *domain.PathState {
	st := domain.NewPathState(instrument)
	st.LastMode = e.lastMode
	st.Quality = e.Quality()
	st.Stored = e.store.entries()
	st.Gratings = e.store.gratingEntries()
	st.FocusIn = maps.Clone(e.focusIn)
	st.FocusOut = maps.Clone(e.focusOut)
	if e.fan != nil {
		st.Fan = e.fan.memory()
	}
	return st
}

// Restore loads a snapshot taken by State, typically after a restart.
// Modes unknown to the current table are ignored.
func (e *Engine) Restore(st *domain.PathState) {
	if st == nil {
		return
	}
	if _, ok := e.table.Lookup(st.LastMode); ok {
		e.lastMode = st.LastMode
	}
	if st.Quality != "" {
		e.SetQuality(st.Quality)
	}
	e.store.load(e.canonicalStored(st.Stored), e.canonicalGratings(st.Gratings))
	e.focusIn = maps.Clone(st.FocusIn)
	e.focusOut = maps.Clone(st.FocusOut)
	if e.fan != nil {
		e.fan.restore(st.Fan)
	}
}

// canonicalKey maps a value read back from a store to the position key of
// an enumerated axis. Decoded JSON numbers are float64, while the hardware
// reports keys of its own type.
func (e *Engine) canonicalKey(role, axis string, v any) any {
	comp, err := e.registry.ByRole(role)
	if err != nil {
		return v
	}
	def, ok := comp.Axes()[axis]
	if !ok {
		return v
	}
	for _, c := range def.Choices {
		if domain.SameValue(c.Key, v) {
			return c.Key
		}
	}
	return v
}

func (e *Engine) canonicalStored(stored []domain.StoredAxis) []domain.StoredAxis {
	out := make([]domain.StoredAxis, len(stored))
	for i, s := range stored {
		s.Value = e.canonicalKey(s.Role, s.Axis, s.Value)
		out[i] = s
	}
	return out
}

func (e *Engine) canonicalGratings(gratings []domain.GratingMemory) []domain.GratingMemory {
	out := make([]domain.GratingMemory, len(gratings))
	for i, g := range gratings {
		g.Grating = e.canonicalKey(g.Role, "grating", g.Grating)
		out[i] = g
	}
	return out
}

func (e *Engine) emitApplyStart(ctx context.Context, mode, target, prev string) {
	if e.hooks.OnApplyStart == nil {
		return
	}
	e.hooks.OnApplyStart(ctx, &domain.ApplyEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventApplyStart},
		Mode:      mode,
		Target:    target,
		Previous:  prev,
	})
}

func (e *Engine) emitApplyEnd(ctx context.Context, mode, target, prev string, d time.Duration, err error) {
	if e.hooks.OnApplyEnd == nil {
		return
	}
	e.hooks.OnApplyEnd(ctx, &domain.ApplyEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventApplyEnd},
		Mode:      mode,
		Target:    target,
		Previous:  prev,
		Duration:  d,
		Err:       err,
	})
}

func (e *Engine) emitMove(ctx context.Context, hook func(context.Context, *domain.MoveEvent), typ domain.EventType, comp string, pos map[string]any, d time.Duration, err error) {
	if hook == nil {
		return
	}
	hook(ctx, &domain.MoveEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: typ},
		Component: comp,
		Position:  maps.Clone(pos),
		Duration:  d,
		Err:       err,
	})
}
