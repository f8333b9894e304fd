package runtime

import (
	"context"
	"maps"

	"github.com/delmic/odemis-sub008/pkg/domain"
)

// focusRole is the role of the focus actuator moved around chamber-view.
const focusRole = "focus"

// leaveChamberView keeps the focus used in chamber-view and goes back to the
// focus recorded when chamber-view was entered.
func (e *Engine) leaveChamberView(ctx context.Context) error {
	focus, err := e.registry.ByRole(focusRole)
	if err != nil {
		return nil
	}
	e.focusIn = maps.Clone(focus.Position())
	if e.focusOut == nil {
		return nil
	}
	e.logger.Debug("restoring focus after chamber view", "position", e.focusOut)
	return e.moveNow(ctx, focus, maps.Clone(e.focusOut))
}

// enterChamberView records the current focus and goes to the focus last used in chamber-view.
func (e *Engine) enterChamberView(ctx context.Context) error {
	focus, err := e.registry.ByRole(focusRole)
	if err != nil {
		return nil
	}
	e.focusOut = maps.Clone(focus.Position())
	if e.focusIn == nil {
		return nil
	}
	e.logger.Debug("restoring chamber view focus", "position", e.focusIn)
	return e.moveNow(ctx, focus, maps.Clone(e.focusIn))
}

// moveNow issues one move and waits for it.
func (e *Engine) moveNow(ctx context.Context, comp domain.Component, pos map[string]any) error {
	p := newPlan()
	for axis, v := range pos {
		p.set(comp, axis, v)
	}
	return e.execute(ctx, p, e.logger)
}
