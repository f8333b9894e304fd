package runtime

import "github.com/delmic/odemis-sub008/pkg/domain"

// plan accumulates the moves of one path change: one absolute move per
// component, in order of first appearance.
type plan struct {
	order []string
	comps map[string]domain.Component
	moves map[string]map[string]any
}

func newPlan() *plan {
	return &plan{
		comps: make(map[string]domain.Component),
		moves: make(map[string]map[string]any),
	}
}

func (p *plan) entry(c domain.Component) map[string]any {
	name := c.Name()
	pos, ok := p.moves[name]
	if !ok {
		pos = make(map[string]any)
		p.moves[name] = pos
		p.comps[name] = c
		p.order = append(p.order, name)
	}
	return pos
}

// set records the value of an axis, replacing any previous one.
func (p *plan) set(c domain.Component, axis string, v any) {
	p.entry(c)[axis] = v
}

// add records the value of an axis unless one is already planned.
func (p *plan) add(c domain.Component, axis string, v any) bool {
	if p.has(c.Name(), axis) {
		return false
	}
	p.entry(c)[axis] = v
	return true
}

func (p *plan) has(name, axis string) bool {
	_, ok := p.moves[name][axis]
	return ok
}

func (p *plan) len() int {
	return len(p.order)
}
