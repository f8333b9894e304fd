package topology

import (
	"fmt"

	"github.com/delmic/odemis-sub008/pkg/domain"
)

// Registry is the snapshot of the instrument components taken at start-up.
// Lookups run over the cached snapshot; hardware changes after start-up are not seen.
type Registry struct {
	components []domain.Component
	byName     map[string]domain.Component
	graph      *Graph
}

// NewRegistry snapshots the components and builds their affects graph.
func NewRegistry(components []domain.Component) *Registry {
	r := &Registry{
		components: append([]domain.Component(nil), components...),
		byName:     make(map[string]domain.Component, len(components)),
	}
	for _, c := range r.components {
		r.byName[c.Name()] = c
	}
	r.graph = Build(r.components)
	return r
}

// All returns the components in snapshot order.
func (r *Registry) All() []domain.Component {
	return r.components
}

// Graph returns the affects graph.
func (r *Registry) Graph() *Graph {
	return r.graph
}

// ByName returns the component with the given name.
func (r *Registry) ByName(name string) (domain.Component, error) {
	if c, ok := r.byName[name]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: name %q", domain.ErrComponentNotFound, name)
}

// ByRole returns the first component, in snapshot order, whose role fully matches pattern.
func (r *Registry) ByRole(pattern string) (domain.Component, error) {
	for _, c := range r.components {
		if domain.MatchRole(pattern, c.Role()) {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: role %q", domain.ErrComponentNotFound, pattern)
}

// HasRole reports whether any component matches the role pattern.
func (r *Registry) HasRole(pattern string) bool {
	_, err := r.ByRole(pattern)
	return err == nil
}

// Actuators returns the components with at least one axis.
func (r *Registry) Actuators() []domain.Component {
	var out []domain.Component
	for _, c := range r.components {
		if len(c.Axes()) > 0 {
			out = append(out, c)
		}
	}
	return out
}
