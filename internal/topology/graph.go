// Package topology holds the snapshot of the instrument: its components and
// the directed "affects" graph between them.
package topology

import (
	"sort"

	"github.com/delmic/odemis-sub008/pkg/domain"
)

// Graph is the read-only affects relation between components.
// Edges may point at names that are not nodes; such edges never match.
type Graph struct {
	edges map[string]map[string]struct{}
}

// Build creates the graph from the components' declared Affects lists.
func Build(components []domain.Component) *Graph {
	g := &Graph{edges: make(map[string]map[string]struct{}, len(components))}
	for _, c := range components {
		set, ok := g.edges[c.Name()]
		if !ok {
			set = make(map[string]struct{})
			g.edges[c.Name()] = set
		}
		for _, name := range c.Affects() {
			set[name] = struct{}{}
		}
	}
	return g
}

// Affects reports whether a walk of affects edges leads from a to b.
// A node always affects itself. Names absent from the graph affect nothing.
func (g *Graph) Affects(a, b string) bool {
	if _, ok := g.edges[a]; !ok {
		return false
	}
	visited := make(map[string]bool)

	var visit func(n string) bool
	visit = func(n string) bool {
		if n == b {
			return true
		}
		if visited[n] {
			return false
		}
		visited[n] = true
		for next := range g.edges[n] {
			if visit(next) {
				return true
			}
		}
		return false
	}
	return visit(a)
}

// Nodes returns the component names, sorted.
func (g *Graph) Nodes() []string {
	nodes := make([]string, 0, len(g.edges))
	for n := range g.edges {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)
	return nodes
}

// Edges returns the names affected directly by node, sorted.
func (g *Graph) Edges(node string) []string {
	out := make([]string, 0, len(g.edges[node]))
	for n := range g.edges[node] {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Path returns the nodes of one affects walk from a to b, or nil.
func (g *Graph) Path(a, b string) []string {
	if _, ok := g.edges[a]; !ok {
		return nil
	}
	visited := make(map[string]bool)
	var path []string

	var visit func(n string) bool
	visit = func(n string) bool {
		path = append(path, n)
		if n == b {
			return true
		}
		if !visited[n] {
			visited[n] = true
			for _, next := range g.Edges(n) {
				if visit(next) {
					return true
				}
			}
		}
		path = path[:len(path)-1]
		return false
	}
	if visit(a) {
		return path
	}
	return nil
}
