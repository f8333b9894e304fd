package runtime

import (
	"sort"

	"github.com/delmic/odemis-sub008/pkg/domain"
)

// PendingMove is one axis move computed by selector routing.
type PendingMove struct {
	Component domain.Component
	Axis      string
	Value     any
}

// RouteTo computes the selector moves that send the signal towards target.
// Every selector with a position designating target is moved there, and the
// routing continues towards each moved selector. The route found is not
// necessarily the shortest one, and moves are returned even for selectors
// already in position.
func (e *Engine) RouteTo(target string) []PendingMove {
	visited := make(map[string]bool)
	return e.route(target, visited, nil)
}

func (e *Engine) route(target string, visited map[string]bool, moves []PendingMove) []PendingMove {
	if visited[target] {
		return moves
	}
	visited[target] = true

	for _, comp := range e.registry.Actuators() {
		moved := false

		axes := comp.Axes()
		names := make([]string, 0, len(axes))
		for name := range axes {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, axis := range names {
			for _, ch := range axes[axis].Choices {
				if domain.ValueContains(ch.Value, target) {
					moves = append(moves, PendingMove{Component: comp, Axis: axis, Value: ch.Key})
					moved = true
					break
				}
			}
		}

		md := comp.Metadata()
		if dest, ok := md[domain.MDFavPosActiveDest]; ok && domain.ValueContains(dest, target) {
			moves = appendFavourite(moves, comp, md[domain.MDFavPosActive])
			moved = true
		} else if dest, ok := md[domain.MDFavPosDeactiveDest]; ok && domain.ValueContains(dest, target) {
			moves = appendFavourite(moves, comp, md[domain.MDFavPosDeactive])
			moved = true
		}

		if moved {
			moves = e.route(comp.Name(), visited, moves)
		}
	}
	return moves
}

func appendFavourite(moves []PendingMove, comp domain.Component, fav any) []PendingMove {
	pos, ok := fav.(map[string]any)
	if !ok {
		return moves
	}
	axes := make([]string, 0, len(pos))
	for axis := range pos {
		axes = append(axes, axis)
	}
	sort.Strings(axes)
	for _, axis := range axes {
		moves = append(moves, PendingMove{Component: comp, Axis: axis, Value: pos[axis]})
	}
	return moves
}
