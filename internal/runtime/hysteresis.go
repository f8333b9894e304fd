package runtime

import (
	"sort"

	"github.com/delmic/odemis-sub008/pkg/domain"
)

type storeKey struct {
	role string
	axis string
}

// hysteresis remembers axis values displaced to enter an alignment mode.
// Grating memories are kept apart: they are consumed by the not-mirror
// selection, not by the exit restore.
type hysteresis struct {
	values   map[storeKey]any
	gratings map[string]domain.GratingMemory
}

func newHysteresis() *hysteresis {
	return &hysteresis{
		values:   make(map[storeKey]any),
		gratings: make(map[string]domain.GratingMemory),
	}
}

// remember stores v unless a value is already stored for the axis.
func (h *hysteresis) remember(role, axis string, v any) bool {
	k := storeKey{role, axis}
	if _, ok := h.values[k]; ok {
		return false
	}
	h.values[k] = v
	return true
}

func (h *hysteresis) lookup(role, axis string) (any, bool) {
	v, ok := h.values[storeKey{role, axis}]
	return v, ok
}

// entries returns the stored axis values sorted by role then axis.
func (h *hysteresis) entries() []domain.StoredAxis {
	out := make([]domain.StoredAxis, 0, len(h.values))
	for k, v := range h.values {
		out = append(out, domain.StoredAxis{Role: k.role, Axis: k.axis, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Role != out[j].Role {
			return out[i].Role < out[j].Role
		}
		return out[i].Axis < out[j].Axis
	})
	return out
}

func (h *hysteresis) clearValues() {
	clear(h.values)
}

func (h *hysteresis) rememberGrating(m domain.GratingMemory) {
	h.gratings[m.Role] = m
}

// recallGrating returns and forgets the grating memory of a role.
func (h *hysteresis) recallGrating(role string) (domain.GratingMemory, bool) {
	m, ok := h.gratings[role]
	if ok {
		delete(h.gratings, role)
	}
	return m, ok
}

func (h *hysteresis) gratingEntries() []domain.GratingMemory {
	out := make([]domain.GratingMemory, 0, len(h.gratings))
	for _, m := range h.gratings {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Role < out[j].Role })
	return out
}

func (h *hysteresis) load(stored []domain.StoredAxis, gratings []domain.GratingMemory) {
	clear(h.values)
	clear(h.gratings)
	for _, s := range stored {
		h.values[storeKey{s.Role, s.Axis}] = s.Value
	}
	for _, g := range gratings {
		h.gratings[g.Role] = g
	}
}
