package runtime

import (
	"testing"

	"github.com/delmic/odemis-sub008/internal/adapters/sim"
	"github.com/delmic/odemis-sub008/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestResolveSpec(t *testing.T) {
	lens := sim.New("lens-switch", "lens-switch",
		sim.WithAxis("x", domain.AxisDef{Range: &domain.Range{Min: 0, Max: 0.1}}, 0.0),
		sim.WithMetadata(domain.MDFavPosActive, map[string]any{"x": 0.05}),
		sim.WithMetadata("FAV_POS_SCALAR", 0.02),
	)
	polarizer := domain.AxisDef{Choices: []domain.Choice{
		{Key: 0.0, Value: "horizontal"},
		{Key: 1.57, Value: "vertical"},
	}}
	continuous := lens.Axes()["x"]

	tests := []struct {
		name   string
		axis   string
		def    domain.AxisDef
		spec   domain.ValueSpec
		want   any
		wantOK bool
	}{
		{"literal", "x", continuous, domain.Literal(0.01), 0.01, true},
		{"per-axis metadata", "x", continuous, domain.FromMetadata(domain.MDFavPosActive), 0.05, true},
		{"scalar metadata", "x", continuous, domain.FromMetadata("FAV_POS_SCALAR"), 0.02, true},
		{"missing metadata", "x", continuous, domain.FromMetadata(domain.MDFavPosDeactive), nil, false},
		{"metadata without the axis", "y", continuous, domain.FromMetadata(domain.MDFavPosActive), nil, false},
		{"first of falls back", "x", continuous,
			domain.FirstOf(domain.FromMetadata(domain.MDFavPosDeactive), domain.Literal(0.0)), 0.0, true},
		{"first of skips unknown choices", "pol", polarizer,
			domain.FirstOf(domain.Literal("pass-through"), domain.Literal("vertical")), "vertical", true},
		{"first of with nothing usable", "pol", polarizer,
			domain.FirstOf(domain.Literal("pass-through")), nil, false},
		{"power accepts on/off", "power", domain.AxisDef{Choices: []domain.Choice{{Key: 0, Value: "0 W"}}},
			domain.FirstOf(domain.Literal("off")), "off", true},
		{"not mirror", "grating", domain.AxisDef{}, domain.GratingNotMirror(), gratingNotMirror{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := resolveSpec(lens, tt.axis, tt.def, tt.spec)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlan_OneMovePerComponent(t *testing.T) {
	a := sim.New("a", "a")
	b := sim.New("b", "b")

	p := newPlan()
	p.set(b, "x", 1)
	p.set(a, "x", 2)
	assert.False(t, p.add(b, "x", 3))
	assert.True(t, p.add(b, "y", 4))
	p.set(a, "x", 5)

	assert.Equal(t, []string{"b", "a"}, p.order)
	assert.Equal(t, map[string]any{"x": 1, "y": 4}, p.moves["b"])
	assert.Equal(t, map[string]any{"x": 5}, p.moves["a"])
	assert.Equal(t, 2, p.len())
}

func TestHysteresis(t *testing.T) {
	h := newHysteresis()
	assert.True(t, h.remember("filter", "band", 1))
	assert.False(t, h.remember("filter", "band", 0))
	v, ok := h.lookup("filter", "band")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	h.rememberGrating(domain.GratingMemory{Role: "spectrograph", Grating: 2, Wavelength: 550e-9})
	h.clearValues()
	assert.Empty(t, h.entries())
	assert.Len(t, h.gratingEntries(), 1, "grating memories survive the exit restore")

	m, ok := h.recallGrating("spectrograph")
	assert.True(t, ok)
	assert.Equal(t, 2, m.Grating)
	_, ok = h.recallGrating("spectrograph")
	assert.False(t, ok)
}
