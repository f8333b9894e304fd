package runtime_test

import (
	"testing"

	"github.com/delmic/odemis-sub008/internal/adapters/sim"
	"github.com/delmic/odemis-sub008/internal/runtime"
	"github.com/delmic/odemis-sub008/internal/testutils"
	"github.com/delmic/odemis-sub008/internal/topology"
	"github.com/delmic/odemis-sub008/pkg/domain"
	"github.com/delmic/odemis-sub008/pkg/modes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuessMode_SPARC2(t *testing.T) {
	inst := testutils.NewSPARC2()
	eng := newEngine(t, inst)

	tests := []struct {
		name string
		req  domain.Request
		want string
	}{
		{"angle resolved", domain.NewRequest(domain.KindAngleResolved, inst.CCD), "ar"},
		{"angular spectrum", domain.NewRequest(domain.KindAngularSpectrum, inst.CCD), "ek"},
		{"first mode for camera", domain.NewRequest(domain.KindGeneric, inst.CCD), "ar"},
		{"spectrometer", domain.NewRequest(domain.KindGeneric, inst.Spectrometer), "spectral"},
		{"monochromator", domain.NewRequest(domain.KindGeneric, inst.Monochromator), "monochromator"},
		// No fine-align on this family: the detector decides.
		{"overlay falls back", domain.NewRequest(domain.KindOverlay, inst.Spectrometer), "spectral"},
		{"composite", domain.NewComposite(
			domain.NewRequest(domain.KindGeneric, inst.Microscope),
			domain.NewRequest(domain.KindGeneric, inst.Monochromator),
		), "monochromator"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eng.GuessMode(tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGuessMode_Failures(t *testing.T) {
	inst := testutils.NewSPARC2()
	eng := newEngine(t, inst)

	_, err := eng.GuessMode(domain.NewRequest(domain.KindGeneric, nil))
	assert.ErrorIs(t, err, domain.ErrNoModeInferred)

	_, err = eng.GuessMode(domain.NewRequest(domain.KindGeneric, inst.Focus))
	assert.ErrorIs(t, err, domain.ErrNoModeInferred)

	_, err = eng.GuessMode(domain.NewComposite(domain.NewRequest(domain.KindGeneric, inst.Microscope)))
	assert.ErrorIs(t, err, domain.ErrNoModeInferred)
}

func TestGuessMode_AlignmentModesNeverInferred(t *testing.T) {
	cam := sim.NewDetector("cam", "ccd")
	reg := topology.NewRegistry([]domain.Component{cam})
	table := domain.ModeTable{Family: domain.FamilySPARC2, Modes: []domain.Mode{
		{Name: "mirror-align", DetectorPattern: "ccd", Align: true},
	}}
	eng := runtime.NewEngine(reg, table)

	_, err := eng.GuessMode(domain.NewRequest(domain.KindGeneric, cam))
	assert.ErrorIs(t, err, domain.ErrNoModeInferred)
}

func TestGuessMode_OverlayOnSECOM(t *testing.T) {
	cam := sim.NewDetector("camera", "ccd")
	reg := topology.NewRegistry([]domain.Component{cam})
	table, pruned := modes.Prune(modes.SECOM, reg.HasRole)
	assert.Equal(t, []string{"confocal"}, pruned)
	eng := runtime.NewEngine(reg, table)

	got, err := eng.GuessMode(domain.NewRequest(domain.KindOverlay, cam))
	require.NoError(t, err)
	assert.Equal(t, domain.ModeFineAlign, got)

	got, err = eng.GuessMode(domain.NewRequest(domain.KindGeneric, cam))
	require.NoError(t, err)
	assert.Equal(t, "optical", got)
}
