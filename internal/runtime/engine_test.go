package runtime_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/delmic/odemis-sub008/internal/runtime"
	"github.com/delmic/odemis-sub008/internal/testutils"
	"github.com/delmic/odemis-sub008/internal/topology"
	"github.com/delmic/odemis-sub008/pkg/domain"
	"github.com/delmic/odemis-sub008/pkg/modes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, inst *testutils.SPARC2, opts ...runtime.EngineOption) *runtime.Engine {
	t.Helper()
	reg := topology.NewRegistry(inst.Components())
	table, _ := modes.Prune(modes.SPARC2, reg.HasRole)
	return runtime.NewEngine(reg, table, opts...)
}

func apply(t *testing.T, eng *runtime.Engine, mode string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, eng.Apply(ctx, domain.Target{Mode: mode}))
}

func TestEngine_AngleResolvedWithoutLensMover(t *testing.T) {
	inst := testutils.NewSPARC2(testutils.WithoutLensMover())
	eng := newEngine(t, inst)

	apply(t, eng, "ar")

	assert.Equal(t, map[string]any{"x": 0.05}, testutils.LastMove(inst.LensSwitch))
	assert.Equal(t, map[string]any{"x": 1}, testutils.LastMove(inst.SlitInBig))
	assert.Equal(t, map[string]any{"grating": 1}, testutils.LastMove(inst.Spectrograph))
	assert.Equal(t, map[string]any{"power": 0.0}, testutils.LastMove(inst.ChamberLight))
	// Routing sends the signal to the camera.
	assert.Equal(t, map[string]any{"rx": 0.0}, testutils.LastMove(inst.SpecSelector))

	assert.Empty(t, inst.LensMover.Moves())
	assert.Empty(t, inst.Filter.Moves())
	assert.Empty(t, inst.Focus.Moves())
	assert.Equal(t, "ar", eng.LastMode())
}

func TestEngine_LensMoverUsedWhenPresent(t *testing.T) {
	inst := testutils.NewSPARC2()
	eng := newEngine(t, inst)

	apply(t, eng, "ar")

	assert.Equal(t, map[string]any{"x": 0.004}, testutils.LastMove(inst.LensMover))
}

func TestEngine_SkipsComponentsNotOnThePath(t *testing.T) {
	inst := testutils.NewSPARC2()
	eng := newEngine(t, inst)

	apply(t, eng, "spectral")

	assert.Equal(t, map[string]any{"x": 0.0}, testutils.LastMove(inst.LensSwitch))
	assert.Equal(t, map[string]any{"x": 0}, testutils.LastMove(inst.SlitInBig))
	assert.Equal(t, map[string]any{"rx": 1.5707963267948966}, testutils.LastMove(inst.SpecSelector))
	// The chamber light only reaches the camera.
	assert.Empty(t, inst.ChamberLight.Moves())
	// Already on a real grating: nothing to change.
	assert.Empty(t, inst.Spectrograph.Moves())
}

func TestEngine_UnknownMode(t *testing.T) {
	inst := testutils.NewSPARC2()
	eng := newEngine(t, inst)
	apply(t, eng, "ar")

	err := eng.Apply(context.Background(), domain.Target{Mode: "does-not-exist"})
	assert.ErrorIs(t, err, domain.ErrUnknownMode)
	assert.Equal(t, "ar", eng.LastMode())
}

func TestEngine_AbsentRolesAreIgnored(t *testing.T) {
	inst := testutils.NewSPARC2()
	reg := topology.NewRegistry(inst.Components())

	table := domain.ModeTable{Family: domain.FamilySPARC2, Modes: []domain.Mode{{
		Name:            "ghostly",
		DetectorPattern: "ccd",
		Axes: map[string]map[string]domain.ValueSpec{
			"ghost":       {"x": domain.Literal(1.0)},
			"slit-in-big": {"x": domain.Literal("on")},
		},
	}}}
	eng := runtime.NewEngine(reg, table)

	require.NoError(t, eng.Apply(context.Background(), domain.Target{Mode: "ghostly"}))
	assert.Equal(t, map[string]any{"x": 1}, testutils.LastMove(inst.SlitInBig))
}

func TestEngine_SlitRestoredExactlyOnce(t *testing.T) {
	inst := testutils.NewSPARC2()
	eng := newEngine(t, inst)

	apply(t, eng, "mirror-align")
	assert.Equal(t, 500e-6, inst.Spectrograph.Position()["slit-in"])
	assert.Equal(t, 0, inst.Filter.Position()["band"])

	apply(t, eng, "ar")
	assert.Equal(t, testutils.InitialSlitIn, inst.Spectrograph.Position()["slit-in"])
	assert.Equal(t, testutils.InitialBand, inst.Filter.Position()["band"])

	// Change the slit by hand: a second exit must not bring back the old value.
	inst.Spectrograph.SetPosition(map[string]any{"slit-in": 300e-6})
	inst.ResetMoves()

	apply(t, eng, "spectral")
	for _, mv := range inst.Spectrograph.Moves() {
		assert.NotContains(t, mv, "slit-in")
	}
	assert.Empty(t, inst.Filter.Moves())
	assert.Equal(t, 300e-6, inst.Spectrograph.Position()["slit-in"])
}

func TestEngine_AlignmentToAlignmentKeepsFirstValues(t *testing.T) {
	inst := testutils.NewSPARC2()
	eng := newEngine(t, inst)

	apply(t, eng, "mirror-align")
	apply(t, eng, "lens-align")
	apply(t, eng, "ar")

	assert.Equal(t, testutils.InitialSlitIn, inst.Spectrograph.Position()["slit-in"])
	assert.Equal(t, testutils.InitialBand, inst.Filter.Position()["band"])
}

func TestEngine_GratingMirrorRoundTrip(t *testing.T) {
	inst := testutils.NewSPARC2()
	eng := newEngine(t, inst)

	apply(t, eng, "ar")
	assert.Equal(t, 1, inst.Spectrograph.Position()["grating"])

	apply(t, eng, "spectral")
	assert.Equal(t, map[string]any{"grating": testutils.InitialGrating, "wavelength": testutils.InitialWavelength},
		testutils.LastMove(inst.Spectrograph))
	assert.Equal(t, testutils.InitialGrating, inst.Spectrograph.Position()["grating"])
	assert.Equal(t, testutils.InitialWavelength, inst.Spectrograph.Position()["wavelength"])

	// The memory is consumed.
	inst.ResetMoves()
	apply(t, eng, "monochromator")
	assert.Empty(t, inst.Spectrograph.Moves())
}

func TestEngine_NotMirrorFromMirrorPicksFirstGrating(t *testing.T) {
	inst := testutils.NewSPARC2()
	inst.Spectrograph.SetPosition(map[string]any{"grating": 1})
	eng := newEngine(t, inst)

	apply(t, eng, "spectral")

	assert.Equal(t, map[string]any{"grating": 2}, testutils.LastMove(inst.Spectrograph))
}

func TestEngine_ChamberViewFocus(t *testing.T) {
	inst := testutils.NewSPARC2()
	var issued []string
	eng := newEngine(t, inst, runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnMoveIssued: func(ctx context.Context, e *domain.MoveEvent) {
			issued = append(issued, e.Component)
		},
	}))

	apply(t, eng, "chamber-view")
	assert.Empty(t, inst.Focus.Moves(), "no chamber view focus known yet")

	// The operator focuses on the chamber.
	inst.Focus.SetPosition(map[string]any{"z": 0.005})

	issued = nil
	apply(t, eng, "ar")
	require.NotEmpty(t, issued)
	assert.Equal(t, "focus", issued[0], "focus is restored before any other move")
	assert.Equal(t, testutils.InitialFocus, inst.Focus.Position()["z"])

	issued = nil
	apply(t, eng, "chamber-view")
	require.NotEmpty(t, issued)
	assert.Equal(t, "focus", issued[len(issued)-1], "chamber view focus is restored last")
	assert.Equal(t, 0.005, inst.Focus.Position()["z"])
}

func TestEngine_StateSurvivesRestart(t *testing.T) {
	inst := testutils.NewSPARC2()
	eng := newEngine(t, inst)
	apply(t, eng, "mirror-align")

	st := eng.State("sparc2")
	assert.Equal(t, "mirror-align", st.LastMode)
	assert.Len(t, st.Stored, 2)
	require.Len(t, st.Gratings, 1)
	assert.Equal(t, testutils.InitialGrating, st.Gratings[0].Grating)

	// Stores keep the state as JSON: numbers come back as float64.
	raw, err := json.Marshal(st)
	require.NoError(t, err)
	var decoded domain.PathState
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.IsType(t, float64(0), decoded.Gratings[0].Grating)

	restarted := newEngine(t, inst)
	restarted.Restore(&decoded)
	assert.Equal(t, "mirror-align", restarted.LastMode())
	assert.Equal(t, st.Stored, restarted.State("sparc2").Stored)
	assert.Equal(t, st.Gratings, restarted.State("sparc2").Gratings)

	apply(t, restarted, "spectral")
	assert.Equal(t, testutils.InitialSlitIn, inst.Spectrograph.Position()["slit-in"])
	assert.Equal(t, testutils.InitialGrating, inst.Spectrograph.Position()["grating"])
	assert.Equal(t, testutils.InitialBand, inst.Filter.Position()["band"])
}

func TestEngine_ApplyForRequest(t *testing.T) {
	inst := testutils.NewSPARC2()
	eng := newEngine(t, inst)

	req := domain.NewRequest(domain.KindGeneric, inst.Spectrometer)
	require.NoError(t, eng.Apply(context.Background(), domain.Target{Request: req}))
	assert.Equal(t, "spectral", eng.LastMode())

	err := eng.Apply(context.Background(), domain.Target{Request: req, Mode: "ar"})
	assert.ErrorIs(t, err, domain.ErrConflictingTarget)

	err = eng.Apply(context.Background(), domain.Target{Request: domain.NewRequest(domain.KindGeneric, inst.Microscope)})
	assert.ErrorIs(t, err, domain.ErrNoModeInferred)
}

func TestEngine_ExplicitDetector(t *testing.T) {
	inst := testutils.NewSPARC2()
	eng := newEngine(t, inst)

	// "monochromator" settings, but routed to the spectrometer.
	require.NoError(t, eng.Apply(context.Background(), domain.Target{Mode: "monochromator", Detector: inst.Spectrometer}))
	assert.Equal(t, map[string]any{"rx": 1.5707963267948966}, testutils.LastMove(inst.SpecSelector))
}
