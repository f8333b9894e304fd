package runtime_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/delmic/odemis-sub008/internal/logging"
	"github.com/delmic/odemis-sub008/internal/runtime"
	"github.com/delmic/odemis-sub008/internal/testutils"
	"github.com/delmic/odemis-sub008/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastFan = runtime.FanPolicy{Poll: time.Millisecond, Timeout: 50 * time.Millisecond}

func TestFan_StoppedForBestQualityOnCamera(t *testing.T) {
	inst := testutils.NewSPARC2()
	eng := newEngine(t, inst, runtime.WithFanPolicy(fastFan))

	eng.SetQuality(domain.QualityBest)
	apply(t, eng, "ar")

	assert.Equal(t, 0.0, inst.CCD.FanSpeed())
	assert.Equal(t, 25.0, inst.CCD.TargetTemperature())

	st := eng.State("sparc2")
	require.NotNil(t, st.Fan.Speed)
	require.NotNil(t, st.Fan.Temperature)
	assert.Equal(t, 1.0, *st.Fan.Speed)
	assert.Equal(t, -60.0, *st.Fan.Temperature)
	assert.Equal(t, domain.QualityBest, st.Quality)

	eng.SetQuality(domain.QualityFast)
	apply(t, eng, "ar")

	assert.Equal(t, 1.0, inst.CCD.FanSpeed())
	assert.Equal(t, -60.0, inst.CCD.TargetTemperature())
	assert.Equal(t, -60.0, inst.CCD.Temperature())
}

func TestFan_KeptForOtherDetectors(t *testing.T) {
	inst := testutils.NewSPARC2()
	eng := newEngine(t, inst, runtime.WithFanPolicy(fastFan))

	eng.SetQuality(domain.QualityBest)
	apply(t, eng, "spectral")

	assert.Equal(t, 1.0, inst.CCD.FanSpeed())
	assert.Equal(t, -60.0, inst.CCD.TargetTemperature())
}

func TestFan_ReenabledWhenSwitchingDetector(t *testing.T) {
	inst := testutils.NewSPARC2()
	eng := newEngine(t, inst, runtime.WithFanPolicy(fastFan), runtime.WithQuality(domain.QualityBest))

	apply(t, eng, "ar")
	assert.Equal(t, 0.0, inst.CCD.FanSpeed())

	apply(t, eng, "spectral")
	assert.Equal(t, 1.0, inst.CCD.FanSpeed())
}

func TestFan_WaitTimesOut(t *testing.T) {
	var buf bytes.Buffer
	inst := testutils.NewSPARC2()
	eng := newEngine(t, inst,
		runtime.WithFanPolicy(fastFan),
		runtime.WithLogger(logging.NewWithFormat(&buf, slog.LevelDebug, "text")),
	)

	eng.SetQuality(domain.QualityBest)
	apply(t, eng, "ar")
	// The sensor warms up to ambient while the fan is stopped.
	assert.Equal(t, 25.0, inst.CCD.Temperature())
	inst.CCD.SetCoolingRate(0.1)

	eng.SetQuality(domain.QualityFast)
	start := time.Now()
	require.NoError(t, eng.Apply(context.Background(), domain.Target{Mode: "ar"}))

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Greater(t, inst.CCD.Temperature(), -50.0)
	assert.Contains(t, buf.String(), "camera temperature not reached")
}

func TestFan_StateRestoredAfterRestart(t *testing.T) {
	inst := testutils.NewSPARC2()
	eng := newEngine(t, inst, runtime.WithFanPolicy(fastFan), runtime.WithQuality(domain.QualityBest))
	apply(t, eng, "ar")
	st := eng.State("sparc2")

	restarted := newEngine(t, inst, runtime.WithFanPolicy(fastFan))
	restarted.Restore(st)
	assert.Equal(t, domain.QualityBest, restarted.Quality())

	restarted.SetQuality(domain.QualityFast)
	apply(t, restarted, "ar")
	assert.Equal(t, 1.0, inst.CCD.FanSpeed())
	assert.Equal(t, -60.0, inst.CCD.TargetTemperature())
}

func TestFan_StartedAtPolicySpeedWhenNeverSaved(t *testing.T) {
	inst := testutils.NewSPARC2()
	policy := fastFan
	policy.Speed = 0.5
	eng := newEngine(t, inst, runtime.WithFanPolicy(policy), runtime.WithQuality(domain.QualityBest))

	// Stopped outside the engine: no speed was saved.
	require.NoError(t, inst.CCD.SetFanSpeed(0))
	apply(t, eng, "spectral")
	assert.Equal(t, 0.5, inst.CCD.FanSpeed())
}
