package ports

import (
	"context"
	"testing"
	"time"

	"github.com/delmic/odemis-sub008/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	instrument := "contract-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		speed := 1.0
		state := domain.NewPathState(instrument)
		state.LastMode = "mirror-align"
		state.Quality = domain.QualityBest
		state.Stored = []domain.StoredAxis{{Role: "spectrograph", Axis: "slit-in", Value: 100e-6}}
		state.Gratings = []domain.GratingMemory{{Role: "spectrograph", Grating: 2, Wavelength: 550e-9}}
		state.FocusIn = map[string]any{"z": 0.005}
		state.Fan.Speed = &speed

		require.NoError(t, store.Save(ctx, instrument, state), "Save should not return error")

		loaded, err := store.Load(ctx, instrument)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, instrument, loaded.Instrument)
		assert.Equal(t, "mirror-align", loaded.LastMode)
		assert.Equal(t, domain.QualityBest, loaded.Quality)
		require.Len(t, loaded.Stored, 1)
		assert.Equal(t, "slit-in", loaded.Stored[0].Axis)
		// JSON backends read numbers back as float64.
		assert.True(t, domain.SameValue(100e-6, loaded.Stored[0].Value))
		require.Len(t, loaded.Gratings, 1)
		assert.True(t, domain.SameValue(2, loaded.Gratings[0].Grating))
		assert.True(t, domain.SameValue(0.005, loaded.FocusIn["z"]))
		require.NotNil(t, loaded.Fan.Speed)
		assert.Equal(t, 1.0, *loaded.Fan.Speed)
	})

	t.Run("Overwrite", func(t *testing.T) {
		state := domain.NewPathState(instrument)
		state.LastMode = "ar"
		require.NoError(t, store.Save(ctx, instrument, state))

		loaded, err := store.Load(ctx, instrument)
		require.NoError(t, err)
		assert.Equal(t, "ar", loaded.LastMode)
		assert.Empty(t, loaded.Stored)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+instrument)
		assert.ErrorIs(t, err, domain.ErrStateNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, instrument, domain.NewPathState(instrument)))

		require.NoError(t, store.Delete(ctx, instrument), "Delete should not return error")

		_, err := store.Load(ctx, instrument)
		assert.ErrorIs(t, err, domain.ErrStateNotFound, "Load after Delete should return ErrStateNotFound")

		assert.NoError(t, store.Delete(ctx, instrument), "deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := instrument + "-1"
		id2 := instrument + "-2"
		_ = store.Save(ctx, id1, domain.NewPathState(id1))
		_ = store.Save(ctx, id2, domain.NewPathState(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		instruments, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, instruments, id1)
		assert.Contains(t, instruments, id2)
	})
}
