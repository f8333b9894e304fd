package dsl

import (
	"testing"

	"github.com/delmic/odemis-sub008/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_SimpleTable(t *testing.T) {
	b := New(domain.FamilySPARC2)

	b.Mode("ar").
		Detector("ccd").
		Active("lens-switch", "x").
		Set("spectrograph", "grating", domain.GratingMirror)

	b.Mode("spectral").
		Detector("spectrometer.*").
		Set("spectrograph", "grating", domain.GratingNotMirrorToken).
		Set("lens-switch", "x", []any{"MD:" + domain.MDFavPosDeactive, 0.0})

	b.Mode("mirror-align").
		Detector("ccd").
		Align()

	table, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, domain.FamilySPARC2, table.Family)
	assert.Equal(t, []string{"ar", "spectral", "mirror-align"}, table.Names())

	ar, ok := table.Lookup("ar")
	require.True(t, ok)
	assert.Equal(t, "ccd", ar.DetectorPattern)
	assert.False(t, ar.Align)
	assert.Equal(t, domain.SpecMetadata, ar.Axes["lens-switch"]["x"].Kind)
	assert.Equal(t, domain.MDFavPosActive, ar.Axes["lens-switch"]["x"].Key)
	assert.Equal(t, domain.Literal(domain.GratingMirror), ar.Axes["spectrograph"]["grating"])

	spectral, _ := table.Lookup("spectral")
	assert.Equal(t, domain.SpecGratingNotMirror, spectral.Axes["spectrograph"]["grating"].Kind)
	alt := spectral.Axes["lens-switch"]["x"]
	require.Equal(t, domain.SpecFirstOf, alt.Kind)
	require.Len(t, alt.Alternatives, 2)
	assert.Equal(t, domain.SpecMetadata, alt.Alternatives[0].Kind)
	assert.Equal(t, 0.0, alt.Alternatives[1].Value)

	assert.True(t, table.IsAlign("mirror-align"))
}

func TestBuilder_ModeIsReused(t *testing.T) {
	b := New(domain.FamilySECOM)
	b.Mode("optical").Detector("ccd")
	b.Mode("optical").Set("filter", "band", "pass-through")

	table, err := b.Build()
	require.NoError(t, err)
	require.Len(t, table.Modes, 1)
	assert.Contains(t, table.Modes[0].Axes, "filter")
}

func TestBuilder_Errors(t *testing.T) {
	t.Run("Missing Detector", func(t *testing.T) {
		b := New(domain.FamilySECOM)
		b.Mode("optical")
		_, err := b.Build()
		assert.ErrorContains(t, err, "missing detector pattern")
	})

	t.Run("Invalid Pattern", func(t *testing.T) {
		b := New(domain.FamilySECOM)
		b.Mode("optical").Detector("ccd(")
		_, err := b.Build()
		assert.ErrorContains(t, err, "invalid detector pattern")
	})

	t.Run("MustBuild Panics", func(t *testing.T) {
		b := New(domain.FamilySECOM)
		b.Mode("optical")
		assert.Panics(t, func() { b.MustBuild() })
	})
}
