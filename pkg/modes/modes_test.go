package modes_test

import (
	"testing"

	"github.com/delmic/odemis-sub008/pkg/domain"
	"github.com/delmic/odemis-sub008/pkg/modes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForMicroscope(t *testing.T) {
	for role, family := range map[string]domain.Family{
		"sparc":  domain.FamilySPARC,
		"sparc2": domain.FamilySPARC2,
		"secom":  domain.FamilySECOM,
		"delphi": domain.FamilySECOM,
	} {
		table, err := modes.ForMicroscope(role)
		require.NoError(t, err, role)
		assert.Equal(t, family, table.Family)
		assert.NotEmpty(t, table.Modes)
	}

	_, err := modes.ForMicroscope("enzel")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFamily)
}

func TestForFamily_ReturnsCopy(t *testing.T) {
	table, err := modes.ForFamily(domain.FamilySPARC2)
	require.NoError(t, err)
	table.Modes[0].Axes["spectrograph"]["grating"] = domain.Literal("changed")
	table.Modes[0].Name = "changed"

	ar, ok := modes.SPARC2.Lookup(domain.ModeAngleResolved)
	require.True(t, ok)
	assert.Equal(t, domain.Literal(domain.GratingMirror), ar.Axes["spectrograph"]["grating"])
}

func TestSPARC2Table(t *testing.T) {
	table := modes.SPARC2

	assert.Equal(t, domain.ModeAngleResolved, table.Modes[0].Name, "angle resolved has priority for the camera")
	for _, name := range []string{"mirror-align", "lens-align", "fiber-align"} {
		assert.True(t, table.IsAlign(name), name)
	}
	assert.False(t, table.IsAlign(domain.ModeChamberView))
	assert.False(t, table.IsAlign("ar"))

	spectral, ok := table.Lookup("spectral")
	require.True(t, ok)
	assert.Equal(t, domain.GratingNotMirror(), spectral.Axes["spectrograph"]["grating"])
	assert.Equal(t, domain.FromMetadata(domain.MDFavPosDeactive), spectral.Axes["lens-switch"]["x"])

	for _, m := range table.Modes {
		assert.NoError(t, domain.ValidatePattern(m.DetectorPattern), m.Name)
	}
}

func TestPrune(t *testing.T) {
	present := map[string]bool{"ccd": true, "spectrometer": true}
	hasRole := func(pattern string) bool {
		for role := range present {
			if domain.MatchRole(pattern, role) {
				return true
			}
		}
		return false
	}

	table, pruned := modes.Prune(modes.SPARC2, hasRole)
	assert.ElementsMatch(t, []string{"cli", "monochromator"}, pruned)
	_, ok := table.Lookup("cli")
	assert.False(t, ok)
	assert.Equal(t, domain.ModeAngleResolved, table.Modes[0].Name)
	assert.Equal(t, len(modes.SPARC2.Modes)-2, len(table.Modes))
}

func TestMerge(t *testing.T) {
	base := domain.ModeTable{Family: domain.FamilySECOM, Modes: []domain.Mode{
		{Name: "optical", DetectorPattern: "ccd"},
		{Name: "confocal", DetectorPattern: "photo-detector.*"},
		{Name: "fine-align", DetectorPattern: "ccd", Align: true},
	}}
	override := domain.ModeTable{Modes: []domain.Mode{
		{Name: "optical", DetectorPattern: "ccd[0-9]?"},
		{Name: "widefield", DetectorPattern: "ccd"},
	}}

	merged := modes.Merge(base, override, "confocal")
	assert.Equal(t, domain.FamilySECOM, merged.Family)
	assert.Equal(t, []string{"optical", "fine-align", "widefield"}, merged.Names())
	optical, _ := merged.Lookup("optical")
	assert.Equal(t, "ccd[0-9]?", optical.DetectorPattern)
}
