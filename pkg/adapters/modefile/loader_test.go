package modefile_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/delmic/odemis-sub008/pkg/adapters/modefile"
	"github.com/delmic/odemis-sub008/pkg/domain"
	"github.com/delmic/odemis-sub008/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlModes = `
family: sparc2
remove: [cli]
modes:
  - name: ar
    detector: "ccd.*"
    axes:
      lens-switch: {x: "MD:FAV_POS_ACTIVE"}
      spectrograph: {grating: mirror}
      pol-analyzer: {pol: [horizontal, pass-through]}
  - name: fiber-align
    detector: "spectrometer.*"
    align: true
    axes:
      spectrograph: {grating: GRATING_NOT_MIRROR, slit-in: 5.0e-5}
`

const jsonModes = `{
  "family": "secom",
  "modes": [
    {"name": "optical", "detector": "ccd[0-9]?", "axes": {"filter": {"band": 2}}}
  ]
}`

const hclModes = `
family = "sparc2"
remove = ["cli", "monochromator"]

mode "ar" {
  detector = "ccd.*"
  axes = {
    "lens-switch" = { x = "MD:FAV_POS_ACTIVE" }
    spectrograph  = { grating = "mirror" }
    "pol-analyzer" = { pol = ["horizontal", "pass-through"] }
  }
}

mode "fiber-align" {
  detector = "spectrometer.*"
  align    = true
  axes = {
    spectrograph = { grating = "GRATING_NOT_MIRROR", "slit-in" = 5e-5 }
    filter       = { band = 1 }
  }
}
`

func checkSPARC2(t *testing.T, o *ports.ModeOverrides) {
	t.Helper()
	assert.Equal(t, domain.FamilySPARC2, o.Family)
	assert.Equal(t, []string{"ar", "fiber-align"}, o.Table.Names())

	ar, ok := o.Table.Lookup("ar")
	require.True(t, ok)
	assert.Equal(t, "ccd.*", ar.DetectorPattern)
	assert.False(t, ar.Align)
	assert.Equal(t, domain.FromMetadata(domain.MDFavPosActive), ar.Axes["lens-switch"]["x"])
	assert.Equal(t, domain.Literal("mirror"), ar.Axes["spectrograph"]["grating"])
	assert.Equal(t, domain.FirstOf(domain.Literal("horizontal"), domain.Literal("pass-through")),
		ar.Axes["pol-analyzer"]["pol"])

	fa, ok := o.Table.Lookup("fiber-align")
	require.True(t, ok)
	assert.True(t, fa.Align)
	assert.Equal(t, domain.GratingNotMirror(), fa.Axes["spectrograph"]["grating"])
	assert.Equal(t, domain.Literal(5e-5), fa.Axes["spectrograph"]["slit-in"])
}

func TestParse_YAML(t *testing.T) {
	o, err := modefile.Parse("modes.yaml", []byte(yamlModes))
	require.NoError(t, err)
	checkSPARC2(t, o)
	assert.Equal(t, []string{"cli"}, o.Remove)
}

func TestParse_HCL(t *testing.T) {
	o, err := modefile.Parse("modes.hcl", []byte(hclModes))
	require.NoError(t, err)
	checkSPARC2(t, o)
	assert.Equal(t, []string{"cli", "monochromator"}, o.Remove)

	fa, _ := o.Table.Lookup("fiber-align")
	assert.Equal(t, domain.Literal(1), fa.Axes["filter"]["band"], "whole numbers stay integers")
}

func TestParse_JSON(t *testing.T) {
	o, err := modefile.Parse("modes.json", []byte(jsonModes))
	require.NoError(t, err)
	assert.Equal(t, domain.FamilySECOM, o.Family)

	optical, ok := o.Table.Lookup("optical")
	require.True(t, ok)
	assert.Equal(t, domain.Literal(2.0), optical.Axes["filter"]["band"])
}

func TestParse_Errors(t *testing.T) {
	tests := map[string]struct {
		name string
		data string
	}{
		"unknown format":   {"modes.toml", "x = 1"},
		"bad yaml":         {"modes.yaml", "modes: [\n"},
		"unknown field":    {"modes.yaml", "modez: []\n"},
		"missing detector": {"modes.yaml", "modes:\n  - name: ar\n"},
		"bad pattern":      {"modes.json", `{"modes": [{"name": "ar", "detector": "ccd["}]}`},
		"no name":          {"modes.json", `{"modes": [{"detector": "ccd"}]}`},
		"hcl syntax":       {"modes.hcl", "mode \"ar\" {"},
		"hcl no detector":  {"modes.hcl", "mode \"ar\" {}\n"},
		"hcl bad axes":     {"modes.hcl", "mode \"ar\" {\n  detector = \"ccd\"\n  axes = { filter = 1 }\n}\n"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := modefile.Parse(tt.name, []byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modes.yml")
	require.NoError(t, os.WriteFile(path, []byte(yamlModes), 0o644))

	var loader ports.ModeLoader = modefile.New(path)
	o, err := loader.Load(context.Background())
	require.NoError(t, err)
	checkSPARC2(t, o)

	_, err = modefile.New(filepath.Join(t.TempDir(), "absent.yaml")).Load(context.Background())
	assert.Error(t, err)
}
