package modes

import (
	"math"

	"github.com/delmic/odemis-sub008/pkg/domain"
	"github.com/delmic/odemis-sub008/pkg/dsl"
)

// SPARC is the mode table of the first generation cathodoluminescence system.
// Its selectors may lack favourite positions, so each has a fallback angle.
var SPARC = sparcTable()

func sparcTable() domain.ModeTable {
	on := []any{domain.MetadataPrefix + domain.MDFavPosActive, math.Pi / 2}
	off := []any{domain.MetadataPrefix + domain.MDFavPosDeactive, 0.0}

	b := dsl.New(domain.FamilySPARC)

	b.Mode(domain.ModeAngleResolved).
		Detector("ccd").
		Set("lens-switch", "rx", on).
		Set("ar-spec-selector", "rx", on).
		Set("ar-det-selector", "rx", on)

	b.Mode("spectral").
		Detector("spectrometer").
		Set("lens-switch", "rx", off).
		Set("ar-spec-selector", "rx", off).
		Set("spec-det-selector", "rx", off)

	b.Mode("cli").
		Detector("cl-detector").
		Set("lens-switch", "rx", off).
		Set("ar-spec-selector", "rx", off)

	b.Mode("monochromator").
		Detector("monochromator").
		Set("lens-switch", "rx", off).
		Set("ar-spec-selector", "rx", off).
		Set("spec-det-selector", "rx", on).
		Set("spectrograph", "grating", domain.GratingNotMirrorToken)

	b.Mode("mirror-align").
		Detector("ccd").
		Align().
		Set("lens-switch", "rx", off).
		Set("ar-spec-selector", "rx", on).
		Set("ar-det-selector", "rx", on).
		Set("filter", "band", "pass-through")

	b.Mode("fiber-align").
		Detector("spectrometer").
		Align().
		Set("lens-switch", "rx", off).
		Set("ar-spec-selector", "rx", off).
		Set("spec-det-selector", "rx", off).
		Set("filter", "band", "pass-through")

	return b.MustBuild()
}
