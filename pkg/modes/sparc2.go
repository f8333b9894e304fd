package modes

import (
	"github.com/delmic/odemis-sub008/pkg/domain"
	"github.com/delmic/odemis-sub008/pkg/dsl"
)

// SPARC2 is the mode table of the second generation cathodoluminescence system.
var SPARC2 = sparc2Table()

func sparc2Table() domain.ModeTable {
	b := dsl.New(domain.FamilySPARC2)

	b.Mode(domain.ModeAngleResolved).
		Detector("ccd.*").
		Active("lens-mover", "x").
		Active("lens-switch", "x").
		Set("slit-in-big", "x", "on").
		Set("spectrograph", "grating", domain.GratingMirror).
		Set("cl-det-selector", "x", "off").
		Set("chamber-light", "power", "off").
		Set("pol-analyzer", "pol", "pass-through")

	b.Mode("cli").
		Detector("cl-detector").
		Active("lens-mover", "x").
		Active("lens-switch", "x").
		Set("cl-det-selector", "x", "on").
		Set("chamber-light", "power", "off")

	b.Mode("spectral").
		Detector("spectrometer.*").
		Active("lens-mover", "x").
		Deactive("lens-switch", "x").
		Set("slit-in-big", "x", "off").
		Set("spectrograph", "grating", domain.GratingNotMirrorToken).
		Set("cl-det-selector", "x", "off").
		Set("chamber-light", "power", "off")

	b.Mode("monochromator").
		Detector("monochromator").
		Active("lens-mover", "x").
		Deactive("lens-switch", "x").
		Set("slit-in-big", "x", "off").
		Set("spectrograph", "grating", domain.GratingNotMirrorToken).
		Set("chamber-light", "power", "off")

	b.Mode(domain.ModeAngularSpectrum).
		Detector("ccd.*").
		Active("lens-mover", "x").
		Active("lens-switch", "x").
		Set("slit-in-big", "x", "off").
		Set("spectrograph", "grating", domain.GratingNotMirrorToken).
		Set("chamber-light", "power", "off")

	b.Mode("mirror-align").
		Detector("ccd.*").
		Align().
		Deactive("lens-switch", "x").
		Set("slit-in-big", "x", "on").
		Set("spectrograph", "grating", domain.GratingMirror).
		Set("spectrograph", "slit-in", 500e-6).
		Set("filter", "band", "pass-through").
		Set("chamber-light", "power", "off")

	b.Mode("lens-align").
		Detector("ccd.*").
		Align().
		Active("lens-mover", "x").
		Active("lens-switch", "x").
		Set("slit-in-big", "x", "on").
		Set("spectrograph", "grating", domain.GratingMirror).
		Set("spectrograph", "slit-in", 500e-6).
		Set("filter", "band", "pass-through").
		Set("chamber-light", "power", "off")

	b.Mode("fiber-align").
		Detector("spectrometer.*").
		Align().
		Deactive("lens-switch", "x").
		Set("slit-in-big", "x", "off").
		Set("spectrograph", "grating", domain.GratingNotMirrorToken).
		Set("spectrograph", "slit-in", 50e-6).
		Set("filter", "band", "pass-through").
		Set("chamber-light", "power", "off")

	b.Mode(domain.ModeChamberView).
		Detector("ccd.*").
		Deactive("lens-switch", "x").
		Set("slit-in-big", "x", "on").
		Set("spectrograph", "grating", domain.GratingMirror).
		Set("filter", "band", "pass-through").
		Set("chamber-light", "power", "on")

	return b.MustBuild()
}
