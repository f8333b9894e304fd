package testutils

import (
	"math"

	"github.com/delmic/odemis-sub008/internal/adapters/sim"
	"github.com/delmic/odemis-sub008/pkg/domain"
)

// SPARC2 is a simulated SPARC2 instrument with direct access to each component.
//
//	filter, lens-mover -> lens-switch -> slit-in-big -> spectrograph -> spec-det-selector -> ccd | spectrometer | monochromator
//	chamber-light -> ccd
//	focus -> ccd, spectrometer
type SPARC2 struct {
	Microscope    *sim.Component
	Filter        *sim.Component
	LensMover     *sim.Component
	LensSwitch    *sim.Component
	SlitInBig     *sim.Component
	Spectrograph  *sim.Component
	SpecSelector  *sim.Component
	ChamberLight  *sim.Component
	Focus         *sim.Component
	CCD           *sim.Camera
	Spectrometer  *sim.Component
	Monochromator *sim.Component

	withoutLensMover bool
}

// SPARC2Option customizes the simulated instrument.
type SPARC2Option func(*SPARC2)

// WithoutLensMover builds the instrument without the lens-mover component.
func WithoutLensMover() SPARC2Option {
	return func(s *SPARC2) {
		s.withoutLensMover = true
	}
}

// Initial positions of the simulated SPARC2.
const (
	InitialGrating    = 2
	InitialWavelength = 550e-9
	InitialSlitIn     = 100e-6
	InitialBand       = 1
	InitialFocus      = 0.001
)

// NewSPARC2 builds the simulated instrument.
func NewSPARC2(opts ...SPARC2Option) *SPARC2 {
	s := &SPARC2{}
	for _, opt := range opts {
		opt(s)
	}

	s.Microscope = sim.NewDetector("sparc2", "sparc2")
	s.Filter = sim.New("filter", "filter",
		sim.WithAxis("band", domain.AxisDef{Choices: []domain.Choice{
			{Key: 0, Value: "pass-through"},
			{Key: 1, Value: []any{500e-9, 550e-9}},
		}}, InitialBand),
		sim.WithAffects("lens-switch"),
	)
	s.LensMover = sim.New("lens-mover", "lens-mover",
		sim.WithAxis("x", domain.AxisDef{Range: &domain.Range{Min: 0, Max: 0.01}}, 0.0),
		sim.WithMetadata(domain.MDFavPosActive, map[string]any{"x": 0.004}),
		sim.WithAffects("lens-switch"),
	)
	s.LensSwitch = sim.New("lens-switch", "lens-switch",
		sim.WithAxis("x", domain.AxisDef{Range: &domain.Range{Min: 0, Max: 0.1}}, 0.0),
		sim.WithMetadata(domain.MDFavPosActive, map[string]any{"x": 0.05}),
		sim.WithMetadata(domain.MDFavPosDeactive, map[string]any{"x": 0.0}),
		sim.WithAffects("slit-in-big"),
	)
	s.SlitInBig = sim.New("slit-in-big", "slit-in-big",
		sim.WithAxis("x", domain.AxisDef{Choices: []domain.Choice{
			{Key: 0, Value: "off"},
			{Key: 1, Value: "on"},
		}}, 0),
		sim.WithAffects("spectrograph"),
	)
	s.Spectrograph = sim.New("spectrograph", "spectrograph",
		sim.WithAxis("grating", domain.AxisDef{Choices: []domain.Choice{
			{Key: 1, Value: domain.GratingMirror},
			{Key: 2, Value: "300 l/mm"},
			{Key: 3, Value: "600 l/mm"},
		}}, InitialGrating),
		sim.WithAxis("wavelength", domain.AxisDef{Range: &domain.Range{Min: 0, Max: 2e-6}}, InitialWavelength),
		sim.WithAxis("slit-in", domain.AxisDef{Range: &domain.Range{Min: 0, Max: 0.002}}, InitialSlitIn),
		sim.WithAffects("spec-det-selector"),
	)
	s.SpecSelector = sim.New("spec-det-selector", "spec-det-selector",
		sim.WithAxis("rx", domain.AxisDef{Choices: []domain.Choice{
			{Key: 0.0, Value: []any{"ccd"}},
			{Key: math.Pi / 2, Value: []any{"spectrometer"}},
			{Key: math.Pi, Value: []any{"monochromator"}},
		}}, 0.0),
		sim.WithAffects("ccd", "spectrometer", "monochromator"),
	)
	s.ChamberLight = sim.New("chamber-light", "chamber-light",
		sim.WithAxis("power", domain.AxisDef{Range: &domain.Range{Min: 0, Max: 10}}, 0.0),
		sim.WithAffects("ccd"),
	)
	s.Focus = sim.New("focus", "focus",
		sim.WithAxis("z", domain.AxisDef{Range: &domain.Range{Min: 0, Max: 0.01}}, InitialFocus),
		sim.WithAffects("ccd", "spectrometer"),
	)
	s.CCD = sim.NewCamera("ccd", "ccd", 1, -60, domain.AxisDef{Range: &domain.Range{Min: -80, Max: 25}})
	s.Spectrometer = sim.NewDetector("spectrometer", "spectrometer")
	s.Monochromator = sim.NewDetector("monochromator", "monochromator")
	return s
}

// Components returns every component of the instrument.
func (s *SPARC2) Components() []domain.Component {
	out := []domain.Component{s.Microscope, s.Filter}
	if !s.withoutLensMover {
		out = append(out, s.LensMover)
	}
	return append(out,
		s.LensSwitch, s.SlitInBig, s.Spectrograph, s.SpecSelector,
		s.ChamberLight, s.Focus, s.CCD, s.Spectrometer, s.Monochromator,
	)
}

// Actuators returns the components that can move.
func (s *SPARC2) Actuators() []*sim.Component {
	out := []*sim.Component{s.Filter}
	if !s.withoutLensMover {
		out = append(out, s.LensMover)
	}
	return append(out, s.LensSwitch, s.SlitInBig, s.Spectrograph, s.SpecSelector, s.ChamberLight, s.Focus)
}

// ResetMoves forgets the moves recorded by every actuator.
func (s *SPARC2) ResetMoves() {
	for _, a := range s.Actuators() {
		a.ResetMoves()
	}
}

// LastMove returns the most recent move of c, or nil.
func LastMove(c *sim.Component) map[string]any {
	moves := c.Moves()
	if len(moves) == 0 {
		return nil
	}
	return moves[len(moves)-1]
}
