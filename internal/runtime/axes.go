package runtime

import (
	"log/slog"
	"strings"

	"github.com/delmic/odemis-sub008/pkg/domain"
)

// axisKind selects how a resolved value is turned into a position.
type axisKind int

const (
	axisGeneric axisKind = iota
	axisPower
	axisBand
	axisGrating
	axisSlit
)

var axisKinds = map[string]axisKind{
	"power":   axisPower,
	"band":    axisBand,
	"grating": axisGrating,
	"slit-in": axisSlit,
}

func kindOf(axis string) axisKind {
	return axisKinds[axis]
}

// axisChange is one axis of one component being configured for a mode.
type axisChange struct {
	comp      domain.Component
	role      string
	axis      string
	def       domain.AxisDef
	value     any
	mode      domain.Mode
	prevAlign bool
	plan      *plan
	logger    *slog.Logger
}

// axisStrategy returns the position to move the axis to, or false to leave it.
// Strategies may plan moves of other axes of the same component.
type axisStrategy func(e *Engine, c *axisChange) (any, bool)

var axisStrategies = map[axisKind]axisStrategy{
	axisGeneric: (*Engine).configureGeneric,
	axisPower:   (*Engine).configurePower,
	axisBand:    (*Engine).configureBand,
	axisGrating: (*Engine).configureGrating,
	axisSlit:    (*Engine).configureSlit,
}

// configureGeneric maps a symbolic value to the position key of enumerated axes.
func (e *Engine) configureGeneric(c *axisChange) (any, bool) {
	if !c.def.Enumerated() {
		return c.value, true
	}
	key, ok := c.def.KeyFor(c.value)
	if !ok {
		c.logger.Warn("value not available on axis",
			"component", c.comp.Name(), "axis", c.axis, "value", c.value)
		return nil, false
	}
	return key, true
}

// configurePower turns an on/off value into the axis extremes.
func (e *Engine) configurePower(c *axisChange) (any, bool) {
	on, ok := switchState(c.value)
	if !ok {
		return e.configureGeneric(c)
	}
	lo, hi, ok := c.def.Bounds()
	if !ok {
		c.logger.Warn("power axis without numeric bounds", "component", c.comp.Name(), "axis", c.axis)
		return nil, false
	}
	if on {
		return hi, true
	}
	return lo, true
}

// configureBand remembers the current band when an alignment mode is entered.
func (e *Engine) configureBand(c *axisChange) (any, bool) {
	if c.mode.Align && !c.prevAlign {
		if cur, ok := c.comp.Position()[c.axis]; ok && e.store.remember(c.role, c.axis, cur) {
			c.logger.Debug("remembering band", "component", c.comp.Name(), "value", cur)
		}
	}
	return e.configureGeneric(c)
}

// configureSlit remembers the slit opening once while in alignment modes.
func (e *Engine) configureSlit(c *axisChange) (any, bool) {
	if c.mode.Align {
		if cur, ok := c.comp.Position()[c.axis]; ok && e.store.remember(c.role, c.axis, cur) {
			c.logger.Debug("remembering slit", "component", c.comp.Name(), "axis", c.axis, "value", cur)
		}
	}
	return e.configureGeneric(c)
}

// configureGrating handles the mirror position and the not-mirror sentinel.
// Going to the mirror remembers the grating and wavelength in use; the
// not-mirror sentinel brings them back.
func (e *Engine) configureGrating(c *axisChange) (any, bool) {
	pos := c.comp.Position()
	cur := pos[c.axis]
	curName, _ := c.def.ValueOf(cur)

	if _, ok := c.value.(gratingNotMirror); ok {
		if m, ok := e.store.recallGrating(c.role); ok {
			if m.Wavelength != nil {
				c.plan.set(c.comp, "wavelength", m.Wavelength)
			}
			return m.Grating, true
		}
		if cur != nil && !domain.SameValue(curName, domain.GratingMirror) {
			return nil, false
		}
		for _, ch := range c.def.Choices {
			if !domain.SameValue(ch.Value, domain.GratingMirror) {
				return ch.Key, true
			}
		}
		c.logger.Warn("no grating other than the mirror", "component", c.comp.Name())
		return nil, false
	}

	if !domain.SameValue(c.value, domain.GratingMirror) {
		return e.configureGeneric(c)
	}

	if key, ok := c.def.KeyFor(domain.GratingMirror); ok {
		if !domain.SameValue(curName, domain.GratingMirror) {
			e.store.rememberGrating(domain.GratingMemory{Role: c.role, Grating: cur, Wavelength: pos["wavelength"]})
		}
		return key, true
	}

	// No mirror position: use the zero order of the current grating.
	wl, ok := pos["wavelength"]
	if !ok {
		c.logger.Warn("no mirror position and no wavelength axis", "component", c.comp.Name())
		return nil, false
	}
	if f, _ := domain.ToFloat(wl); f != 0 {
		e.store.rememberGrating(domain.GratingMemory{Role: c.role, Grating: cur, Wavelength: wl})
	}
	c.plan.set(c.comp, "wavelength", 0.0)
	return nil, false
}

// switchState interprets binary values ("on"/"off", booleans).
func switchState(v any) (on bool, ok bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		switch strings.ToLower(t) {
		case "on", "true":
			return true, true
		case "off", "false":
			return false, true
		}
	}
	return false, false
}
