package domain

import (
	"context"
	"math"
)

// Future is the handle returned by a hardware move.
type Future interface {
	// Wait blocks until the move completes or ctx is done.
	Wait(ctx context.Context) error
}

// Component is an actuator or detector provided by the hardware layer.
// The path manager only holds references to components; it never creates them.
type Component interface {
	Name() string
	// Role returns the functional role of the component, or "" if it has none.
	Role() string
	// Axes returns the movable axes. Detectors have none.
	Axes() map[string]AxisDef
	// Position returns a snapshot of the current axis values.
	Position() map[string]any
	// Affects lists the names of the components this one's output reaches.
	Affects() []string
	Metadata() map[string]any
	// MoveAbs requests an absolute move of several axes at once.
	MoveAbs(ctx context.Context, pos map[string]any) Future
}

// Referencer is implemented by actuators whose axes need homing.
type Referencer interface {
	Referenced() map[string]bool
}

// Cooler is implemented by cameras with a cooling fan and a regulated sensor temperature.
type Cooler interface {
	FanSpeed() float64
	SetFanSpeed(speed float64) error
	TargetTemperature() float64
	SetTargetTemperature(temp float64) error
	Temperature() float64
	// TargetTemperatureDef describes the accepted target temperatures.
	TargetTemperatureDef() AxisDef
}

// Range is a continuous interval of accepted axis values.
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Choice is one enumerated position of an axis: the key sent to the hardware
// and the symbolic value it stands for (a name, a band, a list of destinations).
type Choice struct {
	Key   any `json:"key" yaml:"key"`
	Value any `json:"value" yaml:"value"`
}

// AxisDef describes one axis. Either Range or Choices is set.
type AxisDef struct {
	Range   *Range   `json:"range,omitempty" yaml:"range,omitempty"`
	Choices []Choice `json:"choices,omitempty" yaml:"choices,omitempty"`
	Unit    string   `json:"unit,omitempty" yaml:"unit,omitempty"`
}

// Enumerated reports whether the axis has a choice table.
func (a AxisDef) Enumerated() bool {
	return len(a.Choices) > 0
}

// Continuous reports whether the axis accepts any value in a range.
func (a AxisDef) Continuous() bool {
	return a.Range != nil && len(a.Choices) == 0
}

// KeyFor maps a symbolic value to the position key of the axis.
// A value that already is one of the keys is returned unchanged.
func (a AxisDef) KeyFor(value any) (any, bool) {
	for _, c := range a.Choices {
		if SameValue(c.Value, value) {
			return c.Key, true
		}
	}
	for _, c := range a.Choices {
		if SameValue(c.Key, value) {
			return c.Key, true
		}
	}
	return nil, false
}

// ValueOf returns the symbolic value of a position key.
func (a AxisDef) ValueOf(key any) (any, bool) {
	for _, c := range a.Choices {
		if SameValue(c.Key, key) {
			return c.Value, true
		}
	}
	return nil, false
}

// Accepts reports whether value is a valid literal for the axis.
func (a AxisDef) Accepts(value any) bool {
	if a.Continuous() {
		return true
	}
	_, ok := a.KeyFor(value)
	return ok
}

// Bounds returns the lowest and highest value the axis accepts.
// For enumerated axes the numeric keys are used.
func (a AxisDef) Bounds() (lo, hi float64, ok bool) {
	if a.Range != nil {
		return a.Range.Min, a.Range.Max, true
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, c := range a.Choices {
		f, isNum := toFloat(c.Key)
		if !isNum {
			continue
		}
		lo = math.Min(lo, f)
		hi = math.Max(hi, f)
		ok = true
	}
	return lo, hi, ok
}

// Clip returns the accepted value closest to v.
func (a AxisDef) Clip(v float64) float64 {
	if a.Range != nil {
		return math.Max(a.Range.Min, math.Min(a.Range.Max, v))
	}
	best, found := v, false
	for _, c := range a.Choices {
		f, isNum := toFloat(c.Key)
		if !isNum {
			continue
		}
		if !found || math.Abs(f-v) < math.Abs(best-v) {
			best, found = f, true
		}
	}
	return best
}
