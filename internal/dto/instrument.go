package dto

// InstrumentFile is the description of a simulated instrument.
// It uses "mapstructure" tags so YAML and JSON documents decode the same way.
type InstrumentFile struct {
	Name       string          `json:"name" mapstructure:"name"`
	Components []ComponentSpec `json:"components" mapstructure:"components"`
}

// ComponentSpec describes one component of the instrument.
type ComponentSpec struct {
	Name     string              `json:"name" mapstructure:"name"`
	Role     string              `json:"role" mapstructure:"role"`
	Affects  []string            `json:"affects" mapstructure:"affects"`
	Axes     map[string]AxisSpec `json:"axes" mapstructure:"axes"`
	Position map[string]any      `json:"position" mapstructure:"position"`
	Metadata map[string]any      `json:"metadata" mapstructure:"metadata"`

	// Unreferenced lists axes that report as not homed.
	Unreferenced []string `json:"unreferenced" mapstructure:"unreferenced"`

	// Simulation knobs
	MoveDelay string      `json:"move_delay" mapstructure:"move_delay"`
	Cooler    *CoolerSpec `json:"cooler" mapstructure:"cooler"`
}

// AxisSpec is either a range or a list of choices.
type AxisSpec struct {
	Range   []float64    `json:"range" mapstructure:"range"`
	Choices []ChoiceSpec `json:"choices" mapstructure:"choices"`
	Unit    string       `json:"unit" mapstructure:"unit"`
}

type ChoiceSpec struct {
	Key   any `json:"key" mapstructure:"key"`
	Value any `json:"value" mapstructure:"value"`
}

// CoolerSpec configures the fan and temperature regulation of a camera.
type CoolerSpec struct {
	FanSpeed          float64   `json:"fan_speed" mapstructure:"fan_speed"`
	TargetTemperature float64   `json:"target_temperature" mapstructure:"target_temperature"`
	Temperature       float64   `json:"temperature" mapstructure:"temperature"`
	TemperatureRange  []float64 `json:"temperature_range" mapstructure:"temperature_range"`
	TemperatureSteps  []float64 `json:"temperature_steps" mapstructure:"temperature_steps"`
	// Rate is the temperature change per reading, in degrees.
	Rate float64 `json:"rate" mapstructure:"rate"`
}
