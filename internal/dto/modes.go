package dto

// ModeFile is a set of mode definitions overriding or extending a built-in table.
type ModeFile struct {
	Family string     `json:"family" mapstructure:"family"`
	Modes  []ModeSpec `json:"modes" mapstructure:"modes"`
	// Remove lists built-in modes to drop.
	Remove []string `json:"remove" mapstructure:"remove"`
}

// ModeSpec is one mode. Axis values follow the mode file conventions:
// "MD:<key>" reads metadata, lists are alternatives, GRATING_NOT_MIRROR is the sentinel.
type ModeSpec struct {
	Name     string                    `json:"name" mapstructure:"name"`
	Detector string                    `json:"detector" mapstructure:"detector"`
	Align    bool                      `json:"align" mapstructure:"align"`
	Axes     map[string]map[string]any `json:"axes" mapstructure:"axes"`
}
