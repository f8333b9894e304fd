package sim

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/delmic/odemis-sub008/internal/dto"
	"github.com/delmic/odemis-sub008/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// microscopeRoles are the roles identifying the instrument itself.
var microscopeRoles = []string{"sparc", "sparc2", "secom", "delphi"}

// Instrument is a complete simulated microscope.
type Instrument struct {
	Name       string
	Components []domain.Component
}

// Microscope returns the component representing the instrument itself.
func (i *Instrument) Microscope() (domain.Component, error) {
	for _, c := range i.Components {
		for _, r := range microscopeRoles {
			if c.Role() == r {
				return c, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: no microscope component in %q", domain.ErrComponentNotFound, i.Name)
}

// Lookup returns a component by name.
func (i *Instrument) Lookup(name string) (domain.Component, error) {
	for _, c := range i.Components {
		if c.Name() == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: name %q", domain.ErrComponentNotFound, name)
}

// LoadInstrument reads an instrument description (YAML or JSON).
func LoadInstrument(path string) (*Instrument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read instrument file: %w", err)
	}

	var raw map[string]any
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}

	inst, err := DecodeInstrument(raw)
	if err != nil {
		return nil, err
	}
	if inst.Name == "" {
		inst.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return inst, nil
}

// DecodeInstrument builds an instrument from a generic document.
func DecodeInstrument(raw map[string]any) (*Instrument, error) {
	var file dto.InstrumentFile
	if err := mapstructure.Decode(raw, &file); err != nil {
		return nil, fmt.Errorf("invalid instrument description: %w", err)
	}

	inst := &Instrument{Name: file.Name}
	seen := make(map[string]bool)
	for _, spec := range file.Components {
		if spec.Name == "" {
			return nil, fmt.Errorf("invalid instrument description: component without name")
		}
		if seen[spec.Name] {
			return nil, fmt.Errorf("invalid instrument description: duplicate component %q", spec.Name)
		}
		seen[spec.Name] = true

		c, err := buildComponent(spec)
		if err != nil {
			return nil, fmt.Errorf("component %q: %w", spec.Name, err)
		}
		inst.Components = append(inst.Components, c)
	}
	return inst, nil
}

func buildComponent(spec dto.ComponentSpec) (domain.Component, error) {
	var opts []Option
	for name, as := range spec.Axes {
		def, err := axisDef(as)
		if err != nil {
			return nil, fmt.Errorf("axis %q: %w", name, err)
		}
		initial, ok := spec.Position[name]
		if !ok {
			initial = defaultPosition(def)
		}
		opts = append(opts, WithAxis(name, def, initial))
	}
	opts = append(opts, WithAffects(spec.Affects...))
	for k, v := range spec.Metadata {
		opts = append(opts, WithMetadata(k, v))
	}
	if len(spec.Unreferenced) > 0 {
		opts = append(opts, WithUnreferenced(spec.Unreferenced...))
	}
	if spec.MoveDelay != "" {
		d, err := time.ParseDuration(spec.MoveDelay)
		if err != nil {
			return nil, fmt.Errorf("invalid move_delay: %w", err)
		}
		opts = append(opts, WithDelay(d))
	}

	if spec.Cooler == nil {
		return New(spec.Name, spec.Role, opts...), nil
	}

	cs := spec.Cooler
	var tempDef domain.AxisDef
	switch {
	case len(cs.TemperatureSteps) > 0:
		for _, s := range cs.TemperatureSteps {
			tempDef.Choices = append(tempDef.Choices, domain.Choice{Key: s, Value: s})
		}
	case len(cs.TemperatureRange) == 2:
		tempDef.Range = &domain.Range{Min: cs.TemperatureRange[0], Max: cs.TemperatureRange[1]}
	default:
		tempDef.Range = &domain.Range{Min: -100, Max: 25}
	}
	cam := NewCamera(spec.Name, spec.Role, cs.FanSpeed, cs.TargetTemperature, tempDef, opts...)
	if cs.Temperature != 0 {
		cam.temperature = cs.Temperature
	}
	if cs.Rate > 0 {
		cam.SetCoolingRate(cs.Rate)
	}
	return cam, nil
}

func axisDef(as dto.AxisSpec) (domain.AxisDef, error) {
	def := domain.AxisDef{Unit: as.Unit}
	switch {
	case len(as.Choices) > 0:
		for _, c := range as.Choices {
			def.Choices = append(def.Choices, domain.Choice{Key: c.Key, Value: c.Value})
		}
	case len(as.Range) == 2:
		def.Range = &domain.Range{Min: as.Range[0], Max: as.Range[1]}
	default:
		return def, fmt.Errorf("axis needs a range or choices")
	}
	return def, nil
}

func defaultPosition(def domain.AxisDef) any {
	if len(def.Choices) > 0 {
		return def.Choices[0].Key
	}
	return def.Range.Min
}
