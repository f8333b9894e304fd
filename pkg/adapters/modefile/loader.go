// Package modefile reads mode definitions from YAML, JSON or HCL files.
//
// A mode file replaces or extends the built-in table of a microscope family:
//
//	family: sparc2
//	remove: [cli]
//	modes:
//	  - name: ar
//	    detector: "ccd.*"
//	    axes:
//	      lens-switch: {x: "MD:FAV_POS_ACTIVE"}
//	      spectrograph: {grating: mirror}
//	      pol-analyzer: {pol: [horizontal, pass-through]}
//
// Axis values follow the same conventions everywhere: "MD:<key>" reads the
// component metadata, lists are alternatives tried in order and
// GRATING_NOT_MIRROR selects any grating but the mirror.
package modefile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/delmic/odemis-sub008/internal/dto"
	"github.com/delmic/odemis-sub008/pkg/domain"
	"github.com/delmic/odemis-sub008/pkg/dsl"
	"github.com/delmic/odemis-sub008/pkg/ports"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.ModeLoader for one file.
type Loader struct {
	path string
}

// New creates a loader for the mode file at path.
func New(path string) *Loader {
	return &Loader{path: path}
}

// Load reads and parses the file.
func (l *Loader) Load(ctx context.Context) (*ports.ModeOverrides, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mode file: %w", err)
	}
	return Parse(filepath.Base(l.path), data)
}

// Parse decodes a mode file. The format is chosen from the file extension.
func Parse(name string, data []byte) (*ports.ModeOverrides, error) {
	var (
		file dto.ModeFile
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".yaml", ".yml":
		var raw map[string]any
		if err = yaml.Unmarshal(data, &raw); err == nil {
			err = decode(raw, &file)
		}
	case ".json":
		var raw map[string]any
		if err = json.Unmarshal(data, &raw); err == nil {
			err = decode(raw, &file)
		}
	case ".hcl":
		file, err = parseHCL(name, data)
	default:
		return nil, fmt.Errorf("unsupported mode file format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return build(file)
}

func decode(raw map[string]any, out *dto.ModeFile) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      out,
		ErrorUnused: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

// build turns the decoded file into mode overrides, validating the patterns.
func build(file dto.ModeFile) (*ports.ModeOverrides, error) {
	family := domain.Family(file.Family)
	b := dsl.New(family)
	for _, spec := range file.Modes {
		if spec.Name == "" {
			return nil, fmt.Errorf("mode without name")
		}
		mb := b.Mode(spec.Name).Detector(spec.Detector)
		if spec.Align {
			mb.Align()
		}
		roles := make([]string, 0, len(spec.Axes))
		for role := range spec.Axes {
			roles = append(roles, role)
		}
		sort.Strings(roles)
		for _, role := range roles {
			for axis, raw := range spec.Axes[role] {
				mb.Set(role, axis, raw)
			}
		}
	}

	table, err := b.Build()
	if err != nil {
		return nil, err
	}
	return &ports.ModeOverrides{
		Family: family,
		Table:  table,
		Remove: file.Remove,
	}, nil
}
