package modefile

import (
	"fmt"

	"github.com/delmic/odemis-sub008/internal/dto"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// hclFile is the HCL form of a mode file:
//
//	family = "sparc2"
//	remove = ["cli"]
//
//	mode "ar" {
//	  detector = "ccd.*"
//	  axes = {
//	    "lens-switch" = { x = "MD:FAV_POS_ACTIVE" }
//	    spectrograph  = { grating = "mirror" }
//	  }
//	}
type hclFile struct {
	Family string    `hcl:"family,optional"`
	Remove []string  `hcl:"remove,optional"`
	Modes  []hclMode `hcl:"mode,block"`
}

type hclMode struct {
	Name     string    `hcl:"name,label"`
	Detector string    `hcl:"detector"`
	Align    bool      `hcl:"align,optional"`
	Axes     cty.Value `hcl:"axes,optional"`
}

func parseHCL(name string, data []byte) (dto.ModeFile, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(data, name)
	if diags.HasErrors() {
		return dto.ModeFile{}, diags
	}

	var doc hclFile
	if diags := gohcl.DecodeBody(f.Body, nil, &doc); diags.HasErrors() {
		return dto.ModeFile{}, diags
	}

	out := dto.ModeFile{Family: doc.Family, Remove: doc.Remove}
	for _, m := range doc.Modes {
		spec := dto.ModeSpec{Name: m.Name, Detector: m.Detector, Align: m.Align}
		native, err := ctyToNative(m.Axes)
		if err != nil {
			return dto.ModeFile{}, fmt.Errorf("mode %q: %w", m.Name, err)
		}
		if native != nil {
			roles, ok := native.(map[string]any)
			if !ok {
				return dto.ModeFile{}, fmt.Errorf("mode %q: axes must be an object", m.Name)
			}
			spec.Axes = make(map[string]map[string]any, len(roles))
			for role, v := range roles {
				axes, ok := v.(map[string]any)
				if !ok {
					return dto.ModeFile{}, fmt.Errorf("mode %q: axes of %q must be an object", m.Name, role)
				}
				spec.Axes[role] = axes
			}
		}
		out.Modes = append(out.Modes, spec)
	}
	return out, nil
}

// ctyToNative converts a cty.Value to the plain Go values used by mode specs.
// Whole numbers become int so they compare equal to choice keys.
func ctyToNative(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil

	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == 0 {
				return int(i), nil
			}
		}
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, fmt.Errorf("could not convert number to float64: %w", err)
		}
		return f, nil

	case ty == cty.Bool:
		return v.True(), nil

	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		out := make([]any, 0, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			_, el := it.Element()
			native, err := ctyToNative(el)
			if err != nil {
				return nil, err
			}
			out = append(out, native)
		}
		return out, nil

	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any)
		it := v.ElementIterator()
		for it.Next() {
			key, el := it.Element()
			native, err := ctyToNative(el)
			if err != nil {
				return nil, fmt.Errorf("in attribute %q: %w", key.AsString(), err)
			}
			out[key.AsString()] = native
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported value type %s", ty.FriendlyName())
}
