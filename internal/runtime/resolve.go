package runtime

import "github.com/delmic/odemis-sub008/pkg/domain"

// gratingNotMirror is the resolved form of the not-mirror sentinel.
type gratingNotMirror struct{}

// resolveSpec returns the value a spec designates for one axis of comp.
// It reports false when nothing resolves (missing metadata, no fitting alternative).
func resolveSpec(comp domain.Component, axis string, def domain.AxisDef, spec domain.ValueSpec) (any, bool) {
	switch spec.Kind {
	case domain.SpecLiteral:
		return spec.Value, true
	case domain.SpecMetadata:
		v, ok := comp.Metadata()[spec.Key]
		if !ok {
			return nil, false
		}
		if perAxis, isMap := v.(map[string]any); isMap {
			av, ok := perAxis[axis]
			return av, ok
		}
		return v, true
	case domain.SpecFirstOf:
		for _, alt := range spec.Alternatives {
			v, ok := resolveSpec(comp, axis, def, alt)
			if !ok {
				continue
			}
			if alt.Kind == domain.SpecLiteral && !literalFits(axis, def, v) {
				continue
			}
			return v, true
		}
		return nil, false
	case domain.SpecGratingNotMirror:
		return gratingNotMirror{}, true
	}
	return nil, false
}

// literalFits reports whether a literal alternative can be used on the axis.
func literalFits(axis string, def domain.AxisDef, v any) bool {
	if def.Continuous() || def.Accepts(v) {
		return true
	}
	if kindOf(axis) == axisPower {
		_, ok := switchState(v)
		return ok
	}
	return false
}
