package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/delmic/odemis-sub008/internal/topology"
	"github.com/delmic/odemis-sub008/pkg/domain"
)

// Severity of a finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one problem found in a mode table.
type Issue struct {
	Severity Severity
	Mode     string
	Role     string
	Axis     string
	Message  string
}

func (i Issue) String() string {
	var where []string
	if i.Mode != "" {
		where = append(where, "mode "+i.Mode)
	}
	if i.Role != "" {
		where = append(where, "role "+i.Role)
	}
	if i.Axis != "" {
		where = append(where, "axis "+i.Axis)
	}
	return fmt.Sprintf("[%s] %s: %s", i.Severity, strings.Join(where, ", "), i.Message)
}

// Report collects the issues of a table.
type Report struct {
	Issues []Issue
}

func (r *Report) add(sev Severity, mode, role, axis, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{
		Severity: sev,
		Mode:     mode,
		Role:     role,
		Axis:     axis,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Errors returns the issues that make a mode unusable.
func (r *Report) Errors() []Issue {
	return r.filter(SeverityError)
}

// Warnings returns the issues that only make part of a mode ineffective.
func (r *Report) Warnings() []Issue {
	return r.filter(SeverityWarning)
}

func (r *Report) filter(sev Severity) []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.Severity == sev {
			out = append(out, i)
		}
	}
	return out
}

// Err summarizes the errors of the report, or returns nil.
func (r *Report) Err() error {
	errs := r.Errors()
	if len(errs) == 0 {
		return nil
	}
	lines := make([]string, len(errs))
	for i, e := range errs {
		lines[i] = e.String()
	}
	return fmt.Errorf("found %d errors:\n- %s", len(errs), strings.Join(lines, "\n- "))
}

// ValidateTable checks a mode table against the components of an instrument:
// detector patterns, component roles, axis names, literal values, metadata
// references and the position of each component on the path.
func ValidateTable(table domain.ModeTable, reg *topology.Registry) *Report {
	r := &Report{}
	graph := reg.Graph()

	for _, mode := range table.Modes {
		if err := domain.ValidatePattern(mode.DetectorPattern); err != nil {
			r.add(SeverityError, mode.Name, "", "", "invalid detector pattern %q: %v", mode.DetectorPattern, err)
			continue
		}
		det, err := reg.ByRole(mode.DetectorPattern)
		if err != nil {
			r.add(SeverityWarning, mode.Name, "", "", "no detector matches %q, the mode is unavailable", mode.DetectorPattern)
		}

		for _, role := range mode.Roles() {
			comp, err := reg.ByRole(role)
			if err != nil {
				r.add(SeverityWarning, mode.Name, role, "", "no component with this role, it is skipped")
				continue
			}
			if det != nil && !graph.Affects(comp.Name(), det.Name()) {
				r.add(SeverityWarning, mode.Name, role, "", "component %s does not affect detector %s", comp.Name(), det.Name())
			}
			checkAxes(r, mode, role, comp)
		}
	}
	return r
}

func checkAxes(r *Report, mode domain.Mode, role string, comp domain.Component) {
	defs := comp.Axes()
	axes := make([]string, 0, len(mode.Axes[role]))
	for axis := range mode.Axes[role] {
		axes = append(axes, axis)
	}
	sort.Strings(axes)

	for _, axis := range axes {
		def, ok := defs[axis]
		if !ok {
			r.add(SeverityError, mode.Name, role, axis, "component %s has no such axis", comp.Name())
			continue
		}
		checkSpec(r, mode.Name, role, axis, comp, def, mode.Axes[role][axis])
	}
}

func checkSpec(r *Report, mode, role, axis string, comp domain.Component, def domain.AxisDef, spec domain.ValueSpec) {
	switch spec.Kind {
	case domain.SpecLiteral:
		if !acceptsLiteral(axis, def, spec.Value) {
			r.add(SeverityError, mode, role, axis, "value %v is not available", spec.Value)
		}
	case domain.SpecMetadata:
		if _, ok := comp.Metadata()[spec.Key]; !ok {
			r.add(SeverityWarning, mode, role, axis, "metadata %s is not set on %s", spec.Key, comp.Name())
		}
	case domain.SpecFirstOf:
		for _, alt := range spec.Alternatives {
			if usable(axis, comp, def, alt) {
				return
			}
		}
		r.add(SeverityError, mode, role, axis, "none of %s is available", spec.String())
	case domain.SpecGratingNotMirror:
		for _, ch := range def.Choices {
			if !domain.SameValue(ch.Value, domain.GratingMirror) {
				return
			}
		}
		r.add(SeverityError, mode, role, axis, "no grating other than the mirror")
	}
}

func usable(axis string, comp domain.Component, def domain.AxisDef, spec domain.ValueSpec) bool {
	switch spec.Kind {
	case domain.SpecLiteral:
		return acceptsLiteral(axis, def, spec.Value)
	case domain.SpecMetadata:
		_, ok := comp.Metadata()[spec.Key]
		return ok
	}
	return true
}

// acceptsLiteral mirrors the engine: on/off is accepted on power axes, and the
// mirror on any grating axis (the zero order is used when there is no mirror).
func acceptsLiteral(axis string, def domain.AxisDef, v any) bool {
	if def.Accepts(v) {
		return true
	}
	if s, ok := v.(string); ok {
		switch {
		case axis == "power" && (s == "on" || s == "off"):
			return true
		case axis == "grating" && s == domain.GratingMirror:
			return true
		}
	}
	return false
}
