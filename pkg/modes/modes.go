// Package modes holds the built-in mode tables and the operations that adapt
// them to a concrete instrument.
package modes

import (
	"fmt"

	"github.com/delmic/odemis-sub008/pkg/domain"
)

// FamilyForRole maps the role of the microscope component to its family.
func FamilyForRole(role string) (domain.Family, error) {
	switch role {
	case "sparc":
		return domain.FamilySPARC, nil
	case "sparc2":
		return domain.FamilySPARC2, nil
	case "secom", "delphi":
		return domain.FamilySECOM, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFamily, role)
}

// ForFamily returns a copy of the built-in table of a family.
func ForFamily(f domain.Family) (domain.ModeTable, error) {
	switch f {
	case domain.FamilySPARC:
		return clone(SPARC), nil
	case domain.FamilySPARC2:
		return clone(SPARC2), nil
	case domain.FamilySECOM:
		return clone(SECOM), nil
	}
	return domain.ModeTable{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedFamily, f)
}

// ForMicroscope returns the built-in table matching the microscope role.
func ForMicroscope(role string) (domain.ModeTable, error) {
	f, err := FamilyForRole(role)
	if err != nil {
		return domain.ModeTable{}, err
	}
	return ForFamily(f)
}

// Prune drops the modes whose target detector is not present.
// hasRole reports whether some component matches a role pattern.
// Roles of other components are not checked here: missing ones are skipped when a mode is applied.
func Prune(t domain.ModeTable, hasRole func(pattern string) bool) (domain.ModeTable, []string) {
	out := domain.ModeTable{Family: t.Family}
	var pruned []string
	for _, m := range t.Modes {
		if !hasRole(m.DetectorPattern) {
			pruned = append(pruned, m.Name)
			continue
		}
		out.Modes = append(out.Modes, m)
	}
	return out, pruned
}

// Merge applies override on top of base: modes with the same name are replaced
// in place, new modes are appended and the modes named in remove are dropped.
func Merge(base, override domain.ModeTable, remove ...string) domain.ModeTable {
	drop := make(map[string]bool, len(remove))
	for _, name := range remove {
		drop[name] = true
	}

	out := domain.ModeTable{Family: base.Family}
	replaced := make(map[string]bool)
	for _, m := range base.Modes {
		if drop[m.Name] {
			continue
		}
		if o, ok := override.Lookup(m.Name); ok {
			m = o
			replaced[m.Name] = true
		}
		out.Modes = append(out.Modes, m)
	}
	for _, m := range override.Modes {
		if replaced[m.Name] || drop[m.Name] {
			continue
		}
		if _, exists := out.Lookup(m.Name); exists {
			continue
		}
		out.Modes = append(out.Modes, m)
	}
	return out
}

func clone(t domain.ModeTable) domain.ModeTable {
	out := domain.ModeTable{Family: t.Family, Modes: make([]domain.Mode, len(t.Modes))}
	for i, m := range t.Modes {
		axes := make(map[string]map[string]domain.ValueSpec, len(m.Axes))
		for role, av := range m.Axes {
			inner := make(map[string]domain.ValueSpec, len(av))
			for axis, spec := range av {
				inner[axis] = spec
			}
			axes[role] = inner
		}
		m.Axes = axes
		out.Modes[i] = m
	}
	return out
}
