package dsl

import "github.com/delmic/odemis-sub008/pkg/domain"

// ModeBuilder provides a fluent API for configuring a mode.
type ModeBuilder struct {
	mode    domain.Mode
	builder *Builder
}

// Detector sets the role pattern of the target detector.
func (m *ModeBuilder) Detector(pattern string) *ModeBuilder {
	m.mode.DetectorPattern = pattern
	return m
}

// Align marks the mode as an alignment mode.
func (m *ModeBuilder) Align() *ModeBuilder {
	m.mode.Align = true
	return m
}

// Set declares the desired value of an axis of the component with the given role.
// Raw values follow the mode file conventions (see domain.ParseValueSpec).
func (m *ModeBuilder) Set(role, axis string, value any) *ModeBuilder {
	axes, ok := m.mode.Axes[role]
	if !ok {
		axes = make(map[string]domain.ValueSpec)
		m.mode.Axes[role] = axes
	}
	axes[axis] = domain.ParseValueSpec(value)
	return m
}

// Active moves the axis to the component's favourite active position.
func (m *ModeBuilder) Active(role, axis string) *ModeBuilder {
	return m.Set(role, axis, domain.FromMetadata(domain.MDFavPosActive))
}

// Deactive moves the axis to the component's favourite deactive position.
func (m *ModeBuilder) Deactive(role, axis string) *ModeBuilder {
	return m.Set(role, axis, domain.FromMetadata(domain.MDFavPosDeactive))
}

// Build returns the underlying domain.Mode.
func (m *ModeBuilder) Build() domain.Mode {
	return m.mode
}
