package dsl

import (
	"fmt"

	"github.com/delmic/odemis-sub008/pkg/domain"
)

// Builder manages the mode table construction.
type Builder struct {
	family domain.Family
	modes  []*ModeBuilder
	index  map[string]*ModeBuilder
}

// New creates a new mode table builder for a microscope family.
func New(family domain.Family) *Builder {
	return &Builder{
		family: family,
		index:  make(map[string]*ModeBuilder),
	}
}

// Mode creates a new mode in the table.
// If the mode already exists, it returns the existing builder.
// Modes keep the order in which they were first added.
func (b *Builder) Mode(name string) *ModeBuilder {
	if mb, ok := b.index[name]; ok {
		return mb
	}
	mb := &ModeBuilder{
		mode: domain.Mode{
			Name: name,
			Axes: make(map[string]map[string]domain.ValueSpec),
		},
		builder: b,
	}
	b.modes = append(b.modes, mb)
	b.index[name] = mb
	return mb
}

// Build compiles the modes into a ModeTable.
func (b *Builder) Build() (domain.ModeTable, error) {
	table := domain.ModeTable{
		Family: b.family,
		Modes:  make([]domain.Mode, 0, len(b.modes)),
	}
	for _, mb := range b.modes {
		if mb.mode.DetectorPattern == "" {
			return domain.ModeTable{}, fmt.Errorf("mode %q: missing detector pattern", mb.mode.Name)
		}
		if err := domain.ValidatePattern(mb.mode.DetectorPattern); err != nil {
			return domain.ModeTable{}, fmt.Errorf("mode %q: invalid detector pattern: %w", mb.mode.Name, err)
		}
		table.Modes = append(table.Modes, mb.Build())
	}
	return table, nil
}

// MustBuild is like Build but panics on error. It is meant for tables declared in code.
func (b *Builder) MustBuild() domain.ModeTable {
	table, err := b.Build()
	if err != nil {
		panic(err)
	}
	return table
}
