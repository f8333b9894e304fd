package domain

import (
	"maps"
	"slices"
	"time"
)

// Quality is the acquisition quality setting, orthogonal to the mode.
type Quality string

const (
	QualityFast Quality = "fast"
	QualityBest Quality = "best"
)

// StoredAxis is a pre-alignment axis value kept for restoration.
type StoredAxis struct {
	Role  string `json:"role"`
	Axis  string `json:"axis"`
	Value any    `json:"value"`
}

// GratingMemory is the grating and wavelength active before switching to the mirror.
type GratingMemory struct {
	Role       string `json:"role"`
	Grating    any    `json:"grating"`
	Wavelength any    `json:"wavelength,omitempty"`
}

// FanMemory holds the camera cooling settings saved when the fan was stopped.
type FanMemory struct {
	Speed       *float64 `json:"speed,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// PathState is the persisted state of the path manager for one instrument.
type PathState struct {
	Instrument string          `json:"instrument"`
	LastMode   string          `json:"last_mode,omitempty"`
	Quality    Quality         `json:"quality,omitempty"`
	Stored     []StoredAxis    `json:"stored,omitempty"`
	Gratings   []GratingMemory `json:"gratings,omitempty"`
	// FocusIn is the focus position used while in chamber-view.
	FocusIn map[string]any `json:"focus_in,omitempty"`
	// FocusOut is the focus position recorded when chamber-view was entered.
	FocusOut  map[string]any `json:"focus_out,omitempty"`
	Fan       FanMemory      `json:"fan"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// NewPathState returns an empty state for an instrument.
func NewPathState(instrument string) *PathState {
	return &PathState{
		Instrument: instrument,
		Quality:    QualityFast,
		UpdatedAt:  time.Now(),
	}
}

// Clone returns a copy of the state that shares no maps or slices with s.
func (s *PathState) Clone() *PathState {
	if s == nil {
		return nil
	}
	c := *s
	c.Stored = slices.Clone(s.Stored)
	c.Gratings = slices.Clone(s.Gratings)
	c.FocusIn = maps.Clone(s.FocusIn)
	c.FocusOut = maps.Clone(s.FocusOut)
	if s.Fan.Speed != nil {
		v := *s.Fan.Speed
		c.Fan.Speed = &v
	}
	if s.Fan.Temperature != nil {
		v := *s.Fan.Temperature
		c.Fan.Temperature = &v
	}
	return &c
}
