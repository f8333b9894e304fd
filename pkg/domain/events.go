package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventApplyStart EventType = "apply_start"
	EventApplyEnd   EventType = "apply_end"
	EventMoveIssued EventType = "move_issued"
	EventMoveDone   EventType = "move_done"
	EventSuperseded EventType = "superseded"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// ApplyEvent describes one path change.
type ApplyEvent struct {
	EventBase
	Mode     string        `json:"mode"`
	Target   string        `json:"target,omitempty"`
	Previous string        `json:"previous,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
	Err      error         `json:"-"`
}

// MoveEvent describes one component move.
type MoveEvent struct {
	EventBase
	Component string         `json:"component"`
	Position  map[string]any `json:"position"`
	Duration  time.Duration  `json:"duration,omitempty"`
	Err       error          `json:"-"`
}

// LifecycleHooks defines callbacks for path manager observability.
type LifecycleHooks struct {
	OnApplyStart func(context.Context, *ApplyEvent)
	OnApplyEnd   func(context.Context, *ApplyEvent)
	OnMoveIssued func(context.Context, *MoveEvent)
	OnMoveDone   func(context.Context, *MoveEvent)
	OnSuperseded func(context.Context, *ApplyEvent)
}
