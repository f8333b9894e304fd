// Package sim provides simulated hardware components for tests, demos and dry runs.
package sim

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/delmic/odemis-sub008/pkg/domain"
	"github.com/delmic/odemis-sub008/pkg/future"
)

// Component is an in-memory actuator or detector.
// Moves complete after an optional delay and are recorded for inspection.
type Component struct {
	name    string
	role    string
	affects []string

	mu         sync.Mutex
	axes       map[string]domain.AxisDef
	pos        map[string]any
	md         map[string]any
	referenced map[string]bool
	delay      time.Duration
	failure    func(pos map[string]any) error
	moves      []map[string]any
}

// Option configures a simulated component.
type Option func(*Component)

// WithAxis declares an axis and its initial position.
func WithAxis(name string, def domain.AxisDef, initial any) Option {
	return func(c *Component) {
		c.axes[name] = def
		c.pos[name] = initial
		c.referenced[name] = true
	}
}

// WithAffects declares the components this one affects.
func WithAffects(names ...string) Option {
	return func(c *Component) {
		c.affects = append(c.affects, names...)
	}
}

// WithMetadata sets one metadata entry.
func WithMetadata(key string, value any) Option {
	return func(c *Component) {
		c.md[key] = value
	}
}

// WithDelay makes every move take d.
func WithDelay(d time.Duration) Option {
	return func(c *Component) {
		c.delay = d
	}
}

// WithFailure makes moves fail with the error returned by fn (nil means success).
func WithFailure(fn func(pos map[string]any) error) Option {
	return func(c *Component) {
		c.failure = fn
	}
}

// WithUnreferenced marks axes as not homed.
func WithUnreferenced(axes ...string) Option {
	return func(c *Component) {
		for _, a := range axes {
			c.referenced[a] = false
		}
	}
}

// New creates a simulated component.
func New(name, role string, opts ...Option) *Component {
	c := &Component{
		name:       name,
		role:       role,
		axes:       make(map[string]domain.AxisDef),
		pos:        make(map[string]any),
		md:         make(map[string]any),
		referenced: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewDetector creates a simulated component without axes.
func NewDetector(name, role string, opts ...Option) *Component {
	return New(name, role, opts...)
}

func (c *Component) Name() string      { return c.name }
func (c *Component) Role() string      { return c.role }
func (c *Component) Affects() []string { return append([]string(nil), c.affects...) }

func (c *Component) Axes() map[string]domain.AxisDef {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.axes)
}

func (c *Component) Position() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.pos)
}

func (c *Component) Metadata() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.md)
}

// Referenced implements domain.Referencer.
func (c *Component) Referenced() map[string]bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.referenced)
}

// SetPosition changes axis values directly, as an operator would by hand.
func (c *Component) SetPosition(pos map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	maps.Copy(c.pos, pos)
}

// MoveAbs implements domain.Component.
func (c *Component) MoveAbs(ctx context.Context, pos map[string]any) domain.Future {
	req := maps.Clone(pos)
	f := future.New()
	go func() {
		if c.delay > 0 {
			select {
			case <-time.After(c.delay):
			case <-ctx.Done():
				f.Resolve(ctx.Err())
				return
			}
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		c.moves = append(c.moves, req)
		if c.failure != nil {
			if err := c.failure(req); err != nil {
				f.Resolve(err)
				return
			}
		}
		maps.Copy(c.pos, req)
		f.Resolve(nil)
	}()
	return f
}

// Moves returns every move requested so far, in order.
func (c *Component) Moves() []map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]any, len(c.moves))
	copy(out, c.moves)
	return out
}

// ResetMoves forgets the recorded moves.
func (c *Component) ResetMoves() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.moves = nil
}
