package runtime

import (
	"log/slog"
	"time"

	"github.com/delmic/odemis-sub008/pkg/domain"
)

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithMoveTimeout bounds the wait for each component move (default: 180s).
func WithMoveTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.moveTimeout = d
		}
	}
}

// WithFanPolicy overrides the camera cooling parameters.
func WithFanPolicy(p FanPolicy) EngineOption {
	return func(e *Engine) {
		e.fanPolicy = p.withDefaults()
	}
}

// WithQuality sets the initial acquisition quality.
func WithQuality(q domain.Quality) EngineOption {
	return func(e *Engine) {
		e.quality = q
	}
}
