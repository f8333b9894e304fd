package observability

import (
	"context"
	"net/http"

	"github.com/delmic/odemis-sub008/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the path manager collectors.
type Metrics struct {
	registry *prometheus.Registry

	modeChanges  *prometheus.CounterVec
	modeDuration *prometheus.HistogramVec
	moves        *prometheus.CounterVec
	moveDuration *prometheus.HistogramVec
	superseded   prometheus.Counter
	currentMode  *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them on a dedicated registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		modeChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "optpath_mode_changes_total",
				Help: "Total number of optical path changes",
			},
			[]string{"mode", "result"},
		),
		modeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "optpath_mode_change_duration_seconds",
				Help:    "Duration of optical path changes",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 180},
			},
			[]string{"mode"},
		),
		moves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "optpath_moves_total",
				Help: "Total number of component moves",
			},
			[]string{"component", "result"},
		),
		moveDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "optpath_move_duration_seconds",
				Help: "Duration of component moves",
			},
			[]string{"component"},
		),
		superseded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "optpath_superseded_requests_total",
			Help: "Path requests dropped because a newer one arrived before they started",
		}),
		currentMode: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "optpath_current_mode",
				Help: "1 for the mode applied last",
			},
			[]string{"mode"},
		),
	}
	m.registry.MustRegister(m.modeChanges, m.modeDuration, m.moves, m.moveDuration, m.superseded, m.currentMode)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Hooks returns the lifecycle hooks feeding the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnApplyEnd: func(_ context.Context, e *domain.ApplyEvent) {
			m.modeChanges.WithLabelValues(e.Mode, result(e.Err)).Inc()
			m.modeDuration.WithLabelValues(e.Mode).Observe(e.Duration.Seconds())
			m.currentMode.Reset()
			m.currentMode.WithLabelValues(e.Mode).Set(1)
		},
		OnMoveDone: func(_ context.Context, e *domain.MoveEvent) {
			m.moves.WithLabelValues(e.Component, result(e.Err)).Inc()
			m.moveDuration.WithLabelValues(e.Component).Observe(e.Duration.Seconds())
		},
		OnSuperseded: func(context.Context, *domain.ApplyEvent) {
			m.superseded.Inc()
		},
	}
}

// Chain combines several hook sets; each event is delivered to all of them in order.
func Chain(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnApplyStart: func(ctx context.Context, e *domain.ApplyEvent) {
			for _, h := range hooks {
				if h.OnApplyStart != nil {
					h.OnApplyStart(ctx, e)
				}
			}
		},
		OnApplyEnd: func(ctx context.Context, e *domain.ApplyEvent) {
			for _, h := range hooks {
				if h.OnApplyEnd != nil {
					h.OnApplyEnd(ctx, e)
				}
			}
		},
		OnMoveIssued: func(ctx context.Context, e *domain.MoveEvent) {
			for _, h := range hooks {
				if h.OnMoveIssued != nil {
					h.OnMoveIssued(ctx, e)
				}
			}
		},
		OnMoveDone: func(ctx context.Context, e *domain.MoveEvent) {
			for _, h := range hooks {
				if h.OnMoveDone != nil {
					h.OnMoveDone(ctx, e)
				}
			}
		},
		OnSuperseded: func(ctx context.Context, e *domain.ApplyEvent) {
			for _, h := range hooks {
				if h.OnSuperseded != nil {
					h.OnSuperseded(ctx, e)
				}
			}
		},
	}
}
