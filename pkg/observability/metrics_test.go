package observability_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/delmic/odemis-sub008/pkg/domain"
	"github.com/delmic/odemis-sub008/pkg/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	m := observability.NewMetrics()
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnApplyEnd(ctx, &domain.ApplyEvent{Mode: "ar", Duration: time.Second})
	hooks.OnApplyEnd(ctx, &domain.ApplyEvent{Mode: "spectral", Err: errors.New("stalled")})
	hooks.OnMoveDone(ctx, &domain.MoveEvent{Component: "spectrograph", Duration: 2 * time.Second})
	hooks.OnSuperseded(ctx, &domain.ApplyEvent{Mode: "ek"})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	assert.Contains(t, body, `optpath_mode_changes_total{mode="ar",result="ok"} 1`)
	assert.Contains(t, body, `optpath_mode_changes_total{mode="spectral",result="error"} 1`)
	assert.Contains(t, body, `optpath_moves_total{component="spectrograph",result="ok"} 1`)
	assert.Contains(t, body, `optpath_superseded_requests_total 1`)
	assert.Contains(t, body, `optpath_current_mode{mode="spectral"} 1`)
	assert.NotContains(t, body, `optpath_current_mode{mode="ar"}`)

	n, err := testutil.GatherAndCount(m.Registry(), "optpath_mode_change_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestChain(t *testing.T) {
	var order []string
	a := domain.LifecycleHooks{OnApplyStart: func(context.Context, *domain.ApplyEvent) { order = append(order, "a") }}
	b := domain.LifecycleHooks{
		OnApplyStart: func(context.Context, *domain.ApplyEvent) { order = append(order, "b") },
		OnMoveIssued: func(context.Context, *domain.MoveEvent) { order = append(order, "b-move") },
	}

	h := observability.Chain(a, b)
	h.OnApplyStart(context.Background(), &domain.ApplyEvent{})
	h.OnMoveIssued(context.Background(), &domain.MoveEvent{})
	h.OnMoveDone(context.Background(), &domain.MoveEvent{})

	assert.Equal(t, []string{"a", "b", "b-move"}, order)
}
