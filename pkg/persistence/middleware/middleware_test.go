package middleware_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/delmic/odemis-sub008/pkg/adapters/memory"
	"github.com/delmic/odemis-sub008/pkg/domain"
	"github.com/delmic/odemis-sub008/pkg/persistence/middleware"
	"github.com/delmic/odemis-sub008/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDown = errors.New("connection refused")

// flakyStore fails the first n calls of every operation.
type flakyStore struct {
	ports.StateStore
	failures int
	calls    int
}

func (s *flakyStore) fail() error {
	s.calls++
	if s.calls <= s.failures {
		return errDown
	}
	return nil
}

func (s *flakyStore) Save(ctx context.Context, instrument string, state *domain.PathState) error {
	if err := s.fail(); err != nil {
		return err
	}
	return s.StateStore.Save(ctx, instrument, state)
}

func (s *flakyStore) Load(ctx context.Context, instrument string) (*domain.PathState, error) {
	if err := s.fail(); err != nil {
		return nil, err
	}
	return s.StateStore.Load(ctx, instrument)
}

func TestMiddlewares_Contract(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	store := middleware.Chain(memory.NewStore(),
		middleware.NewLoggingMiddleware(logger),
		middleware.NewRetryMiddleware(middleware.RetryConfig{Attempts: 2}),
	)
	ports.RunStateStoreContract(t, store)

	assert.Contains(t, buf.String(), "op=save")
	assert.Contains(t, buf.String(), "op=load")
	assert.NotContains(t, buf.String(), "state store failed", "a missing state is not a failure")
}

func TestRetry_RecoversTransientErrors(t *testing.T) {
	flaky := &flakyStore{StateStore: memory.NewStore(), failures: 2}
	store := middleware.NewRetryMiddleware(middleware.RetryConfig{Attempts: 3, Backoff: time.Millisecond})(flaky)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sparc2", domain.NewPathState("sparc2")))
	assert.Equal(t, 3, flaky.calls)

	flaky.calls, flaky.failures = 0, 5
	err := store.Save(ctx, "sparc2", domain.NewPathState("sparc2"))
	assert.ErrorIs(t, err, errDown)
	assert.Equal(t, 3, flaky.calls, "gives up after the configured attempts")
}

func TestRetry_DoesNotRetryMissingState(t *testing.T) {
	flaky := &flakyStore{StateStore: memory.NewStore()}
	store := middleware.NewRetryMiddleware(middleware.RetryConfig{Attempts: 3})(flaky)

	_, err := store.Load(context.Background(), "absent")
	assert.ErrorIs(t, err, domain.ErrStateNotFound)
	assert.Equal(t, 1, flaky.calls)
}

func TestRetry_StopsOnCancel(t *testing.T) {
	flaky := &flakyStore{StateStore: memory.NewStore(), failures: 10}
	store := middleware.NewRetryMiddleware(middleware.RetryConfig{Attempts: 10, Backoff: time.Hour})(flaky)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := store.Load(ctx, "sparc2")
	assert.ErrorIs(t, err, errDown)
	assert.Equal(t, 1, flaky.calls)
	assert.Less(t, time.Since(start), time.Second)
}

func TestLogging_Failures(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	flaky := &flakyStore{StateStore: memory.NewStore(), failures: 1}

	store := middleware.NewLoggingMiddleware(logger)(flaky)
	assert.Error(t, store.Save(context.Background(), "sparc2", domain.NewPathState("sparc2")))
	assert.Contains(t, buf.String(), "state store failed")
	assert.Contains(t, buf.String(), "instrument=sparc2")
	assert.Contains(t, buf.String(), "err=\"connection refused\"")
}
