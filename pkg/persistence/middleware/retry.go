package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/delmic/odemis-sub008/pkg/domain"
	"github.com/delmic/odemis-sub008/pkg/ports"
)

// RetryConfig bounds the retries of a store operation.
type RetryConfig struct {
	// Attempts is the total number of tries, including the first one.
	Attempts int
	// Backoff is the wait before the second try. It doubles after each failure.
	Backoff time.Duration
}

type retryMiddleware struct {
	next   ports.StateStore
	config RetryConfig
}

// NewRetryMiddleware retries failed store operations, for backends reached over the network.
// A missing state and a done context are returned at once.
func NewRetryMiddleware(config RetryConfig) Middleware {
	if config.Attempts < 1 {
		config.Attempts = 1
	}
	return func(next ports.StateStore) ports.StateStore {
		return &retryMiddleware{next: next, config: config}
	}
}

func (m *retryMiddleware) do(ctx context.Context, op func() error) error {
	wait := m.config.Backoff
	var err error
	for attempt := 1; ; attempt++ {
		err = op()
		if err == nil || errors.Is(err, domain.ErrStateNotFound) || ctx.Err() != nil {
			return err
		}
		if attempt >= m.config.Attempts {
			return err
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(wait):
		}
		wait *= 2
	}
}

func (m *retryMiddleware) Save(ctx context.Context, instrument string, state *domain.PathState) error {
	return m.do(ctx, func() error {
		return m.next.Save(ctx, instrument, state)
	})
}

func (m *retryMiddleware) Load(ctx context.Context, instrument string) (*domain.PathState, error) {
	var st *domain.PathState
	err := m.do(ctx, func() error {
		var err error
		st, err = m.next.Load(ctx, instrument)
		return err
	})
	return st, err
}

func (m *retryMiddleware) Delete(ctx context.Context, instrument string) error {
	return m.do(ctx, func() error {
		return m.next.Delete(ctx, instrument)
	})
}

func (m *retryMiddleware) List(ctx context.Context) ([]string, error) {
	var ids []string
	err := m.do(ctx, func() error {
		var err error
		ids, err = m.next.List(ctx)
		return err
	})
	return ids, err
}
