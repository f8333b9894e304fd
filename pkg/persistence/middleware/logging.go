package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/delmic/odemis-sub008/pkg/domain"
	"github.com/delmic/odemis-sub008/pkg/ports"
)

type loggingMiddleware struct {
	next   ports.StateStore
	logger *slog.Logger
}

// NewLoggingMiddleware logs every store operation at debug level, and failures at warn level.
// A missing state is not a failure.
func NewLoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next ports.StateStore) ports.StateStore {
		return &loggingMiddleware{next: next, logger: logger}
	}
}

func (m *loggingMiddleware) log(op, instrument string, start time.Time, err error) {
	attrs := []any{"op", op, "instrument", instrument, "duration", time.Since(start)}
	if err != nil && !errors.Is(err, domain.ErrStateNotFound) {
		m.logger.Warn("state store failed", append(attrs, "err", err)...)
		return
	}
	m.logger.Debug("state store", attrs...)
}

func (m *loggingMiddleware) Save(ctx context.Context, instrument string, state *domain.PathState) error {
	start := time.Now()
	err := m.next.Save(ctx, instrument, state)
	m.log("save", instrument, start, err)
	return err
}

func (m *loggingMiddleware) Load(ctx context.Context, instrument string) (*domain.PathState, error) {
	start := time.Now()
	st, err := m.next.Load(ctx, instrument)
	m.log("load", instrument, start, err)
	return st, err
}

func (m *loggingMiddleware) Delete(ctx context.Context, instrument string) error {
	start := time.Now()
	err := m.next.Delete(ctx, instrument)
	m.log("delete", instrument, start, err)
	return err
}

func (m *loggingMiddleware) List(ctx context.Context) ([]string, error) {
	start := time.Now()
	ids, err := m.next.List(ctx)
	m.log("list", "", start, err)
	return ids, err
}
