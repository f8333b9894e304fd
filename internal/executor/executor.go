// Package executor runs path changes one at a time on a single worker.
//
// Only the most recent request waits in the queue: submitting a new one
// discards the queued request that has not started yet. A running request
// always runs to completion.
package executor

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/delmic/odemis-sub008/internal/logging"
	"github.com/delmic/odemis-sub008/pkg/domain"
	"github.com/delmic/odemis-sub008/pkg/future"
)

// Task is one unit of work.
type Task func(ctx context.Context) error

const (
	statePending int32 = iota
	stateRunning
	stateDiscarded
)

type job struct {
	label string
	fn    Task
	fut   *future.Future
	state atomic.Int32
}

// discard resolves the job with err if it has not started.
func (j *job) discard(err error) bool {
	if !j.state.CompareAndSwap(statePending, stateDiscarded) {
		return false
	}
	j.fut.Resolve(err)
	return true
}

// Executor is a single-worker queue holding at most one pending job.
type Executor struct {
	slot   chan *job
	mu     sync.Mutex
	closed bool

	logger      *slog.Logger
	onDiscarded func(label string)

	stop chan struct{}
	done chan struct{}
}

// Option configures the Executor.
type Option func(*Executor)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(x *Executor) {
		x.logger = logger
	}
}

// WithDiscardHook registers a callback run when a queued job is superseded.
func WithDiscardHook(fn func(label string)) Option {
	return func(x *Executor) {
		x.onDiscarded = fn
	}
}

// New creates an executor. Jobs only run once Start is called.
func New(opts ...Option) *Executor {
	x := &Executor{
		slot:   make(chan *job, 1),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Start launches the worker. Jobs run with a context derived from ctx.
func (x *Executor) Start(ctx context.Context) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.done != nil || x.closed {
		return
	}
	x.stop = make(chan struct{})
	x.done = make(chan struct{})
	go x.run(ctx)
}

// Submit queues fn and returns immediately. The queued job it replaces, if
// any, resolves with domain.ErrSuperseded. Cancelling the returned future
// withdraws the job if it has not started.
func (x *Executor) Submit(label string, fn Task) *future.Future {
	j := &job{label: label, fn: fn, fut: future.New()}
	j.fut.OnCancel(func() bool { return j.state.CompareAndSwap(statePending, stateDiscarded) })

	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		j.state.Store(stateDiscarded)
		j.fut.Resolve(domain.ErrClosed)
		return j.fut
	}

	select {
	case stale := <-x.slot:
		if stale.discard(domain.ErrSuperseded) {
			x.logger.Debug("discarding queued path request", "request", stale.label, "replaced_by", label)
			if x.onDiscarded != nil {
				x.onDiscarded(stale.label)
			}
		}
	default:
	}
	x.slot <- j
	return j.fut
}

func (x *Executor) run(ctx context.Context) {
	defer close(x.done)
	for {
		select {
		case <-ctx.Done():
			x.shutdown(ctx.Err())
			return
		case <-x.stop:
			return
		case j := <-x.slot:
			// select picks at random among ready cases.
			if err := ctx.Err(); err != nil {
				j.discard(err)
				x.shutdown(err)
				return
			}
			if !j.state.CompareAndSwap(statePending, stateRunning) {
				continue
			}
			x.logger.Debug("running path request", "request", j.label)
			j.fut.Resolve(j.fn(ctx))
		}
	}
}

// shutdown stops accepting jobs and discards the queued one with err.
func (x *Executor) shutdown(err error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.closed = true
	select {
	case stale := <-x.slot:
		stale.discard(err)
	default:
	}
}

// Close stops accepting jobs, discards the queued one and waits for the running one to finish.
func (x *Executor) Close() error {
	x.mu.Lock()
	if x.closed {
		x.mu.Unlock()
		return nil
	}
	x.closed = true
	select {
	case stale := <-x.slot:
		stale.discard(domain.ErrClosed)
	default:
	}
	stop, done := x.stop, x.done
	x.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
	return nil
}
