// Package future provides a one-shot completion handle for asynchronous work.
package future

import (
	"context"
	"sync"

	"github.com/delmic/odemis-sub008/pkg/domain"
)

// Future is resolved exactly once with the outcome of some work.
type Future struct {
	done   chan struct{}
	once   sync.Once
	err    error
	mu     sync.Mutex
	cancel func() bool
}

// New returns an unresolved future.
func New() *Future {
	return &Future{done: make(chan struct{})}
}

// Resolved returns a future already resolved with err.
func Resolved(err error) *Future {
	f := New()
	f.Resolve(err)
	return f
}

// Resolve sets the outcome. It returns false if the future was already resolved.
func (f *Future) Resolve(err error) bool {
	resolved := false
	f.once.Do(func() {
		f.err = err
		close(f.done)
		resolved = true
	})
	return resolved
}

// Wait blocks until the future is resolved or ctx is done.
func (f *Future) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once the future is resolved.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Err returns the outcome, or nil while the future is pending.
func (f *Future) Err() error {
	select {
	case <-f.done:
		return f.err
	default:
		return nil
	}
}

// OnCancel registers the function used by Cancel to withdraw the work.
// It must return true only if the work had not started yet.
func (f *Future) OnCancel(fn func() bool) {
	f.mu.Lock()
	f.cancel = fn
	f.mu.Unlock()
}

// Cancel prevents the work from starting. Work already running is not interrupted.
// It reports whether the cancellation took effect.
func (f *Future) Cancel() bool {
	f.mu.Lock()
	fn := f.cancel
	f.mu.Unlock()
	if fn == nil || !fn() {
		return false
	}
	return f.Resolve(domain.ErrCancelled)
}
