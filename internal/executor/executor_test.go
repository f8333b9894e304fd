package executor_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/delmic/odemis-sub008/internal/executor"
	"github.com/delmic/odemis-sub008/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutor_OnlyLatestQueuedRequestRuns(t *testing.T) {
	var discarded []string
	x := executor.New(executor.WithDiscardHook(func(label string) {
		discarded = append(discarded, label)
	}))
	defer x.Close()

	var mu sync.Mutex
	var ran []string
	task := func(name string) executor.Task {
		return func(ctx context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			ran = append(ran, name)
			return nil
		}
	}

	// Nothing runs before Start, so all three are queued back to back.
	f1 := x.Submit("first", task("first"))
	f2 := x.Submit("second", task("second"))
	f3 := x.Submit("third", task("third"))

	x.Start(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, f3.Wait(ctx))
	assert.ErrorIs(t, f1.Wait(ctx), domain.ErrSuperseded)
	assert.ErrorIs(t, f2.Wait(ctx), domain.ErrSuperseded)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"third"}, ran)
	assert.Equal(t, []string{"first", "second"}, discarded)
}

func TestExecutor_RunningRequestIsNotInterrupted(t *testing.T) {
	x := executor.New()
	x.Start(context.Background())
	defer x.Close()

	started := make(chan struct{})
	release := make(chan struct{})
	var count atomic.Int32

	slow := x.Submit("slow", func(ctx context.Context) error {
		close(started)
		<-release
		count.Add(1)
		return nil
	})
	<-started

	queued := x.Submit("queued", func(ctx context.Context) error {
		count.Add(1)
		return nil
	})
	latest := x.Submit("latest", func(ctx context.Context) error {
		count.Add(1)
		return nil
	})
	close(release)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, slow.Wait(ctx))
	assert.ErrorIs(t, queued.Wait(ctx), domain.ErrSuperseded)
	assert.NoError(t, latest.Wait(ctx))
	assert.Equal(t, int32(2), count.Load())
}

func TestExecutor_CancelBeforeStart(t *testing.T) {
	x := executor.New()
	defer x.Close()

	var ran atomic.Bool
	f := x.Submit("cancelled", func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})
	require.True(t, f.Cancel())
	x.Start(context.Background())

	// A later request still runs.
	next := x.Submit("next", func(ctx context.Context) error { return nil })
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, next.Wait(ctx))

	assert.ErrorIs(t, f.Err(), domain.ErrCancelled)
	assert.False(t, ran.Load())
}

func TestExecutor_Close(t *testing.T) {
	x := executor.New()
	queued := x.Submit("queued", func(ctx context.Context) error { return nil })

	require.NoError(t, x.Close())
	assert.ErrorIs(t, queued.Err(), domain.ErrClosed)

	late := x.Submit("late", func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, late.Err(), domain.ErrClosed)
	assert.NoError(t, x.Close())
}

func TestExecutor_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	x := executor.New()
	x.Start(ctx)
	cancel()

	assert.Eventually(t, func() bool {
		f := x.Submit("after", func(ctx context.Context) error { return nil })
		return f.Err() == domain.ErrClosed
	}, time.Second, 10*time.Millisecond)
}

func TestExecutor_QueuedRequestDroppedWhenContextDone(t *testing.T) {
	// Both the queued job and ctx.Done are ready when the worker starts; run many
	// rounds so either select case gets picked.
	for i := 0; i < 50; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var ran atomic.Bool
		x := executor.New()
		f := x.Submit("queued", func(ctx context.Context) error {
			ran.Store(true)
			return nil
		})
		x.Start(ctx)

		waitCtx, waitCancel := context.WithTimeout(context.Background(), time.Second)
		err := f.Wait(waitCtx)
		waitCancel()

		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, ran.Load(), "round %d", i)
		require.NoError(t, x.Close())
	}
}
