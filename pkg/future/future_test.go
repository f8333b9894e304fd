package future_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/delmic/odemis-sub008/pkg/domain"
	"github.com/delmic/odemis-sub008/pkg/future"
	"github.com/stretchr/testify/assert"
)

func TestFuture_ResolveOnce(t *testing.T) {
	f := future.New()
	assert.NoError(t, f.Err())

	boom := errors.New("boom")
	assert.True(t, f.Resolve(boom))
	assert.False(t, f.Resolve(nil))
	assert.ErrorIs(t, f.Wait(context.Background()), boom)
}

func TestFuture_WaitHonoursContext(t *testing.T) {
	f := future.New()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, f.Wait(ctx), context.DeadlineExceeded)
}

func TestFuture_Cancel(t *testing.T) {
	t.Run("Without Canceller", func(t *testing.T) {
		f := future.New()
		assert.False(t, f.Cancel())
	})

	t.Run("Pending Work", func(t *testing.T) {
		f := future.New()
		f.OnCancel(func() bool { return true })
		assert.True(t, f.Cancel())
		assert.ErrorIs(t, f.Err(), domain.ErrCancelled)
	})

	t.Run("Running Work", func(t *testing.T) {
		f := future.New()
		f.OnCancel(func() bool { return false })
		assert.False(t, f.Cancel())
		select {
		case <-f.Done():
			t.Fatal("future should still be pending")
		default:
		}
	})
}
