//go:build !integration

package worker_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"creator-ledger/internal/infra/worker"
)

func TestPool(t *testing.T) {
	logger := zerolog.New(io.Discard)

	t.Run("should run every submitted task", func(t *testing.T) {
		ctx := context.Background()
		p := worker.NewPool(3, &logger)
		p.Start(ctx)
		defer p.Stop()

		var n int64
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			err := p.Submit(ctx, func(ctx context.Context) error {
				defer wg.Done()
				atomic.AddInt64(&n, 1)
				return nil
			})
			if err != nil {
				t.Fatalf("submit: %v", err)
			}
		}
		wg.Wait()

		if got := atomic.LoadInt64(&n); got != 50 {
			t.Errorf("expected 50 tasks to run, got %d", got)
		}
	})

	t.Run("should keep running after a task error", func(t *testing.T) {
		ctx := context.Background()
		p := worker.NewPool(1, &logger)
		p.Start(ctx)
		defer p.Stop()

		done := make(chan struct{})
		_ = p.Submit(ctx, func(ctx context.Context) error { return errors.New("boom") })
		_ = p.Submit(ctx, func(ctx context.Context) error { close(done); return nil })

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("second task never ran")
		}
	})

	t.Run("should refuse work after stop", func(t *testing.T) {
		p := worker.NewPool(1, &logger)
		p.Start(context.Background())
		p.Stop()
		p.Stop()

		err := p.Submit(context.Background(), func(ctx context.Context) error { return nil })
		if !errors.Is(err, worker.ErrStopped) {
			t.Errorf("expected ErrStopped, got %v", err)
		}
	})

	t.Run("should release queued tasks on stop", func(t *testing.T) {
		p := worker.NewPool(1, &logger)
		var got error
		ran := false
		if err := p.Submit(context.Background(), func(ctx context.Context) error {
			ran = true
			got = ctx.Err()
			return nil
		}); err != nil {
			t.Fatalf("submit: %v", err)
		}

		p.Stop()

		if !ran {
			t.Fatal("expected the queued task to be released")
		}
		if !errors.Is(got, context.Canceled) {
			t.Errorf("expected a canceled context, got %v", got)
		}
	})
}
