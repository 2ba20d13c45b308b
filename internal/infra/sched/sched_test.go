//go:build !integration

package sched_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creator-ledger/internal/domain/model"
	"creator-ledger/internal/infra/sched"
	"creator-ledger/internal/infra/worker"
	"creator-ledger/internal/usecase"
)

type fakeTipUC struct {
	usecase.TipUseCase

	mu         sync.Mutex
	stale      []*model.Tip
	outcomes   map[string]usecase.ReconcileOutcome
	failing    map[string]bool
	reconciled []string
	olderThan  time.Duration
}

func (f *fakeTipUC) ListStalePending(ctx context.Context, olderThan time.Duration, limit int) ([]*model.Tip, error) {
	f.olderThan = olderThan
	if len(f.stale) > limit {
		return f.stale[:limit], nil
	}
	return f.stale, nil
}

func (f *fakeTipUC) ReconcileTip(ctx context.Context, tip *model.Tip, expireAfter time.Duration) (usecase.ReconcileOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reconciled = append(f.reconciled, tip.ID)
	if f.failing[tip.ID] {
		return usecase.ReconcileStillPending, errors.New("gateway down")
	}
	return f.outcomes[tip.ID], nil
}

type fakeSubUC struct {
	usecase.SubscriptionUseCase
	n   int
	err error
}

func (f *fakeSubUC) CancelDueSubscriptions(ctx context.Context, limit int) (int, error) {
	return f.n, f.err
}

func TestTipReconciler(t *testing.T) {
	logger := zerolog.New(io.Discard)

	newPool := func(t *testing.T) *worker.Pool {
		p := worker.NewPool(2, &logger)
		p.Start(context.Background())
		t.Cleanup(p.Stop)
		return p
	}

	t.Run("should reconcile every stale tip once", func(t *testing.T) {
		// --- Arrange ---
		uc := &fakeTipUC{
			stale: []*model.Tip{{ID: "t1"}, {ID: "t2"}, {ID: "t3"}},
			outcomes: map[string]usecase.ReconcileOutcome{
				"t1": usecase.ReconcileCompleted,
				"t2": usecase.ReconcileExpired,
			},
			failing: map[string]bool{"t3": true},
		}
		job := sched.NewTipReconciler(uc, newPool(t), 15*time.Minute, 24*time.Hour, 10, &logger)

		// --- Act ---
		err := job.Run(context.Background())

		// --- Assert ---
		require.NoError(t, err, "per-tip failures must not fail the pass")
		assert.ElementsMatch(t, []string{"t1", "t2", "t3"}, uc.reconciled)
		assert.Equal(t, 15*time.Minute, uc.olderThan)
		assert.Equal(t, "tip_reconcile", job.Name())
	})

	t.Run("should stop waiting when workers are gone", func(t *testing.T) {
		// Arrange: a pool without running workers leaves submitted tasks queued.
		idle := worker.NewPool(1, &logger)
		uc := &fakeTipUC{stale: []*model.Tip{{ID: "t1"}, {ID: "t2"}}}
		job := sched.NewTipReconciler(uc, idle, time.Minute, time.Hour, 10, &logger)
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		// Act
		done := make(chan error, 1)
		go func() { done <- job.Run(ctx) }()

		// Assert
		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.DeadlineExceeded)
		case <-time.After(2 * time.Second):
			t.Fatal("reconcile pass kept waiting after its context ended")
		}
		idle.Stop()
	})

	t.Run("should do nothing without stale tips", func(t *testing.T) {
		uc := &fakeTipUC{}
		job := sched.NewTipReconciler(uc, newPool(t), 0, 0, 0, &logger)

		require.NoError(t, job.Run(context.Background()))
		assert.Empty(t, uc.reconciled)
		assert.Equal(t, 10*time.Minute, uc.olderThan)
	})
}

func TestSubscriptionExpiry(t *testing.T) {
	logger := zerolog.New(io.Discard)

	t.Run("should apply due cancellations", func(t *testing.T) {
		job := sched.NewSubscriptionExpiry(&fakeSubUC{n: 2}, 50, &logger)
		assert.NoError(t, job.Run(context.Background()))
	})

	t.Run("should surface listing errors", func(t *testing.T) {
		job := sched.NewSubscriptionExpiry(&fakeSubUC{err: errors.New("db down")}, 50, &logger)
		assert.EqualError(t, job.Run(context.Background()), "db down")
	})
}
