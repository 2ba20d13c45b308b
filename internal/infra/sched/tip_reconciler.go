package sched

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"creator-ledger/internal/infra/metrics"
	"creator-ledger/internal/infra/worker"
	"creator-ledger/internal/usecase"
)

const tipReconcileJob = "tip_reconcile"

// TipReconciler settles tips whose webhook never arrived by asking the gateway
// for the intent state. Tips still unpaid after expireAfter are failed and
// their intents canceled.
type TipReconciler struct {
	uc          usecase.TipUseCase
	pool        *worker.Pool
	staleAfter  time.Duration
	expireAfter time.Duration
	batch       int
	log         *zerolog.Logger
}

func NewTipReconciler(uc usecase.TipUseCase, pool *worker.Pool, staleAfter, expireAfter time.Duration, batch int, logger *zerolog.Logger) *TipReconciler {
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	if expireAfter <= staleAfter {
		expireAfter = 24 * time.Hour
	}
	if batch <= 0 {
		batch = 200
	}
	l := logger.With().Str("component", "TipReconciler").Logger()
	return &TipReconciler{uc: uc, pool: pool, staleAfter: staleAfter, expireAfter: expireAfter, batch: batch, log: &l}
}

func (w *TipReconciler) Name() string { return tipReconcileJob }

// Run does one pass and returns once every tip in the batch was tried.
func (w *TipReconciler) Run(ctx context.Context) error {
	pending, err := w.uc.ListStalePending(ctx, w.staleAfter, w.batch)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		outcomes = map[usecase.ReconcileOutcome]int{}
		errs     int
	)
	for _, tip := range pending {
		tip := tip
		wg.Add(1)
		err := w.pool.Submit(ctx, func(ctx context.Context) error {
			defer wg.Done()
			out, err := w.uc.ReconcileTip(ctx, tip, w.expireAfter)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs++
				w.log.Warn().Err(err).Str("tip_id", tip.ID).Msg("reconcile failed")
				return nil
			}
			outcomes[out]++
			return nil
		})
		if err != nil {
			wg.Done()
			w.log.Warn().Err(err).Msg("reconcile pass interrupted")
			break
		}
	}
	// Workers stop with the process context and may leave queued tips
	// behind, so the wait also ends with ctx. Those tips stay pending.
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		w.log.Warn().Err(ctx.Err()).Msg("reconcile pass abandoned; unfinished tips are retried next pass")
		return ctx.Err()
	}

	mu.Lock()
	defer mu.Unlock()
	for out, n := range outcomes {
		metrics.AddJobItems(tipReconcileJob, string(out), n)
	}
	metrics.AddJobItems(tipReconcileJob, "error", errs)
	w.log.Info().
		Int("scanned", len(pending)).
		Int("completed", outcomes[usecase.ReconcileCompleted]).
		Int("failed", outcomes[usecase.ReconcileFailed]).
		Int("expired", outcomes[usecase.ReconcileExpired]).
		Int("errors", errs).
		Msg("tip reconcile pass done")
	return nil
}
