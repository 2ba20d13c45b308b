package sched

import (
	"context"

	"github.com/rs/zerolog"

	"creator-ledger/internal/infra/metrics"
	"creator-ledger/internal/usecase"
)

const subscriptionExpiryJob = "subscription_expiry"

// SubscriptionExpiry ends subscriptions scheduled to cancel at period end.
type SubscriptionExpiry struct {
	subUC usecase.SubscriptionUseCase
	batch int
	log   *zerolog.Logger
}

func NewSubscriptionExpiry(subUC usecase.SubscriptionUseCase, batch int, logger *zerolog.Logger) *SubscriptionExpiry {
	if batch <= 0 {
		batch = 200
	}
	l := logger.With().Str("component", "SubscriptionExpiry").Logger()
	return &SubscriptionExpiry{subUC: subUC, batch: batch, log: &l}
}

func (w *SubscriptionExpiry) Name() string { return subscriptionExpiryJob }

func (w *SubscriptionExpiry) Run(ctx context.Context) error {
	n, err := w.subUC.CancelDueSubscriptions(ctx, w.batch)
	if err != nil {
		return err
	}
	if n > 0 {
		metrics.AddJobItems(subscriptionExpiryJob, "canceled", n)
		w.log.Info().Int("count", n).Msg("scheduled cancellations applied")
	}
	return nil
}
