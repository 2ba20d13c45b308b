// File: internal/usecase/webhook_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"creator-ledger/internal/domain"
	"creator-ledger/internal/domain/model"
	"creator-ledger/internal/domain/ports/adapter"
	"creator-ledger/internal/domain/ports/repository"
	"creator-ledger/internal/infra/logging"
	"creator-ledger/internal/infra/metrics"
)

// Compile-time check
var _ WebhookUseCase = (*webhookUC)(nil)

// WebhookUseCase maps verified gateway events to ledger transitions.
// Every handler is safe under at-least-once delivery.
type WebhookUseCase interface {
	// HandleWebhook verifies the payload, skips already-processed events and dispatches.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
	// Dispatch runs the handler for one event. Unknown types are ignored.
	Dispatch(ctx context.Context, ev adapter.Event) error
}

const webhookLockTTL = 30 * time.Second

type webhookUC struct {
	gateway adapter.PaymentGateway
	tips    TipUseCase
	plans   repository.SubscriptionPlanRepository
	subs    repository.SubscriptionRepository
	history repository.PaymentHistoryRepository
	events  repository.WebhookEventRepository
	tm      repository.TransactionManager
	locker  adapter.Locker
	log     *zerolog.Logger
	now     func() time.Time
}

func NewWebhookUseCase(
	gateway adapter.PaymentGateway,
	tips TipUseCase,
	plans repository.SubscriptionPlanRepository,
	subs repository.SubscriptionRepository,
	history repository.PaymentHistoryRepository,
	events repository.WebhookEventRepository,
	tm repository.TransactionManager,
	locker adapter.Locker,
	logger *zerolog.Logger,
) *webhookUC {
	l := logger.With().Str("component", "webhook_uc").Logger()
	return &webhookUC{
		gateway: gateway,
		tips:    tips,
		plans:   plans,
		subs:    subs,
		history: history,
		events:  events,
		tm:      tm,
		locker:  locker,
		log:     &l,
		now:     time.Now,
	}
}

func (u *webhookUC) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	defer logging.TraceDuration(u.log, "WebhookUC.HandleWebhook")()
	provider := u.gateway.Name()

	ev, err := u.gateway.ConstructWebhookEvent(payload, signature)
	if err != nil {
		metrics.IncWebhookEvent(provider, "unknown", "rejected")
		logging.With(ctx, u.log).Warn().Err(err).Msg("webhook rejected")
		return err
	}
	ctx = logging.WithEventID(ctx, ev.EventID())
	log := logging.With(ctx, u.log).With().Str("event_type", ev.EventType()).Logger()

	if u.locker != nil {
		key := fmt.Sprintf("lock:webhook:%s:%s", provider, ev.EventID())
		token, err := u.locker.TryLock(ctx, key, webhookLockTTL)
		switch {
		case errors.Is(err, domain.ErrLockBusy):
			log.Info().Msg("event is being processed by another delivery")
			return domain.ErrLockBusy
		case err != nil:
			log.Warn().Err(err).Msg("webhook lock unavailable; relying on handler idempotency")
		default:
			defer func() {
				if err := u.locker.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
					log.Warn().Err(err).Msg("webhook unlock failed")
				}
			}()
		}
	}

	seen, err := u.events.Exists(ctx, repository.NoTX, provider, ev.EventID())
	if err != nil {
		return err
	}
	if seen {
		metrics.IncWebhookEvent(provider, ev.EventType(), "duplicate")
		log.Info().Msg("duplicate webhook delivery; acknowledged")
		return nil
	}

	if err := u.Dispatch(ctx, ev); err != nil {
		metrics.IncWebhookEvent(provider, ev.EventType(), "error")
		log.Error().Err(err).Msg("webhook handler failed")
		return err
	}

	err = u.events.Save(ctx, repository.NoTX, &model.WebhookEvent{
		Provider:    provider,
		EventID:     ev.EventID(),
		EventType:   ev.EventType(),
		ProcessedAt: u.now(),
	})
	if err != nil && !errors.Is(err, domain.ErrAlreadyExists) {
		log.Warn().Err(err).Msg("failed to record processed webhook")
	}

	result := "processed"
	if _, ok := ev.(*adapter.UnknownEvent); ok {
		result = "ignored"
	}
	metrics.IncWebhookEvent(provider, ev.EventType(), result)
	return nil
}

func (u *webhookUC) Dispatch(ctx context.Context, ev adapter.Event) error {
	switch e := ev.(type) {
	case *adapter.CheckoutSessionCompleted:
		return u.onCheckoutCompleted(ctx, e)
	case *adapter.InvoicePaymentSucceeded:
		return u.onInvoicePaid(ctx, e)
	case *adapter.InvoicePaymentFailed:
		return u.onInvoiceFailed(ctx, e)
	case *adapter.SubscriptionUpdated:
		return u.onSubscriptionUpdated(ctx, e)
	case *adapter.SubscriptionDeleted:
		return u.onSubscriptionDeleted(ctx, e)
	case *adapter.PaymentIntentSucceeded:
		if e.Metadata["type"] != "tip" {
			return nil
		}
		return u.tips.ConfirmTipPayment(ctx, e.PaymentIntentID, model.PaymentOutcomeSucceeded)
	case *adapter.PaymentIntentFailed:
		if e.Metadata["type"] != "tip" {
			return nil
		}
		// The intent goes back to requires_payment_method and the viewer may retry.
		metrics.IncTipPaymentEvent("attempt_failed")
		logging.With(ctx, u.log).Info().
			Str("payment_ref", e.PaymentIntentID).
			Str("reason", e.FailureReason).
			Msg("tip payment attempt failed; tip stays pending")
		return nil
	case *adapter.PaymentIntentCanceled:
		if e.Metadata["type"] != "tip" {
			return nil
		}
		return u.tips.ConfirmTipPayment(ctx, e.PaymentIntentID, model.PaymentOutcomeFailed)
	case *adapter.ChargeRefunded:
		if !e.FullyRefunded {
			metrics.IncTipPaymentEvent("partial_refund")
			logging.With(ctx, u.log).Warn().
				Str("payment_ref", e.PaymentIntentID).
				Int64("amount", e.Amount).
				Int64("amount_refunded", e.AmountRefunded).
				Msg("partial refund; earning left unchanged")
			return nil
		}
		return u.tips.ReverseTip(ctx, e.PaymentIntentID)
	default:
		logging.With(ctx, u.log).Info().Str("event_type", ev.EventType()).Msg("unhandled webhook event type; ignoring")
		return nil
	}
}

// onCheckoutCompleted creates the subscription the checkout paid for. Any other
// current subscription of the user is canceled first, at the gateway and locally.
func (u *webhookUC) onCheckoutCompleted(ctx context.Context, e *adapter.CheckoutSessionCompleted) error {
	log := logging.With(ctx, u.log)
	userID, planID := e.Metadata["userId"], e.Metadata["planId"]
	if userID == "" || planID == "" || e.SubscriptionID == "" {
		log.Error().Err(domain.ErrMissingWebhookMetadata).Str("session_id", e.SessionID).Msg("checkout completed without correlation data")
		return nil
	}

	if _, err := u.subs.FindByExternalID(ctx, repository.NoTX, e.SubscriptionID); err == nil {
		log.Info().Str("external_subscription_id", e.SubscriptionID).Msg("subscription already recorded")
		return nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	plan, err := u.plans.FindByID(ctx, repository.NoTX, planID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Error().Str("plan_id", planID).Msg("checkout completed for unknown plan")
			return nil
		}
		return err
	}

	snap, err := u.gateway.GetSubscription(ctx, e.SubscriptionID)
	if err != nil {
		return asGatewayError(err)
	}

	previous, err := u.subs.ListActiveByUser(ctx, repository.NoTX, userID)
	if err != nil {
		return err
	}
	for _, old := range previous {
		if old.ExternalSubscriptionID == "" || old.ExternalSubscriptionID == e.SubscriptionID {
			continue
		}
		if err := u.gateway.CancelSubscription(ctx, old.ExternalSubscriptionID, true); err != nil {
			return asGatewayError(err)
		}
	}

	customerID := e.CustomerID
	if customerID == "" {
		customerID = snap.CustomerID
	}
	sub, err := model.NewUserSubscription(uuid.NewString(), userID, plan.ID, u.gateway.Name(), snap.CurrentPeriodStart, snap.CurrentPeriodEnd)
	if err != nil {
		return err
	}
	sub.ExternalSubscriptionID = e.SubscriptionID
	sub.ExternalCustomerID = customerID
	sub.CancelAtPeriodEnd = snap.CancelAtPeriodEnd

	now := u.now()
	err = u.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		for _, old := range previous {
			if old.ExternalSubscriptionID == e.SubscriptionID {
				continue
			}
			old.CancelNow(now)
			if err := u.subs.Save(ctx, tx, old); err != nil {
				return err
			}
		}
		return u.subs.Save(ctx, tx, sub)
	})
	if errors.Is(err, domain.ErrAlreadyExists) {
		// Either a replay of this checkout or another checkout of the same
		// user won the one-current-subscription index. Only the first is done.
		if _, ferr := u.subs.FindByExternalID(ctx, repository.NoTX, e.SubscriptionID); ferr == nil {
			log.Info().Str("external_subscription_id", e.SubscriptionID).Msg("subscription recorded concurrently")
			return nil
		}
		log.Warn().Str("external_subscription_id", e.SubscriptionID).Msg("another subscription became current meanwhile; retrying delivery")
		return fmt.Errorf("record subscription %s: %w", e.SubscriptionID, err)
	}
	if err != nil {
		return err
	}

	for range previous {
		metrics.IncSubscriptionTransition(string(model.SubscriptionStatusCanceled))
	}
	metrics.IncSubscriptionTransition(string(model.SubscriptionStatusActive))
	log.Info().
		Str("subscription_id", sub.ID).
		Str("plan_id", plan.ID).
		Int("replaced", len(previous)).
		Msg("subscription activated")
	return nil
}

func (u *webhookUC) onInvoicePaid(ctx context.Context, e *adapter.InvoicePaymentSucceeded) error {
	log := logging.With(ctx, u.log)
	sub, err := u.findByExternal(ctx, e.SubscriptionID)
	if err != nil || sub == nil {
		return err
	}

	paidAt := e.PaidAt
	if paidAt.IsZero() {
		paidAt = u.now()
	}
	var appended bool
	err = u.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		appended, err = u.history.Append(ctx, tx, &model.PaymentHistory{
			ID:                uuid.NewString(),
			UserID:            sub.UserID,
			SubscriptionID:    sub.ID,
			ExternalEventID:   e.EventID(),
			ExternalInvoiceID: e.InvoiceID,
			Amount:            e.Amount,
			Currency:          e.Currency,
			Status:            model.PaymentStatusSucceeded,
			PaidAt:            &paidAt,
			CreatedAt:         u.now(),
		})
		if err != nil {
			return err
		}
		if sub.Status == model.SubscriptionStatusPastDue {
			sub.Status = model.SubscriptionStatusActive
			sub.UpdatedAt = u.now()
			return u.subs.Save(ctx, tx, sub)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if appended {
		metrics.IncSubscriptionPayment(string(model.PaymentStatusSucceeded), e.Currency)
	}
	log.Info().Str("subscription_id", sub.ID).Str("status", string(sub.Status)).Int64("amount", e.Amount).Msg("invoice paid")
	return nil
}

func (u *webhookUC) onInvoiceFailed(ctx context.Context, e *adapter.InvoicePaymentFailed) error {
	log := logging.With(ctx, u.log)
	sub, err := u.findByExternal(ctx, e.SubscriptionID)
	if err != nil || sub == nil {
		return err
	}

	var reason *string
	if e.FailureReason != "" {
		r := e.FailureReason
		reason = &r
	}
	var appended bool
	err = u.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		appended, err = u.history.Append(ctx, tx, &model.PaymentHistory{
			ID:                uuid.NewString(),
			UserID:            sub.UserID,
			SubscriptionID:    sub.ID,
			ExternalEventID:   e.EventID(),
			ExternalInvoiceID: e.InvoiceID,
			Amount:            e.Amount,
			Currency:          e.Currency,
			Status:            model.PaymentStatusFailed,
			FailureReason:     reason,
			CreatedAt:         u.now(),
		})
		if err != nil {
			return err
		}
		if sub.Status == model.SubscriptionStatusCanceled || sub.Status == model.SubscriptionStatusPastDue {
			return nil
		}
		sub.Status = model.SubscriptionStatusPastDue
		sub.UpdatedAt = u.now()
		return u.subs.Save(ctx, tx, sub)
	})
	if err != nil {
		return err
	}
	if appended {
		metrics.IncSubscriptionPayment(string(model.PaymentStatusFailed), e.Currency)
		metrics.IncSubscriptionTransition(string(model.SubscriptionStatusPastDue))
	}
	log.Warn().Str("subscription_id", sub.ID).Str("reason", e.FailureReason).Msg("invoice payment failed")
	return nil
}

func (u *webhookUC) onSubscriptionUpdated(ctx context.Context, e *adapter.SubscriptionUpdated) error {
	sub, err := u.findByExternal(ctx, e.Subscription.ID)
	if err != nil || sub == nil {
		return err
	}
	if sub.IsCanceled() {
		return nil
	}

	snap := e.Subscription
	if status, ok := mapGatewayStatus(snap.Status); ok {
		sub.Status = status
	}
	if snap.CurrentPeriodEnd.After(snap.CurrentPeriodStart) {
		sub.CurrentPeriodStart = snap.CurrentPeriodStart
		sub.CurrentPeriodEnd = snap.CurrentPeriodEnd
	}
	sub.CancelAtPeriodEnd = snap.CancelAtPeriodEnd
	now := u.now()
	if sub.Status == model.SubscriptionStatusCanceled && sub.CanceledAt == nil {
		sub.CanceledAt = &now
	}
	sub.UpdatedAt = now
	if err := u.subs.Save(ctx, repository.NoTX, sub); err != nil {
		return err
	}
	metrics.IncSubscriptionTransition(string(sub.Status))
	logging.With(ctx, u.log).Info().
		Str("subscription_id", sub.ID).
		Str("status", string(sub.Status)).
		Bool("cancel_at_period_end", sub.CancelAtPeriodEnd).
		Msg("subscription synced")
	return nil
}

func (u *webhookUC) onSubscriptionDeleted(ctx context.Context, e *adapter.SubscriptionDeleted) error {
	sub, err := u.findByExternal(ctx, e.SubscriptionID)
	if err != nil || sub == nil {
		return err
	}
	if sub.IsCanceled() {
		return nil
	}
	now := u.now()
	sub.Status = model.SubscriptionStatusCanceled
	sub.CancelAtPeriodEnd = false
	sub.CanceledAt = &now
	sub.UpdatedAt = now
	if err := u.subs.Save(ctx, repository.NoTX, sub); err != nil {
		return err
	}
	metrics.IncSubscriptionTransition(string(model.SubscriptionStatusCanceled))
	logging.With(ctx, u.log).Info().Str("subscription_id", sub.ID).Msg("subscription deleted at gateway")
	return nil
}

// findByExternal returns nil, nil for subscriptions this ledger does not know.
func (u *webhookUC) findByExternal(ctx context.Context, externalID string) (*model.UserSubscription, error) {
	sub, err := u.subs.FindByExternalID(ctx, repository.NoTX, externalID)
	if errors.Is(err, domain.ErrNotFound) {
		logging.With(ctx, u.log).Warn().Str("external_subscription_id", externalID).Msg("event for unknown subscription; ignoring")
		return nil, nil
	}
	return sub, err
}

func mapGatewayStatus(s string) (model.SubscriptionStatus, bool) {
	switch s {
	case "active", "trialing":
		return model.SubscriptionStatusActive, true
	case "past_due":
		return model.SubscriptionStatusPastDue, true
	case "canceled", "incomplete_expired":
		return model.SubscriptionStatusCanceled, true
	case "unpaid":
		return model.SubscriptionStatusUnpaid, true
	}
	return "", false
}
