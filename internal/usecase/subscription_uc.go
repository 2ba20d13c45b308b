// File: internal/usecase/subscription_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"creator-ledger/internal/domain"
	"creator-ledger/internal/domain/model"
	"creator-ledger/internal/domain/money"
	"creator-ledger/internal/domain/ports/adapter"
	"creator-ledger/internal/domain/ports/repository"
	"creator-ledger/internal/infra/logging"
	"creator-ledger/internal/infra/metrics"
)

// Compile-time check
var _ SubscriptionUseCase = (*subscriptionUC)(nil)

// SubscriptionUseCase manages the subscription lifecycle:
// none -> active -> {active <-> past_due} -> canceled.
type SubscriptionUseCase interface {
	GetPlans(ctx context.Context) ([]*model.SubscriptionPlan, error)
	// GetCurrentSubscription returns nil without error when the user has none.
	GetCurrentSubscription(ctx context.Context, userID string) (*model.UserSubscription, error)
	CreateCheckoutSession(ctx context.Context, userID, userEmail, planID string) (*adapter.CheckoutSession, error)
	CancelSubscription(ctx context.Context, userID string, immediately bool) (*model.UserSubscription, error)
	GetPaymentHistory(ctx context.Context, userID string, limit int) ([]*model.PaymentHistory, error)
	PreviewPlanChange(ctx context.Context, userID, newPlanID string) (*PlanChangePreview, error)
	// CancelDueSubscriptions ends subscriptions whose cancel_at_period_end date has passed.
	CancelDueSubscriptions(ctx context.Context, limit int) (int, error)
}

// CheckoutConfig holds the per-plan provider price ids and redirect URLs.
type CheckoutConfig struct {
	SuccessURL string
	CancelURL  string
	PriceRefs  map[string]string // plan id -> provider price id
}

// PlanChangePreview is the prorated effect of switching plans mid-period.
// Charge is due now on upgrade; Credit is carried on downgrade. Both are in minor units.
type PlanChangePreview struct {
	CurrentPlanID string `json:"current_plan_id"`
	NewPlanID     string `json:"new_plan_id"`
	Currency      string `json:"currency"`
	DaysRemaining int    `json:"days_remaining"`
	DaysInPeriod  int    `json:"days_in_period"`
	IsDowngrade   bool   `json:"is_downgrade"`
	Charge        int64  `json:"charge"`
	Credit        int64  `json:"credit"`
}

type subscriptionUC struct {
	users   repository.UserRepository
	plans   repository.SubscriptionPlanRepository
	subs    repository.SubscriptionRepository
	history repository.PaymentHistoryRepository
	gateway adapter.PaymentGateway
	cfg     CheckoutConfig
	log     *zerolog.Logger
	now     func() time.Time
}

func NewSubscriptionUseCase(
	users repository.UserRepository,
	plans repository.SubscriptionPlanRepository,
	subs repository.SubscriptionRepository,
	history repository.PaymentHistoryRepository,
	gateway adapter.PaymentGateway,
	cfg CheckoutConfig,
	logger *zerolog.Logger,
) *subscriptionUC {
	l := logger.With().Str("component", "subscription_uc").Logger()
	return &subscriptionUC{
		users:   users,
		plans:   plans,
		subs:    subs,
		history: history,
		gateway: gateway,
		cfg:     cfg,
		log:     &l,
		now:     time.Now,
	}
}

func (u *subscriptionUC) GetPlans(ctx context.Context) ([]*model.SubscriptionPlan, error) {
	return u.plans.ListActive(ctx, repository.NoTX)
}

func (u *subscriptionUC) GetCurrentSubscription(ctx context.Context, userID string) (*model.UserSubscription, error) {
	sub, err := u.subs.FindActiveByUser(ctx, repository.NoTX, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return sub, err
}

func (u *subscriptionUC) CreateCheckoutSession(ctx context.Context, userID, userEmail, planID string) (*adapter.CheckoutSession, error) {
	defer logging.TraceDuration(u.log, "SubscriptionUC.CreateCheckoutSession")()
	log := logging.With(ctx, u.log)

	if userID == "" || planID == "" {
		return nil, domain.ErrInvalidArgument
	}
	user, err := u.users.FindByID(ctx, repository.NoTX, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	plan, err := u.findPlan(ctx, repository.NoTX, planID)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, domain.ErrPlanInactive
	}
	if plan.PaymentProvider != u.gateway.Name() {
		return nil, domain.ErrProviderMismatch
	}

	current, err := u.GetCurrentSubscription(ctx, userID)
	if err != nil {
		return nil, err
	}
	if current != nil && current.PlanID == planID {
		return nil, domain.ErrDuplicateSubscription
	}

	priceRef := u.cfg.PriceRefs[planID]
	if priceRef == "" {
		log.Error().Str("plan_id", planID).Msg("no provider price configured for plan")
		return nil, domain.ErrPriceNotConfigured
	}
	if userEmail == "" {
		userEmail = user.Email
	}

	session, err := u.gateway.CreateCheckoutSession(ctx, adapter.CheckoutParams{
		UserID:     userID,
		Email:      userEmail,
		PlanID:     planID,
		PriceRef:   priceRef,
		SuccessURL: u.cfg.SuccessURL,
		CancelURL:  u.cfg.CancelURL,
	})
	if err != nil {
		log.Error().Err(err).Str("plan_id", planID).Msg("checkout session request failed")
		return nil, asGatewayError(err)
	}
	log.Info().Str("plan_id", planID).Str("email", logging.Redact(userEmail)).Str("session_id", session.ID).Msg("checkout session created")
	return session, nil
}

func (u *subscriptionUC) CancelSubscription(ctx context.Context, userID string, immediately bool) (*model.UserSubscription, error) {
	defer logging.TraceDuration(u.log, "SubscriptionUC.CancelSubscription")()
	log := logging.With(ctx, u.log)

	sub, err := u.subs.FindActiveByUser(ctx, repository.NoTX, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNoActiveSubscription
		}
		return nil, err
	}
	if !immediately && sub.CancelAtPeriodEnd {
		return sub, nil
	}

	// The gateway is asked first; a rejection leaves the local record untouched.
	if sub.ExternalSubscriptionID != "" {
		if err := u.gateway.CancelSubscription(ctx, sub.ExternalSubscriptionID, immediately); err != nil {
			log.Error().Err(err).Str("subscription_id", sub.ID).Bool("immediately", immediately).Msg("gateway rejected cancellation")
			return nil, asGatewayError(err)
		}
	}

	now := u.now()
	if immediately {
		sub.CancelNow(now)
	} else {
		sub.ScheduleCancel(now)
	}
	if err := u.subs.Save(ctx, repository.NoTX, sub); err != nil {
		log.Error().Err(err).Str("subscription_id", sub.ID).Msg("gateway canceled but local update failed")
		return nil, err
	}

	if immediately {
		metrics.IncSubscriptionTransition(string(model.SubscriptionStatusCanceled))
	} else {
		metrics.IncSubscriptionTransition("cancel_scheduled")
	}
	log.Info().Str("subscription_id", sub.ID).Bool("immediately", immediately).Msg("subscription canceled")
	return sub, nil
}

func (u *subscriptionUC) GetPaymentHistory(ctx context.Context, userID string, limit int) ([]*model.PaymentHistory, error) {
	_, limit = page(0, limit)
	return u.history.ListByUser(ctx, repository.NoTX, userID, limit)
}

func (u *subscriptionUC) PreviewPlanChange(ctx context.Context, userID, newPlanID string) (*PlanChangePreview, error) {
	sub, err := u.subs.FindActiveByUser(ctx, repository.NoTX, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNoActiveSubscription
		}
		return nil, err
	}
	if sub.PlanID == newPlanID {
		return nil, domain.ErrSamePlan
	}
	cur, err := u.findPlan(ctx, repository.NoTX, sub.PlanID)
	if err != nil {
		return nil, err
	}
	next, err := u.findPlan(ctx, repository.NoTX, newPlanID)
	if err != nil {
		return nil, err
	}
	if !next.IsActive {
		return nil, domain.ErrPlanInactive
	}
	if cur.Currency != next.Currency {
		return nil, domain.ErrCurrencyMismatch
	}

	period := sub.PeriodDays()
	remaining := sub.RemainingDays(u.now())
	if remaining > period {
		remaining = period
	}
	p := &PlanChangePreview{
		CurrentPlanID: cur.ID,
		NewPlanID:     next.ID,
		Currency:      next.Currency,
		DaysRemaining: remaining,
		DaysInPeriod:  period,
		IsDowngrade:   next.Price < cur.Price,
	}
	if p.IsDowngrade {
		p.Credit, err = money.ProrationMinor(cur.Price, next.Price, remaining, period, next.Currency, true, true)
	} else {
		p.Charge, err = money.ProrationMinor(cur.Price, next.Price, remaining, period, next.Currency, false, false)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (u *subscriptionUC) CancelDueSubscriptions(ctx context.Context, limit int) (int, error) {
	now := u.now()
	due, err := u.subs.ListDueForCancellation(ctx, repository.NoTX, now, limit)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, s := range due {
		s.CancelNow(now)
		if err := u.subs.Save(ctx, repository.NoTX, s); err != nil {
			u.log.Error().Err(err).Str("subscription_id", s.ID).Msg("failed to end subscription at period end")
			continue
		}
		n++
		metrics.IncSubscriptionTransition(string(model.SubscriptionStatusCanceled))
	}
	if counts, err := u.subs.CountByStatus(ctx, repository.NoTX); err == nil {
		metrics.SetSubscriptionsTotal(counts)
	}
	return n, nil
}

func (u *subscriptionUC) findPlan(ctx context.Context, tx repository.Tx, id string) (*model.SubscriptionPlan, error) {
	plan, err := u.plans.FindByID(ctx, tx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}
