// File: internal/usecase/tip_uc.go
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
	"creator-ledger/internal/domain/money"
	"creator-ledger/internal/domain/ports/adapter"
	"creator-ledger/internal/domain/ports/repository"
	"creator-ledger/internal/infra/logging"
	"creator-ledger/internal/infra/metrics"
)

// Compile-time check
var _ TipUseCase = (*tipUC)(nil)

type TipUseCase interface {
	// SendTip creates a pending Tip and its pending Earning after the gateway accepted a payment intent.
	SendTip(ctx context.Context, in SendTipInput) (*SendTipResult, error)
	// ConfirmTipPayment finalizes a tip once. Unknown or already-finalized transactions are no-ops.
	ConfirmTipPayment(ctx context.Context, externalTransactionID string, outcome model.PaymentOutcome) error
	// ReverseTip marks the earning of a refunded, completed tip as reversed.
	ReverseTip(ctx context.Context, externalTransactionID string) error
	ListSent(ctx context.Context, userID string, offset, limit int) ([]*model.Tip, error)
	ListReceived(ctx context.Context, userID string, offset, limit int) ([]*model.Tip, error)

	// ListStalePending returns tips still pending after olderThan.
	ListStalePending(ctx context.Context, olderThan time.Duration, limit int) ([]*model.Tip, error)
	// ReconcileTip asks the gateway for the intent state of a pending tip and settles it.
	ReconcileTip(ctx context.Context, tip *model.Tip, expireAfter time.Duration) (ReconcileOutcome, error)
}

type SendTipInput struct {
	FromUserID  string
	ContentType model.ContentType
	ContentID   string
	Amount      int64
	Message     string
}

// SendTipResult carries the optimistic pending tip. PaymentRef is the gateway's
// transaction id; there is no receipt until the gateway confirms.
type SendTipResult struct {
	Tip          *model.Tip
	PaymentRef   string
	ClientSecret string
}

type ReconcileOutcome string

const (
	ReconcileStillPending ReconcileOutcome = "pending"
	ReconcileCompleted    ReconcileOutcome = "completed"
	ReconcileFailed       ReconcileOutcome = "failed"
	ReconcileExpired      ReconcileOutcome = "expired"
)

// TipRateLimit bounds tip sends per user. A zero Limit disables it.
type TipRateLimit struct {
	Limit  int
	Window time.Duration
}

type tipUC struct {
	tips     repository.TipRepository
	earnings repository.EarningRepository
	videos   repository.VideoRepository
	gateway  adapter.PaymentGateway
	tm       repository.TransactionManager
	limiter  adapter.RateLimiter
	rate     TipRateLimit
	currency string
	log      *zerolog.Logger
	now      func() time.Time
}

func NewTipUseCase(
	tips repository.TipRepository,
	earnings repository.EarningRepository,
	videos repository.VideoRepository,
	gateway adapter.PaymentGateway,
	tm repository.TransactionManager,
	limiter adapter.RateLimiter,
	rate TipRateLimit,
	currency string,
	logger *zerolog.Logger,
) *tipUC {
	l := logger.With().Str("component", "tip_uc").Logger()
	return &tipUC{
		tips:     tips,
		earnings: earnings,
		videos:   videos,
		gateway:  gateway,
		tm:       tm,
		limiter:  limiter,
		rate:     rate,
		currency: currency,
		log:      &l,
		now:      time.Now,
	}
}

func tipRateKey(userID string) string { return "rate_limit:tip:" + userID }

func (u *tipUC) SendTip(ctx context.Context, in SendTipInput) (*SendTipResult, error) {
	defer logging.TraceDuration(u.log, "TipUC.SendTip")()
	log := logging.With(ctx, u.log)

	if in.FromUserID == "" || in.ContentID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if err := model.ValidateTipAmount(in.Amount); err != nil {
		return nil, err
	}
	msg, err := model.SanitizeTipMessage(in.Message)
	if err != nil {
		return nil, err
	}
	if !in.ContentType.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	// Only videos have an owner lookup today.
	if in.ContentType != model.ContentTypeVideo {
		return nil, domain.ErrUnsupportedContentType
	}

	if u.limiter != nil && u.rate.Limit > 0 {
		ok, err := u.limiter.Allow(ctx, tipRateKey(in.FromUserID), u.rate.Limit, u.rate.Window)
		if err != nil {
			log.Warn().Err(err).Msg("tip rate limiter unavailable; allowing request")
		} else if !ok {
			return nil, domain.ErrRateLimited
		}
	}

	ownerID, err := u.videos.FindOwnerID(ctx, repository.NoTX, in.ContentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrContentNotFound
		}
		return nil, err
	}
	if ownerID == in.FromUserID {
		return nil, domain.ErrCannotTipSelf
	}

	fee, net, err := money.Split(in.Amount, model.SourceTypeTip)
	if err != nil {
		return nil, err
	}

	tipID := uuid.NewString()
	intent, err := u.gateway.CreatePaymentIntent(ctx, in.Amount, u.currency, map[string]string{
		"type":        "tip",
		"tipId":       tipID,
		"fromUserId":  in.FromUserID,
		"toUserId":    ownerID,
		"contentType": string(in.ContentType),
		"contentId":   in.ContentID,
	})
	if err != nil {
		log.Error().Err(err).Str("to_user_id", ownerID).Int64("amount", in.Amount).Msg("payment intent request failed")
		return nil, asGatewayError(err)
	}

	now := u.now()
	tip := &model.Tip{
		ID:                    tipID,
		FromUserID:            in.FromUserID,
		ToUserID:              ownerID,
		ContentType:           in.ContentType,
		ContentID:             in.ContentID,
		Amount:                in.Amount,
		Currency:              u.currency,
		Message:               msg,
		PaymentProvider:       u.gateway.Name(),
		ExternalTransactionID: intent.ID,
		Status:                model.TipStatusPending,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	earning := &model.Earning{
		ID:          uuid.NewString(),
		UserID:      ownerID,
		SourceType:  model.SourceTypeTip,
		SourceID:    tipID,
		Amount:      in.Amount,
		PlatformFee: fee,
		NetAmount:   net,
		Currency:    u.currency,
		Status:      model.EarningStatusPending,
		AvailableAt: now.Add(model.HoldingPeriod),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = u.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := u.tips.Save(ctx, tx, tip); err != nil {
			return fmt.Errorf("save tip: %w", err)
		}
		if err := u.earnings.Save(ctx, tx, earning); err != nil {
			return fmt.Errorf("save earning: %w", err)
		}
		return nil
	})
	if err != nil {
		// Void the intent so no money is taken for a tip the ledger never recorded.
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if cerr := u.gateway.CancelPaymentIntent(cctx, intent.ID); cerr != nil {
			log.Error().Err(cerr).Str("payment_ref", intent.ID).Msg("orphaned payment intent; left for reconciliation")
		} else {
			log.Warn().Str("payment_ref", intent.ID).Msg("ledger write failed; payment intent canceled")
		}
		return nil, err
	}

	metrics.IncTip(string(model.TipStatusPending))
	metrics.IncEarningTransition("created")
	log.Info().
		Str("tip_id", tip.ID).
		Str("to_user_id", ownerID).
		Int64("amount", tip.Amount).
		Int64("platform_fee", fee).
		Str("payment_ref", intent.ID).
		Msg("tip created")

	return &SendTipResult{Tip: tip, PaymentRef: intent.ID, ClientSecret: intent.ClientSecret}, nil
}

func (u *tipUC) ConfirmTipPayment(ctx context.Context, externalTransactionID string, outcome model.PaymentOutcome) error {
	defer logging.TraceDuration(u.log, "TipUC.ConfirmTipPayment")()
	log := logging.With(ctx, u.log).With().Str("payment_ref", externalTransactionID).Logger()

	if outcome != model.PaymentOutcomeSucceeded && outcome != model.PaymentOutcomeFailed {
		return domain.ErrInvalidArgument
	}
	tip, err := u.tips.FindByExternalTransactionID(ctx, repository.NoTX, externalTransactionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Warn().Msg("no tip for payment; ignoring")
			return nil
		}
		return err
	}

	var applied bool
	err = u.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		applied = false
		if outcome == model.PaymentOutcomeSucceeded {
			changed, err := u.tips.UpdateStatusIfPending(ctx, tx, tip.ID, model.TipStatusCompleted)
			if err != nil || !changed {
				return err
			}
			applied = true
			e, err := u.earnings.FindBySource(ctx, tx, model.SourceTypeTip, tip.ID)
			if errors.Is(err, domain.ErrNotFound) {
				log.Error().Str("tip_id", tip.ID).Msg("completed tip has no earning")
				return nil
			}
			if err != nil {
				return err
			}
			_, err = u.earnings.UpdateStatus(ctx, tx, e.ID, model.EarningStatusPending, model.EarningStatusAvailable)
			return err
		}

		changed, err := u.tips.UpdateStatusIfPending(ctx, tx, tip.ID, model.TipStatusFailed)
		if err != nil || !changed {
			return err
		}
		applied = true
		_, err = u.earnings.DeleteBySourceIfPending(ctx, tx, model.SourceTypeTip, tip.ID)
		return err
	})
	if err != nil {
		return err
	}
	if !applied {
		log.Info().Str("tip_id", tip.ID).Str("status", string(tip.Status)).Msg("tip already finalized; no-op")
		return nil
	}

	if outcome == model.PaymentOutcomeSucceeded {
		fee, _ := money.PlatformFee(tip.Amount, model.SourceTypeTip)
		metrics.IncTip(string(model.TipStatusCompleted))
		metrics.AddTipGross(tip.Currency, tip.Amount)
		metrics.AddPlatformFee(string(model.SourceTypeTip), tip.Currency, fee)
		metrics.IncEarningTransition(string(model.EarningStatusAvailable))
	} else {
		metrics.IncTip(string(model.TipStatusFailed))
		metrics.IncEarningTransition("deleted")
	}
	log.Info().Str("tip_id", tip.ID).Str("outcome", string(outcome)).Msg("tip payment confirmed")
	return nil
}

func (u *tipUC) ReverseTip(ctx context.Context, externalTransactionID string) error {
	log := logging.With(ctx, u.log).With().Str("payment_ref", externalTransactionID).Logger()

	tip, err := u.tips.FindByExternalTransactionID(ctx, repository.NoTX, externalTransactionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Warn().Msg("refund for unknown tip; ignoring")
			return nil
		}
		return err
	}
	if tip.Status != model.TipStatusCompleted {
		log.Info().Str("tip_id", tip.ID).Str("status", string(tip.Status)).Msg("refund for tip that is not completed; ignoring")
		return nil
	}
	e, err := u.earnings.FindBySource(ctx, repository.NoTX, model.SourceTypeTip, tip.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	changed, err := u.earnings.UpdateStatus(ctx, repository.NoTX, e.ID, model.EarningStatusAvailable, model.EarningStatusReversed)
	if err != nil {
		return err
	}
	if changed {
		metrics.IncEarningTransition(string(model.EarningStatusReversed))
		log.Info().Str("tip_id", tip.ID).Str("earning_id", e.ID).Msg("tip earning reversed")
	}
	return nil
}

func (u *tipUC) ListSent(ctx context.Context, userID string, offset, limit int) ([]*model.Tip, error) {
	offset, limit = page(offset, limit)
	return u.tips.ListSent(ctx, repository.NoTX, userID, offset, limit)
}

func (u *tipUC) ListReceived(ctx context.Context, userID string, offset, limit int) ([]*model.Tip, error) {
	offset, limit = page(offset, limit)
	return u.tips.ListReceived(ctx, repository.NoTX, userID, offset, limit)
}

func (u *tipUC) ListStalePending(ctx context.Context, olderThan time.Duration, limit int) ([]*model.Tip, error) {
	if limit <= 0 {
		limit = 100
	}
	return u.tips.ListPendingOlderThan(ctx, repository.NoTX, u.now().Add(-olderThan), limit)
}

func (u *tipUC) ReconcileTip(ctx context.Context, tip *model.Tip, expireAfter time.Duration) (ReconcileOutcome, error) {
	intent, err := u.gateway.GetPaymentIntent(ctx, tip.ExternalTransactionID)
	if err != nil {
		return ReconcileStillPending, asGatewayError(err)
	}
	switch intent.Status {
	case adapter.IntentSucceeded:
		if err := u.ConfirmTipPayment(ctx, tip.ExternalTransactionID, model.PaymentOutcomeSucceeded); err != nil {
			return ReconcileStillPending, err
		}
		return ReconcileCompleted, nil
	case adapter.IntentCanceled:
		if err := u.ConfirmTipPayment(ctx, tip.ExternalTransactionID, model.PaymentOutcomeFailed); err != nil {
			return ReconcileStillPending, err
		}
		return ReconcileFailed, nil
	}

	if expireAfter <= 0 || u.now().Sub(tip.CreatedAt) < expireAfter || intent.Status == adapter.IntentProcessing {
		return ReconcileStillPending, nil
	}
	if err := u.gateway.CancelPaymentIntent(ctx, tip.ExternalTransactionID); err != nil {
		return ReconcileStillPending, asGatewayError(err)
	}
	if err := u.ConfirmTipPayment(ctx, tip.ExternalTransactionID, model.PaymentOutcomeFailed); err != nil {
		return ReconcileStillPending, err
	}
	return ReconcileExpired, nil
}

// page clamps offset/limit for listings.
func page(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return offset, limit
}

// asGatewayError makes sure gateway failures carry domain.ErrPaymentGateway.
func asGatewayError(err error) error {
	if err == nil || errors.Is(err, domain.ErrPaymentGateway) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrPaymentGateway, err)
}
