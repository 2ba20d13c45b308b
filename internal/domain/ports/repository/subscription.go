package repository

import (
	"context"
	"time"

	"creator-ledger/internal/domain/model"
)

// SubscriptionPlanRepository is the port for the plan catalog.
type SubscriptionPlanRepository interface {
	Save(ctx context.Context, tx Tx, plan *model.SubscriptionPlan) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.SubscriptionPlan, error)
	ListActive(ctx context.Context, tx Tx) ([]*model.SubscriptionPlan, error)
}

// SubscriptionRepository is the port for user subscriptions.
type SubscriptionRepository interface {
	Save(ctx context.Context, tx Tx, sub *model.UserSubscription) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.UserSubscription, error)
	FindByExternalID(ctx context.Context, tx Tx, externalID string) (*model.UserSubscription, error)
	// FindActiveByUser returns the user's current (active or past_due) subscription.
	FindActiveByUser(ctx context.Context, tx Tx, userID string) (*model.UserSubscription, error)
	ListActiveByUser(ctx context.Context, tx Tx, userID string) ([]*model.UserSubscription, error)
	// ListDueForCancellation returns subscriptions flagged cancel_at_period_end whose period ended before now.
	ListDueForCancellation(ctx context.Context, tx Tx, now time.Time, limit int) ([]*model.UserSubscription, error)
	CountByStatus(ctx context.Context, tx Tx) (map[model.SubscriptionStatus]int, error)
}

// PaymentHistoryRepository is append-only.
type PaymentHistoryRepository interface {
	// Append inserts a row; it returns false when a row for the same external event already exists.
	Append(ctx context.Context, tx Tx, p *model.PaymentHistory) (bool, error)
	ListByUser(ctx context.Context, tx Tx, userID string, limit int) ([]*model.PaymentHistory, error)
}
