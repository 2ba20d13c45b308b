package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"creator-ledger/internal/domain"
	"creator-ledger/internal/domain/model"
	"creator-ledger/internal/domain/ports/repository"
)

// Ensure subscriptionRepo implements repository.SubscriptionRepository
var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

type subscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

const subColumns = `id, user_id, plan_id, payment_provider, external_subscription_id, external_customer_id, status,
       current_period_start, current_period_end, cancel_at_period_end, canceled_at, created_at, updated_at`

// Save upserts by id. A second current subscription for the same user, or a
// reused external id, surfaces as domain.ErrAlreadyExists.
func (r *subscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.UserSubscription) error {
	const q = `
INSERT INTO user_subscriptions (` + subColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
ON CONFLICT (id) DO UPDATE SET
  plan_id=$3, external_subscription_id=$5, external_customer_id=$6, status=$7,
  current_period_start=$8, current_period_end=$9, cancel_at_period_end=$10, canceled_at=$11, updated_at=$13;`

	_, err := execSQL(ctx, r.pool, tx, q,
		s.ID, s.UserID, s.PlanID, s.PaymentProvider, nullIfEmpty(s.ExternalSubscriptionID), nullIfEmpty(s.ExternalCustomerID),
		string(s.Status), s.CurrentPeriodStart, s.CurrentPeriodEnd, s.CancelAtPeriodEnd, s.CanceledAt, s.CreatedAt, s.UpdatedAt)
	return err
}

func (r *subscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.UserSubscription, error) {
	const q = `SELECT ` + subColumns + ` FROM user_subscriptions WHERE id=$1;`
	return r.queryOne(ctx, tx, q, id)
}

func (r *subscriptionRepo) FindByExternalID(ctx context.Context, tx repository.Tx, externalID string) (*model.UserSubscription, error) {
	const q = `SELECT ` + subColumns + ` FROM user_subscriptions WHERE external_subscription_id=$1;`
	return r.queryOne(ctx, tx, q, externalID)
}

func (r *subscriptionRepo) FindActiveByUser(ctx context.Context, tx repository.Tx, userID string) (*model.UserSubscription, error) {
	const q = `
SELECT ` + subColumns + `
  FROM user_subscriptions
 WHERE user_id=$1 AND status IN ('active','past_due')
 ORDER BY created_at DESC
 LIMIT 1;`
	return r.queryOne(ctx, tx, q, userID)
}

func (r *subscriptionRepo) ListActiveByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.UserSubscription, error) {
	const q = `
SELECT ` + subColumns + `
  FROM user_subscriptions
 WHERE user_id=$1 AND status IN ('active','past_due')
 ORDER BY created_at DESC;`
	return r.queryMany(ctx, tx, q, userID)
}

func (r *subscriptionRepo) ListDueForCancellation(ctx context.Context, tx repository.Tx, now time.Time, limit int) ([]*model.UserSubscription, error) {
	const q = `
SELECT ` + subColumns + `
  FROM user_subscriptions
 WHERE cancel_at_period_end
   AND status IN ('active','past_due')
   AND current_period_end <= $1
 ORDER BY current_period_end ASC
 LIMIT $2;`
	return r.queryMany(ctx, tx, q, now, limit)
}

func (r *subscriptionRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.SubscriptionStatus]int, error) {
	const q = `SELECT status, COUNT(*) FROM user_subscriptions GROUP BY status;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[model.SubscriptionStatus]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		counts[model.SubscriptionStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return counts, nil
}

func (r *subscriptionRepo) queryOne(ctx context.Context, tx repository.Tx, sql string, args ...any) (*model.UserSubscription, error) {
	row, err := pickRow(ctx, r.pool, tx, sql, args...)
	if err != nil {
		return nil, err
	}
	return scanSub(row)
}

func (r *subscriptionRepo) queryMany(ctx context.Context, tx repository.Tx, sql string, args ...any) ([]*model.UserSubscription, error) {
	rows, err := queryRows(ctx, r.pool, tx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.UserSubscription
	for rows.Next() {
		s, err := scanSub(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func scanSub(row pgx.Row) (*model.UserSubscription, error) {
	s := &model.UserSubscription{}
	var status string
	var extSub, extCus *string
	if err := scanOne(row, &s.ID, &s.UserID, &s.PlanID, &s.PaymentProvider, &extSub, &extCus, &status,
		&s.CurrentPeriodStart, &s.CurrentPeriodEnd, &s.CancelAtPeriodEnd, &s.CanceledAt, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.ExternalSubscriptionID = derefString(extSub)
	s.ExternalCustomerID = derefString(extCus)
	s.Status = model.SubscriptionStatus(status)
	return s, nil
}
