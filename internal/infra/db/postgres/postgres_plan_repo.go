package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"creator-ledger/internal/domain"
	"creator-ledger/internal/domain/model"
	"creator-ledger/internal/domain/ports/repository"
)

// Ensure interface compliance
var _ repository.SubscriptionPlanRepository = (*PostgresPlanRepo)(nil)

type PostgresPlanRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresPlanRepo(pool *pgxpool.Pool) *PostgresPlanRepo {
	return &PostgresPlanRepo{pool: pool}
}

func (r *PostgresPlanRepo) Save(ctx context.Context, tx repository.Tx, plan *model.SubscriptionPlan) error {
	const sql = `
INSERT INTO subscription_plans (id, name, price, currency, billing_cycle, payment_provider, is_active, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE
  SET name             = EXCLUDED.name,
      price            = EXCLUDED.price,
      currency         = EXCLUDED.currency,
      billing_cycle    = EXCLUDED.billing_cycle,
      payment_provider = EXCLUDED.payment_provider,
      is_active        = EXCLUDED.is_active;`
	_, err := execSQL(ctx, r.pool, tx, sql,
		plan.ID, plan.Name, plan.Price, plan.Currency, string(plan.BillingCycle), plan.PaymentProvider, plan.IsActive, plan.CreatedAt)
	return err
}

func (r *PostgresPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.SubscriptionPlan, error) {
	const sql = `
SELECT id, name, price, currency, billing_cycle, payment_provider, is_active, created_at
  FROM subscription_plans
 WHERE id = $1;`
	row, err := pickRow(ctx, r.pool, tx, sql, id)
	if err != nil {
		return nil, err
	}
	return scanPlan(row)
}

func (r *PostgresPlanRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.SubscriptionPlan, error) {
	const sql = `
SELECT id, name, price, currency, billing_cycle, payment_provider, is_active, created_at
  FROM subscription_plans
 WHERE is_active
 ORDER BY price ASC, id ASC;`
	rows, err := queryRows(ctx, r.pool, tx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []*model.SubscriptionPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return plans, nil
}

func scanPlan(row pgx.Row) (*model.SubscriptionPlan, error) {
	var p model.SubscriptionPlan
	var cycle string
	if err := scanOne(row, &p.ID, &p.Name, &p.Price, &p.Currency, &cycle, &p.PaymentProvider, &p.IsActive, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.BillingCycle = model.BillingCycle(cycle)
	return &p, nil
}
