package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"creator-ledger/internal/domain"
	"creator-ledger/internal/domain/model"
	"creator-ledger/internal/domain/ports/repository"
)

var _ repository.PaymentHistoryRepository = (*paymentHistoryRepo)(nil)

type paymentHistoryRepo struct {
	pool *pgxpool.Pool
}

func NewPaymentHistoryRepo(pool *pgxpool.Pool) *paymentHistoryRepo {
	return &paymentHistoryRepo{pool: pool}
}

// Append never updates. A replayed webhook hits the external_event_id
// constraint and reports false.
func (r *paymentHistoryRepo) Append(ctx context.Context, tx repository.Tx, p *model.PaymentHistory) (bool, error) {
	const q = `
INSERT INTO payment_history (
  id, user_id, subscription_id, external_event_id, external_invoice_id,
  amount, currency, status, failure_reason, paid_at, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (external_event_id) DO NOTHING;`
	tag, err := execSQL(ctx, r.pool, tx, q,
		p.ID, p.UserID, p.SubscriptionID, nullIfEmpty(p.ExternalEventID), nullIfEmpty(p.ExternalInvoiceID),
		p.Amount, p.Currency, string(p.Status), p.FailureReason, p.PaidAt, p.CreatedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *paymentHistoryRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.PaymentHistory, error) {
	const q = `
SELECT id, user_id, subscription_id, external_event_id, external_invoice_id,
       amount, currency, status, failure_reason, paid_at, created_at
  FROM payment_history
 WHERE user_id=$1
 ORDER BY created_at DESC
 LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.PaymentHistory
	for rows.Next() {
		var p model.PaymentHistory
		var status string
		var eventID, invoiceID *string
		if err := rows.Scan(&p.ID, &p.UserID, &p.SubscriptionID, &eventID, &invoiceID,
			&p.Amount, &p.Currency, &status, &p.FailureReason, &p.PaidAt, &p.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		p.ExternalEventID = derefString(eventID)
		p.ExternalInvoiceID = derefString(invoiceID)
		p.Status = model.PaymentStatus(status)
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}
