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

var _ repository.TipRepository = (*tipRepo)(nil)

type tipRepo struct {
	pool *pgxpool.Pool
}

func NewTipRepo(pool *pgxpool.Pool) *tipRepo {
	return &tipRepo{pool: pool}
}

const tipColumns = `id, from_user_id, to_user_id, content_type, content_id, amount, currency, message,
       payment_provider, external_transaction_id, status, created_at, updated_at`

func (r *tipRepo) Save(ctx context.Context, tx repository.Tx, t *model.Tip) error {
	const q = `
INSERT INTO tips (` + tipColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13);`
	_, err := execSQL(ctx, r.pool, tx, q,
		t.ID, t.FromUserID, t.ToUserID, string(t.ContentType), t.ContentID, t.Amount, t.Currency, t.Message,
		t.PaymentProvider, t.ExternalTransactionID, string(t.Status), t.CreatedAt, t.UpdatedAt)
	return err
}

func (r *tipRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Tip, error) {
	const q = `SELECT ` + tipColumns + ` FROM tips WHERE id=$1;`
	return r.queryOne(ctx, tx, q, id)
}

func (r *tipRepo) FindByExternalTransactionID(ctx context.Context, tx repository.Tx, externalID string) (*model.Tip, error) {
	const q = `SELECT ` + tipColumns + ` FROM tips WHERE external_transaction_id=$1;`
	return r.queryOne(ctx, tx, q, externalID)
}

// UpdateStatusIfPending is the single guard against double confirmation:
// the WHERE clause only matches a pending row.
func (r *tipRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.TipStatus) (bool, error) {
	const q = `UPDATE tips SET status=$2, updated_at=NOW() WHERE id=$1 AND status='pending';`
	tag, err := execSQL(ctx, r.pool, tx, q, id, string(status))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *tipRepo) ListSent(ctx context.Context, tx repository.Tx, userID string, offset, limit int) ([]*model.Tip, error) {
	const q = `SELECT ` + tipColumns + ` FROM tips WHERE from_user_id=$1 ORDER BY created_at DESC OFFSET $2 LIMIT $3;`
	return r.queryMany(ctx, tx, q, userID, offset, limit)
}

func (r *tipRepo) ListReceived(ctx context.Context, tx repository.Tx, userID string, offset, limit int) ([]*model.Tip, error) {
	const q = `SELECT ` + tipColumns + ` FROM tips WHERE to_user_id=$1 ORDER BY created_at DESC OFFSET $2 LIMIT $3;`
	return r.queryMany(ctx, tx, q, userID, offset, limit)
}

func (r *tipRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Tip, error) {
	const q = `SELECT ` + tipColumns + ` FROM tips WHERE status='pending' AND created_at < $1 ORDER BY created_at ASC LIMIT $2;`
	return r.queryMany(ctx, tx, q, olderThan, limit)
}

func (r *tipRepo) queryOne(ctx context.Context, tx repository.Tx, sql string, args ...any) (*model.Tip, error) {
	row, err := pickRow(ctx, r.pool, tx, sql, args...)
	if err != nil {
		return nil, err
	}
	return scanTip(row)
}

func (r *tipRepo) queryMany(ctx context.Context, tx repository.Tx, sql string, args ...any) ([]*model.Tip, error) {
	rows, err := queryRows(ctx, r.pool, tx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Tip
	for rows.Next() {
		t, err := scanTip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func scanTip(row pgx.Row) (*model.Tip, error) {
	var t model.Tip
	var contentType, status string
	if err := scanOne(row, &t.ID, &t.FromUserID, &t.ToUserID, &contentType, &t.ContentID, &t.Amount, &t.Currency, &t.Message,
		&t.PaymentProvider, &t.ExternalTransactionID, &status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.ContentType = model.ContentType(contentType)
	t.Status = model.TipStatus(status)
	return &t, nil
}
