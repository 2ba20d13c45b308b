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

var _ repository.EarningRepository = (*earningRepo)(nil)

type earningRepo struct {
	pool *pgxpool.Pool
}

func NewEarningRepo(pool *pgxpool.Pool) *earningRepo {
	return &earningRepo{pool: pool}
}

const earningColumns = `id, user_id, source_type, source_id, amount, platform_fee, net_amount, currency,
       status, available_at, created_at, updated_at`

func (r *earningRepo) Save(ctx context.Context, tx repository.Tx, e *model.Earning) error {
	const q = `
INSERT INTO earnings (` + earningColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12);`
	_, err := execSQL(ctx, r.pool, tx, q,
		e.ID, e.UserID, string(e.SourceType), e.SourceID, e.Amount, e.PlatformFee, e.NetAmount, e.Currency,
		string(e.Status), e.AvailableAt, e.CreatedAt, e.UpdatedAt)
	return err
}

func (r *earningRepo) FindBySource(ctx context.Context, tx repository.Tx, sourceType model.SourceType, sourceID string) (*model.Earning, error) {
	const q = `SELECT ` + earningColumns + ` FROM earnings WHERE source_type=$1 AND source_id=$2;`
	row, err := pickRow(ctx, r.pool, tx, q, string(sourceType), sourceID)
	if err != nil {
		return nil, err
	}
	return scanEarning(row)
}

func (r *earningRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, from, to model.EarningStatus) (bool, error) {
	const q = `UPDATE earnings SET status=$3, updated_at=NOW() WHERE id=$1 AND status=$2;`
	tag, err := execSQL(ctx, r.pool, tx, q, id, string(from), string(to))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *earningRepo) DeleteBySourceIfPending(ctx context.Context, tx repository.Tx, sourceType model.SourceType, sourceID string) (bool, error) {
	const q = `DELETE FROM earnings WHERE source_type=$1 AND source_id=$2 AND status='pending';`
	tag, err := execSQL(ctx, r.pool, tx, q, string(sourceType), sourceID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *earningRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, offset, limit int) ([]*model.Earning, error) {
	const q = `SELECT ` + earningColumns + ` FROM earnings WHERE user_id=$1 ORDER BY created_at DESC OFFSET $2 LIMIT $3;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Earning
	for rows.Next() {
		e, err := scanEarning(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

// StatsByUser aggregates per currency. Reversed rows only count toward reversed.
func (r *earningRepo) StatsByUser(ctx context.Context, tx repository.Tx, userID string, now time.Time) ([]*model.EarningStats, error) {
	const q = `
SELECT currency,
       COUNT(*),
       COALESCE(SUM(amount)       FILTER (WHERE status <> 'reversed'), 0),
       COALESCE(SUM(platform_fee) FILTER (WHERE status <> 'reversed'), 0),
       COALESCE(SUM(net_amount)   FILTER (WHERE status <> 'reversed'), 0),
       COALESCE(SUM(net_amount)   FILTER (WHERE status = 'pending'), 0),
       COALESCE(SUM(net_amount)   FILTER (WHERE status = 'available'), 0),
       COALESCE(SUM(net_amount)   FILTER (WHERE status = 'available' AND available_at <= $2), 0),
       COALESCE(SUM(net_amount)   FILTER (WHERE status = 'reversed'), 0)
  FROM earnings
 WHERE user_id=$1
 GROUP BY currency
 ORDER BY currency;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.EarningStats
	for rows.Next() {
		var s model.EarningStats
		if err := rows.Scan(&s.Currency, &s.Count, &s.GrossAmount, &s.PlatformFees, &s.NetAmount,
			&s.Pending, &s.Available, &s.Withdrawable, &s.Reversed); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func scanEarning(row pgx.Row) (*model.Earning, error) {
	var e model.Earning
	var sourceType, status string
	if err := scanOne(row, &e.ID, &e.UserID, &sourceType, &e.SourceID, &e.Amount, &e.PlatformFee, &e.NetAmount, &e.Currency,
		&status, &e.AvailableAt, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.SourceType = model.SourceType(sourceType)
	e.Status = model.EarningStatus(status)
	return &e, nil
}
