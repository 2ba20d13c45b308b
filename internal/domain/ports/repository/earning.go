package repository

import (
	"context"
	"time"

	"creator-ledger/internal/domain/model"
)

// -----------------------------
// Earnings
// -----------------------------

type EarningRepository interface {
	Save(ctx context.Context, tx Tx, e *model.Earning) error
	FindBySource(ctx context.Context, tx Tx, sourceType model.SourceType, sourceID string) (*model.Earning, error)
	// UpdateStatus performs a compare-and-set from -> to and reports whether a row changed.
	UpdateStatus(ctx context.Context, tx Tx, id string, from, to model.EarningStatus) (bool, error)
	// DeleteBySourceIfPending removes the pending earning for a source; it is a no-op when none remains.
	DeleteBySourceIfPending(ctx context.Context, tx Tx, sourceType model.SourceType, sourceID string) (bool, error)
	ListByUser(ctx context.Context, tx Tx, userID string, offset, limit int) ([]*model.Earning, error)
	StatsByUser(ctx context.Context, tx Tx, userID string, now time.Time) ([]*model.EarningStats, error)
}
