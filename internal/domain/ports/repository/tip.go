package repository

import (
	"context"
	"time"

	"creator-ledger/internal/domain/model"
)

// -----------------------------
// Tips
// -----------------------------

type TipRepository interface {
	Save(ctx context.Context, tx Tx, t *model.Tip) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Tip, error)
	FindByExternalTransactionID(ctx context.Context, tx Tx, externalID string) (*model.Tip, error)
	// UpdateStatusIfPending moves a pending tip to status and reports whether a row changed.
	// A false result means the tip was already finalized.
	UpdateStatusIfPending(ctx context.Context, tx Tx, id string, status model.TipStatus) (bool, error)
	ListSent(ctx context.Context, tx Tx, userID string, offset, limit int) ([]*model.Tip, error)
	ListReceived(ctx context.Context, tx Tx, userID string, offset, limit int) ([]*model.Tip, error)
	ListPendingOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.Tip, error)
}
