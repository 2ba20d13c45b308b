// File: internal/usecase/earning_uc.go
package usecase

import (
	"context"
	"time"

	"creator-ledger/internal/domain"
	"creator-ledger/internal/domain/model"
	"creator-ledger/internal/domain/ports/repository"
)

// Compile-time check
var _ EarningUseCase = (*earningUC)(nil)

// EarningUseCase exposes a creator's ledger.
type EarningUseCase interface {
	// Stats returns one summary per currency the creator has earned in.
	Stats(ctx context.Context, userID string) ([]*model.EarningStats, error)
	History(ctx context.Context, userID string, offset, limit int) ([]*model.Earning, error)
}

type earningUC struct {
	earnings repository.EarningRepository
	now      func() time.Time
}

func NewEarningUseCase(earnings repository.EarningRepository) *earningUC {
	return &earningUC{earnings: earnings, now: time.Now}
}

func (u *earningUC) Stats(ctx context.Context, userID string) ([]*model.EarningStats, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.earnings.StatsByUser(ctx, repository.NoTX, userID, u.now())
}

func (u *earningUC) History(ctx context.Context, userID string, offset, limit int) ([]*model.Earning, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	offset, limit = page(offset, limit)
	return u.earnings.ListByUser(ctx, repository.NoTX, userID, offset, limit)
}
