//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"creator-ledger/internal/domain"
	"creator-ledger/internal/domain/model"
	"creator-ledger/internal/domain/ports/repository"
)

func newPendingTip(from, to string, amount int64) *model.Tip {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &model.Tip{
		ID:                    uuid.NewString(),
		FromUserID:            from,
		ToUserID:              to,
		ContentType:           model.ContentTypeVideo,
		ContentID:             "video-1",
		Amount:                amount,
		Currency:              "JPY",
		PaymentProvider:       "stripe",
		ExternalTransactionID: "pi_" + uuid.NewString(),
		Status:                model.TipStatusPending,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}

func TestLedgerRepos_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	ctx := context.Background()
	tips := NewTipRepo(testPool)
	earnings := NewEarningRepo(testPool)
	tm := NewTxManager(testPool)
	cleanup(t)

	t.Run("should write tip and earning atomically", func(t *testing.T) {
		tip := newPendingTip("viewer-1", "creator-1", 1000)
		err := tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
			if err := tips.Save(ctx, tx, tip); err != nil {
				return err
			}
			return earnings.Save(ctx, tx, &model.Earning{
				ID: uuid.NewString(), UserID: "creator-1", SourceType: model.SourceTypeTip, SourceID: tip.ID,
				Amount: 1000, PlatformFee: 300, NetAmount: 700, Currency: "JPY",
				Status: model.EarningStatusPending, AvailableAt: time.Now().Add(model.HoldingPeriod),
				CreatedAt: time.Now(), UpdatedAt: time.Now(),
			})
		})
		if err != nil {
			t.Fatalf("tx failed: %v", err)
		}
		found, err := tips.FindByExternalTransactionID(ctx, repository.NoTX, tip.ExternalTransactionID)
		if err != nil || found.ID != tip.ID {
			t.Fatalf("expected tip by payment ref, got %+v %v", found, err)
		}
		e, err := earnings.FindBySource(ctx, repository.NoTX, model.SourceTypeTip, tip.ID)
		if err != nil || !e.Balanced() {
			t.Fatalf("expected balanced earning, got %+v %v", e, err)
		}
	})

	t.Run("should roll back the tip when the earning is rejected", func(t *testing.T) {
		tip := newPendingTip("viewer-1", "creator-1", 500)
		err := tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
			if err := tips.Save(ctx, tx, tip); err != nil {
				return err
			}
			return earnings.Save(ctx, tx, &model.Earning{
				ID: uuid.NewString(), UserID: "creator-1", SourceType: model.SourceTypeTip, SourceID: tip.ID,
				Amount: 500, PlatformFee: 100, NetAmount: 100, Currency: "JPY",
				Status: model.EarningStatusPending, AvailableAt: time.Now(), CreatedAt: time.Now(), UpdatedAt: time.Now(),
			})
		})
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected check violation, got %v", err)
		}
		if _, err := tips.FindByID(ctx, repository.NoTX, tip.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected tip to be rolled back, got %v", err)
		}
	})

	t.Run("should confirm a pending tip only once", func(t *testing.T) {
		tip := newPendingTip("viewer-2", "creator-1", 200)
		if err := tips.Save(ctx, repository.NoTX, tip); err != nil {
			t.Fatalf("save: %v", err)
		}
		first, err1 := tips.UpdateStatusIfPending(ctx, repository.NoTX, tip.ID, model.TipStatusCompleted)
		second, err2 := tips.UpdateStatusIfPending(ctx, repository.NoTX, tip.ID, model.TipStatusFailed)
		if err1 != nil || err2 != nil {
			t.Fatalf("unexpected errors: %v / %v", err1, err2)
		}
		if !first || second {
			t.Errorf("expected first=true second=false, got %v %v", first, second)
		}
	})

	t.Run("should aggregate stats per currency", func(t *testing.T) {
		stats, err := earnings.StatsByUser(ctx, repository.NoTX, "creator-1", time.Now())
		if err != nil {
			t.Fatalf("stats: %v", err)
		}
		if len(stats) != 1 || stats[0].GrossAmount != 1000 || stats[0].NetAmount != 700 || stats[0].Pending != 700 {
			t.Errorf("unexpected stats: %+v", stats)
		}
	})

	t.Run("should list sent tips newest first", func(t *testing.T) {
		sent, err := tips.ListSent(ctx, repository.NoTX, "viewer-1", 0, 10)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(sent) != 1 {
			t.Errorf("expected one committed tip, got %d", len(sent))
		}
	})
}
