//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"creator-ledger/internal/domain"
	"creator-ledger/internal/domain/model"
	"creator-ledger/internal/usecase"
)

func TestEarningUseCase(t *testing.T) {
	ctx := context.Background()

	seed := func(repo *MockEarningRepo, id string, amount, fee int64, status model.EarningStatus, availableAt time.Time) {
		_ = repo.Save(ctx, nil, &model.Earning{
			ID: id, UserID: "creator-1", SourceType: model.SourceTypeTip, SourceID: "tip-" + id,
			Amount: amount, PlatformFee: fee, NetAmount: amount - fee, Currency: "JPY",
			Status: status, AvailableAt: availableAt, CreatedAt: time.Now(),
		})
	}

	t.Run("should summarize the ledger by status", func(t *testing.T) {
		// --- Arrange ---
		repo := NewMockEarningRepo()
		past, future := time.Now().Add(-time.Hour), time.Now().Add(model.HoldingPeriod)
		seed(repo, "e1", 1000, 300, model.EarningStatusPending, future)
		seed(repo, "e2", 1000, 300, model.EarningStatusAvailable, past)
		seed(repo, "e3", 2000, 600, model.EarningStatusAvailable, future)
		seed(repo, "e4", 500, 150, model.EarningStatusReversed, past)
		uc := usecase.NewEarningUseCase(repo)

		// --- Act ---
		stats, err := uc.Stats(ctx, "creator-1")

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(stats) != 1 {
			t.Fatalf("expected one currency, got %d", len(stats))
		}
		s := stats[0]
		if s.Count != 4 || s.GrossAmount != 4000 || s.PlatformFees != 1200 || s.NetAmount != 2800 {
			t.Errorf("unexpected totals: %+v", s)
		}
		if s.Pending != 700 || s.Available != 2100 || s.Withdrawable != 700 || s.Reversed != 350 {
			t.Errorf("unexpected buckets: %+v", s)
		}
		if s.GrossAmount != s.PlatformFees+s.NetAmount {
			t.Errorf("fees and net must add up to gross: %+v", s)
		}
	})

	t.Run("should page history", func(t *testing.T) {
		repo := NewMockEarningRepo()
		for _, id := range []string{"a", "b", "c"} {
			seed(repo, id, 100, 30, model.EarningStatusPending, time.Now())
		}
		uc := usecase.NewEarningUseCase(repo)

		first, err := uc.History(ctx, "creator-1", 0, 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		rest, _ := uc.History(ctx, "creator-1", 2, 2)
		if len(first) != 2 || len(rest) != 1 {
			t.Errorf("expected pages of 2 and 1, got %d and %d", len(first), len(rest))
		}
	})

	t.Run("should require a user", func(t *testing.T) {
		uc := usecase.NewEarningUseCase(NewMockEarningRepo())
		if _, err := uc.Stats(ctx, ""); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if _, err := uc.History(ctx, "", 0, 10); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
