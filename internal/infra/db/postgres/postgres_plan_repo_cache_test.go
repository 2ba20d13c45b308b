//go:build !integration

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"creator-ledger/internal/domain/model"
	"creator-ledger/internal/domain/ports/repository"
)

func TestPlanRepoCacheDecorator(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.New(io.Discard)
	plan := &model.SubscriptionPlan{ID: "premium", Name: "Premium", Price: 1980, Currency: "JPY", IsActive: true}
	planJSON, _ := json.Marshal(plan)

	t.Run("FindByID should return from cache on hit", func(t *testing.T) {
		// Arrange
		mockRedis := &mockRedisClient{
			GetFunc: func(ctx context.Context, key string) (string, error) {
				return string(planJSON), nil
			},
		}
		innerRepoCalled := false
		mockInnerRepo := &mockInnerPlanRepo{
			FindByIDFunc: func(ctx context.Context, tx repository.Tx, id string) (*model.SubscriptionPlan, error) {
				innerRepoCalled = true
				return nil, nil
			},
		}
		decorator := NewPlanRepoCacheDecorator(mockInnerRepo, mockRedis, 0, &logger)

		// Act
		result, err := decorator.FindByID(ctx, nil, "premium")

		// Assert
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if innerRepoCalled {
			t.Error("inner repository should not be called on a cache hit")
		}
		if result == nil || result.ID != "premium" || result.Price != 1980 {
			t.Errorf("did not return the correct plan from cache: %+v", result)
		}
	})

	t.Run("FindByID should fall through and fill the cache on miss", func(t *testing.T) {
		var setKey string
		mockRedis := &mockRedisClient{
			GetFunc: func(ctx context.Context, key string) (string, error) { return "", goredis.Nil },
			SetFunc: func(ctx context.Context, key string, value interface{}, _ time.Duration) error {
				setKey = key
				return nil
			},
		}
		mockInnerRepo := &mockInnerPlanRepo{
			FindByIDFunc: func(ctx context.Context, tx repository.Tx, id string) (*model.SubscriptionPlan, error) {
				return plan, nil
			},
		}
		decorator := NewPlanRepoCacheDecorator(mockInnerRepo, mockRedis, 0, &logger)

		result, err := decorator.FindByID(ctx, nil, "premium")

		if err != nil || result.ID != "premium" {
			t.Fatalf("expected plan from inner repo, got %+v %v", result, err)
		}
		if setKey != "plan:premium" {
			t.Errorf("expected cache fill on plan:premium, got %q", setKey)
		}
	})

	t.Run("FindByID should survive a redis outage", func(t *testing.T) {
		mockRedis := &mockRedisClient{
			GetFunc: func(ctx context.Context, key string) (string, error) { return "", errors.New("connection refused") },
			SetFunc: func(ctx context.Context, key string, value interface{}, _ time.Duration) error {
				return errors.New("connection refused")
			},
		}
		mockInnerRepo := &mockInnerPlanRepo{
			FindByIDFunc: func(ctx context.Context, tx repository.Tx, id string) (*model.SubscriptionPlan, error) {
				return plan, nil
			},
		}
		decorator := NewPlanRepoCacheDecorator(mockInnerRepo, mockRedis, 0, &logger)

		if _, err := decorator.FindByID(ctx, nil, "premium"); err != nil {
			t.Fatalf("expected postgres fallback, got %v", err)
		}
	})

	t.Run("Save should invalidate the cache", func(t *testing.T) {
		// Arrange
		var deletedKeys []string
		mockRedis := &mockRedisClient{
			DelFunc: func(ctx context.Context, keys ...string) error {
				deletedKeys = append(deletedKeys, keys...)
				return nil
			},
		}
		mockInnerRepo := &mockInnerPlanRepo{
			SaveFunc: func(ctx context.Context, tx repository.Tx, plan *model.SubscriptionPlan) error {
				return nil
			},
		}
		decorator := NewPlanRepoCacheDecorator(mockInnerRepo, mockRedis, 0, &logger)

		// Act
		err := decorator.Save(ctx, nil, plan)

		// Assert
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(deletedKeys) != 2 {
			t.Fatalf("expected 2 keys to be deleted, but got %d", len(deletedKeys))
		}
	})
}
