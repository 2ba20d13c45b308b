package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"creator-ledger/internal/domain/model"
	"creator-ledger/internal/domain/ports/repository"
	"creator-ledger/internal/infra/metrics"
	red "creator-ledger/internal/infra/redis"
)

var _ repository.SubscriptionPlanRepository = (*planRepoCacheDecorator)(nil)

const activePlansKey = "plans:active"

// planRepoCacheDecorator serves the plan catalog from Redis. Redis failures
// fall through to Postgres.
type planRepoCacheDecorator struct {
	inner repository.SubscriptionPlanRepository
	cache red.RedisClient
	ttl   time.Duration
	log   *zerolog.Logger
}

func NewPlanRepoCacheDecorator(inner repository.SubscriptionPlanRepository, cache red.RedisClient, ttl time.Duration, logger *zerolog.Logger) repository.SubscriptionPlanRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	l := logger.With().Str("component", "plan_cache").Logger()
	return &planRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   ttl,
		log:   &l,
	}
}

func planKey(id string) string { return fmt.Sprintf("plan:%s", id) }

func (d *planRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.SubscriptionPlan, error) {
	key := planKey(id)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var plan model.SubscriptionPlan
		if json.Unmarshal([]byte(val), &plan) == nil {
			metrics.IncCacheRequest("plan", "hit")
			return &plan, nil
		}
		metrics.IncCacheRequest("plan", "miss")
	} else if red.IsMiss(err) {
		metrics.IncCacheRequest("plan", "miss")
	} else {
		metrics.IncCacheRequest("plan", "error")
		d.log.Warn().Err(err).Str("key", key).Msg("plan cache read failed")
	}

	plan, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(plan); err == nil {
		if err := d.cache.Set(ctx, key, b, d.ttl); err != nil {
			d.log.Warn().Err(err).Str("key", key).Msg("plan cache write failed")
		}
	}
	return plan, nil
}

// Save invalidates the plan and the active list.
func (d *planRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, plan *model.SubscriptionPlan) error {
	if err := d.inner.Save(ctx, tx, plan); err != nil {
		return err
	}
	if err := d.cache.Del(ctx, planKey(plan.ID), activePlansKey); err != nil {
		d.log.Warn().Err(err).Str("plan_id", plan.ID).Msg("plan cache invalidation failed")
	}
	return nil
}

func (d *planRepoCacheDecorator) ListActive(ctx context.Context, tx repository.Tx) ([]*model.SubscriptionPlan, error) {
	val, err := d.cache.Get(ctx, activePlansKey)
	if err == nil {
		var plans []*model.SubscriptionPlan
		if json.Unmarshal([]byte(val), &plans) == nil {
			metrics.IncCacheRequest("plan_list", "hit")
			return plans, nil
		}
		metrics.IncCacheRequest("plan_list", "miss")
	} else if red.IsMiss(err) {
		metrics.IncCacheRequest("plan_list", "miss")
	} else {
		metrics.IncCacheRequest("plan_list", "error")
		d.log.Warn().Err(err).Msg("plan list cache read failed")
	}

	plans, err := d.inner.ListActive(ctx, tx)
	if err != nil {
		return nil, err
	}
	if len(plans) > 0 {
		if b, err := json.Marshal(plans); err == nil {
			_ = d.cache.Set(ctx, activePlansKey, b, d.ttl)
		}
	}
	return plans, nil
}
