package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"

	"creator-ledger/internal/config"
	"creator-ledger/internal/domain/ports/adapter"
	payAdapters "creator-ledger/internal/infra/adapters/payment"
	pg "creator-ledger/internal/infra/db/postgres"
	"creator-ledger/internal/infra/logging"
	"creator-ledger/internal/infra/metrics"
	red "creator-ledger/internal/infra/redis"
	"creator-ledger/internal/infra/sched"
	"creator-ledger/internal/infra/scheduler"
	"creator-ledger/internal/infra/worker"
	"creator-ledger/internal/usecase"
)

// app holds the wired dependencies shared by the commands.
type app struct {
	cfg   *config.Config
	log   *zerolog.Logger
	pool  *pgxpool.Pool
	redis *red.Client

	gateway adapter.PaymentGateway
	workers *worker.Pool

	tipUC     usecase.TipUseCase
	earningUC usecase.EarningUseCase
	subUC     usecase.SubscriptionUseCase
	webhookUC usecase.WebhookUseCase

	scheduler *scheduler.Scheduler
}

func loadConfig(f *rootFlags) (*config.Config, *zerolog.Logger, error) {
	cfg, err := config.LoadConfig(f.configPath, f.dev)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] enabled")
	}
	return cfg, logger, nil
}

func newGateway(cfg *config.Config, logger *zerolog.Logger) (adapter.PaymentGateway, error) {
	var inner adapter.PaymentGateway
	switch cfg.Payment.Provider {
	case "stripe":
		g, err := payAdapters.NewStripeGateway(cfg.Payment.Stripe, logger)
		if err != nil {
			return nil, fmt.Errorf("stripe gateway: %w", err)
		}
		inner = g
	case "noop":
		inner = payAdapters.NewNoopPaymentGateway(cfg.Payment.Stripe.WebhookSecret)
	default:
		return nil, fmt.Errorf("unsupported payment provider %q", cfg.Payment.Provider)
	}
	return payAdapters.NewBreakerGateway(inner, cfg.Payment.Breaker, logger), nil
}

func buildApp(ctx context.Context, f *rootFlags) (*app, error) {
	cfg, logger, err := loadConfig(f)
	if err != nil {
		return nil, err
	}
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, cfg.Redis)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("redis: %w", err)
	}

	// ---- Payment gateway ----
	gateway, err := newGateway(cfg, logger)
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, err
	}

	// ---- Repositories ----
	tm := pg.NewTxManager(pool)
	tipRepo := pg.NewTipRepo(pool)
	earningRepo := pg.NewEarningRepo(pool)
	planRepo := pg.NewPlanRepoCacheDecorator(pg.NewPostgresPlanRepo(pool), redisClient, cfg.Redis.TTL, logger)
	subRepo := pg.NewSubscriptionRepo(pool)
	historyRepo := pg.NewPaymentHistoryRepo(pool)
	userRepo := pg.NewPostgresUserRepo(pool)
	videoRepo := pg.NewPostgresVideoRepo(pool)
	eventRepo := pg.NewPostgresWebhookEventRepo(pool)

	// ---- Use cases ----
	priceRefs := make(map[string]string, len(cfg.Payment.Plans))
	for id, p := range cfg.Payment.Plans {
		priceRefs[id] = p.PriceRef
	}
	tipUC := usecase.NewTipUseCase(
		tipRepo, earningRepo, videoRepo, gateway, tm,
		red.NewRateLimiter(redisClient),
		usecase.TipRateLimit{Limit: cfg.Tips.RateLimit, Window: cfg.Tips.RateLimitWindow},
		cfg.Payment.Currency,
		logger,
	)
	earningUC := usecase.NewEarningUseCase(earningRepo)
	subUC := usecase.NewSubscriptionUseCase(
		userRepo, planRepo, subRepo, historyRepo, gateway,
		usecase.CheckoutConfig{SuccessURL: cfg.Payment.SuccessURL, CancelURL: cfg.Payment.CancelURL, PriceRefs: priceRefs},
		logger,
	)
	webhookUC := usecase.NewWebhookUseCase(
		gateway, tipUC, planRepo, subRepo, historyRepo, eventRepo, tm,
		red.NewLocker(redisClient),
		logger,
	)

	// ---- Jobs ----
	workers := worker.NewPool(cfg.Scheduler.Workers, logger)
	s := scheduler.NewScheduler(0, logger)
	jobs := []struct {
		spec string
		job  scheduler.Job
	}{
		{cfg.Scheduler.ReconcileCron, sched.NewTipReconciler(tipUC, workers, cfg.Scheduler.StaleAfter, cfg.Scheduler.ExpireAfter, cfg.Scheduler.BatchSize, logger)},
		{cfg.Scheduler.ExpiryCheckCron, sched.NewSubscriptionExpiry(subUC, cfg.Scheduler.BatchSize, logger)},
	}
	for _, j := range jobs {
		if err := s.Add(j.spec, j.job); err != nil {
			pool.Close()
			_ = redisClient.Close()
			return nil, err
		}
	}

	return &app{
		cfg:       cfg,
		log:       logger,
		pool:      pool,
		redis:     redisClient,
		gateway:   gateway,
		workers:   workers,
		tipUC:     tipUC,
		earningUC: earningUC,
		subUC:     subUC,
		webhookUC: webhookUC,
		scheduler: s,
	}, nil
}

func (a *app) Close() {
	a.workers.Stop()
	if err := a.redis.Close(); err != nil {
		a.log.Warn().Err(err).Msg("redis close")
	}
	a.pool.Close()
}
