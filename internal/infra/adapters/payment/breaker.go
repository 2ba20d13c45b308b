package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"creator-ledger/internal/config"
	"creator-ledger/internal/domain"
	"creator-ledger/internal/domain/ports/adapter"
	"creator-ledger/internal/infra/metrics"
)

var _ adapter.PaymentGateway = (*BreakerGateway)(nil)

// BreakerGateway guards outbound calls of another gateway with a circuit
// breaker and records per-operation latency. Webhook verification is local
// and bypasses the breaker.
type BreakerGateway struct {
	inner adapter.PaymentGateway
	cb    *gobreaker.CircuitBreaker[any]
	log   *zerolog.Logger
}

func NewBreakerGateway(inner adapter.PaymentGateway, cfg config.BreakerConfig, logger *zerolog.Logger) *BreakerGateway {
	l := logger.With().Str("component", "payment_breaker").Str("provider", inner.Name()).Logger()
	threshold := cfg.ConsecutiveFailures
	if threshold == 0 {
		threshold = 5
	}
	settings := gobreaker.Settings{
		Name:        inner.Name(),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l.Warn().Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
			metrics.SetBreakerState(name, int(to))
		},
		IsSuccessful: countsAsSuccess,
	}
	metrics.SetBreakerState(inner.Name(), int(gobreaker.StateClosed))
	return &BreakerGateway{inner: inner, cb: gobreaker.NewCircuitBreaker[any](settings), log: &l}
}

// countsAsSuccess keeps client errors (bad request, card declined) from tripping the breaker.
func countsAsSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return !apiErr.Temporary()
	}
	return false
}

func (b *BreakerGateway) State() gobreaker.State { return b.cb.State() }

func (b *BreakerGateway) Name() string { return b.inner.Name() }

func (b *BreakerGateway) execute(op string, fn func() (any, error)) (any, error) {
	start := time.Now()
	res, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("%w: %s unavailable: %v", domain.ErrPaymentGateway, b.inner.Name(), err)
	}
	metrics.ObserveGatewayCall(b.inner.Name(), op, time.Since(start).Seconds(), err)
	return res, err
}

func (b *BreakerGateway) CreatePaymentIntent(ctx context.Context, amount int64, currency string, meta map[string]string) (*adapter.PaymentIntent, error) {
	res, err := b.execute("create_payment_intent", func() (any, error) {
		return b.inner.CreatePaymentIntent(ctx, amount, currency, meta)
	})
	if err != nil {
		return nil, err
	}
	return res.(*adapter.PaymentIntent), nil
}

func (b *BreakerGateway) GetPaymentIntent(ctx context.Context, id string) (*adapter.PaymentIntent, error) {
	res, err := b.execute("get_payment_intent", func() (any, error) {
		return b.inner.GetPaymentIntent(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return res.(*adapter.PaymentIntent), nil
}

func (b *BreakerGateway) CancelPaymentIntent(ctx context.Context, id string) error {
	_, err := b.execute("cancel_payment_intent", func() (any, error) {
		return nil, b.inner.CancelPaymentIntent(ctx, id)
	})
	return err
}

func (b *BreakerGateway) CreateCheckoutSession(ctx context.Context, p adapter.CheckoutParams) (*adapter.CheckoutSession, error) {
	res, err := b.execute("create_checkout_session", func() (any, error) {
		return b.inner.CreateCheckoutSession(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return res.(*adapter.CheckoutSession), nil
}

func (b *BreakerGateway) CancelSubscription(ctx context.Context, externalID string, immediately bool) error {
	_, err := b.execute("cancel_subscription", func() (any, error) {
		return nil, b.inner.CancelSubscription(ctx, externalID, immediately)
	})
	return err
}

func (b *BreakerGateway) GetSubscription(ctx context.Context, externalID string) (*adapter.SubscriptionSnapshot, error) {
	res, err := b.execute("get_subscription", func() (any, error) {
		return b.inner.GetSubscription(ctx, externalID)
	})
	if err != nil {
		return nil, err
	}
	return res.(*adapter.SubscriptionSnapshot), nil
}

func (b *BreakerGateway) ConstructWebhookEvent(payload []byte, signature string) (adapter.Event, error) {
	return b.inner.ConstructWebhookEvent(payload, signature)
}
