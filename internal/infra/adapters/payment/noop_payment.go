package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"creator-ledger/internal/domain"
	"creator-ledger/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*NoopPaymentGateway)(nil)

// NoopPaymentGateway is an in-memory gateway for local runs and tests.
// Webhooks are accepted when the signature equals the configured secret.
type NoopPaymentGateway struct {
	mu      sync.Mutex
	secret  string
	intents map[string]*adapter.PaymentIntent
	subs    map[string]*adapter.SubscriptionSnapshot
}

func NewNoopPaymentGateway(secret string) *NoopPaymentGateway {
	return &NoopPaymentGateway{
		secret:  secret,
		intents: make(map[string]*adapter.PaymentIntent),
		subs:    make(map[string]*adapter.SubscriptionSnapshot),
	}
}

func (g *NoopPaymentGateway) Name() string { return "noop" }

func newID(prefix string) string {
	return prefix + "_" + strings.ToLower(ulid.Make().String())
}

func (g *NoopPaymentGateway) CreatePaymentIntent(ctx context.Context, amount int64, currency string, meta map[string]string) (*adapter.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := newID("pi")
	pi := &adapter.PaymentIntent{
		ID:           id,
		ClientSecret: id + "_secret",
		Amount:       amount,
		Currency:     strings.ToUpper(currency),
		Status:       adapter.IntentRequiresPayment,
		Metadata:     meta,
	}
	g.intents[id] = pi
	cp := *pi
	return &cp, nil
}

func (g *NoopPaymentGateway) GetPaymentIntent(ctx context.Context, id string) (*adapter.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	pi, ok := g.intents[id]
	if !ok {
		return nil, fmt.Errorf("%w: noop: payment intent %s not found", domain.ErrPaymentGateway, id)
	}
	cp := *pi
	return &cp, nil
}

func (g *NoopPaymentGateway) CancelPaymentIntent(ctx context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	pi, ok := g.intents[id]
	if !ok {
		return fmt.Errorf("%w: noop: payment intent %s not found", domain.ErrPaymentGateway, id)
	}
	if pi.Status == adapter.IntentSucceeded {
		return fmt.Errorf("%w: noop: payment intent %s already succeeded", domain.ErrPaymentGateway, id)
	}
	pi.Status = adapter.IntentCanceled
	return nil
}

// SettlePaymentIntent marks an intent succeeded, standing in for the card flow.
func (g *NoopPaymentGateway) SettlePaymentIntent(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if pi, ok := g.intents[id]; ok {
		pi.Status = adapter.IntentSucceeded
	}
}

// CreateCheckoutSession provisions the subscription immediately with a one month period.
func (g *NoopPaymentGateway) CreateCheckoutSession(ctx context.Context, p adapter.CheckoutParams) (*adapter.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := time.Now().UTC()
	subID := newID("sub")
	g.subs[subID] = &adapter.SubscriptionSnapshot{
		ID:                 subID,
		CustomerID:         "cus_" + p.UserID,
		Status:             "active",
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   now.AddDate(0, 1, 0),
	}
	id := newID("cs")
	return &adapter.CheckoutSession{ID: id, URL: "https://example.test/checkout/" + id}, nil
}

func (g *NoopPaymentGateway) CancelSubscription(ctx context.Context, externalID string, immediately bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.subs[externalID]
	if !ok {
		return fmt.Errorf("%w: noop: subscription %s not found", domain.ErrPaymentGateway, externalID)
	}
	if immediately {
		s.Status = "canceled"
	} else {
		s.CancelAtPeriodEnd = true
	}
	return nil
}

func (g *NoopPaymentGateway) GetSubscription(ctx context.Context, externalID string) (*adapter.SubscriptionSnapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.subs[externalID]
	if !ok {
		return nil, fmt.Errorf("%w: noop: subscription %s not found", domain.ErrPaymentGateway, externalID)
	}
	cp := *s
	return &cp, nil
}

// ConstructWebhookEvent accepts the Stripe event JSON shape.
func (g *NoopPaymentGateway) ConstructWebhookEvent(payload []byte, signature string) (adapter.Event, error) {
	if g.secret == "" || signature != g.secret {
		return nil, domain.ErrInvalidSignature
	}
	if !json.Valid(payload) {
		return nil, fmt.Errorf("%w: payload is not json", domain.ErrInvalidArgument)
	}
	return decodeEvent(payload)
}
