package adapter

import (
	"context"
	"time"
)

// PaymentIntentStatus mirrors the provider's lifecycle for one-off payments.
type PaymentIntentStatus string

const (
	IntentRequiresPayment PaymentIntentStatus = "requires_payment_method"
	IntentProcessing      PaymentIntentStatus = "processing"
	IntentSucceeded       PaymentIntentStatus = "succeeded"
	IntentCanceled        PaymentIntentStatus = "canceled"
)

// PaymentIntent is the provider-agnostic view of a one-off payment.
type PaymentIntent struct {
	ID           string
	ClientSecret string
	Amount       int64
	Currency     string
	Status       PaymentIntentStatus
	Metadata     map[string]string
}

// CheckoutParams ties a hosted checkout to {UserID, PlanID} for later webhook correlation.
type CheckoutParams struct {
	UserID     string
	Email      string
	PlanID     string
	PriceRef   string
	SuccessURL string
	CancelURL  string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// SubscriptionSnapshot is the gateway's authoritative view of a subscription.
type SubscriptionSnapshot struct {
	ID                 string
	CustomerID         string
	Status             string
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	CancelAtPeriodEnd  bool
}

// PaymentGateway is the hex port for card-payment providers.
type PaymentGateway interface {
	Name() string

	// CreatePaymentIntent requests a one-off payment tagged with meta.
	CreatePaymentIntent(ctx context.Context, amount int64, currency string, meta map[string]string) (*PaymentIntent, error)
	GetPaymentIntent(ctx context.Context, id string) (*PaymentIntent, error)
	// CancelPaymentIntent voids an unpaid intent. Used for compensation and expiry.
	CancelPaymentIntent(ctx context.Context, id string) error

	CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error)
	// CancelSubscription cancels now when immediately is set, otherwise at period end.
	CancelSubscription(ctx context.Context, externalID string, immediately bool) error
	GetSubscription(ctx context.Context, externalID string) (*SubscriptionSnapshot, error)

	// ConstructWebhookEvent verifies signature over payload and decodes the event.
	// It fails with domain.ErrInvalidSignature on tamper.
	ConstructWebhookEvent(payload []byte, signature string) (Event, error)
}
