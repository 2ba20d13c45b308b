package adapter

import "time"

// Gateway event type names.
const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
	EventInvoicePaymentSucceeded  = "invoice.payment_succeeded"
	EventInvoicePaymentFailed     = "invoice.payment_failed"
	EventSubscriptionUpdated      = "customer.subscription.updated"
	EventSubscriptionDeleted      = "customer.subscription.deleted"
	EventPaymentIntentSucceeded   = "payment_intent.succeeded"
	EventPaymentIntentFailed      = "payment_intent.payment_failed"
	EventPaymentIntentCanceled    = "payment_intent.canceled"
	EventChargeRefunded           = "charge.refunded"
)

// Event is a verified gateway notification. Concrete variants below; anything
// the decoder does not recognize becomes *UnknownEvent.
type Event interface {
	EventID() string
	EventType() string
}

type EventMeta struct {
	ID      string
	Type    string
	Created time.Time
}

func (m EventMeta) EventID() string   { return m.ID }
func (m EventMeta) EventType() string { return m.Type }

type CheckoutSessionCompleted struct {
	EventMeta
	SessionID      string
	SubscriptionID string
	CustomerID     string
	Metadata       map[string]string
}

type InvoicePaymentSucceeded struct {
	EventMeta
	InvoiceID      string
	SubscriptionID string
	Amount         int64
	Currency       string
	PaidAt         time.Time
}

type InvoicePaymentFailed struct {
	EventMeta
	InvoiceID      string
	SubscriptionID string
	Amount         int64
	Currency       string
	FailureReason  string
}

type SubscriptionUpdated struct {
	EventMeta
	Subscription SubscriptionSnapshot
}

type SubscriptionDeleted struct {
	EventMeta
	SubscriptionID string
}

type PaymentIntentSucceeded struct {
	EventMeta
	PaymentIntentID string
	Metadata        map[string]string
}

// PaymentIntentFailed reports one failed attempt. The intent stays payable
// and the client may retry with the same client secret.
type PaymentIntentFailed struct {
	EventMeta
	PaymentIntentID string
	FailureReason   string
	Metadata        map[string]string
}

// PaymentIntentCanceled is terminal: the intent can no longer be paid.
type PaymentIntentCanceled struct {
	EventMeta
	PaymentIntentID    string
	CancellationReason string
	Metadata           map[string]string
}

// ChargeRefunded fires for partial refunds too; FullyRefunded tells them apart.
type ChargeRefunded struct {
	EventMeta
	PaymentIntentID string
	Amount          int64
	AmountRefunded  int64
	FullyRefunded   bool
}

type UnknownEvent struct {
	EventMeta
}
