package model

import "time"

type PaymentStatus string

const (
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// PaymentHistory is an append-only record of one settlement attempt against a
// UserSubscription. Rows are never updated.
type PaymentHistory struct {
	ID                string        `json:"id"`
	UserID            string        `json:"user_id"`
	SubscriptionID    string        `json:"subscription_id"`
	ExternalEventID   string        `json:"-"`
	ExternalInvoiceID string        `json:"external_invoice_id,omitempty"`
	Amount            int64         `json:"amount"`
	Currency          string        `json:"currency"`
	Status            PaymentStatus `json:"status"`
	FailureReason     *string       `json:"failure_reason,omitempty"`
	PaidAt            *time.Time    `json:"paid_at,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
}

// WebhookEvent records a processed gateway event so redeliveries are acknowledged
// without running handlers again.
type WebhookEvent struct {
	Provider    string
	EventID     string
	EventType   string
	ProcessedAt time.Time
}

// User is the slice of the account record the ledger needs.
type User struct {
	ID    string
	Email string
}
