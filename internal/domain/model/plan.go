package model

import (
	"time"

	"creator-ledger/internal/domain"
)

type BillingCycle string

const (
	BillingCycleMonthly BillingCycle = "monthly"
	BillingCycleYearly  BillingCycle = "yearly"
)

// SubscriptionPlan is read-only catalog data. Price is in minor units of Currency.
type SubscriptionPlan struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Price           int64        `json:"price"`
	Currency        string       `json:"currency"`
	BillingCycle    BillingCycle `json:"billing_cycle"`
	PaymentProvider string       `json:"payment_provider"`
	IsActive        bool         `json:"is_active"`
	CreatedAt       time.Time    `json:"created_at"`
}

func (p *SubscriptionPlan) IsZero() bool { return p == nil || p.ID == "" }

// NewSubscriptionPlan validates and constructs a plan.
func NewSubscriptionPlan(id, name string, price int64, currency string, cycle BillingCycle, provider string) (*SubscriptionPlan, error) {
	if id == "" || name == "" || price <= 0 || currency == "" || provider == "" {
		return nil, domain.ErrInvalidArgument
	}
	if cycle != BillingCycleMonthly && cycle != BillingCycleYearly {
		return nil, domain.ErrInvalidArgument
	}
	return &SubscriptionPlan{
		ID:              id,
		Name:            name,
		Price:           price,
		Currency:        currency,
		BillingCycle:    cycle,
		PaymentProvider: provider,
		IsActive:        true,
		CreatedAt:       time.Now(),
	}, nil
}
