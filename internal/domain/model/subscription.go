package model

import (
	"time"

	"creator-ledger/internal/domain"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
	SubscriptionStatusUnpaid   SubscriptionStatus = "unpaid"
)

// UserSubscription is a user's relationship to a plan over time.
// It is logically terminal once Status is canceled.
type UserSubscription struct {
	ID                     string             `json:"id"`
	UserID                 string             `json:"user_id"`
	PlanID                 string             `json:"plan_id"`
	PaymentProvider        string             `json:"payment_provider"`
	ExternalSubscriptionID string             `json:"external_subscription_id,omitempty"`
	ExternalCustomerID     string             `json:"external_customer_id,omitempty"`
	Status                 SubscriptionStatus `json:"status"`
	CurrentPeriodStart     time.Time          `json:"current_period_start"`
	CurrentPeriodEnd       time.Time          `json:"current_period_end"`
	CancelAtPeriodEnd      bool               `json:"cancel_at_period_end"`
	CanceledAt             *time.Time         `json:"canceled_at,omitempty"`
	CreatedAt              time.Time          `json:"created_at"`
	UpdatedAt              time.Time          `json:"updated_at"`
}

// NewUserSubscription creates an active subscription for the given period.
func NewUserSubscription(id, userID, planID, provider string, start, end time.Time) (*UserSubscription, error) {
	if id == "" || userID == "" || planID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if !end.After(start) {
		return nil, domain.ErrInvalidPeriod
	}
	now := time.Now()
	return &UserSubscription{
		ID:                 id,
		UserID:             userID,
		PlanID:             planID,
		PaymentProvider:    provider,
		Status:             SubscriptionStatusActive,
		CurrentPeriodStart: start,
		CurrentPeriodEnd:   end,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// IsCurrent reports whether the subscription still grants access: active or
// past_due (in payment recovery).
func (s *UserSubscription) IsCurrent() bool {
	return s.Status == SubscriptionStatusActive || s.Status == SubscriptionStatusPastDue
}

// IsCanceled reports whether the subscription reached its terminal state.
func (s *UserSubscription) IsCanceled() bool { return s.Status == SubscriptionStatusCanceled }

// CancelNow ends the subscription immediately.
func (s *UserSubscription) CancelNow(now time.Time) {
	s.Status = SubscriptionStatusCanceled
	s.CancelAtPeriodEnd = false
	if now.Before(s.CurrentPeriodEnd) || s.CurrentPeriodEnd.IsZero() {
		s.CurrentPeriodEnd = now
	}
	// The period must stay non-empty, also when canceled before it started.
	if !s.CurrentPeriodEnd.After(s.CurrentPeriodStart) {
		s.CurrentPeriodEnd = s.CurrentPeriodStart.Add(time.Second)
	}
	s.CanceledAt = &now
	s.UpdatedAt = now
}

// ScheduleCancel keeps the subscription active until the period ends.
func (s *UserSubscription) ScheduleCancel(now time.Time) {
	s.CancelAtPeriodEnd = true
	s.UpdatedAt = now
}

// RemainingDays returns the whole days left in the current period, rounded up.
func (s *UserSubscription) RemainingDays(now time.Time) int {
	if !now.Before(s.CurrentPeriodEnd) {
		return 0
	}
	left := s.CurrentPeriodEnd.Sub(now)
	days := int(left / (24 * time.Hour))
	if left%(24*time.Hour) != 0 {
		days++
	}
	return days
}

// PeriodDays returns the length of the current period in days.
func (s *UserSubscription) PeriodDays() int {
	d := s.CurrentPeriodEnd.Sub(s.CurrentPeriodStart)
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		days++
	}
	return days
}
