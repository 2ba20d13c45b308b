package model

import "time"

// HoldingPeriod is how long an earning waits before it becomes withdrawable.
const HoldingPeriod = 14 * 24 * time.Hour

type SourceType string

const (
	SourceTypeTip              SourceType = "tip"
	SourceTypeSuperchat        SourceType = "superchat"
	SourceTypeSubscriptionPool SourceType = "subscription_pool"
)

type EarningStatus string

const (
	EarningStatusPending   EarningStatus = "pending"
	EarningStatusAvailable EarningStatus = "available"
	EarningStatusReversed  EarningStatus = "reversed"
)

// Earning is a creator's accrued revenue for one source event.
// PlatformFee + NetAmount always equals Amount.
type Earning struct {
	ID          string
	UserID      string
	SourceType  SourceType
	SourceID    string
	Amount      int64
	PlatformFee int64
	NetAmount   int64
	Currency    string
	Status      EarningStatus
	AvailableAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Balanced reports whether the fee split adds up.
func (e *Earning) Balanced() bool {
	return e.PlatformFee+e.NetAmount == e.Amount
}

// Withdrawable reports whether the earning can be paid out at now.
func (e *Earning) Withdrawable(now time.Time) bool {
	return e.Status == EarningStatusAvailable && !now.Before(e.AvailableAt)
}

// EarningStats summarizes a creator's ledger.
type EarningStats struct {
	Currency     string `json:"currency"`
	Count        int    `json:"count"`
	GrossAmount  int64  `json:"gross_amount"`
	PlatformFees int64  `json:"platform_fees"`
	NetAmount    int64  `json:"net_amount"`
	Pending      int64  `json:"pending"`
	Available    int64  `json:"available"`
	Withdrawable int64  `json:"withdrawable"`
	Reversed     int64  `json:"reversed"`
}
