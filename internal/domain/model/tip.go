package model

import (
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"creator-ledger/internal/domain"
)

const (
	MinTipAmount     int64 = 100
	MaxTipAmount     int64 = 100_000
	MaxTipMessageLen       = 200
)

type ContentType string

const (
	ContentTypeVideo ContentType = "video"
	ContentTypeShort ContentType = "short"
	ContentTypeLive  ContentType = "live"
)

func (c ContentType) Valid() bool {
	switch c {
	case ContentTypeVideo, ContentTypeShort, ContentTypeLive:
		return true
	}
	return false
}

type TipStatus string

const (
	TipStatusPending   TipStatus = "pending"
	TipStatusCompleted TipStatus = "completed"
	TipStatusFailed    TipStatus = "failed"
)

// PaymentOutcome is the gateway's final verdict on a one-off payment.
type PaymentOutcome string

const (
	PaymentOutcomeSucceeded PaymentOutcome = "succeeded"
	PaymentOutcomeFailed    PaymentOutcome = "failed"
)

// Tip is a single money transfer from a viewer to a content owner.
type Tip struct {
	ID                    string
	FromUserID            string
	ToUserID              string
	ContentType           ContentType
	ContentID             string
	Amount                int64 // minor units; JPY has none
	Currency              string
	Message               *string
	PaymentProvider       string
	ExternalTransactionID string
	Status                TipStatus
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// CanTransitionTo reports whether the tip may move to next. Tips only leave pending.
func (t *Tip) CanTransitionTo(next TipStatus) bool {
	return t.Status == TipStatusPending && (next == TipStatusCompleted || next == TipStatusFailed)
}

// ValidateTipAmount checks the accepted tip range.
func ValidateTipAmount(amount int64) error {
	if amount < MinTipAmount || amount > MaxTipAmount {
		return domain.ErrInvalidAmount
	}
	return nil
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// SanitizeTipMessage strips markup and control characters and enforces the length limit.
// An empty result yields nil.
func SanitizeTipMessage(raw string) (*string, error) {
	s := tagPattern.ReplaceAllString(raw, "")
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' {
			return -1
		}
		return r
	}, s)
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(s) > MaxTipMessageLen {
		return nil, domain.ErrMessageTooLong
	}
	return &s, nil
}
