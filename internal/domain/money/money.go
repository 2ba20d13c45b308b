// Package money holds the ledger's pure fee and proration arithmetic.
// Amounts are integers in the currency's minor unit; JPY has none.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"creator-ledger/internal/domain"
	"creator-ledger/internal/domain/model"
)

// feePercent is the platform's share per earning source.
var feePercent = map[model.SourceType]int64{
	model.SourceTypeTip:              30,
	model.SourceTypeSuperchat:        30,
	model.SourceTypeSubscriptionPool: 50,
}

// FeePercent returns the platform share for sourceType.
func FeePercent(sourceType model.SourceType) (int64, error) {
	pct, ok := feePercent[sourceType]
	if !ok {
		return 0, fmt.Errorf("%w: %q", domain.ErrUnknownSourceType, sourceType)
	}
	return pct, nil
}

// PlatformFee returns the fee retained on amount, rounded half up.
func PlatformFee(amount int64, sourceType model.SourceType) (int64, error) {
	if amount < 0 {
		return 0, domain.ErrInvalidAmount
	}
	pct, err := FeePercent(sourceType)
	if err != nil {
		return 0, err
	}
	return (amount*pct + 50) / 100, nil
}

// NetAmount returns amount - fee.
func NetAmount(amount, fee int64) (int64, error) {
	if amount < 0 || fee < 0 || fee > amount {
		return 0, domain.ErrInvalidAmount
	}
	return amount - fee, nil
}

// Split computes fee and net for one source event.
func Split(amount int64, sourceType model.SourceType) (fee, net int64, err error) {
	fee, err = PlatformFee(amount, sourceType)
	if err != nil {
		return 0, 0, err
	}
	net, err = NetAmount(amount, fee)
	return fee, net, err
}

// CurrencyPlaces returns the number of minor-unit digits for an ISO currency code.
func CurrencyPlaces(currency string) int32 {
	switch strings.ToUpper(currency) {
	case "JPY", "KRW", "VND", "CLP", "ISK", "UGX":
		return 0
	case "BHD", "KWD", "OMR", "JOD", "TND":
		return 3
	default:
		return 2
	}
}

// ToMajor converts a minor-unit amount into a decimal in major units.
func ToMajor(amount int64, currency string) decimal.Decimal {
	return decimal.New(amount, -CurrencyPlaces(currency))
}

// ToMinor converts a major-unit decimal into minor units, rounding half up.
func ToMinor(d decimal.Decimal, currency string) int64 {
	return d.Shift(CurrencyPlaces(currency)).Round(0).IntPart()
}

// Proration computes the charge for moving from currentPrice to newPrice with
// daysRemaining of daysInMonth left, in major units rounded to the currency
// precision. A downgrade charges nothing unless asCredit is set, in which case
// the credit magnitude is returned.
func Proration(currentPrice, newPrice decimal.Decimal, daysRemaining, daysInMonth int, currency string, isDowngrade, asCredit bool) (decimal.Decimal, error) {
	if daysInMonth <= 0 {
		return decimal.Zero, domain.ErrInvalidPeriod
	}
	if daysRemaining < 0 || daysRemaining > daysInMonth {
		return decimal.Zero, domain.ErrInvalidPeriod
	}
	if currentPrice.IsNegative() || newPrice.IsNegative() {
		return decimal.Zero, domain.ErrInvalidAmount
	}
	diff := newPrice.Sub(currentPrice).
		Mul(decimal.NewFromInt(int64(daysRemaining))).
		Div(decimal.NewFromInt(int64(daysInMonth)))
	if isDowngrade {
		if !asCredit {
			return decimal.Zero, nil
		}
		diff = diff.Abs()
	}
	return diff.Round(CurrencyPlaces(currency)), nil
}

// ProrationMinor is Proration over minor-unit plan prices.
func ProrationMinor(currentPrice, newPrice int64, daysRemaining, daysInMonth int, currency string, isDowngrade, asCredit bool) (int64, error) {
	d, err := Proration(ToMajor(currentPrice, currency), ToMajor(newPrice, currency),
		daysRemaining, daysInMonth, currency, isDowngrade, asCredit)
	if err != nil {
		return 0, err
	}
	return ToMinor(d, currency), nil
}
