package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// SessionsPerPackage is fixed: two technical rounds plus one HR round.
const SessionsPerPackage = 3

var ErrRateOutOfTierRange = errors.New("session rate outside tier bounds")

type Tier string

const (
	TierBronze Tier = "bronze"
	TierSilver Tier = "silver"
	TierGold   Tier = "gold"
)

// TierBounds holds the allowed per-session rate range for a mentor tier.
// Read from the mentor's tier record; enforced before any quote is computed.
type TierBounds struct {
	Tier    Tier
	MinRate decimal.Decimal
	MaxRate decimal.Decimal
}

// RateError carries the violated bounds so the client can show them.
type RateError struct {
	Bounds TierBounds
	Rate   decimal.Decimal
}

func (e *RateError) Error() string {
	return fmt.Sprintf("rate %s outside %s tier range [%s, %s]",
		e.Rate, e.Bounds.Tier, e.Bounds.MinRate, e.Bounds.MaxRate)
}

func (e *RateError) Unwrap() error { return ErrRateOutOfTierRange }

// ValidateRate rejects a per-session rate outside the tier bounds. No
// clamping: a violation is a validation error shown to the user.
func ValidateRate(bounds TierBounds, rate decimal.Decimal) error {
	if rate.LessThan(bounds.MinRate) || rate.GreaterThan(bounds.MaxRate) {
		return &RateError{Bounds: bounds, Rate: rate}
	}
	return nil
}

// Quote is the computed money split for one package.
type Quote struct {
	MentorPayout decimal.Decimal `json:"mentor_payout"`
	PlatformFee  decimal.Decimal `json:"platform_fee"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
}

// PackageQuote converts a mentor's per-session rate into the package price.
// The platform fee equals the mentor payout per session, so the candidate
// pays twice the rate, times the fixed session count.
//
// PackageQuote(1000) = {MentorPayout: 3000, PlatformFee: 3000, TotalAmount: 6000}.
func PackageQuote(sessionRate decimal.Decimal) Quote {
	sessions := decimal.NewFromInt(SessionsPerPackage)

	payout := sessionRate.Mul(sessions)
	fee := sessionRate.Mul(sessions)

	return Quote{
		MentorPayout: payout,
		PlatformFee:  fee,
		TotalAmount:  payout.Add(fee),
	}
}
