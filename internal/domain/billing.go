package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultRateCentsPerMinute is the billing rate used when none is configured.
const DefaultRateCentsPerMinute = 50

// Billing computes task cost from logged minutes at a fixed rate.
// The zero value bills at zero cents per minute.
type Billing struct {
	rate decimal.Decimal // cents per minute, may be fractional
}

// NewBilling returns a calculator for rate cents per minute.
func NewBilling(rate decimal.Decimal) (Billing, error) {
	if rate.IsNegative() {
		return Billing{}, ErrNegativeRate
	}
	return Billing{rate: rate}, nil
}

// ParseBilling parses a decimal rate such as "50" or "12.5".
func ParseBilling(rate string) (Billing, error) {
	d, err := decimal.NewFromString(rate)
	if err != nil {
		return Billing{}, fmt.Errorf("%w: invalid rate %q", ErrValidation, rate)
	}
	return NewBilling(d)
}

// Rate returns the configured cents per minute.
func (b Billing) Rate() decimal.Decimal {
	return b.rate
}

// Cost returns round_half_up(totalMinutes * rate) + prepay, in cents.
func (b Billing) Cost(task *Task, totalMinutes int64) (int64, error) {
	if task == nil {
		return 0, ErrTaskNotFound
	}
	if totalMinutes < 0 {
		return 0, ErrNegativeMinutes
	}
	if task.PrepayAmountCents < 0 {
		return 0, ErrNegativePrepay
	}
	// Round is half away from zero, which is half-up for non-negative amounts.
	labor := decimal.NewFromInt(totalMinutes).Mul(b.rate).Round(0).IntPart()
	return labor + task.PrepayAmountCents, nil
}
