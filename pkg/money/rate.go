package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Rate represents an annual percentage rate with four decimal places,
// e.g. 8.5000 for 8.5% per annum.
type Rate struct {
	value decimal.Decimal
}

// NewRate creates a Rate from a decimal string such as "8.50".
// The value is rounded half-up to 4 decimal places.
func NewRate(value string) (Rate, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Rate{}, fmt.Errorf("invalid rate %q: %w", value, err)
	}
	return Rate{value: d.Round(4)}, nil
}

// MustNewRate is like NewRate but panics on a malformed value. It is intended
// for package-level policy tables and test fixtures only.
func MustNewRate(value string) Rate {
	r, err := NewRate(value)
	if err != nil {
		panic(err)
	}
	return r
}

// NewRateFromDecimal creates a Rate from a decimal, rounding half-up to 4
// places.
func NewRateFromDecimal(d decimal.Decimal) Rate {
	return Rate{value: d.Round(4)}
}

// ZeroRate returns a zero rate.
func ZeroRate() Rate {
	return Rate{value: decimal.Zero}
}

// Decimal returns the underlying decimal percentage value.
func (r Rate) Decimal() decimal.Decimal {
	return r.value
}

// AddPoints returns the rate adjusted up by the given percentage points.
func (r Rate) AddPoints(points string) Rate {
	return Rate{value: r.value.Add(decimal.RequireFromString(points)).Round(4)}
}

// SubPoints returns the rate adjusted down by the given percentage points.
func (r Rate) SubPoints(points string) Rate {
	return Rate{value: r.value.Sub(decimal.RequireFromString(points)).Round(4)}
}

// Monthly converts the annual percentage rate to a monthly fractional rate
// (rate / 1200), rounded half-up to 6 decimal places.
func (r Rate) Monthly() decimal.Decimal {
	return r.value.DivRound(decimal.NewFromInt(1200), 6)
}

// IsZero reports whether the rate is zero.
func (r Rate) IsZero() bool {
	return r.value.IsZero()
}

// Equal reports whether two rates are exactly equal.
func (r Rate) Equal(other Rate) bool {
	return r.value.Equal(other.value)
}

// String formats the rate with exactly four decimal places.
func (r Rate) String() string {
	return r.value.StringFixed(4)
}
