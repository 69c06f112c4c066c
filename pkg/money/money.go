// Package money provides exact decimal value objects for monetary amounts and
// interest rates. Amounts always carry two decimal places, rates four; all
// comparisons are exact, never floating point.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money represents a monetary amount with two decimal places.
// Invariants:
//   - The amount is always rounded half-up to 2 decimal places.
//   - Arithmetic never loses precision beyond that scale.
type Money struct {
	amount decimal.Decimal
}

// New creates a Money from a decimal string such as "10.50".
// The value is rounded half-up to 2 decimal places.
func New(value string) (Money, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	return Money{amount: d.Round(2)}, nil
}

// MustNew is like New but panics on a malformed value. It is intended for
// package-level policy tables and test fixtures only.
func MustNew(value string) Money {
	m, err := New(value)
	if err != nil {
		panic(err)
	}
	return m
}

// NewFromDecimal creates a Money from a decimal, rounding half-up to 2 places.
func NewFromDecimal(d decimal.Decimal) Money {
	return Money{amount: d.Round(2)}
}

// Zero returns a zero amount.
func Zero() Money {
	return Money{amount: decimal.Zero}
}

// Decimal returns the underlying decimal value.
func (m Money) Decimal() decimal.Decimal {
	return m.amount
}

// Add returns the sum of two amounts.
func (m Money) Add(other Money) Money {
	return Money{amount: m.amount.Add(other.amount)}
}

// Sub returns the difference of two amounts.
func (m Money) Sub(other Money) Money {
	return Money{amount: m.amount.Sub(other.amount)}
}

// Neg returns the negated amount.
func (m Money) Neg() Money {
	return Money{amount: m.amount.Neg()}
}

// Mul multiplies the amount by a scalar factor, rounding half-up to 2 places.
func (m Money) Mul(factor decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(factor).Round(2)}
}

// MulInt multiplies the amount by an integer factor.
func (m Money) MulInt(n int64) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(n))}
}

// DivInt divides the amount by an integer, rounding half-up to 2 places.
func (m Money) DivInt(n int64) (Money, error) {
	if n == 0 {
		return Money{}, fmt.Errorf("division by zero")
	}
	return Money{amount: m.amount.DivRound(decimal.NewFromInt(n), 2)}, nil
}

// Equal reports whether two amounts are exactly equal.
func (m Money) Equal(other Money) bool {
	return m.amount.Equal(other.amount)
}

// GreaterThan reports whether m > other.
func (m Money) GreaterThan(other Money) bool {
	return m.amount.GreaterThan(other.amount)
}

// GreaterThanOrEqual reports whether m >= other.
func (m Money) GreaterThanOrEqual(other Money) bool {
	return m.amount.GreaterThanOrEqual(other.amount)
}

// LessThan reports whether m < other.
func (m Money) LessThan(other Money) bool {
	return m.amount.LessThan(other.amount)
}

// LessThanOrEqual reports whether m <= other.
func (m Money) LessThanOrEqual(other Money) bool {
	return m.amount.LessThanOrEqual(other.amount)
}

// IsPositive reports whether the amount is greater than zero.
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// IsNegative reports whether the amount is less than zero.
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// Abs returns the absolute value of the amount.
func (m Money) Abs() Money {
	return Money{amount: m.amount.Abs()}
}

// String formats the amount with exactly two decimal places.
func (m Money) String() string {
	return m.amount.StringFixed(2)
}
