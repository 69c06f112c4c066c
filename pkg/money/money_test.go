package money_test

import (
	"testing"

	"github.com/amirasaad/corebank/pkg/money"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("parses and keeps two decimal places", func(t *testing.T) {
		m, err := money.New("10.5")
		require.NoError(t, err)
		assert.Equal(t, "10.50", m.String())
	})

	t.Run("rounds half-up", func(t *testing.T) {
		m, err := money.New("10.505")
		require.NoError(t, err)
		assert.Equal(t, "10.51", m.String())
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		_, err := money.New("ten dollars")
		assert.Error(t, err)
	})
}

func TestArithmetic(t *testing.T) {
	t.Parallel()
	a := money.MustNew("100.00")
	b := money.MustNew("2.50")

	assert.Equal(t, "102.50", a.Add(b).String())
	assert.Equal(t, "97.50", a.Sub(b).String())
	assert.Equal(t, "-2.50", b.Neg().String())
	assert.Equal(t, "2.50", b.Neg().Abs().String())

	// 0.1 + 0.2 is exactly 0.3 in decimal arithmetic.
	sum := money.MustNew("0.10").Add(money.MustNew("0.20"))
	assert.True(t, sum.Equal(money.MustNew("0.30")))
}

func TestComparisons(t *testing.T) {
	t.Parallel()
	a := money.MustNew("50.00")
	b := money.MustNew("50.00")
	c := money.MustNew("49.99")

	assert.True(t, a.Equal(b))
	assert.True(t, a.GreaterThan(c))
	assert.True(t, c.LessThan(a))
	assert.True(t, a.GreaterThanOrEqual(b))
	assert.True(t, a.LessThanOrEqual(b))
	assert.True(t, money.Zero().IsZero())
	assert.True(t, a.IsPositive())
	assert.True(t, a.Neg().IsNegative())
}

func TestDivInt(t *testing.T) {
	t.Parallel()

	m, err := money.MustNew("100.00").DivInt(3)
	require.NoError(t, err)
	assert.Equal(t, "33.33", m.String())

	_, err = money.MustNew("100.00").DivInt(0)
	assert.Error(t, err)
}

func TestMul(t *testing.T) {
	t.Parallel()
	m := money.MustNew("1033.61")
	assert.Equal(t, "12403.32", m.MulInt(12).String())

	half := money.MustNew("10.01").Mul(decimal.RequireFromString("0.5"))
	assert.Equal(t, "5.01", half.String(), "multiplication rounds half-up")
}

func TestRate(t *testing.T) {
	t.Parallel()

	t.Run("four decimal places", func(t *testing.T) {
		r, err := money.NewRate("8.5")
		require.NoError(t, err)
		assert.Equal(t, "8.5000", r.String())
	})

	t.Run("band adjustments", func(t *testing.T) {
		r := money.MustNewRate("8.50")
		assert.Equal(t, "7.5000", r.SubPoints("1.00").String())
		assert.Equal(t, "10.5000", r.AddPoints("2.00").String())
	})

	t.Run("monthly fraction", func(t *testing.T) {
		r := money.MustNewRate("6.00")
		// 6 / 1200 = 0.005
		assert.True(t, r.Monthly().Equal(decimal.RequireFromString("0.005")))
	})

	t.Run("zero rate", func(t *testing.T) {
		assert.True(t, money.ZeroRate().IsZero())
	})
}
