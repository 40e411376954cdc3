package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney(t *testing.T) {
	day := Cents(1550)
	assert.Equal(t, "46.50 EUR", day.Multiply(3).String())
	assert.Equal(t, "-0.05 EUR", Cents(-5).String())

	sum, err := day.Add(Cents(50))
	require.NoError(t, err)
	assert.Equal(t, int64(1600), sum.Amount)

	_, err = day.Add(Must(1, "usd"))
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	_, err = New(1, "EURO")
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}
