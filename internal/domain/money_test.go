package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestMoneyArithmetic(t *testing.T) {
	usd100 := MoneyFromFloat(100, CurrencyUSD)
	usd40 := MoneyFromFloat(40, CurrencyUSD)
	eur40 := MoneyFromFloat(40, CurrencyEUR)

	t.Run("add same currency", func(t *testing.T) {
		sum, err := usd100.Add(usd40)
		require.NoError(t, err)
		require.True(t, sum.Equal(MoneyFromFloat(140, CurrencyUSD)))
	})

	t.Run("subtract same currency", func(t *testing.T) {
		diff, err := usd100.Sub(usd40)
		require.NoError(t, err)
		require.True(t, diff.Equal(MoneyFromFloat(60, CurrencyUSD)))
	})

	t.Run("add rejects cross-currency", func(t *testing.T) {
		_, err := usd100.Add(eur40)
		require.ErrorIs(t, err, ErrCurrencyMismatch)
	})

	t.Run("subtract rejects cross-currency", func(t *testing.T) {
		_, err := usd100.Sub(eur40)
		require.ErrorIs(t, err, ErrCurrencyMismatch)
	})

	t.Run("compare rejects cross-currency", func(t *testing.T) {
		_, err := usd100.Cmp(eur40)
		require.ErrorIs(t, err, ErrCurrencyMismatch)
	})

	t.Run("untyped zero is an identity", func(t *testing.T) {
		sum, err := MoneyValue{}.Add(usd40)
		require.NoError(t, err)
		require.True(t, sum.Equal(usd40))

		cmp, err := MoneyValue{}.Cmp(usd40)
		require.NoError(t, err)
		require.Equal(t, -1, cmp)
	})

	t.Run("typed zero keeps its currency", func(t *testing.T) {
		sum, err := ZeroMoney(CurrencyUSD).Add(usd40)
		require.NoError(t, err)
		require.Equal(t, CurrencyUSD, sum.Currency)

		_, err = ZeroMoney(CurrencyEUR).Add(usd40)
		require.ErrorIs(t, err, ErrCurrencyMismatch)
	})
}

func TestCurrencyIsValid(t *testing.T) {
	tests := []struct {
		currency Currency
		valid    bool
	}{
		{CurrencyUSD, true},
		{Currency("NOK"), true},
		{Currency("usd"), false},
		{Currency("US"), false},
		{Currency(""), false},
		{Currency("USDX"), false},
	}

	for _, tc := range tests {
		require.Equal(t, tc.valid, tc.currency.IsValid(), "currency %q", tc.currency)
	}
}

func TestMoneyFromDecimal(t *testing.T) {
	m := NewMoney(decimal.RequireFromString("19.99"), CurrencyGBP)
	require.Equal(t, "19.99 GBP", m.String())
	require.True(t, m.IsPositive())
	require.False(t, m.IsZero())
}
