package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
)

func (c Currency) IsValid() bool {
	if len(c) != 3 {
		return false
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// MoneyValue is an exact decimal amount in a single currency. Arithmetic
// across currencies is rejected; a zero value with an empty currency acts
// as the identity so ledgers can be folded without seeding a currency.
type MoneyValue struct {
	Amount   decimal.Decimal
	Currency Currency
}

func NewMoney(amount decimal.Decimal, currency Currency) MoneyValue {
	return MoneyValue{Amount: amount, Currency: currency}
}

func MoneyFromFloat(amount float64, currency Currency) MoneyValue {
	return MoneyValue{Amount: decimal.NewFromFloat(amount), Currency: currency}
}

func ZeroMoney(currency Currency) MoneyValue {
	return MoneyValue{Amount: decimal.Zero, Currency: currency}
}

func (m MoneyValue) IsZero() bool {
	return m.Amount.IsZero()
}

func (m MoneyValue) IsPositive() bool {
	return m.Amount.IsPositive()
}

func (m MoneyValue) IsNegative() bool {
	return m.Amount.IsNegative()
}

func (m MoneyValue) Equal(other MoneyValue) bool {
	return m.Currency == other.Currency && m.Amount.Equal(other.Amount)
}

func (m MoneyValue) String() string {
	return m.Amount.String() + " " + string(m.Currency)
}

func (m MoneyValue) Add(other MoneyValue) (MoneyValue, error) {
	cur, err := combineCurrencies(m, other)
	if err != nil {
		return MoneyValue{}, fmt.Errorf("Add: %w", err)
	}
	return MoneyValue{Amount: m.Amount.Add(other.Amount), Currency: cur}, nil
}

func (m MoneyValue) Sub(other MoneyValue) (MoneyValue, error) {
	cur, err := combineCurrencies(m, other)
	if err != nil {
		return MoneyValue{}, fmt.Errorf("Sub: %w", err)
	}
	return MoneyValue{Amount: m.Amount.Sub(other.Amount), Currency: cur}, nil
}

func (m MoneyValue) Cmp(other MoneyValue) (int, error) {
	if _, err := combineCurrencies(m, other); err != nil {
		return 0, fmt.Errorf("Cmp: %w", err)
	}
	return m.Amount.Cmp(other.Amount), nil
}

// combineCurrencies picks the effective currency for a binary operation.
// A zero operand with an unset currency adopts the other side's currency.
func combineCurrencies(a, b MoneyValue) (Currency, error) {
	switch {
	case a.Currency == b.Currency:
		return a.Currency, nil
	case a.Currency == "" && a.IsZero():
		return b.Currency, nil
	case b.Currency == "" && b.IsZero():
		return a.Currency, nil
	default:
		return "", fmt.Errorf("%s vs %s: %w", a.Currency, b.Currency, ErrCurrencyMismatch)
	}
}
