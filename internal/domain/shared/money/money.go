// Package money holds amenity fees in minor units.
package money

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidCurrency = errors.New("money: invalid currency code")
	ErrNegativeAmount  = errors.New("money: amount must not be negative")
)

// Money is an amount in minor units (centavos, cents) of an ISO 4217 currency.
// The zero value means "no fee".
type Money struct {
	Amount   int64
	Currency string
}

func New(amount int64, currency string) (Money, error) {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if len(code) != 3 || strings.IndexFunc(code, func(r rune) bool { return r < 'A' || r > 'Z' }) >= 0 {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidCurrency, currency)
	}
	if amount < 0 {
		return Money{}, ErrNegativeAmount
	}
	return Money{Amount: amount, Currency: code}, nil
}

// Must is New for literals known to be valid.
func Must(amount int64, currency string) Money {
	m, err := New(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) IsZero() bool {
	return m.Amount == 0
}

// String renders the amount with two decimals, e.g. "BRL 150.00". A fee
// without currency renders as the bare amount.
func (m Money) String() string {
	value := fmt.Sprintf("%d.%02d", m.Amount/100, m.Amount%100)
	if m.Currency == "" {
		return value
	}
	return m.Currency + " " + value
}
