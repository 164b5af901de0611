package valueobjects

import (
	"fmt"
)

// CurrencyNGN is the only currency the platform bills in today.
const CurrencyNGN = "NGN"

// Money is an amount in the currency's minor unit (kobo for NGN).
// Arithmetic on floats never touches billing code.
type Money struct {
	amount   int64
	currency string
}

func NewMoney(amount int64, currency string) (Money, error) {
	if amount < 0 {
		return Money{}, fmt.Errorf("amount cannot be negative: %d", amount)
	}
	if currency == "" {
		currency = CurrencyNGN
	}
	return Money{amount: amount, currency: currency}, nil
}

// MustNewMoney is for constants and tests with known-good values.
func MustNewMoney(amount int64, currency string) Money {
	m, err := NewMoney(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Amount returns the value in minor units (kobo).
func (m Money) Amount() int64 { return m.amount }

func (m Money) Currency() string { return m.currency }

// Major returns the value in major units (naira) for display.
func (m Money) Major() float64 { return float64(m.amount) / 100 }

func (m Money) IsZero() bool { return m.amount == 0 }

func (m Money) Equals(other Money) bool {
	return m.amount == other.amount && m.currency == other.currency
}

func (m Money) String() string {
	return fmt.Sprintf("%s %.2f", m.currency, m.Major())
}
