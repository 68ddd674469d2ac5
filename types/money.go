package types

import (
	"errors"
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

var (
	ErrCurrencyMismatch = errors.New("currency mismatch")
	ErrDivideByZero     = errors.New("divide by zero")
	ErrUnknownCurrency  = errors.New("unknown currency")
)

// Money is a currency tagged decimal amount. The zero value is an untagged zero.
type Money struct {
	value    decimal.Decimal
	currency string
}

func NewMoney(value decimal.Decimal, currency string) Money {
	return Money{value: value, currency: currency}
}

func NewMoneyFromFloat(value float64, currency string) Money {
	return Money{value: decimal.NewFromFloat(value), currency: currency}
}

// ZeroMoney returns a zero amount in currency.
func ZeroMoney(currency string) Money {
	return Money{value: decimal.Zero, currency: currency}
}

// KnownCurrency reports an error when code is not an ISO 4217 currency.
func KnownCurrency(code string) error {
	if money.GetCurrency(code) == nil {
		return fmt.Errorf("%q: %w", code, ErrUnknownCurrency)
	}
	return nil
}

func (m Money) Value() decimal.Decimal { return m.value }
func (m Money) Currency() string       { return m.currency }
func (m Money) IsZero() bool           { return m.value.IsZero() }
func (m Money) IsNegative() bool       { return m.value.IsNegative() }
func (m Money) IsPositive() bool       { return m.value.IsPositive() }
func (m Money) Neg() Money             { return Money{value: m.value.Neg(), currency: m.currency} }
func (m Money) Abs() Money             { return Money{value: m.value.Abs(), currency: m.currency} }

// Equal is true when both the amount and the currency match.
func (m Money) Equal(n Money) bool {
	return m.currency == n.currency && m.value.Equal(n.value)
}

func (m Money) Add(n Money) (Money, error) {
	if err := sameCurrency(m, n); err != nil {
		return Money{}, err
	}
	return Money{value: m.value.Add(n.value), currency: m.currency}, nil
}

func (m Money) Sub(n Money) (Money, error) {
	if err := sameCurrency(m, n); err != nil {
		return Money{}, err
	}
	return Money{value: m.value.Sub(n.value), currency: m.currency}, nil
}

func (m Money) Mul(n Money) (Money, error) {
	if err := sameCurrency(m, n); err != nil {
		return Money{}, err
	}
	return Money{value: m.value.Mul(n.value), currency: m.currency}, nil
}

func (m Money) Div(n Money) (Money, error) {
	if err := sameCurrency(m, n); err != nil {
		return Money{}, err
	}
	if n.value.IsZero() {
		return Money{}, ErrDivideByZero
	}
	return Money{value: m.value.Div(n.value), currency: m.currency}, nil
}

// RatioPrecision is the number of decimal places Ratio rounds to.
var RatioPrecision int32 = 24

// Ratio returns m / n as a plain fraction.
func (m Money) Ratio(n Money) (decimal.Decimal, error) {
	if err := sameCurrency(m, n); err != nil {
		return decimal.Zero, err
	}
	if n.value.IsZero() {
		return decimal.Zero, ErrDivideByZero
	}
	return m.value.DivRound(n.value, RatioPrecision), nil
}

func (m Money) MulScalar(d decimal.Decimal) Money {
	return Money{value: m.value.Mul(d), currency: m.currency}
}

// DivScalar divides by a plain number. Only a zero divisor fails.
func (m Money) DivScalar(d decimal.Decimal) (Money, error) {
	if d.IsZero() {
		return Money{}, ErrDivideByZero
	}
	return Money{value: m.value.Div(d), currency: m.currency}, nil
}

// Compare returns -1, 0 or +1. Mixed currencies fail.
func (m Money) Compare(n Money) (int, error) {
	if err := sameCurrency(m, n); err != nil {
		return 0, err
	}
	return m.value.Cmp(n.value), nil
}

// Symbol returns the currency grapheme, e.g. "$", falling back to the code.
func (m Money) Symbol() string {
	if c := money.GetCurrency(m.currency); c != nil && c.Grapheme != "" {
		return c.Grapheme
	}
	return m.currency
}

// String always renders two fractional digits followed by the currency code.
func (m Money) String() string {
	if m.currency == "" {
		return m.value.StringFixed(2)
	}
	return m.value.StringFixed(2) + " " + m.currency
}

func sameCurrency(a, b Money) error {
	if a.currency != b.currency {
		return fmt.Errorf("%w: %s != %s", ErrCurrencyMismatch, a.currency, b.currency)
	}
	return nil
}
