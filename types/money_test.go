package types

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func usd(v string) Money { return NewMoney(decimal.RequireFromString(v), "USD") }
func eur(v string) Money { return NewMoney(decimal.RequireFromString(v), "EUR") }

func TestMoneyArithmetic(t *testing.T) {
	tests := []struct {
		name    string
		op      func(a, b Money) (Money, error)
		a, b    Money
		want    Money
		wantErr error
	}{
		{"add", Money.Add, usd("10"), usd("20"), usd("30"), nil},
		{"sub", Money.Sub, usd("10"), usd("20"), usd("-10"), nil},
		{"mul", Money.Mul, usd("10"), usd("20"), usd("200"), nil},
		{"div", Money.Div, usd("10"), usd("20"), usd("0.5"), nil},
		{"div by zero", Money.Div, usd("10"), usd("0"), Money{}, ErrDivideByZero},
		{"add mixed currencies", Money.Add, usd("10"), eur("10"), Money{}, ErrCurrencyMismatch},
		{"sub mixed currencies", Money.Sub, usd("10"), eur("10"), Money{}, ErrCurrencyMismatch},
		{"mul mixed currencies", Money.Mul, usd("10"), eur("10"), Money{}, ErrCurrencyMismatch},
		{"div mixed currencies", Money.Div, usd("10"), eur("0"), Money{}, ErrCurrencyMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.op(tt.a, tt.b)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMoneyScalarAndUnary(t *testing.T) {
	m := usd("-12.5")
	if got := m.Neg(); !got.Equal(usd("12.5")) {
		t.Errorf("Neg() = %v", got)
	}
	if got := m.Abs(); !got.Equal(usd("12.5")) {
		t.Errorf("Abs() = %v", got)
	}
	if got := m.MulScalar(decimal.NewFromInt(2)); !got.Equal(usd("-25")) {
		t.Errorf("MulScalar() = %v", got)
	}
	got, err := m.DivScalar(decimal.NewFromInt(5))
	if err != nil || !got.Equal(usd("-2.5")) {
		t.Errorf("DivScalar() = %v, %v", got, err)
	}
	if _, err := m.DivScalar(decimal.Zero); !errors.Is(err, ErrDivideByZero) {
		t.Errorf("DivScalar(0) error = %v", err)
	}
}

func TestMoneyRatio(t *testing.T) {
	r, err := usd("25").Ratio(usd("100"))
	if err != nil {
		t.Fatal(err)
	}
	if !r.Equal(decimal.RequireFromString("0.25")) {
		t.Errorf("Ratio() = %v", r)
	}
	if _, err := usd("1").Ratio(eur("1")); !errors.Is(err, ErrCurrencyMismatch) {
		t.Errorf("Ratio() mixed error = %v", err)
	}
}

func TestMoneyString(t *testing.T) {
	tests := []struct {
		m    Money
		want string
	}{
		{usd("150"), "150.00 USD"},
		{usd("0.125"), "0.13 USD"},
		{eur("-3.1"), "-3.10 EUR"},
		{NewMoney(decimal.NewFromInt(7), "JPY"), "7.00 JPY"},
	}
	for _, tt := range tests {
		if got := tt.m.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestKnownCurrency(t *testing.T) {
	if err := KnownCurrency("USD"); err != nil {
		t.Errorf("USD: %v", err)
	}
	if err := KnownCurrency("XXQ"); !errors.Is(err, ErrUnknownCurrency) {
		t.Errorf("XXQ: %v", err)
	}
	if got := usd("1").Symbol(); got != "$" {
		t.Errorf("Symbol() = %q", got)
	}
}
