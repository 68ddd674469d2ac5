package engine

import (
	"errors"
	"testing"

	"rebalancer/types"
)

func TestPortfolioBuy(t *testing.T) {
	tests := []struct {
		name     string
		cash     string
		quantity string
		wantCash string
		wantQty  string
		wantErr  error
	}{
		{"buy within cash", "100", "2.5", "75", "12.5", nil},
		{"buy all cash", "100", "10", "0", "20", nil},
		{"insufficient cash", "100", "10.0001", "100", "10", ErrInsufficientCash},
		{"negative quantity", "100", "-1", "100", "10", ErrNegativeQuantity},
		{"zero quantity", "100", "0", "100", "10", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustPortfolio(t, tt.cash, weights("A", "1"), types.NoPolicy(), equity("A", "10", "10"))
			err := p.Buy("A", dec(tt.quantity))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Buy() error = %v, want %v", err, tt.wantErr)
			}
			assertCash(t, p, tt.wantCash)
			assertQuantity(t, p, "A", tt.wantQty)
		})
	}
}

func TestPortfolioSell(t *testing.T) {
	tests := []struct {
		name     string
		quantity string
		wantCash string
		wantQty  string
		wantErr  error
	}{
		{"partial sell", "2.5", "25", "7.5", nil},
		{"sell everything", "10", "100", "0", nil},
		{"insufficient holdings", "10.5", "0", "10", ErrInsufficientHoldings},
		{"negative quantity", "-1", "0", "10", ErrNegativeQuantity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustPortfolio(t, "0", weights("A", "1"), types.NoPolicy(), equity("A", "10", "10"))
			err := p.Sell("A", dec(tt.quantity))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Sell() error = %v, want %v", err, tt.wantErr)
			}
			assertCash(t, p, tt.wantCash)
			assertQuantity(t, p, "A", tt.wantQty)
		})
	}
}

func TestTradeErrorCarriesSymbol(t *testing.T) {
	p := mustPortfolio(t, "0", weights("A", "1"), types.NoPolicy(), equity("A", "1", "10"))
	err := p.Buy("A", dec("1"))
	var te *TradeError
	if !errors.As(err, &te) {
		t.Fatalf("Buy() error = %v, want *TradeError", err)
	}
	if te.Symbol != "A" || te.Side != types.SideTypeBuy || !te.Quantity.Equal(dec("1")) {
		t.Errorf("TradeError = %+v", te)
	}
	if err := p.Sell("ZZZ", dec("1")); !errors.Is(err, ErrUnknownSymbol) {
		t.Errorf("Sell(unknown) error = %v, want ErrUnknownSymbol", err)
	}
}

func TestApplySellsBeforeBuys(t *testing.T) {
	p := mustPortfolio(t, "0", weights("A", "0.5", "B", "0.5"), types.NoPolicy(),
		equity("A", "10", "10"),
		equity("B", "5", "10"),
	)
	// The buy is listed first but can only be funded by the sell.
	orders := []types.TradeOrder{
		types.NewTradeOrder("B", dec("2.5")),
		types.NewTradeOrder("A", dec("-2.5")),
	}
	if err := p.Apply(orders); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	assertQuantity(t, p, "A", "7.5")
	assertQuantity(t, p, "B", "7.5")
	assertCash(t, p, "0")
}

func TestApplyIsAtomic(t *testing.T) {
	p := mustPortfolio(t, "10", weights("A", "0.5", "B", "0.5"), types.NoPolicy(),
		equity("A", "10", "10"),
		equity("B", "5", "10"),
	)
	orders := []types.TradeOrder{
		types.NewTradeOrder("A", dec("-1")),
		types.NewTradeOrder("B", dec("1")),
		types.NewTradeOrder("B", dec("2")), // needs 20, only 10 left
	}
	err := p.Apply(orders)
	if !errors.Is(err, ErrInsufficientCash) {
		t.Fatalf("Apply() error = %v, want ErrInsufficientCash", err)
	}
	assertCash(t, p, "10")
	assertQuantity(t, p, "A", "10")
	assertQuantity(t, p, "B", "5")
}

func TestApplyNeverLeavesNegativeQuantity(t *testing.T) {
	p := mustPortfolio(t, "0", weights("A", "1"), types.NoPolicy(), equity("A", "3", "10"))
	orders := []types.TradeOrder{
		types.NewTradeOrder("A", dec("-2")),
		types.NewTradeOrder("A", dec("-2")),
	}
	if err := p.Apply(orders); !errors.Is(err, ErrInsufficientHoldings) {
		t.Fatalf("Apply() error = %v, want ErrInsufficientHoldings", err)
	}
	assertQuantity(t, p, "A", "3")
}
