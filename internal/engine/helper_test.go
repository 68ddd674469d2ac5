package engine

import (
	"context"
	"math/rand/v2"
	"sync"
	"testing"

	"rebalancer/types"

	"github.com/shopspring/decimal"
)

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func usd(v string) types.Money { return types.NewMoney(dec(v), "USD") }

func weights(kv ...string) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out[kv[i]] = dec(kv[i+1])
	}
	return out
}

func equity(symbol, qty, price string) *Equity {
	return NewEquity(symbol, dec(qty), usd(price))
}

func mustPortfolio(t *testing.T, cash string, targets map[string]decimal.Decimal, policy types.RebalancePolicy, positions ...Position) *Portfolio {
	t.Helper()
	p, err := NewPortfolio(NewPortfolioConfig("USD", dec(cash), targets, policy), positions...)
	if err != nil {
		t.Fatalf("NewPortfolio() error = %v", err)
	}
	return p
}

func assertQuantity(t *testing.T, p *Portfolio, symbol, want string) {
	t.Helper()
	pos, ok := p.Position(symbol)
	if !ok {
		t.Fatalf("position %s not found", symbol)
	}
	if !pos.Quantity().Equal(dec(want)) {
		t.Errorf("%s quantity = %s, want %s", symbol, pos.Quantity(), want)
	}
}

func assertCash(t *testing.T, p *Portfolio, want string) {
	t.Helper()
	if !p.Cash().Equal(usd(want)) {
		t.Errorf("cash = %s, want %s", p.Cash(), want)
	}
}

// randomPortfolio builds a portfolio with exact basis-point target weights,
// every position targeted and a positive total value.
func randomPortfolio(t *testing.T, r *rand.Rand) *Portfolio {
	t.Helper()
	n := 1 + r.IntN(8)
	symbols := []string{"AAA", "BBB", "CCC", "DDD", "EEE", "FFF", "GGG", "HHH"}

	remaining := 10000
	targets := make(map[string]decimal.Decimal, n+1)
	positions := make([]Position, 0, n)
	for i := 0; i < n; i++ {
		bp := r.IntN(remaining + 1)
		if i == n-1 {
			bp = remaining
		}
		remaining -= bp
		targets[symbols[i]] = decimal.New(int64(bp), -4)

		qty := decimal.New(int64(r.IntN(100000)), -3)
		price := decimal.New(int64(1+r.IntN(500000)), -2)
		positions = append(positions, NewEquity(symbols[i], qty, types.NewMoney(price, "USD")))
	}
	targets[types.CashSymbol] = decimal.Zero
	cash := decimal.New(int64(1+r.IntN(1000000)), -2)

	p, err := NewPortfolio(NewPortfolioConfig("USD", cash, targets, types.ThresholdPolicy(types.DefaultThreshold)), positions...)
	if err != nil {
		t.Fatalf("NewPortfolio() error = %v", err)
	}
	return p
}

type mockQuotes struct {
	mu     sync.Mutex
	quotes map[string]types.Quote
	errs   map[string]error
	block  bool
	calls  int
}

func (m *mockQuotes) LatestQuote(ctx context.Context, symbol string) (types.Quote, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.block {
		<-ctx.Done()
		return types.Quote{}, ctx.Err()
	}
	if err := m.errs[symbol]; err != nil {
		return types.Quote{}, err
	}
	q, ok := m.quotes[symbol]
	if !ok {
		return types.Quote{}, ErrUnknownSymbol
	}
	return q, nil
}

type mockMarket struct {
	prices  map[string]types.Money
	history map[string][]types.DailyClose
	err     error
}

func (m *mockMarket) LatestPrice(_ context.Context, id string) (types.Money, error) {
	if m.err != nil {
		return types.Money{}, m.err
	}
	p, ok := m.prices[id]
	if !ok {
		return types.Money{}, ErrUnknownSymbol
	}
	return p, nil
}

func (m *mockMarket) DailyCloses(_ context.Context, id string, days int) ([]types.DailyClose, error) {
	if m.err != nil {
		return nil, m.err
	}
	closes := m.history[id]
	if len(closes) > days {
		closes = closes[len(closes)-days:]
	}
	return closes, nil
}

func quote(symbol, price string) types.Quote {
	return types.Quote{Symbol: symbol, Close: dec(price), Currency: "USD"}
}
