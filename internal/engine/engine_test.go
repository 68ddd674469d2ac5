package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"rebalancer/types"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func openConfig() *PortfolioConfig {
	return NewPortfolioConfig("USD", dec("0"), weights("SPY", "0.5", "ETH", "0.5"), types.ThresholdPolicy(types.DefaultThreshold)).
		AddHolding(HoldingConfig{Symbol: "SPY", Class: types.AssetClassEquity, Quantity: dec("10")}).
		AddHolding(HoldingConfig{Symbol: "ETH", Class: types.AssetClassCrypto, Quantity: dec("1"), MarketID: "ethereum"})
}

func openProviders() (*mockQuotes, *mockMarket) {
	quotes := &mockQuotes{quotes: map[string]types.Quote{"SPY": quote("SPY", "500")}}
	market := &mockMarket{
		prices: map[string]types.Money{"ethereum": usd("3000")},
		history: map[string][]types.DailyClose{"ethereum": {
			{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Close: dec("2900")},
			{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: dec("2950")},
			{Date: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Close: dec("3000")},
		}},
	}
	return quotes, market
}

func TestOpenPricesEveryHolding(t *testing.T) {
	quotes, market := openProviders()
	e, err := Open(context.Background(), openConfig(), quotes, market)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	total, err := e.TotalValue()
	if err != nil {
		t.Fatal(err)
	}
	if !total.Equal(usd("8000")) {
		t.Errorf("TotalValue() = %s, want 8000.00 USD", total)
	}
}

func TestOpenFailsWithoutPrices(t *testing.T) {
	quotes, _ := openProviders()
	_, err := Open(context.Background(), openConfig(), quotes, nil)
	if !errors.Is(err, ErrNoProvider) {
		t.Fatalf("Open() error = %v, want ErrNoProvider", err)
	}

	cfg := openConfig()
	cfg.TargetWeights["SPY"] = dec("0.9")
	if _, err := Open(context.Background(), cfg, quotes, nil); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Open() error = %v, want ErrInvalidConfig", err)
	}
}

func TestEngineRunCycle(t *testing.T) {
	quotes, market := openProviders()
	core, logs := observer.New(zap.InfoLevel)
	e, err := Open(context.Background(), openConfig(), quotes, market, WithLogger(zap.New(core)))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	market.prices["ethereum"] = usd("5000")
	report, err := e.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}
	// 5000 SPY + 5000 ETH already sits on target.
	if len(report.Executions) != 0 {
		t.Errorf("executions = %+v, want none", report.Executions)
	}

	market.prices["ethereum"] = usd("2500")
	report, err = e.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}
	if !report.After.Equal(usd("7500")) {
		t.Errorf("value after = %s, want 7500.00 USD", report.After)
	}
	view, err := e.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	for _, pos := range view.Positions {
		if !pos.Value.Equal(usd("3750")) {
			t.Errorf("%s value = %s, want 3750.00 USD", pos.Symbol, pos.Value)
		}
	}
	if logs.FilterMessage("rebalanced").Len() != 2 {
		t.Errorf("logged %d rebalances, want 2", logs.FilterMessage("rebalanced").Len())
	}
}

func TestEngineRefreshTimeout(t *testing.T) {
	quotes, market := openProviders()
	e, err := Open(context.Background(), openConfig(), quotes, market, WithRefreshTimeout(20*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	quotes.block = true
	if err := e.RefreshPrices(context.Background()); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("RefreshPrices() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestEngineFetchHook(t *testing.T) {
	quotes, market := openProviders()
	var mu sync.Mutex
	seen := map[string]int{}
	_, err := Open(context.Background(), openConfig(), quotes, market, WithFetchHook(func(symbol string) {
		mu.Lock()
		seen[symbol]++
		mu.Unlock()
	}))
	if err != nil {
		t.Fatal(err)
	}
	if seen["SPY"] != 1 || seen["ETH"] != 1 {
		t.Errorf("fetch hook saw %v", seen)
	}
}

func TestEngineHistory(t *testing.T) {
	quotes, market := openProviders()
	e, err := Open(context.Background(), openConfig(), quotes, market)
	if err != nil {
		t.Fatal(err)
	}
	closes, err := e.History(context.Background(), "ETH", 2)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(closes) != 2 || !closes[1].Close.Equal(dec("3000")) {
		t.Errorf("History() = %+v", closes)
	}
	if _, err := e.History(context.Background(), "DOGE", 2); !errors.Is(err, ErrUnknownSymbol) {
		t.Errorf("History(DOGE) error = %v, want ErrUnknownSymbol", err)
	}
}

func TestEngineConcurrentCycles(t *testing.T) {
	quotes, market := openProviders()
	e, err := Open(context.Background(), openConfig(), quotes, market)
	if err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := e.RunCycle(context.Background()); err != nil {
				errs <- err
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := e.Weights(); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
	total, err := e.TotalValue()
	if err != nil {
		t.Fatal(err)
	}
	if !total.Equal(usd("8000")) {
		t.Errorf("TotalValue() = %s after concurrent cycles, want 8000.00 USD", total)
	}
}

// closeStore prices equities and keeps their daily closes, like the database.
type closeStore struct {
	*mockQuotes
	*mockMarket
}

func TestEngineHistoryEquityFromQuoteStore(t *testing.T) {
	quotes, market := openProviders()
	store := closeStore{
		mockQuotes: quotes,
		mockMarket: &mockMarket{history: map[string][]types.DailyClose{"SPY": {
			{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Close: dec("490")},
			{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: dec("500")},
		}}},
	}
	e, err := Open(context.Background(), openConfig(), store, market)
	if err != nil {
		t.Fatal(err)
	}
	closes, err := e.History(context.Background(), "SPY", 5)
	if err != nil {
		t.Fatalf("History(SPY) error = %v", err)
	}
	if len(closes) != 2 || !closes[0].Close.Equal(dec("490")) {
		t.Errorf("History(SPY) = %+v", closes)
	}

	e2, err := Open(context.Background(), openConfig(), quotes, market)
	if err != nil {
		t.Fatal(err)
	}
	if closes, err := e2.History(context.Background(), "SPY", 5); err != nil || len(closes) != 0 {
		t.Errorf("History(SPY) without a close store = %+v, %v; want market provider's empty series", closes, err)
	}
}
