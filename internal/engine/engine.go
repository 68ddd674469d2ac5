package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"rebalancer/types"

	"go.uber.org/zap"
)

// Engine serializes every operation on one portfolio, so that a concurrent
// caller never observes cash and quantities mid-cycle.
type Engine struct {
	mu        sync.Mutex
	portfolio *Portfolio
	quotes    QuoteProvider
	market    MarketDataProvider
	logger    *zap.Logger
	timeout   time.Duration
	onFetched func(symbol string)
}

type Option func(*Engine)

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithRefreshTimeout bounds a whole price refresh batch. Zero means no bound.
func WithRefreshTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithFetchHook is called once per successfully fetched price.
func WithFetchHook(fn func(symbol string)) Option {
	return func(e *Engine) { e.onFetched = fn }
}

func NewEngine(p *Portfolio, quotes QuoteProvider, market MarketDataProvider, opts ...Option) *Engine {
	e := &Engine{
		portfolio: p,
		quotes:    quotes,
		market:    market,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Open validates cfg, builds its holdings and prices every one of them
// before returning.
func Open(ctx context.Context, cfg *PortfolioConfig, quotes QuoteProvider, market MarketDataProvider, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := newPortfolio(cfg)
	for _, pos := range unpricedPositions(cfg) {
		if err := p.add(pos); err != nil {
			return nil, err
		}
	}
	e := NewEngine(p, quotes, market, opts...)
	if err := e.RefreshPrices(ctx); err != nil {
		return nil, fmt.Errorf("initial pricing: %w", err)
	}
	return e, nil
}

func (e *Engine) RefreshPrices(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.refresh(ctx)
}

func (e *Engine) refresh(ctx context.Context) error {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	start := time.Now()
	err := e.portfolio.RefreshPrices(ctx, PriceSources{
		Quotes:    e.quotes,
		Market:    e.market,
		OnFetched: e.onFetched,
	})
	if err != nil {
		e.logger.Warn("price refresh failed", zap.Error(err))
		return err
	}
	e.logger.Info("prices refreshed",
		zap.Int("positions", len(e.portfolio.positions)),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

func (e *Engine) TotalValue() (types.Money, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.portfolio.TotalValue()
}

func (e *Engine) Weights() (Weights, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.portfolio.ComputeWeights()
}

func (e *Engine) Snapshot() (types.PortfolioView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.portfolio.Snapshot()
}

// Plan returns the orders a rebalance would apply, without applying them.
func (e *Engine) Plan() ([]types.TradeOrder, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.portfolio.ComputeWeights(); err != nil {
		return nil, err
	}
	return e.portfolio.Plan()
}

func (e *Engine) Rebalance() (*RebalanceReport, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rebalance()
}

func (e *Engine) rebalance() (*RebalanceReport, error) {
	report, err := e.portfolio.Rebalance()
	if err != nil {
		e.logger.Warn("rebalance failed", zap.Error(err))
		return nil, err
	}
	for _, ex := range report.Executions {
		e.logger.Debug("paper trade",
			zap.String("phase", string(ex.Phase)),
			zap.String("symbol", ex.Order.Symbol),
			zap.String("side", string(ex.Order.Side())),
			zap.String("quantity", ex.Order.Quantity.String()),
			zap.String("price", ex.Price.String()),
		)
	}
	e.logger.Info("rebalanced",
		zap.String("policy", e.portfolio.policy.String()),
		zap.Int("trades", len(report.Executions)),
		zap.String("value", report.After.String()),
		zap.String("cash", e.portfolio.cash.String()),
	)
	return report, nil
}

// RunCycle refreshes prices then rebalances, holding the engine for the
// whole cycle.
func (e *Engine) RunCycle(ctx context.Context) (*RebalanceReport, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.refresh(ctx); err != nil {
		return nil, err
	}
	return e.rebalance()
}

// History returns up to days daily closes for a held position under its
// market id. Equities are served by the quote provider when it also keeps
// daily closes, everything else by the market-data provider.
func (e *Engine) History(ctx context.Context, symbol string, days int) ([]types.DailyClose, error) {
	e.mu.Lock()
	pos, ok := e.portfolio.Position(symbol)
	e.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", symbol, ErrUnknownSymbol)
	}
	src := e.market
	if _, equity := pos.(*Equity); equity {
		if closes, ok := e.quotes.(MarketDataProvider); ok {
			src = closes
		}
	}
	if src == nil {
		return nil, ErrNoProvider
	}
	return src.DailyCloses(ctx, marketID(pos), days)
}
