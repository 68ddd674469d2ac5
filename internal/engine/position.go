package engine

import (
	"context"
	"errors"
	"fmt"

	"rebalancer/types"

	"github.com/shopspring/decimal"
)

var ErrNoProvider = errors.New("no price provider configured")

// Position is a holding of a priced instrument. *Equity and *Crypto are the
// only implementations.
type Position interface {
	Symbol() string
	Quantity() decimal.Decimal
	Price() types.Money
	Class() types.AssetClass
	Value() types.Money

	fetchPrice(ctx context.Context, src PriceSources) (types.Money, error)
	base() *holding
}

type holding struct {
	symbol    string
	quantity  decimal.Decimal
	lastPrice types.Money
}

func (h *holding) Symbol() string            { return h.symbol }
func (h *holding) Quantity() decimal.Decimal { return h.quantity }
func (h *holding) Price() types.Money        { return h.lastPrice }
func (h *holding) Value() types.Money        { return h.lastPrice.MulScalar(h.quantity) }
func (h *holding) base() *holding            { return h }

// Equity is priced by a QuoteProvider under its ticker.
type Equity struct {
	holding
}

func NewEquity(symbol string, quantity decimal.Decimal, price types.Money) *Equity {
	return &Equity{holding{symbol: symbol, quantity: quantity, lastPrice: price}}
}

func (e *Equity) Class() types.AssetClass { return types.AssetClassEquity }

func (e *Equity) String() string {
	return fmt.Sprintf("Equity{%s qty=%s price=%s}", e.symbol, e.quantity, e.lastPrice)
}

func (e *Equity) fetchPrice(ctx context.Context, src PriceSources) (types.Money, error) {
	if src.Quotes == nil {
		return types.Money{}, ErrNoProvider
	}
	q, err := src.Quotes.LatestQuote(ctx, e.symbol)
	if err != nil {
		return types.Money{}, err
	}
	return q.Price(), nil
}

// Crypto is priced by a MarketDataProvider under its market-data id
// ("ethereum"), while its symbol is the token ("ETH").
type Crypto struct {
	holding
	id string
}

func NewCrypto(symbol, id string, quantity decimal.Decimal, price types.Money) *Crypto {
	return &Crypto{holding: holding{symbol: symbol, quantity: quantity, lastPrice: price}, id: id}
}

func (c *Crypto) Class() types.AssetClass { return types.AssetClassCrypto }
func (c *Crypto) ID() string              { return c.id }

func (c *Crypto) String() string {
	return fmt.Sprintf("Crypto{%s (%s) qty=%s price=%s}", c.symbol, c.id, c.quantity, c.lastPrice)
}

func (c *Crypto) fetchPrice(ctx context.Context, src PriceSources) (types.Money, error) {
	if src.Market == nil {
		return types.Money{}, ErrNoProvider
	}
	return src.Market.LatestPrice(ctx, c.id)
}

// marketID is the identifier the position's provider knows it by.
func marketID(p Position) string {
	if c, ok := p.(*Crypto); ok {
		return c.id
	}
	return p.Symbol()
}
