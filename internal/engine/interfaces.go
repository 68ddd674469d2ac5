package engine

import (
	"context"

	"rebalancer/types"
)

// QuoteProvider prices equities.
type QuoteProvider interface {
	LatestQuote(ctx context.Context, symbol string) (types.Quote, error)
}

// MarketDataProvider prices crypto assets by market-data id. DailyCloses
// returns at most days closes in chronological order.
type MarketDataProvider interface {
	LatestPrice(ctx context.Context, id string) (types.Money, error)
	DailyCloses(ctx context.Context, id string, days int) ([]types.DailyClose, error)
}

// PriceSources bundles the collaborators a refresh needs. A nil provider
// fails the positions that depend on it.
type PriceSources struct {
	Quotes QuoteProvider
	Market MarketDataProvider
	// OnFetched, when set, is called once per successful fetch, possibly
	// from several goroutines at once.
	OnFetched func(symbol string)
}
