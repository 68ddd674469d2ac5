package engine

import (
	"context"
	"errors"
	"fmt"

	"rebalancer/types"

	"golang.org/x/sync/errgroup"
)

var (
	ErrPriceFetchFailed = errors.New("price fetch failed")
	ErrInvalidPrice     = errors.New("price must be positive")
)

// PriceFetchError names the position whose price could not be refreshed.
// It matches both ErrPriceFetchFailed and the underlying error.
type PriceFetchError struct {
	Symbol string
	Err    error
}

func (e *PriceFetchError) Error() string {
	return fmt.Sprintf("%v for %s: %v", ErrPriceFetchFailed, e.Symbol, e.Err)
}

func (e *PriceFetchError) Unwrap() []error { return []error{ErrPriceFetchFailed, e.Err} }

// RefreshPrices fetches every position's price concurrently. Prices are
// staged and committed only once every fetch succeeded; on the first failure
// the remaining fetches are cancelled and no price changes.
func (p *Portfolio) RefreshPrices(ctx context.Context, src PriceSources) error {
	staged := make([]types.Money, len(p.positions))

	g, gctx := errgroup.WithContext(ctx)
	for i, pos := range p.positions {
		g.Go(func() error {
			price, err := pos.fetchPrice(gctx, src)
			if err != nil {
				return &PriceFetchError{Symbol: pos.Symbol(), Err: err}
			}
			if err := p.checkPrice(price); err != nil {
				return &PriceFetchError{Symbol: pos.Symbol(), Err: err}
			}
			staged[i] = price
			if src.OnFetched != nil {
				src.OnFetched(pos.Symbol())
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, pos := range p.positions {
		pos.base().lastPrice = staged[i]
	}
	return nil
}

func (p *Portfolio) checkPrice(price types.Money) error {
	if price.Currency() != p.currency {
		return fmt.Errorf("%w: quoted in %q, portfolio settles in %q", types.ErrCurrencyMismatch, price.Currency(), p.currency)
	}
	if !price.IsPositive() {
		return fmt.Errorf("%w: got %s", ErrInvalidPrice, price)
	}
	return nil
}
