package engine

import (
	"errors"
	"fmt"
	"maps"

	"rebalancer/types"

	"github.com/shopspring/decimal"
)

var ErrWeightNormalization = errors.New("weights do not sum to 1")

// ComputeWeights derives each position's and the cash balance's share of
// total value and caches the result as the actual-weights snapshot. The
// snapshot is left untouched on error.
func (p *Portfolio) ComputeWeights() (Weights, error) {
	total, err := p.TotalValue()
	if err != nil {
		return nil, err
	}
	if total.IsZero() {
		return nil, fmt.Errorf("compute weights: total value is zero: %w", types.ErrDivideByZero)
	}

	weights := make(Weights, len(p.positions)+1)
	for _, pos := range p.positions {
		w, err := pos.Value().Ratio(total)
		if err != nil {
			return nil, fmt.Errorf("weight %s: %w", pos.Symbol(), err)
		}
		weights[pos.Symbol()] = w
	}
	cashWeight, err := p.cash.Ratio(total)
	if err != nil {
		return nil, fmt.Errorf("weight %s: %w", types.CashSymbol, err)
	}
	weights[types.CashSymbol] = cashWeight

	if sum := weights.Sum(); sum.Sub(decimal.NewFromInt(1)).Abs().GreaterThan(weightTolerance) {
		return nil, fmt.Errorf("%w: sum is %s", ErrWeightNormalization, sum)
	}

	p.actualWeights = weights
	return maps.Clone(weights), nil
}
