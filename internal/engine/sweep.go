package engine

import (
	"fmt"

	"rebalancer/types"

	"github.com/shopspring/decimal"
)

// Reinvest splits residual cash evenly across the positions that carry a
// target weight and buys cash_per_asset / price of each, as one batch. It
// returns the applied orders. No residual cash is a no-op.
func (p *Portfolio) Reinvest() ([]types.TradeOrder, error) {
	if !p.cash.IsPositive() {
		return nil, nil
	}

	var eligible []Position
	for _, pos := range p.positions {
		if _, ok := p.targetWeights[pos.Symbol()]; ok {
			eligible = append(eligible, pos)
		}
	}
	if len(eligible) == 0 {
		return nil, fmt.Errorf("reinvest %s across no eligible positions: %w", p.cash, types.ErrDivideByZero)
	}
	// Truncated so that the per-asset amounts never add up to more than cash.
	share, _ := p.cash.Value().QuoRem(decimal.NewFromInt(int64(len(eligible))), quantityScale)
	perAsset := types.NewMoney(share, p.currency)

	orders := make([]types.TradeOrder, 0, len(eligible))
	for _, pos := range eligible {
		qty, err := sizeTrade(perAsset, pos.Price())
		if err != nil {
			return nil, fmt.Errorf("size %s: %w", pos.Symbol(), err)
		}
		if qty.IsZero() {
			continue
		}
		orders = append(orders, types.NewTradeOrder(pos.Symbol(), qty))
	}
	if err := p.Apply(orders); err != nil {
		return nil, err
	}
	return orders, nil
}
