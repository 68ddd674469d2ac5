package engine

import (
	"fmt"

	"rebalancer/types"

	"github.com/shopspring/decimal"
)

const (
	// quantityScale is the number of decimal places trade quantities are
	// truncated to.
	quantityScale int32 = 16
	// valueScale is the number of decimal places a planned value deviation
	// is rounded to before sizing.
	valueScale int32 = 12
)

// Plan compares actual against target weights and emits one order per
// position whose value deviation exceeds the policy threshold, sized
// delta / price. Total value is captured once and the orders follow position
// order. Positions without a target weight are never traded.
//
// Orders are not fitted to the cash on hand: a plan the portfolio cannot
// fund fails in Apply with ErrInsufficientCash.
func (p *Portfolio) Plan() ([]types.TradeOrder, error) {
	total, err := p.TotalValue()
	if err != nil {
		return nil, err
	}
	threshold := p.policy.PlanningThreshold()

	var orders []types.TradeOrder
	for _, pos := range p.positions {
		target, ok := p.targetWeights[pos.Symbol()]
		if !ok {
			continue
		}
		actual := p.actualWeights[pos.Symbol()]

		targetValue := total.MulScalar(target)
		actualValue := total.MulScalar(actual)
		delta, err := targetValue.Sub(actualValue)
		if err != nil {
			return nil, err
		}
		delta = types.NewMoney(delta.Value().Round(valueScale), delta.Currency())
		if delta.Abs().Value().LessThanOrEqual(threshold) {
			continue
		}

		q, err := sizeTrade(delta.Abs(), pos.Price())
		if err != nil {
			return nil, fmt.Errorf("size %s: %w", pos.Symbol(), err)
		}
		switch {
		case delta.IsNegative() && target.IsZero():
			// A zero target liquidates the holding; delta is its whole value.
			q = pos.Quantity().Neg()
		case delta.IsNegative():
			q = sizeSell(delta.Abs(), pos.Price(), q).Neg()
		}
		if q.IsZero() {
			continue
		}
		orders = append(orders, types.NewTradeOrder(pos.Symbol(), q))
	}
	return orders, nil
}

// sizeSell rounds a truncated sell quantity q of value at price away from
// zero, so the proceeds cover value.
func sizeSell(value, price types.Money, q decimal.Decimal) decimal.Decimal {
	if price.MulScalar(q).Value().LessThan(value.Value()) {
		return q.Add(decimal.New(1, -quantityScale))
	}
	return q
}

// sizeTrade converts a value into a quantity at price, truncating toward zero.
func sizeTrade(value, price types.Money) (decimal.Decimal, error) {
	if value.Currency() != price.Currency() {
		return decimal.Zero, fmt.Errorf("%w: %s != %s", types.ErrCurrencyMismatch, value.Currency(), price.Currency())
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("price %s: %w", price, types.ErrDivideByZero)
	}
	q, _ := value.Value().QuoRem(price.Value(), quantityScale)
	return q, nil
}
