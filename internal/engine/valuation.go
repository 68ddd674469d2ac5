package engine

import (
	"fmt"

	"rebalancer/types"
)

// TotalValue is the sum of quantity × price over all positions, plus cash.
func (p *Portfolio) TotalValue() (types.Money, error) {
	total := p.cash
	for _, pos := range p.positions {
		next, err := total.Add(pos.Value())
		if err != nil {
			return types.Money{}, fmt.Errorf("value %s: %w", pos.Symbol(), err)
		}
		total = next
	}
	return total, nil
}
