package engine

import (
	"errors"
	"fmt"

	"rebalancer/types"

	"github.com/shopspring/decimal"
)

var ErrValueConservation = errors.New("total value changed across rebalance")

// conservationTolerance bounds |before - after| in currency units.
var conservationTolerance = decimal.New(1, -8)

type Phase string

const (
	PhaseRebalance Phase = "rebalance"
	PhaseReinvest  Phase = "reinvest"
)

// Execution is an applied order with the price it was filled at.
type Execution struct {
	Phase Phase
	Order types.TradeOrder
	Price types.Money
}

func (e Execution) Value() types.Money {
	return e.Price.MulScalar(e.Order.Quantity.Abs())
}

type RebalanceReport struct {
	Before        types.Money
	After         types.Money
	WeightsBefore Weights
	WeightsAfter  Weights
	Executions    []Execution
}

// Rebalance runs one full cycle: weights, plan, execute, reinvest, then
// checks that total value is unchanged. On any error the portfolio is
// restored to its state before the cycle.
func (p *Portfolio) Rebalance() (report *RebalanceReport, err error) {
	cp := p.checkpoint()
	defer func() {
		if err != nil {
			p.restore(cp)
		}
	}()

	before, err := p.TotalValue()
	if err != nil {
		return nil, err
	}
	weightsBefore, err := p.ComputeWeights()
	if err != nil {
		return nil, err
	}

	orders, err := p.Plan()
	if err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}
	if err := p.Apply(orders); err != nil {
		return nil, fmt.Errorf("apply: %w", err)
	}
	reinvested, err := p.Reinvest()
	if err != nil {
		return nil, fmt.Errorf("reinvest: %w", err)
	}

	after, err := p.TotalValue()
	if err != nil {
		return nil, err
	}
	diff, err := after.Sub(before)
	if err != nil {
		return nil, err
	}
	if diff.Abs().Value().GreaterThan(conservationTolerance) {
		return nil, fmt.Errorf("%w: %s before, %s after", ErrValueConservation, before, after)
	}
	weightsAfter, err := p.ComputeWeights()
	if err != nil {
		return nil, err
	}

	report = &RebalanceReport{
		Before:        before,
		After:         after,
		WeightsBefore: weightsBefore,
		WeightsAfter:  weightsAfter,
	}
	report.Executions = append(report.Executions, p.executions(PhaseRebalance, sellsThenBuys(orders))...)
	report.Executions = append(report.Executions, p.executions(PhaseReinvest, reinvested)...)
	return report, nil
}

func (p *Portfolio) executions(phase Phase, orders []types.TradeOrder) []Execution {
	out := make([]Execution, 0, len(orders))
	for _, o := range orders {
		pos, _ := p.Position(o.Symbol)
		out = append(out, Execution{Phase: phase, Order: o, Price: pos.Price()})
	}
	return out
}
