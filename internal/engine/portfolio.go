package engine

import (
	"errors"
	"fmt"
	"maps"

	"rebalancer/types"

	"github.com/shopspring/decimal"
)

var ErrUnknownSymbol = errors.New("symbol not held in portfolio")

// Weights maps a symbol, or types.CashSymbol, to its fraction of total value.
type Weights map[string]decimal.Decimal

func (w Weights) Sum() decimal.Decimal {
	sum := decimal.Zero
	for _, v := range w {
		sum = sum.Add(v)
	}
	return sum
}

// Portfolio owns its positions and its cash balance. It is not safe for
// concurrent use; Engine serializes access.
type Portfolio struct {
	currency      string
	cash          types.Money
	positions     []Position
	index         map[string]int
	targetWeights map[string]decimal.Decimal
	actualWeights Weights
	policy        types.RebalancePolicy
}

// NewPortfolio validates cfg and builds a portfolio over already priced
// positions. cfg.Holdings is ignored; positions carry their own quantities.
func NewPortfolio(cfg *PortfolioConfig, positions ...Position) (*Portfolio, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := newPortfolio(cfg)
	for _, pos := range positions {
		if err := p.add(pos); err != nil {
			return nil, err
		}
		if err := p.checkPrice(pos.Price()); err != nil {
			return nil, fmt.Errorf("%s: %w", pos.Symbol(), err)
		}
	}
	return p, nil
}

func newPortfolio(cfg *PortfolioConfig) *Portfolio {
	return &Portfolio{
		currency:      cfg.Currency,
		cash:          types.NewMoney(cfg.Cash, cfg.Currency),
		index:         make(map[string]int),
		targetWeights: maps.Clone(cfg.TargetWeights),
		actualWeights: Weights{},
		policy:        cfg.Policy,
	}
}

// unpricedPositions turns configured holdings into positions priced at zero.
func unpricedPositions(cfg *PortfolioConfig) []Position {
	positions := make([]Position, 0, len(cfg.Holdings))
	zero := types.ZeroMoney(cfg.Currency)
	for _, h := range cfg.Holdings {
		switch h.Class {
		case types.AssetClassCrypto:
			positions = append(positions, NewCrypto(h.Symbol, h.MarketID, h.Quantity, zero))
		default:
			positions = append(positions, NewEquity(h.Symbol, h.Quantity, zero))
		}
	}
	return positions
}

func (p *Portfolio) add(pos Position) error {
	if pos.Symbol() == "" || pos.Symbol() == types.CashSymbol {
		return fmt.Errorf("%w: invalid position symbol %q", ErrInvalidConfig, pos.Symbol())
	}
	if _, ok := p.index[pos.Symbol()]; ok {
		return fmt.Errorf("%w: duplicate position %s", ErrInvalidConfig, pos.Symbol())
	}
	if pos.Quantity().IsNegative() {
		return fmt.Errorf("%s: %w", pos.Symbol(), ErrNegativeQuantity)
	}
	p.index[pos.Symbol()] = len(p.positions)
	p.positions = append(p.positions, pos)
	return nil
}

func (p *Portfolio) Currency() string              { return p.currency }
func (p *Portfolio) Cash() types.Money             { return p.cash }
func (p *Portfolio) Policy() types.RebalancePolicy { return p.policy }

// Positions returns the positions in planning order.
func (p *Portfolio) Positions() []Position {
	return append([]Position(nil), p.positions...)
}

func (p *Portfolio) Position(symbol string) (Position, bool) {
	i, ok := p.index[symbol]
	if !ok {
		return nil, false
	}
	return p.positions[i], true
}

func (p *Portfolio) TargetWeights() Weights { return maps.Clone(p.targetWeights) }

// ActualWeights returns the snapshot cached by the last ComputeWeights.
func (p *Portfolio) ActualWeights() Weights { return maps.Clone(p.actualWeights) }

func (p *Portfolio) Snapshot() (types.PortfolioView, error) {
	total, err := p.TotalValue()
	if err != nil {
		return types.PortfolioView{}, err
	}
	view := types.PortfolioView{
		Cash:          p.cash,
		Total:         total,
		Positions:     make([]types.PositionSnapshot, 0, len(p.positions)),
		TargetWeights: p.TargetWeights(),
		ActualWeights: p.ActualWeights(),
		Policy:        p.policy,
	}
	for _, pos := range p.positions {
		view.Positions = append(view.Positions, types.PositionSnapshot{
			Symbol:    pos.Symbol(),
			Class:     pos.Class(),
			Quantity:  pos.Quantity(),
			LastPrice: pos.Price(),
			Value:     pos.Value(),
		})
	}
	return view, nil
}

// checkpoint captures everything a rebalance cycle may mutate.
type checkpoint struct {
	cash          types.Money
	quantities    []decimal.Decimal
	actualWeights Weights
}

func (p *Portfolio) checkpoint() checkpoint {
	cp := checkpoint{
		cash:          p.cash,
		quantities:    make([]decimal.Decimal, len(p.positions)),
		actualWeights: maps.Clone(p.actualWeights),
	}
	for i, pos := range p.positions {
		cp.quantities[i] = pos.Quantity()
	}
	return cp
}

func (p *Portfolio) restore(cp checkpoint) {
	p.cash = cp.cash
	for i, pos := range p.positions {
		pos.base().quantity = cp.quantities[i]
	}
	p.actualWeights = cp.actualWeights
}
