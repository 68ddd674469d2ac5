package engine

import (
	"errors"
	"fmt"

	"rebalancer/types"

	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientCash     = errors.New("insufficient cash")
	ErrInsufficientHoldings = errors.New("insufficient holdings")
	ErrNegativeQuantity     = errors.New("negative quantity")
)

// TradeError names the order that could not be applied.
type TradeError struct {
	Symbol   string
	Side     types.Side
	Quantity decimal.Decimal
	Err      error
}

func (e *TradeError) Error() string {
	return fmt.Sprintf("paper %s %s %s: %v", e.Side, e.Quantity, e.Symbol, e.Err)
}

func (e *TradeError) Unwrap() error { return e.Err }

// ledger is a staged copy of cash and quantities that orders are applied to
// before anything is committed to the portfolio.
type ledger struct {
	p          *Portfolio
	cash       types.Money
	quantities []decimal.Decimal
}

func (p *Portfolio) ledger() *ledger {
	l := &ledger{p: p, cash: p.cash, quantities: make([]decimal.Decimal, len(p.positions))}
	for i, pos := range p.positions {
		l.quantities[i] = pos.Quantity()
	}
	return l
}

func (l *ledger) commit() {
	l.p.cash = l.cash
	for i, pos := range l.p.positions {
		pos.base().quantity = l.quantities[i]
	}
}

func (l *ledger) buy(symbol string, quantity decimal.Decimal) error {
	i, ok := l.p.index[symbol]
	if !ok {
		return &TradeError{Symbol: symbol, Side: types.SideTypeBuy, Quantity: quantity, Err: ErrUnknownSymbol}
	}
	if quantity.IsNegative() {
		return &TradeError{Symbol: symbol, Side: types.SideTypeBuy, Quantity: quantity, Err: ErrNegativeQuantity}
	}
	cost := l.p.positions[i].Price().MulScalar(quantity)
	cmp, err := cost.Compare(l.cash)
	if err != nil {
		return &TradeError{Symbol: symbol, Side: types.SideTypeBuy, Quantity: quantity, Err: err}
	}
	if cmp > 0 {
		return &TradeError{Symbol: symbol, Side: types.SideTypeBuy, Quantity: quantity,
			Err: fmt.Errorf("%w: need %s, have %s", ErrInsufficientCash, cost, l.cash)}
	}
	l.cash, _ = l.cash.Sub(cost)
	l.quantities[i] = l.quantities[i].Add(quantity)
	return nil
}

func (l *ledger) sell(symbol string, quantity decimal.Decimal) error {
	i, ok := l.p.index[symbol]
	if !ok {
		return &TradeError{Symbol: symbol, Side: types.SideTypeSell, Quantity: quantity, Err: ErrUnknownSymbol}
	}
	if quantity.IsNegative() {
		return &TradeError{Symbol: symbol, Side: types.SideTypeSell, Quantity: quantity, Err: ErrNegativeQuantity}
	}
	if quantity.GreaterThan(l.quantities[i]) {
		return &TradeError{Symbol: symbol, Side: types.SideTypeSell, Quantity: quantity,
			Err: fmt.Errorf("%w: hold %s", ErrInsufficientHoldings, l.quantities[i])}
	}
	proceeds := l.p.positions[i].Price().MulScalar(quantity)
	cash, err := l.cash.Add(proceeds)
	if err != nil {
		return &TradeError{Symbol: symbol, Side: types.SideTypeSell, Quantity: quantity, Err: err}
	}
	l.cash = cash
	l.quantities[i] = l.quantities[i].Sub(quantity)
	return nil
}

// Buy spends quantity × price of cash on symbol.
func (p *Portfolio) Buy(symbol string, quantity decimal.Decimal) error {
	l := p.ledger()
	if err := l.buy(symbol, quantity); err != nil {
		return err
	}
	l.commit()
	return nil
}

// Sell converts quantity of symbol into cash at its last price.
func (p *Portfolio) Sell(symbol string, quantity decimal.Decimal) error {
	l := p.ledger()
	if err := l.sell(symbol, quantity); err != nil {
		return err
	}
	l.commit()
	return nil
}

// Apply executes orders as one batch: every sell first, then every buy, each
// group in the given order. The batch is validated in full against staged
// balances; if any order fails nothing is applied. Zero-quantity orders are
// skipped.
func (p *Portfolio) Apply(orders []types.TradeOrder) error {
	l := p.ledger()
	for _, o := range sellsThenBuys(orders) {
		var err error
		switch {
		case o.Quantity.IsZero():
			continue
		case o.Quantity.IsNegative():
			err = l.sell(o.Symbol, o.Quantity.Abs())
		default:
			err = l.buy(o.Symbol, o.Quantity)
		}
		if err != nil {
			return err
		}
	}
	l.commit()
	return nil
}

func sellsThenBuys(orders []types.TradeOrder) []types.TradeOrder {
	out := make([]types.TradeOrder, 0, len(orders))
	for _, o := range orders {
		if o.Quantity.IsNegative() {
			out = append(out, o)
		}
	}
	for _, o := range orders {
		if !o.Quantity.IsNegative() {
			out = append(out, o)
		}
	}
	return out
}
