package types

import (
	"github.com/shopspring/decimal"
)

type Side string

const (
	SideTypeBuy  Side = "BUY"
	SideTypeSell Side = "SELL"
)

// TradeOrder is a paper order. A positive quantity buys, a negative one sells.
type TradeOrder struct {
	Symbol   string
	Quantity decimal.Decimal
}

func NewTradeOrder(symbol string, quantity decimal.Decimal) TradeOrder {
	return TradeOrder{
		Symbol:   symbol,
		Quantity: quantity,
	}
}

func (o TradeOrder) Side() Side {
	if o.Quantity.IsNegative() {
		return SideTypeSell
	}
	return SideTypeBuy
}
