package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is the latest close of an instrument as reported by a quote provider.
type Quote struct {
	Symbol   string          `json:"symbol"`
	Close    decimal.Decimal `json:"close"`
	Currency string          `json:"currency"`
	Time     time.Time       `json:"time"`
}

func (q Quote) Price() Money {
	return NewMoney(q.Close, q.Currency)
}

type DailyClose struct {
	Date  time.Time       `json:"date"`
	Close decimal.Decimal `json:"close"`
}
