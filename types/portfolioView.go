package types

import (
	"github.com/shopspring/decimal"
)

type PortfolioView struct {
	Cash          Money
	Total         Money
	Positions     []PositionSnapshot
	TargetWeights map[string]decimal.Decimal
	ActualWeights map[string]decimal.Decimal
	Policy        RebalancePolicy
}

type PositionSnapshot struct {
	Symbol    string
	Class     AssetClass
	Quantity  decimal.Decimal
	LastPrice Money
	Value     Money
}
