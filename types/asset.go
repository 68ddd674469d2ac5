package types

type AssetClass string

const (
	AssetClassEquity AssetClass = "EQUITY"
	AssetClassCrypto AssetClass = "CRYPTO"
)

// CashSymbol is the reserved weight key for the cash balance.
const CashSymbol = "CASH"

func (c AssetClass) Valid() bool {
	return c == AssetClassEquity || c == AssetClassCrypto
}
