package engine

import (
	"errors"
	"fmt"

	"rebalancer/types"

	"github.com/shopspring/decimal"
)

var ErrInvalidConfig = errors.New("invalid portfolio config")

// weightTolerance bounds both the target-weight sum check and the
// actual-weight normalization check.
var weightTolerance = decimal.New(1, -8)

type HoldingConfig struct {
	Symbol   string
	Class    types.AssetClass
	Quantity decimal.Decimal
	// MarketID is the market-data identifier of a crypto holding.
	MarketID string
}

type PortfolioConfig struct {
	Currency      string
	Cash          decimal.Decimal
	Holdings      []HoldingConfig
	TargetWeights map[string]decimal.Decimal
	Policy        types.RebalancePolicy
}

func NewPortfolioConfig(currency string, cash decimal.Decimal, targetWeights map[string]decimal.Decimal, policy types.RebalancePolicy) *PortfolioConfig {
	return &PortfolioConfig{
		Currency:      currency,
		Cash:          cash,
		TargetWeights: targetWeights,
		Policy:        policy,
	}
}

// AddHolding appends a holding and returns the config for chaining.
func (c *PortfolioConfig) AddHolding(h HoldingConfig) *PortfolioConfig {
	c.Holdings = append(c.Holdings, h)
	return c
}

// Validate reports every problem found, joined, each wrapping ErrInvalidConfig.
func (c *PortfolioConfig) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if err := types.KnownCurrency(c.Currency); err != nil {
		fail("currency %v", err)
	}
	if c.Cash.IsNegative() {
		fail("cash %s is negative", c.Cash)
	}

	if len(c.TargetWeights) == 0 {
		fail("no target weights")
	}
	sum := decimal.Zero
	for symbol, w := range c.TargetWeights {
		if w.IsNegative() || w.GreaterThan(decimal.NewFromInt(1)) {
			fail("target weight %s=%s outside [0, 1]", symbol, w)
		}
		sum = sum.Add(w)
	}
	if len(c.TargetWeights) > 0 && sum.Sub(decimal.NewFromInt(1)).Abs().GreaterThan(weightTolerance) {
		fail("target weights sum to %s, want 1", sum)
	}

	switch c.Policy.Kind {
	case types.PolicyNone:
	case types.PolicyThreshold:
		if c.Policy.Threshold.IsNegative() {
			fail("threshold %s is negative", c.Policy.Threshold)
		}
	case types.PolicyFrequency:
		if _, ok := types.IntervalToTime[c.Policy.Interval]; !ok {
			fail("unknown rebalance interval %q", c.Policy.Interval)
		}
	case types.PolicyThresholdAndFrequency:
		if c.Policy.Threshold.IsNegative() {
			fail("threshold %s is negative", c.Policy.Threshold)
		}
		if _, ok := types.IntervalToTime[c.Policy.Interval]; !ok {
			fail("unknown rebalance interval %q", c.Policy.Interval)
		}
	default:
		fail("unknown policy %q", c.Policy.Kind)
	}

	seen := make(map[string]bool, len(c.Holdings))
	for _, h := range c.Holdings {
		switch {
		case h.Symbol == "":
			fail("holding without symbol")
			continue
		case h.Symbol == types.CashSymbol:
			fail("%s is reserved for the cash balance", types.CashSymbol)
		case seen[h.Symbol]:
			fail("duplicate holding %s", h.Symbol)
		}
		seen[h.Symbol] = true
		if !h.Class.Valid() {
			fail("holding %s has unknown asset class %q", h.Symbol, h.Class)
		}
		if h.Quantity.IsNegative() {
			fail("holding %s has negative quantity %s", h.Symbol, h.Quantity)
		}
		if h.Class == types.AssetClassCrypto && h.MarketID == "" {
			fail("crypto holding %s has no market id", h.Symbol)
		}
	}

	return errors.Join(errs...)
}
