package config

import (
	"fmt"
	"os"
	"strings"

	"rebalancer/internal/engine"
	"rebalancer/types"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

// Number is a decimal read from a YAML scalar without passing through float64.
type Number struct {
	decimal.Decimal
}

func (n *Number) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("decimal %q: %w", raw, err)
	}
	n.Decimal = d
	return nil
}

type HoldingFile struct {
	Symbol   string `yaml:"symbol"`
	Class    string `yaml:"class"`
	Quantity Number `yaml:"quantity"`
	MarketID string `yaml:"market_id"`
}

// PortfolioFile is the on-disk portfolio definition. Targets are keyed by
// symbol, CASH included.
type PortfolioFile struct {
	Currency string            `yaml:"currency"`
	Cash     Number            `yaml:"cash"`
	Holdings []HoldingFile     `yaml:"holdings"`
	Targets  map[string]Number `yaml:"targets"`
}

// LoadPortfolio decodes path strictly: unknown fields are an error.
func LoadPortfolio(path string) (*PortfolioFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read portfolio %s: %w", path, err)
	}
	var f PortfolioFile
	if err := yaml.UnmarshalStrict(b, &f); err != nil {
		return nil, fmt.Errorf("decode portfolio %s: %w", path, err)
	}
	return &f, nil
}

// PortfolioConfig builds an unvalidated engine config under policy.
func (f *PortfolioFile) PortfolioConfig(policy types.RebalancePolicy) *engine.PortfolioConfig {
	targets := make(map[string]decimal.Decimal, len(f.Targets))
	for symbol, w := range f.Targets {
		targets[symbol] = w.Decimal
	}
	cfg := engine.NewPortfolioConfig(strings.ToUpper(f.Currency), f.Cash.Decimal, targets, policy)
	for _, h := range f.Holdings {
		cfg.AddHolding(engine.HoldingConfig{
			Symbol:   h.Symbol,
			Class:    types.AssetClass(strings.ToUpper(h.Class)),
			Quantity: h.Quantity.Decimal,
			MarketID: h.MarketID,
		})
	}
	return cfg
}

// Portfolio loads the configured portfolio file and applies the configured
// policy to it.
func (s *Settings) Portfolio() (*engine.PortfolioConfig, error) {
	policy, err := s.RebalancePolicy()
	if err != nil {
		return nil, err
	}
	f, err := LoadPortfolio(s.PortfolioFile)
	if err != nil {
		return nil, err
	}
	cfg := f.PortfolioConfig(policy)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
