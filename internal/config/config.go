package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"rebalancer/types"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const envPrefix = "REBALANCER"

const (
	MarketCoinGecko = "coingecko"
	MarketDatabase  = "database"

	QuoteEODHD    = "eodhd"
	QuoteDatabase = "database"
)

// Settings are the service settings, read from rebalancer.yaml and
// overridden by REBALANCER_* environment variables (REBALANCER_POLICY_KIND).
// QuoteSource prices equity holdings ("eodhd" or "database") and
// MarketSource crypto holdings ("coingecko" or "database").
type Settings struct {
	DatabaseURL    string            `mapstructure:"database_url"`
	LogLevel       string            `mapstructure:"log_level"`
	PortfolioFile  string            `mapstructure:"portfolio_file"`
	RefreshTimeout time.Duration     `mapstructure:"refresh_timeout"`
	QuoteSource    string            `mapstructure:"quote_source"`
	MarketSource   string            `mapstructure:"market_source"`
	Policy         PolicySettings    `mapstructure:"policy"`
	CoinGecko      CoinGeckoSettings `mapstructure:"coingecko"`
	EODHD          EODHDSettings     `mapstructure:"eodhd"`
}

type PolicySettings struct {
	Kind string `mapstructure:"kind"`
	// Threshold is a decimal string, in settlement currency units.
	Threshold string `mapstructure:"threshold"`
	Interval  string `mapstructure:"interval"`
}

type CoinGeckoSettings struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type EODHDSettings struct {
	BaseURL  string        `mapstructure:"base_url"`
	APIKey   string        `mapstructure:"api_key"`
	Exchange string        `mapstructure:"exchange"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database_url", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("portfolio_file", "portfolio.yaml")
	v.SetDefault("refresh_timeout", 30*time.Second)
	v.SetDefault("quote_source", QuoteEODHD)
	v.SetDefault("market_source", MarketCoinGecko)
	v.SetDefault("policy.kind", string(types.PolicyThreshold))
	v.SetDefault("policy.threshold", types.DefaultThreshold.String())
	v.SetDefault("policy.interval", "")
	v.SetDefault("coingecko.base_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("coingecko.api_key", "")
	v.SetDefault("coingecko.timeout", 10*time.Second)
	v.SetDefault("eodhd.base_url", "https://eodhd.com/api")
	v.SetDefault("eodhd.api_key", "")
	v.SetDefault("eodhd.exchange", "US")
	v.SetDefault("eodhd.timeout", 10*time.Second)
}

// Load reads settings from path, or from ./rebalancer.yaml when path is
// empty. A missing default file is not an error.
func Load(path string) (*Settings, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The EODHD key is also read from the variable eodhd.com documents.
	_ = v.BindEnv("eodhd.api_key", envPrefix+"_EODHD_API_KEY", "EODHD_API_KEY")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("rebalancer")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &s, nil
}

// RebalancePolicy converts the policy settings. Unknown kinds and intervals
// pass through unchanged for PortfolioConfig.Validate to reject.
func (s *Settings) RebalancePolicy() (types.RebalancePolicy, error) {
	p := types.RebalancePolicy{Kind: types.PolicyKind(strings.ToLower(s.Policy.Kind))}
	if s.Policy.Threshold != "" {
		threshold, err := decimal.NewFromString(s.Policy.Threshold)
		if err != nil {
			return types.RebalancePolicy{}, fmt.Errorf("policy threshold %q: %w", s.Policy.Threshold, err)
		}
		p.Threshold = threshold
	}
	if s.Policy.Interval != "" {
		interval, ok := types.ConvertInterval[strings.ToUpper(s.Policy.Interval)]
		if !ok {
			interval = types.Interval(s.Policy.Interval)
		}
		p.Interval = interval
	}
	switch p.Kind {
	case types.PolicyNone, types.PolicyFrequency:
		p.Threshold = decimal.Zero
	}
	return p, nil
}
