package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"rebalancer/internal/config"
	"rebalancer/internal/engine"
	"rebalancer/internal/gateway"
	"rebalancer/internal/logger"
	"rebalancer/internal/repository"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

// env is the state shared by every command. close releases the database
// pool.
type env struct {
	settings *config.Settings
	logger   *zap.Logger
	db       *repository.Database
}

var newLogger = logger.New

func newEnv(ctx context.Context) (*env, error) {
	settings, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}
	log, err := newLogger(settings.LogLevel)
	if err != nil {
		return nil, err
	}
	e := &env{settings: settings, logger: log}

	if settings.DatabaseURL != "" {
		db, err := repository.NewDatabase(ctx, settings.DatabaseURL)
		if err != nil {
			e.close()
			return nil, fmt.Errorf("connect database: %w", err)
		}
		e.db = db
		if err := db.Migrate(ctx); err != nil {
			e.close()
			return nil, err
		}
	}

	switch settings.QuoteSource {
	case config.QuoteEODHD, config.QuoteDatabase:
	default:
		e.close()
		return nil, fmt.Errorf("unknown quote_source %q", settings.QuoteSource)
	}
	switch settings.MarketSource {
	case config.MarketCoinGecko, config.MarketDatabase:
	default:
		e.close()
		return nil, fmt.Errorf("unknown market_source %q", settings.MarketSource)
	}
	if e.db == nil && (settings.QuoteSource == config.QuoteDatabase || settings.MarketSource == config.MarketDatabase) {
		e.close()
		return nil, errors.New(`quote_source or market_source "database" needs database_url`)
	}
	return e, nil
}

// quotes returns the configured equity price source, quoting in currency.
func (e *env) quotes(currency string) engine.QuoteProvider {
	if e.settings.QuoteSource == config.QuoteDatabase {
		return e.db
	}
	return e.eodhd(currency)
}

func (e *env) eodhd(currency string) *gateway.EODHD {
	return gateway.NewEODHD(gateway.EODHDConfig{
		BaseURL:  e.settings.EODHD.BaseURL,
		APIKey:   e.settings.EODHD.APIKey,
		Exchange: e.settings.EODHD.Exchange,
		Currency: currency,
		Timeout:  e.settings.EODHD.Timeout,
	})
}

// market returns the configured crypto price source, quoting in currency.
func (e *env) market(currency string) engine.MarketDataProvider {
	if e.settings.MarketSource == config.MarketDatabase {
		return e.db
	}
	return e.coinGecko(currency)
}

func (e *env) coinGecko(currency string) *gateway.CoinGecko {
	return gateway.NewCoinGecko(gateway.CoinGeckoConfig{
		BaseURL:  e.settings.CoinGecko.BaseURL,
		Currency: currency,
		APIKey:   e.settings.CoinGecko.APIKey,
		Timeout:  e.settings.CoinGecko.Timeout,
	})
}

func (e *env) close() {
	if e.db != nil {
		e.db.Close()
	}
	_ = e.logger.Sync()
}

// open loads the portfolio definition and prices it, drawing a progress bar
// on stderr while prices are fetched.
func (e *env) open(ctx context.Context) (*engine.Engine, error) {
	cfg, err := e.settings.Portfolio()
	if err != nil {
		return nil, err
	}
	bar := initProgressBar(len(cfg.Holdings))
	eng, err := engine.Open(ctx, cfg, e.quotes(cfg.Currency), e.market(cfg.Currency),
		engine.WithLogger(e.logger),
		engine.WithRefreshTimeout(e.settings.RefreshTimeout),
		engine.WithFetchHook(func(string) { _ = bar.Add(1) }),
	)
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, err
	}
	return eng, nil
}

func initProgressBar(maxTicks int) *progressbar.ProgressBar {
	return progressbar.NewOptions(maxTicks,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription("Fetching prices..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
