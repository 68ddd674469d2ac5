package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"rebalancer/internal/engine"
	"rebalancer/types"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

type historyCmd struct {
	days     int
	riskFree string
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "print daily closes of a holding" }
func (*historyCmd) Usage() string {
	return `rebalancer history [-days <n>] <symbol>

  Prints up to n daily closes of a held symbol, oldest first, from the
  market-data source, followed by return, drawdown and volatility figures.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.days, "days", 30, "number of daily closes")
	f.StringVar(&c.riskFree, "riskfree", "0", "annual risk-free rate for the Sharpe ratio")
}

func (c *historyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "history takes exactly one symbol")
		return subcommands.ExitUsageError
	}
	riskFree, err := decimal.NewFromString(c.riskFree)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing risk-free rate: %v\n", err)
		return subcommands.ExitUsageError
	}
	e, err := newEnv(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer e.close()

	eng, err := e.open(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	closes, err := eng.History(ctx, f.Arg(0), c.days)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	printCloses(closes)

	report, err := engine.NewHistoryReport(f.Arg(0), closes, riskFree)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitSuccess
	}
	fmt.Println()
	report.Print(os.Stdout)
	return subcommands.ExitSuccess
}

func printCloses(closes []types.DailyClose) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "DATE\tCLOSE\t")
	for _, c := range closes {
		fmt.Fprintf(w, "%s\t%s\t\n", c.Date.Format("2006-01-02"), c.Close)
	}
	_ = w.Flush()
}

type syncCmd struct {
	days int
}

func (*syncCmd) Name() string     { return "sync" }
func (*syncCmd) Synopsis() string { return "store daily closes of every holding" }
func (*syncCmd) Usage() string {
	return `rebalancer sync [-days <n>]

  Fetches up to n daily closes of every holding, equities from EODHD keyed by
  ticker and crypto from CoinGecko keyed by market id, and upserts them into
  the daily_closes table, so that quote_source and market_source "database"
  can price them offline.
`
}

func (c *syncCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.days, "days", 30, "number of daily closes")
}

func (c *syncCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := newEnv(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer e.close()
	if e.db == nil {
		fmt.Fprintln(os.Stderr, "sync needs database_url")
		return subcommands.ExitFailure
	}

	cfg, err := e.settings.Portfolio()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	err = syncCloses(ctx, os.Stdout, cfg, c.days, e.eodhd(cfg.Currency), e.coinGecko(cfg.Currency), e.db)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type closeSource interface {
	DailyCloses(ctx context.Context, id string, days int) ([]types.DailyClose, error)
}

type closeStore interface {
	SaveDailyCloses(ctx context.Context, symbol, currency string, closes []types.DailyClose) error
}

// syncCloses copies up to days closes of every holding from its source into
// store, under the id the database providers look it up by.
func syncCloses(ctx context.Context, w io.Writer, cfg *engine.PortfolioConfig, days int, equities, crypto closeSource, store closeStore) error {
	for _, h := range cfg.Holdings {
		src, id := equities, h.Symbol
		if h.Class == types.AssetClassCrypto {
			src, id = crypto, h.MarketID
		}
		closes, err := src.DailyCloses(ctx, id, days)
		if err != nil {
			return err
		}
		if err := store.SaveDailyCloses(ctx, id, cfg.Currency, closes); err != nil {
			return err
		}
		fmt.Fprintf(w, "%s (%s): %d closes\n", h.Symbol, id, len(closes))
	}
	return nil
}
