package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"rebalancer/internal/engine"

	"github.com/google/subcommands"
)

type rebalanceCmd struct {
	csvPath string
	dryRun  bool
	every   time.Duration
}

func (*rebalanceCmd) Name() string     { return "rebalance" }
func (*rebalanceCmd) Synopsis() string { return "plan and paper-execute a rebalance cycle" }
func (*rebalanceCmd) Usage() string {
	return `rebalancer rebalance [-dry-run] [-csv <file>] [-every <duration>]

  Prices every holding, trades the portfolio back to its target weights and
  reinvests residual cash evenly across the targeted holdings. Trades are
  paper trades: nothing is sent to a broker and nothing is persisted.
`
}

func (c *rebalanceCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.dryRun, "dry-run", false, "print the planned orders without applying them")
	f.StringVar(&c.csvPath, "csv", "", "write the executed trades and weights to this CSV file")
	f.DurationVar(&c.every, "every", 0, "repeat the cycle at this interval until interrupted")
}

func (c *rebalanceCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	if c.dryRun {
		orders, err := eng.Plan()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "SIDE\tSYMBOL\tQUANTITY\t")
		for _, o := range orders {
			fmt.Fprintf(w, "%s\t%s\t%s\t\n", o.Side(), o.Symbol, o.Quantity.Abs())
		}
		_ = w.Flush()
		return subcommands.ExitSuccess
	}

	report, err := eng.Rebalance()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if err := c.emit(report); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if c.every <= 0 {
		return subcommands.ExitSuccess
	}

	ticker := time.NewTicker(c.every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return subcommands.ExitSuccess
		case <-ticker.C:
			report, err := eng.RunCycle(ctx)
			if err != nil {
				// A failed cycle leaves the portfolio untouched; try again next tick.
				fmt.Fprintln(os.Stderr, err)
				continue
			}
			if err := c.emit(report); err != nil {
				fmt.Fprintln(os.Stderr, err)
				return subcommands.ExitFailure
			}
		}
	}
}

func (c *rebalanceCmd) emit(report *engine.RebalanceReport) error {
	printReport(report)
	if c.csvPath == "" {
		return nil
	}
	return engine.WriteReportCSVFile(c.csvPath, report)
}

func printReport(report *engine.RebalanceReport) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "PHASE\tSIDE\tSYMBOL\tQUANTITY\tPRICE\tVALUE\t")
	for _, ex := range report.Executions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			ex.Phase, ex.Order.Side(), ex.Order.Symbol, ex.Order.Quantity.Abs(), ex.Price, ex.Value())
	}
	_ = w.Flush()
	fmt.Printf("%d trades, value %s before, %s after\n", len(report.Executions), report.Before, report.After)
}
