package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"rebalancer/types"

	"github.com/google/subcommands"
)

type valueCmd struct{}

func (*valueCmd) Name() string     { return "value" }
func (*valueCmd) Synopsis() string { return "price every holding and print the portfolio value" }
func (*valueCmd) Usage() string {
	return `rebalancer value

  Fetches the latest price of every holding and prints quantity, price and
  value per position, then cash and the total.
`
}
func (*valueCmd) SetFlags(*flag.FlagSet) {}

func (*valueCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	view, err := eng.Snapshot()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	printPositions(view)
	return subcommands.ExitSuccess
}

func printPositions(view types.PortfolioView) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "SYMBOL\tCLASS\tQUANTITY\tPRICE\tVALUE\t")
	for _, p := range view.Positions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n", p.Symbol, p.Class, p.Quantity, p.LastPrice, p.Value)
	}
	fmt.Fprintf(w, "%s\t\t\t\t%s\t\n", types.CashSymbol, view.Cash)
	fmt.Fprintf(w, "TOTAL\t\t\t\t%s\t\n", view.Total)
	_ = w.Flush()
}

type weightsCmd struct{}

func (*weightsCmd) Name() string     { return "weights" }
func (*weightsCmd) Synopsis() string { return "print actual against target weights" }
func (*weightsCmd) Usage() string {
	return `rebalancer weights

  Prices the portfolio and prints each symbol's actual weight next to its
  target weight, cash included.
`
}
func (*weightsCmd) SetFlags(*flag.FlagSet) {}

func (*weightsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	if _, err := eng.Weights(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	view, err := eng.Snapshot()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	keys := make([]string, 0, len(view.ActualWeights))
	for k := range view.ActualWeights {
		keys = append(keys, k)
	}
	for k := range view.TargetWeights {
		if _, ok := view.ActualWeights[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "SYMBOL\tACTUAL\tTARGET\t")
	for _, k := range keys {
		target := "-"
		if t, ok := view.TargetWeights[k]; ok {
			target = t.StringFixed(4)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t\n", k, view.ActualWeights[k].StringFixed(4), target)
	}
	_ = w.Flush()
	fmt.Printf("policy %s, total %s\n", view.Policy, view.Total)
	return subcommands.ExitSuccess
}
