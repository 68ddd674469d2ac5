package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path"

	"github.com/google/subcommands"
)

var configPath = flag.String("config", "", "path to rebalancer.yaml (default ./rebalancer.yaml)")

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	commander.Register(&valueCmd{}, "portfolio")
	commander.Register(&weightsCmd{}, "portfolio")
	commander.Register(&rebalanceCmd{}, "portfolio")
	commander.Register(&historyCmd{}, "market data")
	commander.Register(&syncCmd{}, "market data")

	flag.Parse()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := commander.Execute(ctx)
	stop()
	os.Exit(int(code))
}
