// Command saldoctl inspects and edits a local transaction file without
// running the server.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path"

	"github.com/google/subcommands"

	"saldo/internal/cli"
	"saldo/internal/config"
	applog "saldo/internal/log"
)

func main() {
	envErr := cli.LoadEnvFile()
	cfg := config.Load()
	applog.SetDefault(applog.New(applog.Config{
		Level:     slog.LevelWarn,
		Component: applog.ComponentCLI,
		Output:    os.Stderr,
	}))

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	for _, c := range commands() {
		commander.Register(c, "ledger")
	}
	commander.Register(&importCmd{}, "data")
	commander.Register(&exportCmd{}, "data")

	if envErr != nil {
		slog.Warn("Ignoring .env file", "error", envErr)
	}

	flag.StringVar(&dataFile, "data", defaultDataFile(cfg), "JSON transaction file (DATA_FILE)")
	flag.StringVar(&currency, "currency", defaultCurrency(cfg), "ISO currency code used for display (CURRENCY)")
	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

func commands() []subcommands.Command {
	return []subcommands.Command{&statsCmd{}, &calendarCmd{}, &seriesCmd{}, &summaryCmd{}}
}
