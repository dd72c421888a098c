package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"

	"saldo/internal/balance"
	"saldo/internal/config"
	"saldo/internal/core"
	"saldo/internal/services"
	"saldo/internal/sheets/memory"
)

var (
	dataFile string
	currency string

	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// defaultDataFile is DATA_FILE from the loaded config, or saldo.json.
func defaultDataFile(cfg *config.Config) string {
	if cfg.DataFile != "" {
		return cfg.DataFile
	}
	return "saldo.json"
}

func defaultCurrency(cfg *config.Config) string {
	if cfg.Currency != "" {
		return cfg.Currency
	}
	return core.DefaultCurrency
}

// openService opens the data file. A missing file is an empty collection.
func openService() (*services.TransactionService, error) {
	store, err := memory.Open(dataFile)
	if err != nil {
		return nil, err
	}
	return services.NewTransactionService(store, nil), nil
}

func loadAll(ctx context.Context) ([]core.Transaction, error) {
	svc, err := openService()
	if err != nil {
		return nil, err
	}
	return svc.List(ctx, balance.Filter{})
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(stderr, err)
	return subcommands.ExitFailure
}

func printJSON(v any) subcommands.ExitStatus {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

func parseOptionalDate(s string) (core.Date, error) {
	if strings.TrimSpace(s) == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(s)
}

type statsCmd struct {
	asOf   string
	asJSON bool
}

func (*statsCmd) Name() string     { return "stats" }
func (*statsCmd) Synopsis() string { return "print liquid balance and net worth" }
func (*statsCmd) Usage() string {
	return `saldoctl stats [-as-of YYYY-MM-DD] [-json]

  Prints the liquid balance and net worth over the whole history, or as of
  the end of the given day.
`
}

func (c *statsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.asOf, "as-of", "", "only count transactions up to this day")
	f.BoolVar(&c.asJSON, "json", false, "print JSON")
}

func (c *statsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	asOf, err := parseOptionalDate(c.asOf)
	if err != nil {
		return fail(err)
	}
	txns, err := loadAll(ctx)
	if err != nil {
		return fail(err)
	}
	var cutoff *core.Date
	if !asOf.IsEmpty() {
		cutoff = &asOf
	}
	snap := balance.Aggregate(txns, cutoff)
	if c.asJSON {
		return printJSON(snap)
	}
	fmt.Fprintf(stdout, "Liquid:    %s\n", snap.Liquid.Format(currency))
	fmt.Fprintf(stdout, "Net worth: %s\n", snap.NetWorth.Format(currency))
	return subcommands.ExitSuccess
}

type calendarCmd struct {
	year, month int
	asJSON      bool
}

func (*calendarCmd) Name() string     { return "calendar" }
func (*calendarCmd) Synopsis() string { return "print end-of-day liquid balances for a month" }
func (*calendarCmd) Usage() string {
	return `saldoctl calendar [-year N] [-month N] [-json]
`
}

func (c *calendarCmd) SetFlags(f *flag.FlagSet) {
	today := core.Today()
	f.IntVar(&c.year, "year", today.Year(), "calendar year")
	f.IntVar(&c.month, "month", today.Month(), "month, 1-12")
	f.BoolVar(&c.asJSON, "json", false, "print JSON")
}

func (c *calendarCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.month < 1 || c.month > 12 {
		return fail(fmt.Errorf("%w: %d", core.ErrInvalidMonth, c.month))
	}
	txns, err := loadAll(ctx)
	if err != nil {
		return fail(err)
	}
	days := balance.MonthLedger(txns, c.year, time.Month(c.month)).Balances()
	if c.asJSON {
		return printJSON(days)
	}
	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	for _, d := range days {
		fmt.Fprintf(w, "%s\t%s\t\n", d.Date, d.Balance.Format(currency))
	}
	if err := w.Flush(); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

type seriesCmd struct {
	metric string
	anchor string
	days   int
	pan    int
	asJSON bool
}

func (*seriesCmd) Name() string     { return "series" }
func (*seriesCmd) Synopsis() string { return "print a daily liquid, income or expense series" }
func (*seriesCmd) Usage() string {
	return `saldoctl series [-metric liquid|income|expense] [-anchor YYYY-MM-DD] [-days N] [-pan N] [-json]

  Without -anchor the window ends today; with it the window is centered on
  the anchor. -pan shifts the window by whole days.
`
}

func (c *seriesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.metric, "metric", string(balance.MetricLiquid), "liquid, income or expense")
	f.StringVar(&c.anchor, "anchor", "", "center the window on this day")
	f.IntVar(&c.days, "days", 30, "window length in days")
	f.IntVar(&c.pan, "pan", 0, "shift the window by this many days")
	f.BoolVar(&c.asJSON, "json", false, "print JSON")
}

func (c *seriesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	metric, err := balance.ParseMetric(c.metric)
	if err != nil {
		return fail(err)
	}
	if c.days < 1 {
		return fail(fmt.Errorf("%w: days must be positive", balance.ErrInvalidWindow))
	}
	anchor, err := parseOptionalDate(c.anchor)
	if err != nil {
		return fail(err)
	}
	window := balance.LastDays(core.Today(), c.days)
	if !anchor.IsEmpty() {
		window = balance.CenteredWindow(anchor, c.days)
	}
	window = window.Pan(c.pan)

	txns, err := loadAll(ctx)
	if err != nil {
		return fail(err)
	}
	points := balance.Series(txns, window, metric)
	if c.asJSON {
		return printJSON(points)
	}
	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	for _, p := range points {
		fmt.Fprintf(w, "%s\t%s\t\n", p.Date, p.Value.Format(currency))
	}
	if err := w.Flush(); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

type summaryCmd struct {
	query    string
	types    string
	tags     string
	from, to string
	asJSON   bool
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "summarize matching transactions by type and tag" }
func (*summaryCmd) Usage() string {
	return `saldoctl summary [-q text] [-type t1,t2] [-tag a,b] [-from YYYY-MM-DD] [-to YYYY-MM-DD] [-json]
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.query, "q", "", "text to find in notes, labels and counterparties")
	f.StringVar(&c.types, "type", "", "comma separated transaction types")
	f.StringVar(&c.tags, "tag", "", "comma separated tags, any of which must match")
	f.StringVar(&c.from, "from", "", "first day")
	f.StringVar(&c.to, "to", "", "last day")
	f.BoolVar(&c.asJSON, "json", false, "print JSON")
}

func (c *summaryCmd) filter() (balance.Filter, error) {
	f := balance.Filter{Text: c.query, Tags: splitList(c.tags)}
	for _, raw := range splitList(c.types) {
		typ, err := core.ParseType(raw)
		if err != nil {
			return balance.Filter{}, err
		}
		f.Types = append(f.Types, typ)
	}
	var err error
	if f.From, err = parseOptionalDate(c.from); err != nil {
		return balance.Filter{}, err
	}
	if f.To, err = parseOptionalDate(c.to); err != nil {
		return balance.Filter{}, err
	}
	return f, nil
}

func (c *summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	f, err := c.filter()
	if err != nil {
		return fail(err)
	}
	txns, err := loadAll(ctx)
	if err != nil {
		return fail(err)
	}
	ov := balance.Breakdown(txns, f)
	if c.asJSON {
		return printJSON(ov)
	}
	fmt.Fprintf(stdout, "%d transactions, in %s, out %s, net %s\n",
		ov.Count, ov.Inflow.Format(currency), ov.Outflow.Format(currency), ov.Net.Format(currency))
	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	for _, group := range []struct {
		title   string
		buckets []balance.Bucket
	}{{"type", ov.ByType}, {"tag", ov.ByTag}} {
		for _, b := range group.buckets {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", group.title, b.Key, b.Count, b.Inflow.Format(currency), b.Outflow.Format(currency))
		}
	}
	if err := w.Flush(); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

type importCmd struct {
	csvPath string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "add transactions from a CSV file" }
func (*importCmd) Usage() string {
	return `saldoctl import -csv FILE

  Reads the bilingual CSV layout. Rows that fail to decode or validate are
  reported and skipped; the rest are saved to the data file.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.csvPath, "csv", "", "CSV file to read, - for stdin")
}

func (c *importCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.csvPath == "" {
		return fail(fmt.Errorf("import: -csv is required"))
	}
	var in io.Reader = os.Stdin
	if c.csvPath != "-" {
		file, err := os.Open(c.csvPath)
		if err != nil {
			return fail(err)
		}
		defer file.Close()
		in = file
	}
	svc, err := openService()
	if err != nil {
		return fail(err)
	}
	report, err := svc.Import(ctx, in)
	if err != nil {
		return fail(err)
	}
	for _, e := range report.Errors {
		fmt.Fprintf(stderr, "row %d: %v\n", e.Row, e.Err)
	}
	fmt.Fprintf(stdout, "imported %d, rejected %d\n", report.Imported, len(report.Errors))
	if len(report.Errors) > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type exportCmd struct {
	csvPath string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write every transaction as CSV" }
func (*exportCmd) Usage() string {
	return `saldoctl export [-csv FILE]
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.csvPath, "csv", "-", "CSV file to write, - for stdout")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	svc, err := openService()
	if err != nil {
		return fail(err)
	}
	out := stdout
	if c.csvPath != "-" {
		file, err := os.Create(c.csvPath)
		if err != nil {
			return fail(err)
		}
		defer file.Close()
		out = file
	}
	if err := svc.Export(ctx, out); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
