package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/runwayhq/runway/internal/config"
	"github.com/runwayhq/runway/internal/domain"
	"github.com/runwayhq/runway/internal/forecast"
	"github.com/runwayhq/runway/internal/logger"
	"github.com/runwayhq/runway/internal/store"
	storebq "github.com/runwayhq/runway/internal/store/bigquery"
	"github.com/runwayhq/runway/internal/store/memory"
	"github.com/runwayhq/runway/internal/store/sqlite"
	"github.com/runwayhq/runway/internal/timeline"
)

func main() {
	var (
		configPath      = flag.String("config", os.Getenv("RUNWAY_CONFIG"), "Path to TOML config (or set RUNWAY_CONFIG)")
		scenario        = flag.String("scenario", domain.ScenarioBase, "Scenario to compute")
		pastWeeks       = flag.Int("past", -1, "Past weeks to show, overrides the config file")
		futureWeeks     = flag.Int("future", -1, "Future weeks to show, overrides the config file")
		startingBalance = flag.String("starting-balance", "0", "Known balance to seed the running balance from")
		balanceAsOf     = flag.String("balance-as-of", "", "Date the starting balance was true, YYYY-MM-DD (default today)")
	)
	flag.Parse()

	log := logger.New()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	window := timeline.Window{Past: cfg.Forecast.PastWeeks, Future: cfg.Forecast.FutureWeeks}
	if *pastWeeks >= 0 {
		window.Past = *pastWeeks
	}
	if *futureWeeks >= 0 {
		window.Future = *futureWeeks
	}

	balance, err := decimal.NewFromString(*startingBalance)
	if err != nil {
		log.Fatal().Str("starting_balance", *startingBalance).Msg("Error: invalid starting balance")
	}

	now := time.Now().UTC()
	asOf := now
	if *balanceAsOf != "" {
		asOf, err = time.Parse("2006-01-02", *balanceAsOf)
		if err != nil {
			log.Fatal().Str("balance_as_of", *balanceAsOf).Msg("Error: invalid date, expected YYYY-MM-DD")
		}
	}

	if *scenario != domain.ScenarioBase {
		if _, ok := cfg.Scenarios[*scenario]; !ok {
			log.Fatal().Str("scenario", *scenario).Msg("Error: scenario not configured")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer st.Close()

	shells := timeline.Generate(now, now, window)

	txs, err := st.ListTransactions(ctx, store.Filter{From: shells[0].Start, To: shells[len(shells)-1].End})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list transactions")
	}
	ests, err := st.ListEstimates(ctx, store.Filter{})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list estimates")
	}

	in := forecast.Input{
		Shells:          shells,
		Transactions:    txs,
		Estimates:       forecast.FilterScenario(ests, *scenario),
		StartingBalance: balance,
		BalanceAsOf:     asOf,
		Anchor:          now,
		Log:             log,
	}
	buckets := forecast.Build(in)

	printForecast(os.Stdout, *scenario, buckets)
}

func printForecast(out *os.File, scenario string, buckets []domain.WeekBucket) {
	fmt.Fprintf(out, "Scenario: %s\n\n", scenario)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "Week\tStarts\tStatus\tIn\tOut\tNet\tBalance\t")
	for _, b := range buckets {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			b.WeekNumber,
			b.WeekStart.Format("Jan 02"),
			b.Status,
			b.TotalInflow.StringFixed(2),
			b.TotalOutflow.StringFixed(2),
			b.NetCashflow.StringFixed(2),
			b.RunningBalance.StringFixed(2),
		)
	}
	w.Flush()
}

func openStore(ctx context.Context, cfg config.Config, log zerolog.Logger) (store.Store, error) {
	switch cfg.Store.Backend {
	case "memory":
		return memory.New(), nil
	case "sqlite":
		return sqlite.Open(cfg.Store.SQLitePath)
	case "bigquery":
		return storebq.New(ctx, cfg.Store.ProjectID, cfg.Store.Dataset, log)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
