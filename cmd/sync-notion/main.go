package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/runwayhq/runway/internal/config"
	"github.com/runwayhq/runway/internal/domain"
	"github.com/runwayhq/runway/internal/export/notion"
	"github.com/runwayhq/runway/internal/forecast"
	"github.com/runwayhq/runway/internal/logger"
	"github.com/runwayhq/runway/internal/store"
	storebq "github.com/runwayhq/runway/internal/store/bigquery"
	"github.com/runwayhq/runway/internal/store/memory"
	"github.com/runwayhq/runway/internal/store/sqlite"
	"github.com/runwayhq/runway/internal/timeline"
)

func main() {
	log := logger.New()

	var (
		configPath      = flag.String("config", os.Getenv("RUNWAY_CONFIG"), "Path to TOML config (or set RUNWAY_CONFIG)")
		scenario        = flag.String("scenario", domain.ScenarioBase, "Scenario to sync")
		startingBalance = flag.String("starting-balance", "0", "Known balance to seed the running balance from")
		dryRun          = flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if cfg.Notion.Token == "" {
		log.Fatal().Msg("Error: notion.token is required in config")
	}
	if cfg.Notion.DatabaseID == "" {
		log.Fatal().Msg("Error: notion.database_id is required in config")
	}

	balance, err := decimal.NewFromString(*startingBalance)
	if err != nil {
		log.Fatal().Str("starting_balance", *startingBalance).Msg("Error: invalid starting balance")
	}

	if *scenario != domain.ScenarioBase {
		if _, ok := cfg.Scenarios[*scenario]; !ok {
			log.Fatal().Str("scenario", *scenario).Msg("Error: scenario not configured")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer st.Close()

	now := time.Now().UTC()
	window := timeline.Window{Past: cfg.Forecast.PastWeeks, Future: cfg.Forecast.FutureWeeks}
	shells := timeline.Generate(now, now, window)

	txs, err := st.ListTransactions(ctx, store.Filter{From: shells[0].Start, To: shells[len(shells)-1].End})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list transactions")
	}
	ests, err := st.ListEstimates(ctx, store.Filter{})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list estimates")
	}

	buckets := forecast.Build(forecast.Input{
		Shells:          shells,
		Transactions:    txs,
		Estimates:       forecast.FilterScenario(ests, *scenario),
		StartingBalance: balance,
		BalanceAsOf:     now,
		Anchor:          now,
		Log:             log,
	})

	client := notion.NewClient(cfg.Notion.Token)

	result, err := notion.SyncForecast(ctx, client, cfg.Notion.DatabaseID, *scenario, buckets, *dryRun, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Notion sync failed")
	}

	mode := "synced"
	if *dryRun {
		mode = "dry run"
	}
	log.Info().
		Str("mode", mode).
		Str("scenario", *scenario).
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("deleted", result.Deleted).
		Msg("Notion sync finished")
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
