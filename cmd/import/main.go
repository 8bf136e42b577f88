package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/runwayhq/runway/internal/config"
	"github.com/runwayhq/runway/internal/importer"
	"github.com/runwayhq/runway/internal/logger"
	"github.com/runwayhq/runway/internal/store"
	storebq "github.com/runwayhq/runway/internal/store/bigquery"
	"github.com/runwayhq/runway/internal/store/memory"
	"github.com/runwayhq/runway/internal/store/sqlite"
)

func main() {
	var (
		configPath = flag.String("config", os.Getenv("RUNWAY_CONFIG"), "Path to TOML config (or set RUNWAY_CONFIG)")
		filePath   = flag.String("file", "", "CSV file to import (required)")
		commit     = flag.Bool("commit", false, "Persist the unique transactions; default is preview only")
	)
	flag.Parse()

	log := logger.New()

	if *filePath == "" {
		log.Fatal().Msg("Error: --file is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer st.Close()

	f, err := os.Open(*filePath)
	if err != nil {
		log.Fatal().Err(err).Str("file", *filePath).Msg("Failed to open file")
	}
	defer f.Close()

	svc := importer.NewService(st, nil, cfg.DedupConfig(), log)

	preview, err := svc.Preview(ctx, f)
	if err != nil {
		log.Fatal().Err(err).Msg("Preview failed")
	}

	fmt.Printf("Parsed %d rows: %d unique, %d duplicate, %d errored\n",
		preview.Counts.Total, preview.Counts.Unique, preview.Counts.Duplicate, preview.Counts.Errored)

	for _, re := range preview.RowErrors {
		fmt.Printf("  line %d: %s\n", re.Line, re.Err)
	}
	for _, rm := range preview.Removed {
		fmt.Printf("  duplicate: %s (%s)\n", rm.Transaction.Source.Description, rm.Reason)
	}

	if !*commit {
		fmt.Println("\nPreview only. Re-run with --commit to persist.")
		return
	}

	if err := svc.Commit(ctx, preview); err != nil {
		log.Fatal().Err(err).Msg("Commit failed")
	}
	fmt.Printf("Committed %d transactions\n", preview.Counts.Unique)
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
