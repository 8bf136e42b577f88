// Package config loads service configuration from a TOML file with
// sane defaults for local development.
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"

	"github.com/runwayhq/runway/internal/dedup"
	"github.com/runwayhq/runway/internal/forecast"
)

// Config is the full service configuration.
type Config struct {
	Server     Server                         `toml:"server"`
	Store      StoreConfig                    `toml:"store"`
	Archive    Archive                        `toml:"archive"`
	Notion     Notion                         `toml:"notion"`
	Categorize Categorize                     `toml:"categorize"`
	Dedup      Dedup                          `toml:"dedup"`
	Forecast   Forecast                       `toml:"forecast"`
	Scenarios  map[string]forecast.Adjustment `toml:"scenarios"`
}

type Server struct {
	Port int `toml:"port"`
}

// StoreConfig selects and parameterizes the persistence backend.
type StoreConfig struct {
	// Backend is one of "memory", "sqlite", "bigquery".
	Backend    string `toml:"backend"`
	SQLitePath string `toml:"sqlite_path"`
	ProjectID  string `toml:"project_id"`
	Dataset    string `toml:"dataset"`
}

type Archive struct {
	// Bucket enables GCS archiving of committed uploads when set.
	Bucket string `toml:"bucket"`
}

type Notion struct {
	Token      string `toml:"token"`
	DatabaseID string `toml:"database_id"`
}

type Categorize struct {
	// UseModel enables the model fallback for descriptions the rule
	// table cannot place.
	UseModel bool   `toml:"use_model"`
	Model    string `toml:"model"`
}

type Dedup struct {
	MaxGapHours       int     `toml:"max_gap_hours"`
	MaxAmountVariance string  `toml:"max_amount_variance"`
	MinSimilarity     float64 `toml:"min_similarity"`
}

type Forecast struct {
	PastWeeks   int `toml:"past_weeks"`
	FutureWeeks int `toml:"future_weeks"`
}

// Default returns the configuration used when no file is given:
// in-memory store, 13-week window, standard scenario adjustments.
func Default() Config {
	return Config{
		Server: Server{Port: 8080},
		Store:  StoreConfig{Backend: "memory", SQLitePath: "runway.db", Dataset: "runway"},
		Categorize: Categorize{
			Model: "gemini-2.0-flash",
		},
		Dedup: Dedup{
			MaxGapHours:       72,
			MaxAmountVariance: "0",
			MinSimilarity:     0.85,
		},
		Forecast: Forecast{PastWeeks: 0, FutureWeeks: 12},
		Scenarios: map[string]forecast.Adjustment{
			"optimistic":  {Multiplier: 1.2},
			"pessimistic": {Multiplier: 0.7, DelayDays: 14},
		},
	}
}

// Load reads the TOML file at path over the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Store.Backend {
	case "memory", "sqlite", "bigquery":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Store.Backend == "bigquery" && c.Store.ProjectID == "" {
		return fmt.Errorf("store backend bigquery requires project_id")
	}
	if _, err := decimal.NewFromString(c.Dedup.MaxAmountVariance); err != nil {
		return fmt.Errorf("invalid dedup max_amount_variance %q", c.Dedup.MaxAmountVariance)
	}
	return nil
}

// DedupConfig converts the TOML fields into the reconciler's config.
func (c Config) DedupConfig() dedup.Config {
	variance, err := decimal.NewFromString(c.Dedup.MaxAmountVariance)
	if err != nil {
		variance = decimal.Zero
	}
	return dedup.Config{
		MaxGap:            time.Duration(c.Dedup.MaxGapHours) * time.Hour,
		MaxAmountVariance: variance,
		MinSimilarity:     c.Dedup.MinSimilarity,
	}
}
