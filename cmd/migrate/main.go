// Command migrate bootstraps the BigQuery dataset and tables used by
// the warehouse store backend. It is idempotent: existing datasets and
// tables are left alone.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"

	"github.com/runwayhq/runway/internal/logger"
)

var statements = []string{
	"CREATE TABLE IF NOT EXISTS %s.transactions (" +
		"transaction_id STRING NOT NULL, " +
		"hash STRING NOT NULL, " +
		"transaction_date DATE NOT NULL, " +
		"amount NUMERIC NOT NULL, " +
		"direction STRING NOT NULL, " +
		"category STRING, " +
		"subcategory STRING, " +
		"balance_after NUMERIC, " +
		"source_line INT64, " +
		"source_marker STRING, " +
		"source_posted_at STRING, " +
		"source_description STRING, " +
		"source_amount STRING, " +
		"source_balance STRING, " +
		"created_ts TIMESTAMP NOT NULL" +
		") PARTITION BY transaction_date",
	"CREATE TABLE IF NOT EXISTS %s.estimates (" +
		"estimate_id STRING NOT NULL, " +
		"amount NUMERIC NOT NULL, " +
		"direction STRING NOT NULL, " +
		"week_start DATE NOT NULL, " +
		"scenario STRING NOT NULL, " +
		"category STRING, " +
		"description STRING, " +
		"notes STRING, " +
		"is_recurring BOOL NOT NULL, " +
		"recurrence_period STRING, " +
		"created_ts TIMESTAMP NOT NULL, " +
		"updated_ts TIMESTAMP NOT NULL" +
		")",
}

func main() {
	var (
		projectID = flag.String("project", "", "GCP project ID (required)")
		datasetID = flag.String("dataset", "runway", "BigQuery dataset ID")
		location  = flag.String("location", "US", "Dataset location for newly created datasets")
	)
	flag.Parse()

	log := logger.New()

	if *projectID == "" {
		log.Fatal().Msg("Error: --project is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	client, err := bigquery.NewClient(ctx, *projectID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery client")
	}
	defer client.Close()

	ds := client.Dataset(*datasetID)
	if _, err := ds.Metadata(ctx); err != nil {
		if !isNotFound(err) {
			log.Fatal().Err(err).Str("dataset", *datasetID).Msg("Failed to read dataset metadata")
		}
		if err := ds.Create(ctx, &bigquery.DatasetMetadata{Location: *location}); err != nil {
			log.Fatal().Err(err).Str("dataset", *datasetID).Msg("Failed to create dataset")
		}
		log.Info().Str("dataset", *datasetID).Str("location", *location).Msg("Created dataset")
	}

	for _, stmt := range statements {
		q := client.Query(fmt.Sprintf(stmt, qualify(*projectID, *datasetID)))
		job, err := q.Run(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to run DDL")
		}
		status, err := job.Wait(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to wait for DDL job")
		}
		if err := status.Err(); err != nil {
			log.Fatal().Err(err).Msg("DDL job failed")
		}
	}

	log.Info().Str("project", *projectID).Str("dataset", *datasetID).Msg("Schema is up to date")
}

// qualify returns the backtick-quoted project.dataset prefix for DDL.
func qualify(projectID, datasetID string) string {
	return fmt.Sprintf("`%s`.`%s`", projectID, datasetID)
}

func isNotFound(err error) bool {
	if gerr, ok := err.(*googleapi.Error); ok {
		return gerr.Code == http.StatusNotFound
	}
	return false
}
