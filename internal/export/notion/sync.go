package notion

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
	"github.com/rs/zerolog"

	"github.com/runwayhq/runway/internal/domain"
)

// Result counts what one sync did.
type Result struct {
	Created int
	Updated int
	Deleted int
}

// SyncForecast replaces the scenario's pages in the Notion database
// with the given bucket sequence:
//
//  1. query all existing pages and index them by sync key
//  2. delete pages whose key is absent from the new forecast (the
//     rolling window moved on) or that carry no key at all
//  3. update pages whose week still exists, create the rest
//
// With dryRun set, nothing is written; the result reports what would
// have happened.
func SyncForecast(ctx context.Context, svc NotionService, databaseID, scenario string, buckets []domain.WeekBucket, dryRun bool, log zerolog.Logger) (Result, error) {
	var res Result

	log.Info().
		Str("scenario", scenario).
		Int("buckets", len(buckets)).
		Bool("dry_run", dryRun).
		Msg("Starting forecast sync to Notion")

	pages, err := queryAllPages(ctx, svc, databaseID)
	if err != nil {
		return res, fmt.Errorf("query existing pages: %w", err)
	}

	wanted := make(map[string]domain.WeekBucket, len(buckets))
	for _, b := range buckets {
		wanted[SyncKey(scenario, b)] = b
	}

	existing := make(map[string]notionapi.Page)
	for _, page := range pages {
		key := extractSyncKey(page)
		if key != "" && !belongsToScenario(key, scenario) {
			// Another scenario's page; leave it alone.
			continue
		}
		if _, ok := wanted[key]; ok {
			existing[key] = page
			continue
		}

		if dryRun {
			log.Info().Str("sync_key", key).Str("page_id", string(page.ID)).
				Msg("[DRY RUN] Would delete stale page")
			res.Deleted++
			continue
		}
		if err := svc.DeletePage(ctx, string(page.ID)); err != nil {
			log.Warn().Err(err).Str("page_id", string(page.ID)).Msg("Failed to delete stale page")
			continue
		}
		res.Deleted++
	}

	for _, b := range buckets {
		key := SyncKey(scenario, b)
		props := BucketToProperties(scenario, b)

		if page, ok := existing[key]; ok {
			if dryRun {
				log.Info().Str("sync_key", key).Msg("[DRY RUN] Would update page")
				res.Updated++
				continue
			}
			if _, err := svc.UpdatePage(ctx, string(page.ID), props); err != nil {
				return res, fmt.Errorf("update page %s: %w", key, err)
			}
			res.Updated++
			continue
		}

		if dryRun {
			log.Info().Str("sync_key", key).Msg("[DRY RUN] Would create page")
			res.Created++
			continue
		}
		if _, err := svc.CreatePage(ctx, databaseID, props); err != nil {
			return res, fmt.Errorf("create page %s: %w", key, err)
		}
		res.Created++
	}

	log.Info().
		Int("created", res.Created).
		Int("updated", res.Updated).
		Int("deleted", res.Deleted).
		Msg("Forecast sync finished")
	return res, nil
}

func belongsToScenario(key, scenario string) bool {
	return len(key) > len(scenario) && key[:len(scenario)+1] == scenario+"|"
}

// queryAllPages pages through the whole database.
func queryAllPages(ctx context.Context, svc NotionService, databaseID string) ([]notionapi.Page, error) {
	var pages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			StartCursor: cursor,
			PageSize:    100,
		}
		resp, err := svc.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, err
		}
		pages = append(pages, resp.Results...)

		if !resp.HasMore {
			return pages, nil
		}
		cursor = resp.NextCursor
	}
}
