// Package notion publishes the computed weekly forecast to a Notion
// database, one page per week bucket, so the numbers are readable
// where the rest of the company plans.
package notion

import (
	"context"

	"github.com/jomei/notionapi"
)

// NotionService defines the Notion operations the exporter needs.
// The interface exists so sync logic is testable without the API.
type NotionService interface {
	CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)
	UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error)
	QueryDatabase(ctx context.Context, databaseID string, filter *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
	DeletePage(ctx context.Context, pageID string) error
}
