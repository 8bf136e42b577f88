package notion

import (
	"fmt"

	"github.com/jomei/notionapi"
	"github.com/shopspring/decimal"

	"github.com/runwayhq/runway/internal/domain"
)

// SyncKey identifies a bucket page across syncs: scenario plus the
// absolute week start. Week numbers are relative to "now" and would go
// stale in an external system, so they never leave this process.
func SyncKey(scenario string, b domain.WeekBucket) string {
	return fmt.Sprintf("%s|%s", scenario, b.WeekStart.Format("2006-01-02"))
}

// BucketToProperties converts a week bucket into the Notion page
// properties for the forecast database.
func BucketToProperties(scenario string, b domain.WeekBucket) notionapi.Properties {
	title := fmt.Sprintf("Week of %s", b.WeekStart.Format("Jan 2, 2006"))

	props := notionapi.Properties{
		"Week": notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{Content: title},
				},
			},
		},
		"Sync Key": notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{Content: SyncKey(scenario, b)},
				},
			},
		},
		"Week Start": notionapi.DateProperty{
			Date: &notionapi.DateObject{
				Start: (*notionapi.Date)(&b.WeekStart),
			},
		},
		"Status": notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(b.Status)},
		},
		"Scenario": notionapi.SelectProperty{
			Select: notionapi.Option{Name: scenario},
		},
		"Actual Inflow":     numberProp(b.ActualInflow),
		"Actual Outflow":    numberProp(b.ActualOutflow),
		"Estimated Inflow":  numberProp(b.EstimatedInflow),
		"Estimated Outflow": numberProp(b.EstimatedOutflow),
		"Projected Inflow":  numberProp(b.ProjectedInflow),
		"Total Inflow":      numberProp(b.TotalInflow),
		"Total Outflow":     numberProp(b.TotalOutflow),
		"Net Cashflow":      numberProp(b.NetCashflow),
		"Running Balance":   numberProp(b.RunningBalance),
	}
	return props
}

func numberProp(d decimal.Decimal) notionapi.NumberProperty {
	return notionapi.NumberProperty{Number: d.InexactFloat64()}
}

// extractSyncKey reads the Sync Key property back from a page. Empty
// when the page was not created by this exporter.
func extractSyncKey(page notionapi.Page) string {
	if prop, ok := page.Properties["Sync Key"]; ok {
		if richText, ok := prop.(*notionapi.RichTextProperty); ok {
			for _, t := range richText.RichText {
				if t.PlainText != "" {
					return t.PlainText
				}
				if t.Text != nil {
					return t.Text.Content
				}
			}
		}
	}
	return ""
}
