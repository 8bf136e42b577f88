package notion

import (
	"context"
	"testing"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/runwayhq/runway/internal/domain"
)

type fakeNotion struct {
	pages   []notionapi.Page
	created []notionapi.Properties
	updated map[string]notionapi.Properties
	deleted []string
}

func newFakeNotion(pages ...notionapi.Page) *fakeNotion {
	return &fakeNotion{pages: pages, updated: make(map[string]notionapi.Properties)}
}

func (f *fakeNotion) CreatePage(ctx context.Context, databaseID string, props notionapi.Properties) (*notionapi.Page, error) {
	f.created = append(f.created, props)
	return &notionapi.Page{}, nil
}

func (f *fakeNotion) UpdatePage(ctx context.Context, pageID string, props notionapi.Properties) (*notionapi.Page, error) {
	f.updated[pageID] = props
	return &notionapi.Page{}, nil
}

func (f *fakeNotion) QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	return &notionapi.DatabaseQueryResponse{Results: f.pages}, nil
}

func (f *fakeNotion) DeletePage(ctx context.Context, pageID string) error {
	f.deleted = append(f.deleted, pageID)
	return nil
}

func pageWithKey(id, key string) notionapi.Page {
	return notionapi.Page{
		ID: notionapi.ObjectID(id),
		Properties: notionapi.Properties{
			"Sync Key": &notionapi.RichTextProperty{
				RichText: []notionapi.RichText{{PlainText: key}},
			},
		},
	}
}

func bucket(weekStart time.Time, number int) domain.WeekBucket {
	return domain.WeekBucket{
		WeekNumber:     number,
		WeekStart:      weekStart,
		WeekEnd:        weekStart.AddDate(0, 0, 7).Add(-time.Nanosecond),
		Status:         domain.WeekFuture,
		RunningBalance: decimal.RequireFromString("1000"),
	}
}

func TestSyncForecastCreatesAndDeletes(t *testing.T) {
	jan15 := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	jan22 := jan15.AddDate(0, 0, 7)

	fake := newFakeNotion(
		pageWithKey("stale", "base|2024-01-08"), // window moved past this week
		pageWithKey("kept", "base|2024-01-15"),
		pageWithKey("other", "pessimistic|2024-01-15"), // different scenario
	)

	res, err := SyncForecast(context.Background(), fake, "db", "base",
		[]domain.WeekBucket{bucket(jan15, 0), bucket(jan22, 1)}, false, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	if res.Created != 1 || res.Updated != 1 || res.Deleted != 1 {
		t.Fatalf("result = %+v, want 1 created / 1 updated / 1 deleted", res)
	}
	if len(fake.deleted) != 1 || fake.deleted[0] != "stale" {
		t.Errorf("deleted = %v, want only the stale page", fake.deleted)
	}
	if _, ok := fake.updated["kept"]; !ok {
		t.Error("existing week page was not updated")
	}
}

func TestSyncForecastDryRun(t *testing.T) {
	jan15 := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	fake := newFakeNotion(pageWithKey("stale", "base|2024-01-01"))

	res, err := SyncForecast(context.Background(), fake, "db", "base",
		[]domain.WeekBucket{bucket(jan15, 0)}, true, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	if res.Created != 1 || res.Deleted != 1 {
		t.Fatalf("result = %+v", res)
	}
	if len(fake.created) != 0 || len(fake.deleted) != 0 || len(fake.updated) != 0 {
		t.Error("dry run must not write")
	}
}

func TestSyncForecastDeletesUnkeyedPages(t *testing.T) {
	fake := newFakeNotion(notionapi.Page{ID: "manual", Properties: notionapi.Properties{}})

	res, err := SyncForecast(context.Background(), fake, "db", "base", nil, false, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if res.Deleted != 1 || len(fake.deleted) != 1 {
		t.Fatalf("result = %+v, want the unkeyed page deleted", res)
	}
}

func TestBucketToProperties(t *testing.T) {
	jan15 := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	b := bucket(jan15, 0)
	b.NetCashflow = decimal.RequireFromString("-123.45")

	props := BucketToProperties("base", b)

	title, ok := props["Week"].(notionapi.TitleProperty)
	if !ok || title.Title[0].Text.Content != "Week of Jan 15, 2024" {
		t.Errorf("title = %+v", props["Week"])
	}
	net, ok := props["Net Cashflow"].(notionapi.NumberProperty)
	if !ok || net.Number != -123.45 {
		t.Errorf("net = %+v", props["Net Cashflow"])
	}
	key, ok := props["Sync Key"].(notionapi.RichTextProperty)
	if !ok || key.RichText[0].Text.Content != "base|2024-01-15" {
		t.Errorf("sync key = %+v", props["Sync Key"])
	}
}
