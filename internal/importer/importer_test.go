package importer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/runwayhq/runway/internal/dedup"
	"github.com/runwayhq/runway/internal/domain"
	"github.com/runwayhq/runway/internal/store"
	"github.com/runwayhq/runway/internal/store/memory"
)

const sampleCSV = `Type,Date,Description,Amount,Balance
CREDIT,01/15/2024,"ACME CORP PAYMENT #1234",1200.00,5200.00
DEBIT,01/16/2024,"GUSTO PAYROLL",800.00,4400.00
CREDIT,01/18/2024,"ACME CORP PAYMENT #1235",1200.00,5600.00
`

func newService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	st := memory.New()
	return NewService(st, nil, dedup.DefaultConfig(), zerolog.Nop()), st
}

func TestParseRowsHeaderSynonyms(t *testing.T) {
	in := "Transaction Type,Posting Date,Memo,Value,Running Balance\nCREDIT,2024-01-15,Coffee,9.50,100.00\n"
	rows, rowErrs, err := ParseRows(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(rowErrs) != 0 {
		t.Fatalf("row errors: %v", rowErrs)
	}
	if len(rows) != 1 {
		t.Fatalf("len = %d, want 1", len(rows))
	}
	r := rows[0]
	if r.Marker != "CREDIT" || r.PostedAt != "2024-01-15" || r.Description != "Coffee" ||
		r.Amount != "9.50" || r.Balance != "100.00" {
		t.Errorf("row = %+v", r)
	}
}

func TestParseRowsMissingColumns(t *testing.T) {
	in := "Date,Amount\n2024-01-15,9.50\n"
	_, _, err := ParseRows(strings.NewReader(in))

	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	want := map[string]bool{"marker": true, "description": true, "balance": true}
	if len(verr.MissingColumns) != len(want) {
		t.Fatalf("missing = %v", verr.MissingColumns)
	}
	for _, col := range verr.MissingColumns {
		if !want[col] {
			t.Errorf("unexpected missing column %q", col)
		}
	}
}

func TestParseRowsSkipsIncompleteRows(t *testing.T) {
	in := `Type,Date,Description,Amount,Balance
CREDIT,,Missing date,10.00,100.00
CREDIT,2024-01-15,,10.00,100.00
CREDIT,2024-01-16,Fine,10.00,110.00
`
	rows, rowErrs, err := ParseRows(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Description != "Fine" {
		t.Fatalf("rows = %v, want only the complete one", rows)
	}
	if len(rowErrs) != 2 {
		t.Fatalf("row errors = %v, want 2", rowErrs)
	}
	if rowErrs[0].Line != 2 || rowErrs[1].Line != 3 {
		t.Errorf("error lines = %d, %d", rowErrs[0].Line, rowErrs[1].Line)
	}
}

func TestPreviewPipeline(t *testing.T) {
	ctx := context.Background()
	svc, st := newService(t)

	p, err := svc.Preview(ctx, strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatal(err)
	}

	// The two ACME rows are fuzzy duplicates; payroll stands alone.
	if p.Counts.Unique != 2 {
		t.Errorf("unique = %d, want 2", p.Counts.Unique)
	}
	if p.Counts.Duplicate != 1 {
		t.Errorf("duplicate = %d, want 1", p.Counts.Duplicate)
	}
	if p.Counts.Total != 3 {
		t.Errorf("total = %d, want 3", p.Counts.Total)
	}

	for _, tx := range p.Transactions {
		if tx.Category == "" {
			t.Errorf("transaction %q left uncategorized", tx.Source.Description)
		}
	}

	// Preview must not have written anything.
	persisted, _ := st.ListTransactions(ctx, store.Filter{})
	if len(persisted) != 0 {
		t.Fatalf("preview persisted %d transactions", len(persisted))
	}
}

func TestCommitThenReimportIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, st := newService(t)

	p, err := svc.Preview(ctx, strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Commit(ctx, p); err != nil {
		t.Fatal(err)
	}

	persisted, _ := st.ListTransactions(ctx, store.Filter{})
	if len(persisted) != 2 {
		t.Fatalf("persisted = %d, want 2", len(persisted))
	}

	// Second upload of the same file: everything is a duplicate.
	p2, err := svc.Preview(ctx, strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatal(err)
	}
	if p2.Counts.Unique != 0 {
		t.Errorf("re-import unique = %d, want 0", p2.Counts.Unique)
	}
	if err := svc.Commit(ctx, p2); err != nil {
		t.Fatal(err)
	}
	persisted, _ = st.ListTransactions(ctx, store.Filter{})
	if len(persisted) != 2 {
		t.Errorf("re-import grew the store to %d rows", len(persisted))
	}
}

type failingStore struct {
	*memory.Store
	fail bool
}

func (f *failingStore) PutTransactions(ctx context.Context, txs []domain.Transaction) error {
	if f.fail {
		return errors.New("backend unavailable")
	}
	return f.Store.PutTransactions(ctx, txs)
}

func TestCommitFailurePreservesPreview(t *testing.T) {
	ctx := context.Background()
	fs := &failingStore{Store: memory.New(), fail: true}
	svc := NewService(fs, nil, dedup.DefaultConfig(), zerolog.Nop())

	p, err := svc.Preview(ctx, strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Commit(ctx, p); err == nil {
		t.Fatal("commit should fail")
	}
	if len(p.Transactions) != 2 {
		t.Fatalf("preview lost its transactions after a failed commit: %d", len(p.Transactions))
	}

	// Retry once the backend recovers.
	fs.fail = false
	if err := svc.Commit(ctx, p); err != nil {
		t.Fatal(err)
	}
	persisted, _ := fs.ListTransactions(ctx, store.Filter{})
	if len(persisted) != 2 {
		t.Errorf("retry persisted %d rows, want 2", len(persisted))
	}
}

func TestPreviewCollectsMalformedDates(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	in := `Type,Date,Description,Amount,Balance
CREDIT,not-a-date,Broken,10.00,100.00
CREDIT,2024-01-16,Fine,10.00,110.00
`
	p, err := svc.Preview(ctx, strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if p.Counts.Errored != 1 || p.Counts.Unique != 1 {
		t.Fatalf("counts = %+v", p.Counts)
	}
	if !strings.Contains(p.RowErrors[0].Err, "not-a-date") {
		t.Errorf("row error should carry the offending value: %q", p.RowErrors[0].Err)
	}
}
