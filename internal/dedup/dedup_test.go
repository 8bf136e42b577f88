package dedup

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/runwayhq/runway/internal/domain"
	"github.com/runwayhq/runway/internal/normalize"
)

func mkTx(t *testing.T, date, amount, description string) domain.Transaction {
	t.Helper()
	tx, err := normalize.Normalize(domain.SourceRow{
		Marker:      "CREDIT",
		PostedAt:    date,
		Description: description,
		Amount:      amount,
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	return tx
}

func TestExactFilterAgainstHistory(t *testing.T) {
	first := mkTx(t, "2024-01-15", "50.25", "Coffee Shop Purchase")
	idx := NewHashIndex([]string{first.Hash})

	// Re-import of the identical row, only the reported balance differs.
	reimport := mkTx(t, "2024-01-15", "50.25", "Coffee Shop Purchase")
	reimport.BalanceAfter = decimal.NullDecimal{Decimal: decimal.RequireFromString("9999"), Valid: true}

	fresh := mkTx(t, "2024-01-16", "12.00", "Something Else")

	kept, removed := ExactFilter([]domain.Transaction{reimport, fresh}, idx)

	if len(kept) != 1 || kept[0].Hash != fresh.Hash {
		t.Fatalf("kept = %v, want only the fresh row", kept)
	}
	if len(removed) != 1 || removed[0].Transaction.Hash != first.Hash {
		t.Fatalf("removed = %v, want the re-imported row", removed)
	}
}

// Importing the same batch twice yields zero new transactions the
// second time.
func TestExactFilterIdempotentReimport(t *testing.T) {
	batch := []domain.Transaction{
		mkTx(t, "2024-01-15", "50.25", "Coffee Shop Purchase"),
		mkTx(t, "2024-01-16", "1200.00", "ACME CORP PAYMENT"),
	}

	idx := NewHashIndex(nil)
	kept, removed := ExactFilter(batch, idx)
	if len(kept) != 2 || len(removed) != 0 {
		t.Fatalf("first import: kept %d removed %d, want 2/0", len(kept), len(removed))
	}

	again := []domain.Transaction{
		mkTx(t, "2024-01-15", "50.25", "Coffee Shop Purchase"),
		mkTx(t, "2024-01-16", "1200.00", "ACME CORP PAYMENT"),
	}
	kept, removed = ExactFilter(again, idx)
	if len(kept) != 0 {
		t.Errorf("second import kept %d rows, want 0", len(kept))
	}
	if len(removed) != 2 {
		t.Errorf("second import removed %d rows, want 2", len(removed))
	}
}

func TestExactFilterInBatchRepeat(t *testing.T) {
	a := mkTx(t, "2024-01-15", "50.25", "Coffee Shop Purchase")
	b := mkTx(t, "2024-01-15", "50.25", "Coffee Shop Purchase")

	kept, removed := ExactFilter([]domain.Transaction{a, b}, NewHashIndex(nil))
	if len(kept) != 1 || len(removed) != 1 {
		t.Fatalf("kept %d removed %d, want 1/1", len(kept), len(removed))
	}
	if kept[0].ID != a.ID {
		t.Error("first occurrence should survive")
	}
}

func TestExactFilterNoDuplicatesIsNoOp(t *testing.T) {
	batch := []domain.Transaction{
		mkTx(t, "2024-01-15", "50.25", "Coffee Shop Purchase"),
		mkTx(t, "2024-01-16", "12.00", "Something Else"),
	}
	kept, removed := ExactFilter(batch, NewHashIndex(nil))
	if removed != nil {
		t.Errorf("removed = %v, want nil", removed)
	}
	if len(kept) != len(batch) || kept[0].ID != batch[0].ID || kept[1].ID != batch[1].ID {
		t.Error("no-op pass must return the original set unchanged")
	}
}

func TestFuzzyFilterGroupsNearDuplicates(t *testing.T) {
	a := mkTx(t, "2024-01-15", "1200.00", "ACME CORP PAYMENT #1234")
	b := mkTx(t, "2024-01-18", "1200.00", "ACME CORP PAYMENT #1235")

	kept, removed := FuzzyFilter([]domain.Transaction{a, b}, DefaultConfig())

	if len(kept) != 1 {
		t.Fatalf("kept %d, want 1", len(kept))
	}
	if kept[0].ID != a.ID {
		t.Error("first encountered should be the representative")
	}
	if len(removed) != 1 || removed[0].KeptID != a.ID {
		t.Fatalf("removed = %+v, want one entry pointing at the representative", removed)
	}
	if removed[0].Reason == "" {
		t.Error("removal must carry a reason for audit")
	}
}

// Amounts beyond the configured variance must never group, even with
// identical descriptions and dates.
func TestFuzzyFilterAmountGuard(t *testing.T) {
	a := mkTx(t, "2024-01-15", "1200.00", "ACME CORP PAYMENT #1234")
	b := mkTx(t, "2024-01-15", "1205.00", "ACME CORP PAYMENT #1234")

	kept, removed := FuzzyFilter([]domain.Transaction{a, b}, DefaultConfig())
	if len(kept) != 2 || len(removed) != 0 {
		t.Fatalf("kept %d removed %d, want 2/0: amount difference exceeds variance", len(kept), len(removed))
	}
}

func TestFuzzyFilterAmountVarianceTolerance(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxAmountVariance = decimal.RequireFromString("0.05")

	a := mkTx(t, "2024-01-15", "1200.00", "ACME CORP PAYMENT #1234")
	b := mkTx(t, "2024-01-15", "1200.04", "ACME CORP PAYMENT #1234")

	kept, removed := FuzzyFilter([]domain.Transaction{a, b}, cfg)
	if len(kept) != 1 || len(removed) != 1 {
		t.Fatalf("kept %d removed %d, want 1/1 within variance", len(kept), len(removed))
	}
}

func TestFuzzyFilterDateGap(t *testing.T) {
	a := mkTx(t, "2024-01-15", "1200.00", "ACME CORP PAYMENT #1234")
	b := mkTx(t, "2024-01-20", "1200.00", "ACME CORP PAYMENT #1235")

	kept, removed := FuzzyFilter([]domain.Transaction{a, b}, DefaultConfig())
	if len(kept) != 2 || len(removed) != 0 {
		t.Fatalf("kept %d removed %d, want 2/0: 5 days exceeds the 72h gap", len(kept), len(removed))
	}
}

func TestFuzzyFilterDissimilarDescriptions(t *testing.T) {
	a := mkTx(t, "2024-01-15", "50.00", "COFFEE SHOP")
	b := mkTx(t, "2024-01-15", "50.00", "GUSTO PAYROLL RUN")

	kept, removed := FuzzyFilter([]domain.Transaction{a, b}, DefaultConfig())
	if len(kept) != 2 || len(removed) != 0 {
		t.Fatalf("kept %d removed %d, want 2/0", len(kept), len(removed))
	}
}

func TestFuzzyFilterNoDuplicatesIsNoOp(t *testing.T) {
	batch := []domain.Transaction{
		mkTx(t, "2024-01-15", "50.00", "COFFEE SHOP"),
		mkTx(t, "2024-02-15", "60.00", "BOOKSTORE"),
	}
	kept, removed := FuzzyFilter(batch, DefaultConfig())
	if removed != nil {
		t.Errorf("removed = %v, want nil", removed)
	}
	if len(kept) != 2 || kept[0].ID != batch[0].ID {
		t.Error("no-op pass must return the original set unchanged")
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		min  float64
		max  float64
	}{
		{"ACME CORP PAYMENT #1234", "ACME CORP PAYMENT #1235", 0.85, 1.0},
		{"ACME CORP PAYMENT #1234", "ACME CORP PAYMENT #1234", 1.0, 1.0},
		{"COFFEE SHOP", "GUSTO PAYROLL RUN", 0.0, 0.5},
		{"", "", 1.0, 1.0},
	}
	for _, tt := range tests {
		got := Similarity(tt.a, tt.b)
		if got < tt.min || got > tt.max {
			t.Errorf("Similarity(%q, %q) = %.3f, want in [%.2f, %.2f]", tt.a, tt.b, got, tt.min, tt.max)
		}
	}
}

func TestHashIndex(t *testing.T) {
	idx := NewHashIndex([]string{"aabbccdd", "11223344"})
	if !idx.Seen("aabbccdd") || !idx.Seen("11223344") {
		t.Error("preloaded hashes should be seen")
	}
	if idx.Seen("deadbeef") {
		t.Error("unknown hash reported as seen")
	}
	idx.Add("deadbeef")
	if !idx.Seen("deadbeef") {
		t.Error("added hash should be seen")
	}
	if idx.Len() != 3 {
		t.Errorf("Len = %d, want 3", idx.Len())
	}
}

func TestFuzzyDeterministicForGivenOrder(t *testing.T) {
	batch := func() []domain.Transaction {
		return []domain.Transaction{
			mkTx(t, "2024-01-15", "100.00", "VENDOR PAYMENT #1"),
			mkTx(t, "2024-01-16", "100.00", "VENDOR PAYMENT #2"),
			mkTx(t, "2024-01-17", "100.00", "VENDOR PAYMENT #3"),
		}
	}

	_, removed1 := FuzzyFilter(batch(), DefaultConfig())
	_, removed2 := FuzzyFilter(batch(), DefaultConfig())
	if len(removed1) != len(removed2) {
		t.Fatalf("removal counts differ across runs: %d vs %d", len(removed1), len(removed2))
	}
}
