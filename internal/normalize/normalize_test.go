package normalize

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/runwayhq/runway/internal/domain"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		input string
		want  string
		err   bool
	}{
		{"2024-01-15", "2024-01-15", false},
		{"01/15/2024", "2024-01-15", false},
		{"2024/01/15", "2024-01-15", false},
		{"Jan 15, 2024", "2024-01-15", false},
		{"15 Jan 2024", "2024-01-15", false},
		{"  2024-01-15  ", "2024-01-15", false},
		{"15th of January", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.err {
				if err == nil {
					t.Fatalf("ParseDate(%q) expected error, got %v", tt.input, got)
				}
				var mde *domain.MalformedDateError
				if !errors.As(err, &mde) {
					t.Errorf("ParseDate(%q) error = %T, want *MalformedDateError", tt.input, err)
				}
				if mde.Value != tt.input {
					t.Errorf("MalformedDateError.Value = %q, want %q", mde.Value, tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDate(%q) unexpected error: %v", tt.input, err)
			}
			if got.Format("2006-01-02") != tt.want {
				t.Errorf("ParseDate(%q) = %s, want %s", tt.input, got.Format("2006-01-02"), tt.want)
			}
		})
	}
}

func TestNormalizeDirection(t *testing.T) {
	tests := []struct {
		name   string
		marker string
		amount string
		want   domain.Direction
	}{
		{"credit marker", "CREDIT", "50.25", domain.Inflow},
		{"debit marker", "DEBIT", "50.25", domain.Outflow},
		{"lowercase marker", "credit", "50.25", domain.Inflow},
		{"marker beats sign", "CREDIT", "-50.25", domain.Inflow},
		{"no marker negative", "", "-12.00", domain.Outflow},
		{"no marker positive", "", "12.00", domain.Inflow},
		{"garbage marker falls back to sign", "???", "-12.00", domain.Outflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := Normalize(domain.SourceRow{
				Marker:      tt.marker,
				PostedAt:    "2024-01-15",
				Description: "Coffee Shop Purchase",
				Amount:      tt.amount,
			})
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if tx.Direction != tt.want {
				t.Errorf("Direction = %s, want %s", tx.Direction, tt.want)
			}
			if tx.Amount.IsNegative() {
				t.Errorf("Amount = %s, want non-negative magnitude", tx.Amount)
			}
		})
	}
}

func TestNormalizeBalanceAndSource(t *testing.T) {
	row := domain.SourceRow{
		Line:        3,
		Marker:      "CREDIT",
		PostedAt:    "01/15/2024",
		Description: "Coffee Shop Purchase",
		Amount:      "50.25",
		Balance:     "1,200.50",
	}

	tx, err := Normalize(row)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if !tx.BalanceAfter.Valid {
		t.Fatal("BalanceAfter should be set")
	}
	if !tx.BalanceAfter.Decimal.Equal(decimal.RequireFromString("1200.50")) {
		t.Errorf("BalanceAfter = %s, want 1200.50", tx.BalanceAfter.Decimal)
	}
	if tx.Source != row {
		t.Errorf("Source row not retained: %+v", tx.Source)
	}
}

func TestHashDeterministic(t *testing.T) {
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	amount := decimal.RequireFromString("50.25")

	a := Hash(date, amount, "Coffee Shop Purchase")
	b := Hash(date, amount, "Coffee Shop Purchase")
	if a != b {
		t.Errorf("hash not deterministic: %s != %s", a, b)
	}
	if len(a) != 8 {
		t.Errorf("hash length = %d, want 8 hex chars", len(a))
	}

	// Description normalization: case and surrounding whitespace are
	// irrelevant to identity.
	if Hash(date, amount, "  coffee shop purchase ") != a {
		t.Error("hash should be case and whitespace insensitive on description")
	}
}

func TestHashSensitivity(t *testing.T) {
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	amount := decimal.RequireFromString("50.25")
	base := Hash(date, amount, "Coffee Shop Purchase")

	if Hash(date.AddDate(0, 0, 1), amount, "Coffee Shop Purchase") == base {
		t.Error("changing the date must change the hash")
	}
	if Hash(date, decimal.RequireFromString("50.26"), "Coffee Shop Purchase") == base {
		t.Error("changing the amount must change the hash")
	}
	if Hash(date, amount, "Coffee Shop Purchase #2") == base {
		t.Error("changing the description must change the hash")
	}
}

func TestHashIgnoresReportedBalance(t *testing.T) {
	first, err := Normalize(domain.SourceRow{
		Marker: "CREDIT", PostedAt: "01/15/2024",
		Description: "Coffee Shop Purchase", Amount: "50.25", Balance: "1000.00",
	})
	if err != nil {
		t.Fatal(err)
	}
	second, err := Normalize(domain.SourceRow{
		Marker: "CREDIT", PostedAt: "01/15/2024",
		Description: "Coffee Shop Purchase", Amount: "50.25", Balance: "2345.67",
	})
	if err != nil {
		t.Fatal(err)
	}
	if first.Hash != second.Hash {
		t.Errorf("balance leaked into hash: %s != %s", first.Hash, second.Hash)
	}
}

func TestNormalizeAmountFormats(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1,234.56", "1234.56"},
		{"$99.00", "99"},
		{"(45.50)", "45.5"},
		{"-45.50", "45.5"},
	}
	for _, tt := range tests {
		tx, err := Normalize(domain.SourceRow{
			Marker: "DEBIT", PostedAt: "2024-01-15",
			Description: "x", Amount: tt.input,
		})
		if err != nil {
			t.Fatalf("Normalize(%q): %v", tt.input, err)
		}
		if !tx.Amount.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("Amount(%q) = %s, want %s", tt.input, tx.Amount, tt.want)
		}
	}
}
