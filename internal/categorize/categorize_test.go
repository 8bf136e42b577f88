package categorize

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/runwayhq/runway/internal/domain"
)

func tx(dir domain.Direction, description string) domain.Transaction {
	return domain.Transaction{
		Amount:    decimal.RequireFromString("10.00"),
		Direction: dir,
		Source:    domain.SourceRow{Description: description},
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		name        string
		dir         domain.Direction
		description string
		category    string
	}{
		{"payroll outflow", domain.Outflow, "GUSTO PAYROLL 8842", "Payroll"},
		{"rent outflow", domain.Outflow, "ACH LANDLORD LLC RENT MARCH", "Rent"},
		{"aws infra", domain.Outflow, "AWS EMEA billing", "Software"},
		{"stripe inflow", domain.Inflow, "STRIPE PAYOUT 77F2", "Client Revenue"},
		{"loan inflow", domain.Inflow, "SBA LOAN DISBURSEMENT", "Financing"},
		{"case insensitive", domain.Outflow, "gusto payroll", "Payroll"},
		{"no match outflow", domain.Outflow, "MISC 0017", CategoryOther},
		{"no match inflow", domain.Inflow, "MISC 0017", CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Categorize(tx(tt.dir, tt.description))
			if got.Category != tt.category {
				t.Errorf("Categorize(%q) = %q, want %q", tt.description, got.Category, tt.category)
			}
		})
	}
}

// Rule order is part of the contract: a payroll run that also mentions
// "transfer" must classify as Payroll because Payroll outranks
// Transfers Out.
func TestCategorizeOrderSensitivity(t *testing.T) {
	got := Categorize(tx(domain.Outflow, "TRANSFER TO GUSTO PAYROLL"))
	if got.Category != "Payroll" {
		t.Errorf("Category = %q, want Payroll (rule priority)", got.Category)
	}

	// IRS appears in both Taxes keywords and generic text; Taxes
	// outranks Bank Fees even when "FEE" is present too.
	got = Categorize(tx(domain.Outflow, "IRS PAYMENT PROCESSING FEE"))
	if got.Category != "Taxes" {
		t.Errorf("Category = %q, want Taxes (rule priority)", got.Category)
	}
}

func TestCategorizeDirectionSeparation(t *testing.T) {
	// "INTEREST" is an inflow category; for an outflow it should not
	// resolve via the inflow table.
	in := Categorize(tx(domain.Inflow, "INTEREST CREDIT"))
	if in.Category != "Interest Income" {
		t.Errorf("inflow Category = %q, want Interest Income", in.Category)
	}
	out := Categorize(tx(domain.Outflow, "INTEREST CHARGE ON LOAN PAYMENT"))
	if out.Category != "Debt Service" {
		t.Errorf("outflow Category = %q, want Debt Service", out.Category)
	}
}

type stubClassifier struct {
	category string
	calls    int
}

func (s *stubClassifier) Classify(ctx context.Context, description string, dir domain.Direction) (string, string, error) {
	s.calls++
	return s.category, "", nil
}

func TestBatchClassifierOnlyForOther(t *testing.T) {
	stub := &stubClassifier{category: "Marketing"}
	batch := []domain.Transaction{
		tx(domain.Outflow, "GUSTO PAYROLL"),
		tx(domain.Outflow, "UNKNOWN VENDOR 42"),
	}

	out := Batch(context.Background(), batch, stub, zerolog.Nop())

	if stub.calls != 1 {
		t.Errorf("classifier calls = %d, want 1 (only unmatched rows)", stub.calls)
	}
	if out[0].Category != "Payroll" {
		t.Errorf("rule-matched row overridden: %q", out[0].Category)
	}
	if out[1].Category != "Marketing" {
		t.Errorf("fallback category = %q, want Marketing", out[1].Category)
	}
}

func TestCategoriesEndsWithOther(t *testing.T) {
	for _, dir := range []domain.Direction{domain.Inflow, domain.Outflow} {
		names := Categories(dir)
		if len(names) == 0 || names[len(names)-1] != CategoryOther {
			t.Errorf("Categories(%s) should end with Other: %v", dir, names)
		}
	}
}
