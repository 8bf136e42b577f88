// Package receivables turns outstanding invoices from the external
// billing feed into confidence-weighted payment projections the
// forecast can bucket. It only consumes the invoice shape; fetching is
// someone else's problem.
package receivables

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/runwayhq/runway/internal/domain"
	"github.com/runwayhq/runway/internal/timeline"
)

// Collection weights per confidence grade. An invoice not yet due is
// expected nearly in full; the longer it sits overdue the bigger the
// haircut.
var weights = map[domain.Confidence]decimal.Decimal{
	domain.ConfidenceHigh:   decimal.NewFromInt(1),
	domain.ConfidenceMedium: decimal.RequireFromString("0.8"),
	domain.ConfidenceLow:    decimal.RequireFromString("0.5"),
}

// mediumOverdueDays is the overdue window still graded medium.
const mediumOverdueDays = 30

// overdueCollectionDelay is the optimistic assumption for when an
// already-late invoice actually lands.
const overdueCollectionDelay = 7 * 24 * time.Hour

// ToProjections converts open invoices into payment projections
// numbered against the anchor week. Settled and cancelled invoices are
// skipped. Pure; now is passed in rather than read from the clock.
func ToProjections(invoices []domain.Invoice, anchor, now time.Time) []domain.PaymentProjection {
	out := make([]domain.PaymentProjection, 0, len(invoices))
	for _, inv := range invoices {
		switch strings.ToUpper(strings.TrimSpace(inv.Status)) {
		case "PAID", "CANCELLED", "CANCELED":
			continue
		}

		daysUntilDue := daysBetween(now, inv.DueDate)
		confidence := grade(daysUntilDue)

		collection := inv.DueDate
		if daysUntilDue < 0 {
			collection = now.Add(overdueCollectionDelay)
		}

		out = append(out, domain.PaymentProjection{
			InvoiceNumber:           inv.InvoiceNumber,
			ClientName:              inv.ClientName,
			ExpectedAmount:          inv.AmountDue.Mul(weights[confidence]).Round(2),
			OriginalDueDate:         inv.DueDate,
			EstimatedCollectionDate: collection,
			Confidence:              confidence,
			DaysUntilDue:            daysUntilDue,
			WeekNumber:              timeline.WeekNumber(anchor, collection),
		})
	}
	return out
}

func grade(daysUntilDue int) domain.Confidence {
	switch {
	case daysUntilDue >= 0:
		return domain.ConfidenceHigh
	case daysUntilDue >= -mediumOverdueDays:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}

func daysBetween(from, to time.Time) int {
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	toDay := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(toDay.Sub(fromDay).Hours() / 24)
}
