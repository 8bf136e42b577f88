// Package normalize converts raw imported rows into canonical
// transaction records: date parsing, direction inference, and the
// content-derived dedup hash.
package normalize

import (
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/runwayhq/runway/internal/domain"
)

// dateLayouts are tried in order. The first match wins, so the
// unambiguous ISO form comes first and the US slash form before any
// rarer variants.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"2006/01/02",
	"01-02-2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// ParseDate parses a posting-date string, trying each accepted layout
// in order. Returns a MalformedDateError carrying the offending string
// when none match.
func ParseDate(s string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, &domain.MalformedDateError{Value: s}
}

// Normalize converts one raw row into a Transaction. Amount becomes an
// absolute magnitude with Direction inferred from the marker, falling
// back to the amount sign when the marker is absent or unrecognized.
// Pure: no side effects beyond the generated record ID.
func Normalize(row domain.SourceRow) (domain.Transaction, error) {
	date, err := ParseDate(row.PostedAt)
	if err != nil {
		return domain.Transaction{}, err
	}

	amount, err := parseAmount(row.Amount)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("row %d: invalid amount %q: %w", row.Line, row.Amount, err)
	}

	dir := inferDirection(row.Marker, amount)

	tx := domain.Transaction{
		ID:        uuid.NewString(),
		Date:      date,
		Amount:    amount.Abs(),
		Direction: dir,
		Source:    row,
	}
	tx.Hash = Hash(date, tx.Amount, row.Description)

	if bal := strings.TrimSpace(row.Balance); bal != "" {
		if b, err := parseAmount(bal); err == nil {
			tx.BalanceAfter = decimal.NullDecimal{Decimal: b, Valid: true}
		}
	}

	return tx, nil
}

// Hash derives the dedup key from the normalized date, the amount
// rounded to two decimals, and the uppercased trimmed description.
// FNV-32a keeps it short and stable; it is not cryptographic, only
// collision-resistant enough for human transaction volumes. The
// reported balance is deliberately excluded so re-exports with a
// different running balance still dedupe.
func Hash(date time.Time, amount decimal.Decimal, description string) string {
	input := date.Format("2006-01-02") + "|" +
		amount.Round(2).StringFixed(2) + "|" +
		strings.ToUpper(strings.TrimSpace(description))

	h := fnv.New32a()
	h.Write([]byte(input))
	return fmt.Sprintf("%08x", h.Sum32())
}

func inferDirection(marker string, amount decimal.Decimal) domain.Direction {
	switch strings.ToUpper(strings.TrimSpace(marker)) {
	case "CREDIT", "CR", "IN", "INFLOW", "DEPOSIT":
		return domain.Inflow
	case "DEBIT", "DR", "OUT", "OUTFLOW", "WITHDRAWAL":
		return domain.Outflow
	}
	if amount.IsNegative() {
		return domain.Outflow
	}
	return domain.Inflow
}

func parseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimPrefix(cleaned, "$")
	// Bank exports sometimes wrap negatives in parentheses.
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		cleaned = "-" + strings.TrimSuffix(strings.TrimPrefix(cleaned, "("), ")")
	}
	return decimal.NewFromString(cleaned)
}
