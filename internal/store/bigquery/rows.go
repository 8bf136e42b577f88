// Package bigquery is the warehouse Store backend for teams that keep
// their books in BigQuery. Null wrappers live only at this boundary;
// the domain model stays on plain optionals.
package bigquery

import (
	"math/big"
	"time"

	bq "cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/runwayhq/runway/internal/domain"
)

type transactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED

	Hash            string     `bigquery:"hash"`             // REQUIRED
	TransactionDate civil.Date `bigquery:"transaction_date"` // REQUIRED
	Amount          *big.Rat   `bigquery:"amount"`           // REQUIRED NUMERIC
	Direction       string     `bigquery:"direction"`        // REQUIRED

	Category    bq.NullString `bigquery:"category"`    // NULLABLE
	Subcategory bq.NullString `bigquery:"subcategory"` // NULLABLE

	BalanceAfter *big.Rat `bigquery:"balance_after"` // NULLABLE NUMERIC

	SourceLine        bq.NullInt64  `bigquery:"source_line"`
	SourceMarker      bq.NullString `bigquery:"source_marker"`
	SourcePostedAt    bq.NullString `bigquery:"source_posted_at"`
	SourceDescription bq.NullString `bigquery:"source_description"`
	SourceAmount      bq.NullString `bigquery:"source_amount"`
	SourceBalance     bq.NullString `bigquery:"source_balance"`

	CreatedTS time.Time `bigquery:"created_ts"`
}

type estimateRow struct {
	EstimateID string `bigquery:"estimate_id"` // REQUIRED

	Amount    *big.Rat   `bigquery:"amount"`     // REQUIRED NUMERIC
	Direction string     `bigquery:"direction"`  // REQUIRED
	WeekStart civil.Date `bigquery:"week_start"` // REQUIRED
	Scenario  string     `bigquery:"scenario"`   // REQUIRED

	Category    bq.NullString `bigquery:"category"`
	Description bq.NullString `bigquery:"description"`
	Notes       bq.NullString `bigquery:"notes"`

	IsRecurring      bool          `bigquery:"is_recurring"`
	RecurrencePeriod bq.NullString `bigquery:"recurrence_period"`

	CreatedTS time.Time `bigquery:"created_ts"`
	UpdatedTS time.Time `bigquery:"updated_ts"`
}

func toTransactionRow(tx domain.Transaction) *transactionRow {
	row := &transactionRow{
		TransactionID:     tx.ID,
		Hash:              tx.Hash,
		TransactionDate:   civil.DateOf(tx.Date.UTC()),
		Amount:            tx.Amount.Rat(),
		Direction:         string(tx.Direction),
		Category:          nullString(tx.Category),
		Subcategory:       nullString(tx.Subcategory),
		SourceLine:        bq.NullInt64{Int64: int64(tx.Source.Line), Valid: tx.Source.Line != 0},
		SourceMarker:      nullString(tx.Source.Marker),
		SourcePostedAt:    nullString(tx.Source.PostedAt),
		SourceDescription: nullString(tx.Source.Description),
		SourceAmount:      nullString(tx.Source.Amount),
		SourceBalance:     nullString(tx.Source.Balance),
		CreatedTS:         time.Now().UTC(),
	}
	if tx.BalanceAfter.Valid {
		row.BalanceAfter = tx.BalanceAfter.Decimal.Rat()
	}
	return row
}

func (r *transactionRow) toDomain() domain.Transaction {
	tx := domain.Transaction{
		ID:          r.TransactionID,
		Hash:        r.Hash,
		Date:        r.TransactionDate.In(time.UTC),
		Amount:      decimal.NewFromBigRat(r.Amount, 2),
		Direction:   domain.Direction(r.Direction),
		Category:    r.Category.StringVal,
		Subcategory: r.Subcategory.StringVal,
		Source: domain.SourceRow{
			Line:        int(r.SourceLine.Int64),
			Marker:      r.SourceMarker.StringVal,
			PostedAt:    r.SourcePostedAt.StringVal,
			Description: r.SourceDescription.StringVal,
			Amount:      r.SourceAmount.StringVal,
			Balance:     r.SourceBalance.StringVal,
		},
	}
	if r.BalanceAfter != nil {
		tx.BalanceAfter = decimal.NullDecimal{Decimal: decimal.NewFromBigRat(r.BalanceAfter, 2), Valid: true}
	}
	return tx
}

func toEstimateRow(e domain.Estimate) *estimateRow {
	return &estimateRow{
		EstimateID:       e.ID,
		Amount:           e.Amount.Rat(),
		Direction:        string(e.Direction),
		WeekStart:        civil.DateOf(e.WeekStart.UTC()),
		Scenario:         e.Scenario,
		Category:         nullString(e.Category),
		Description:      nullString(e.Description),
		Notes:            nullString(e.Notes),
		IsRecurring:      e.IsRecurring,
		RecurrencePeriod: nullString(string(e.RecurrencePeriod)),
		CreatedTS:        e.CreatedAt.UTC(),
		UpdatedTS:        e.UpdatedAt.UTC(),
	}
}

func (r *estimateRow) toDomain() domain.Estimate {
	return domain.Estimate{
		ID:               r.EstimateID,
		Amount:           decimal.NewFromBigRat(r.Amount, 2),
		Direction:        domain.Direction(r.Direction),
		WeekStart:        r.WeekStart.In(time.UTC),
		Scenario:         r.Scenario,
		Category:         r.Category.StringVal,
		Description:      r.Description.StringVal,
		Notes:            r.Notes.StringVal,
		IsRecurring:      r.IsRecurring,
		RecurrencePeriod: domain.RecurrencePeriod(r.RecurrencePeriod.StringVal),
		CreatedAt:        r.CreatedTS,
		UpdatedAt:        r.UpdatedTS,
	}
}

func nullString(s string) bq.NullString {
	return bq.NullString{StringVal: s, Valid: s != ""}
}
