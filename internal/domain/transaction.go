package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction classifies which way money moved.
type Direction string

const (
	Inflow  Direction = "inflow"
	Outflow Direction = "outflow"
)

// SourceRow is the raw imported record a transaction was built from.
// It is retained verbatim for audit and debugging.
type SourceRow struct {
	Line        int    `json:"line"`
	Marker      string `json:"marker"`
	PostedAt    string `json:"posted_at"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Balance     string `json:"balance"`
}

// Transaction is an immutable fact of settled money movement.
// Amount is always a non-negative magnitude; Direction carries the sign.
// Hash is a deterministic function of (normalized date, amount, description)
// and is stable across re-imports of the same logical event.
type Transaction struct {
	ID          string          `json:"id"`
	Hash        string          `json:"hash"`
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Direction   Direction       `json:"direction"`
	Category    string          `json:"category"`
	Subcategory string          `json:"subcategory,omitempty"`
	// BalanceAfter is the running balance the bank reported after this
	// transaction posted. Not part of the dedup hash.
	BalanceAfter decimal.NullDecimal `json:"balance_after"`
	Source       SourceRow           `json:"source"`
}

// Net returns the signed cashflow contribution of the transaction.
func (t Transaction) Net() decimal.Decimal {
	if t.Direction == Outflow {
		return t.Amount.Neg()
	}
	return t.Amount
}
