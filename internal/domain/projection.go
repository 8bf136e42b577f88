package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Confidence grades how likely a receivable is to be collected on time.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Invoice is the record shape consumed from the external receivables
// feed. The core never fetches these itself.
type Invoice struct {
	InvoiceNumber string          `json:"invoice_number"`
	ClientName    string          `json:"client_name"`
	DueDate       time.Time       `json:"due_date"`
	AmountDue     decimal.Decimal `json:"amount_due"`
	Status        string          `json:"status"`
}

// PaymentProjection is an expected future inflow derived from an
// outstanding invoice. WeekNumber must always agree with
// EstimatedCollectionDate under the rolling-week anchoring; any
// adjustment that moves the collection date recomputes the week.
type PaymentProjection struct {
	InvoiceNumber           string          `json:"invoice_number"`
	ClientName              string          `json:"client_name"`
	ExpectedAmount          decimal.Decimal `json:"expected_amount"`
	OriginalDueDate         time.Time       `json:"original_due_date"`
	EstimatedCollectionDate time.Time       `json:"estimated_collection_date"`
	Confidence              Confidence      `json:"confidence"`
	// DaysUntilDue is negative when the invoice is overdue.
	DaysUntilDue int `json:"days_until_due"`
	WeekNumber   int `json:"week_number"`
}
