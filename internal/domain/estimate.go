package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ScenarioBase is the default scenario estimates belong to.
const ScenarioBase = "base"

// RecurrencePeriod is how often a recurring estimate repeats.
type RecurrencePeriod string

const (
	RecurWeekly   RecurrencePeriod = "weekly"
	RecurBiweekly RecurrencePeriod = "biweekly"
	RecurMonthly  RecurrencePeriod = "monthly"
)

// Estimate is a user-authored forward-looking line item.
//
// WeekStart is the estimate's week anchor: the Monday-aligned start date
// of the week it belongs to. Relative week numbers are never persisted;
// they are derived from the anchor date at computation time so estimates
// do not go stale as the rolling window advances.
type Estimate struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Direction   Direction       `json:"direction"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Notes       string          `json:"notes,omitempty"`
	WeekStart   time.Time       `json:"week_start"`

	Scenario         string           `json:"scenario"`
	IsRecurring      bool             `json:"is_recurring"`
	RecurrencePeriod RecurrencePeriod `json:"recurrence_period,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Net returns the signed cashflow contribution of the estimate.
func (e Estimate) Net() decimal.Decimal {
	if e.Direction == Outflow {
		return e.Amount.Neg()
	}
	return e.Amount
}
