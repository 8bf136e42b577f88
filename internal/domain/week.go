package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WeekStatus says whether a week has fully elapsed, contains the current
// instant, or lies entirely in the future. It is derived from the week's
// end against real time, not from the sign of the week number.
type WeekStatus string

const (
	WeekPast    WeekStatus = "past"
	WeekCurrent WeekStatus = "current"
	WeekFuture  WeekStatus = "future"
)

// WeekBucket is one row of the rolling timeline. It is entirely computed;
// it is never persisted and never partially mutated.
//
// Invariants:
//   - past buckets: TotalInflow == ActualInflow and TotalOutflow == ActualOutflow
//   - current/future buckets: totals include estimated and projected flows
//   - RunningBalance[i] == RunningBalance[i-1] + NetCashflow[i]
type WeekBucket struct {
	WeekNumber int        `json:"week_number"`
	WeekStart  time.Time  `json:"week_start"`
	WeekEnd    time.Time  `json:"week_end"`
	Status     WeekStatus `json:"status"`

	ActualInflow     decimal.Decimal `json:"actual_inflow"`
	ActualOutflow    decimal.Decimal `json:"actual_outflow"`
	EstimatedInflow  decimal.Decimal `json:"estimated_inflow"`
	EstimatedOutflow decimal.Decimal `json:"estimated_outflow"`
	ProjectedInflow  decimal.Decimal `json:"projected_inflow"`

	TotalInflow    decimal.Decimal `json:"total_inflow"`
	TotalOutflow   decimal.Decimal `json:"total_outflow"`
	NetCashflow    decimal.Decimal `json:"net_cashflow"`
	RunningBalance decimal.Decimal `json:"running_balance"`

	// Forecast accuracy for past buckets that carried estimates,
	// as (actual - estimated) / estimated * 100. Zero when no estimate
	// existed, never NaN or infinite.
	InflowVariancePct  decimal.Decimal `json:"inflow_variance_pct"`
	OutflowVariancePct decimal.Decimal `json:"outflow_variance_pct"`

	Transactions []Transaction       `json:"transactions,omitempty"`
	Estimates    []Estimate          `json:"estimates,omitempty"`
	Projections  []PaymentProjection `json:"projections,omitempty"`
}
