// Package forecast fills the rolling week timeline with money: actual
// flows from imported transactions, estimated flows from user-entered
// line items, projected inflows from receivables, and the running
// balance threaded through all of it. Build is a pure function of its
// input; it is recomputed from scratch on every change and never keeps
// state between calls.
package forecast

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/runwayhq/runway/internal/domain"
	"github.com/runwayhq/runway/internal/timeline"
)

var hundred = decimal.NewFromInt(100)

// Input carries everything a forecast computation depends on.
// StartingBalance is the balance known to be true as of BalanceAsOf;
// Build re-derives the opening seed from it so balance continuity
// holds no matter how many past weeks the window shows.
type Input struct {
	Shells       []timeline.WeekShell
	Transactions []domain.Transaction
	Estimates    []domain.Estimate
	Projections  []domain.PaymentProjection

	StartingBalance decimal.Decimal
	BalanceAsOf     time.Time
	Anchor          time.Time

	Log zerolog.Logger
}

// Build computes one bucket per shell. Buckets always exist once a
// window is requested, even when every input collection is empty.
//
// Totals follow the status rule: a past week's totals are its actuals
// only, while current and future weeks add estimated and projected
// flows on top of whatever has already posted. Past weeks that carried
// estimates also report the per-direction variance of actuals against
// them.
func Build(in Input) []domain.WeekBucket {
	buckets := make([]domain.WeekBucket, len(in.Shells))
	for i, s := range in.Shells {
		buckets[i] = domain.WeekBucket{
			WeekNumber: s.Number,
			WeekStart:  s.Start,
			WeekEnd:    s.End,
			Status:     s.Status,
		}
	}

	bucketTransactions(buckets, in.Transactions)
	bucketEstimates(buckets, expandRecurring(in.Estimates, in.Shells), in.Log)
	bucketProjections(buckets, in.Projections)

	for i := range buckets {
		b := &buckets[i]

		for _, tx := range b.Transactions {
			if tx.Direction == domain.Inflow {
				b.ActualInflow = b.ActualInflow.Add(tx.Amount)
			} else {
				b.ActualOutflow = b.ActualOutflow.Add(tx.Amount)
			}
		}
		for _, e := range b.Estimates {
			if e.Direction == domain.Inflow {
				b.EstimatedInflow = b.EstimatedInflow.Add(e.Amount)
			} else {
				b.EstimatedOutflow = b.EstimatedOutflow.Add(e.Amount)
			}
		}
		for _, p := range b.Projections {
			b.ProjectedInflow = b.ProjectedInflow.Add(p.ExpectedAmount)
		}

		if b.Status == domain.WeekPast {
			b.TotalInflow = b.ActualInflow
			b.TotalOutflow = b.ActualOutflow
			b.InflowVariancePct = variancePct(b.ActualInflow, b.EstimatedInflow)
			b.OutflowVariancePct = variancePct(b.ActualOutflow, b.EstimatedOutflow)
		} else {
			b.TotalInflow = b.ActualInflow.Add(b.EstimatedInflow).Add(b.ProjectedInflow)
			b.TotalOutflow = b.ActualOutflow.Add(b.EstimatedOutflow)
		}
		b.NetCashflow = b.TotalInflow.Sub(b.TotalOutflow)
	}

	balance := openingSeed(buckets, in.StartingBalance, in.BalanceAsOf)
	for i := range buckets {
		balance = balance.Add(buckets[i].NetCashflow)
		buckets[i].RunningBalance = balance
	}

	return buckets
}

// openingSeed converts the known balance at BalanceAsOf into the
// balance just before the window's first bucket, by backing out the
// net actual flow of every bucket that had already completed when the
// balance was observed.
func openingSeed(buckets []domain.WeekBucket, known decimal.Decimal, asOf time.Time) decimal.Decimal {
	asOfWeek := timeline.WeekStart(asOf)
	seed := known
	for i := range buckets {
		if !buckets[i].WeekStart.Before(asOfWeek) {
			break
		}
		net := buckets[i].ActualInflow.Sub(buckets[i].ActualOutflow)
		seed = seed.Sub(net)
	}
	return seed
}

func variancePct(actual, estimated decimal.Decimal) decimal.Decimal {
	if estimated.IsZero() {
		return decimal.Zero
	}
	return actual.Sub(estimated).Div(estimated).Mul(hundred)
}

func bucketTransactions(buckets []domain.WeekBucket, txs []domain.Transaction) {
	for _, tx := range txs {
		for i := range buckets {
			if !tx.Date.Before(buckets[i].WeekStart) && !tx.Date.After(buckets[i].WeekEnd) {
				buckets[i].Transactions = append(buckets[i].Transactions, tx)
				break
			}
		}
	}
}

func bucketEstimates(buckets []domain.WeekBucket, ests []domain.Estimate, log zerolog.Logger) {
	for _, e := range ests {
		anchor := timeline.WeekStart(e.WeekStart)
		placed := false
		for i := range buckets {
			if buckets[i].WeekStart.Equal(anchor) {
				buckets[i].Estimates = append(buckets[i].Estimates, e)
				placed = true
				break
			}
		}
		if !placed {
			log.Warn().
				Str("estimate_id", e.ID).
				Time("week_start", e.WeekStart).
				Msg("estimate outside forecast window, excluded")
		}
	}
}

func bucketProjections(buckets []domain.WeekBucket, projs []domain.PaymentProjection) {
	for _, p := range projs {
		for i := range buckets {
			if buckets[i].WeekNumber == p.WeekNumber {
				buckets[i].Projections = append(buckets[i].Projections, p)
				break
			}
		}
	}
}

// expandRecurring materializes the repeat occurrences of recurring
// estimates into the windowed weeks after their anchor. The original
// occurrence stays in its own week; copies carry the same id so the
// audit trail leads back to the authored line item.
func expandRecurring(ests []domain.Estimate, shells []timeline.WeekShell) []domain.Estimate {
	if len(shells) == 0 {
		return ests
	}
	horizon := shells[len(shells)-1].End

	out := make([]domain.Estimate, len(ests))
	copy(out, ests)
	for _, e := range ests {
		if !e.IsRecurring {
			continue
		}
		next := advance(e.WeekStart, e.RecurrencePeriod)
		for !next.After(horizon) {
			occ := e
			occ.WeekStart = timeline.WeekStart(next)
			out = append(out, occ)
			next = advance(next, e.RecurrencePeriod)
		}
	}
	return out
}

func advance(t time.Time, period domain.RecurrencePeriod) time.Time {
	switch period {
	case domain.RecurWeekly:
		return t.AddDate(0, 0, 7)
	case domain.RecurBiweekly:
		return t.AddDate(0, 0, 14)
	case domain.RecurMonthly:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 7)
	}
}
