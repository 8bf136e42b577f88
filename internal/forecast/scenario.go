package forecast

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/runwayhq/runway/internal/domain"
	"github.com/runwayhq/runway/internal/timeline"
)

// Adjustment is a scenario-wide tweak applied to projected inflows.
// Multiplier scales every expected amount; DelayDays pushes every
// estimated collection date out, reassigning the week when the delay
// crosses a Monday boundary.
type Adjustment struct {
	Multiplier float64 `json:"multiplier" toml:"multiplier"`
	DelayDays  int     `json:"delay_days" toml:"delay_days"`
}

// FilterScenario returns only the estimates tagged with the given
// scenario. An estimate never leaks across scenarios: requesting
// "pessimistic" excludes "base" rows and vice versa.
func FilterScenario(ests []domain.Estimate, scenario string) []domain.Estimate {
	if scenario == "" {
		scenario = domain.ScenarioBase
	}
	out := make([]domain.Estimate, 0, len(ests))
	for _, e := range ests {
		if e.Scenario == scenario {
			out = append(out, e)
		}
	}
	return out
}

// AdjustProjections applies a scenario adjustment to a copy of the
// projections. WeekNumber is recomputed from the shifted collection
// date, never patched incrementally, so it can never go stale against
// EstimatedCollectionDate.
func AdjustProjections(projs []domain.PaymentProjection, adj Adjustment, anchor time.Time) []domain.PaymentProjection {
	if adj.Multiplier == 0 && adj.DelayDays == 0 {
		return projs
	}
	mult := decimal.NewFromFloat(adj.Multiplier)
	if adj.Multiplier == 0 {
		mult = decimal.NewFromInt(1)
	}

	out := make([]domain.PaymentProjection, len(projs))
	for i, p := range projs {
		p.ExpectedAmount = p.ExpectedAmount.Mul(mult).Round(2)
		if adj.DelayDays != 0 {
			p.EstimatedCollectionDate = p.EstimatedCollectionDate.AddDate(0, 0, adj.DelayDays)
		}
		p.WeekNumber = timeline.WeekNumber(anchor, p.EstimatedCollectionDate)
		out[i] = p
	}
	return out
}

// BuildScenarios computes one bucket sequence per named scenario for
// side-by-side comparison. Estimates are filtered per scenario and the
// scenario's adjustment is applied to the shared projection list; all
// other input is common. Output is keyed by scenario name.
func BuildScenarios(in Input, adjustments map[string]Adjustment) map[string][]domain.WeekBucket {
	names := make([]string, 0, len(adjustments)+1)
	if _, ok := adjustments[domain.ScenarioBase]; !ok {
		names = append(names, domain.ScenarioBase)
	}
	for name := range adjustments {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string][]domain.WeekBucket, len(names))
	for _, name := range names {
		scoped := in
		scoped.Estimates = FilterScenario(in.Estimates, name)
		scoped.Projections = AdjustProjections(in.Projections, adjustments[name], in.Anchor)
		out[name] = Build(scoped)
	}
	return out
}
