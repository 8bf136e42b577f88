package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/runwayhq/runway/internal/api/middleware"
	"github.com/runwayhq/runway/internal/domain"
	"github.com/runwayhq/runway/internal/forecast"
	"github.com/runwayhq/runway/internal/metrics"
	"github.com/runwayhq/runway/internal/receivables"
	"github.com/runwayhq/runway/internal/store"
	"github.com/runwayhq/runway/internal/timeline"
)

// ForecastHandler computes the rolling cashflow forecast on demand.
// Receivable projections are pushed in by an external feed via
// SetReceivables and cached until the next push; the forecast itself is
// recomputed from the store on every request.
type ForecastHandler struct {
	store     store.Store
	window    timeline.Window
	scenarios map[string]forecast.Adjustment
	metrics   *metrics.Metrics
	log       zerolog.Logger

	// now is swappable for tests.
	now func() time.Time

	mu          sync.RWMutex
	projections []domain.PaymentProjection
}

func NewForecastHandler(st store.Store, window timeline.Window, scenarios map[string]forecast.Adjustment, m *metrics.Metrics, log zerolog.Logger) *ForecastHandler {
	return &ForecastHandler{
		store:     st,
		window:    window,
		scenarios: scenarios,
		metrics:   m,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Get handles GET /api/forecast.
//
// Query params: scenario (default base), past/future (window override),
// starting_balance and balance_as_of (YYYY-MM-DD) to seed the running
// balance.
func (h *ForecastHandler) Get(w http.ResponseWriter, r *http.Request) {
	in, err := h.buildInput(r)
	if err != nil {
		h.writeInputError(w, err)
		return
	}

	scenario := r.URL.Query().Get("scenario")
	if scenario == "" {
		scenario = domain.ScenarioBase
	}
	if scenario != domain.ScenarioBase {
		if _, ok := h.scenarios[scenario]; !ok {
			middleware.WriteError(w, http.StatusNotFound, "Unknown scenario")
			return
		}
	}

	in.Estimates = forecast.FilterScenario(in.Estimates, scenario)
	in.Projections = forecast.AdjustProjections(in.Projections, h.scenarios[scenario], in.Anchor)

	start := time.Now()
	buckets := forecast.Build(*in)
	h.observeBuild(time.Since(start))

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"scenario":  scenario,
		"generated": in.Anchor,
		"weeks":     buckets,
	})
}

// Compare handles GET /api/forecast/scenarios: every configured
// scenario side by side over the same transactions and window.
func (h *ForecastHandler) Compare(w http.ResponseWriter, r *http.Request) {
	in, err := h.buildInput(r)
	if err != nil {
		h.writeInputError(w, err)
		return
	}

	start := time.Now()
	byScenario := forecast.BuildScenarios(*in, h.scenarios)
	h.observeBuild(time.Since(start))

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"generated": in.Anchor,
		"scenarios": byScenario,
	})
}

// SetReceivables handles POST /api/receivables: the external invoice
// feed pushes its current outstanding invoices and gets back the
// projections derived from them. Settled invoices are dropped here.
func (h *ForecastHandler) SetReceivables(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Invoices []domain.Invoice `json:"invoices"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	now := h.now()
	projs := receivables.ToProjections(req.Invoices, timeline.WeekStart(now), now)

	h.mu.Lock()
	h.projections = projs
	h.mu.Unlock()

	h.log.Info().Int("invoices", len(req.Invoices)).Int("projections", len(projs)).Msg("Receivables updated")
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"projections": projs,
		"count":       len(projs),
	})
}

// buildInput assembles the common forecast input: shells for the
// requested window, every transaction inside it, every estimate (all
// scenarios; filtering happens per build), and the cached projections.
func (h *ForecastHandler) buildInput(r *http.Request) (*forecast.Input, error) {
	now := h.now()

	window := h.window
	if v := r.URL.Query().Get("past"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, &queryError{"past must be a non-negative integer"}
		}
		window.Past = n
	}
	if v := r.URL.Query().Get("future"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, &queryError{"future must be a non-negative integer"}
		}
		window.Future = n
	}

	shells := timeline.Generate(now, now, window)

	startingBalance := decimal.Zero
	if v := r.URL.Query().Get("starting_balance"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, &queryError{"starting_balance must be a decimal number"}
		}
		startingBalance = d
	}
	balanceAsOf := now
	if v := r.URL.Query().Get("balance_as_of"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return nil, &queryError{"balance_as_of must be YYYY-MM-DD"}
		}
		balanceAsOf = t
	}

	ctx := r.Context()
	txs, err := h.store.ListTransactions(ctx, store.Filter{
		From: shells[0].Start,
		To:   shells[len(shells)-1].End,
	})
	if err != nil {
		return nil, err
	}
	// Estimates are listed without date bounds: recurring items
	// anchored before the window still generate occurrences inside it.
	ests, err := h.store.ListEstimates(ctx, store.Filter{})
	if err != nil {
		return nil, err
	}

	h.mu.RLock()
	projs := h.projections
	h.mu.RUnlock()

	return &forecast.Input{
		Shells:          shells,
		Transactions:    txs,
		Estimates:       ests,
		Projections:     projs,
		StartingBalance: startingBalance,
		BalanceAsOf:     balanceAsOf,
		Anchor:          now,
		Log:             h.log,
	}, nil
}

// writeInputError maps bad query params to 400 and store failures to 500.
func (h *ForecastHandler) writeInputError(w http.ResponseWriter, err error) {
	var qe *queryError
	if errors.As(err, &qe) {
		middleware.WriteError(w, http.StatusBadRequest, qe.Error())
		return
	}
	h.log.Error().Err(err).Msg("Failed to assemble forecast input")
	middleware.WriteError(w, http.StatusInternalServerError, "Failed to build forecast")
}

func (h *ForecastHandler) observeBuild(d time.Duration) {
	if h.metrics == nil {
		return
	}
	h.metrics.ForecastBuilds.Inc()
	h.metrics.ForecastDuration.Observe(d.Seconds())
}
