package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/runwayhq/runway/internal/api/middleware"
	"github.com/runwayhq/runway/internal/domain"
	"github.com/runwayhq/runway/internal/store"
	"github.com/runwayhq/runway/internal/timeline"
)

// EstimatesHandler serves the user-authored estimate line items.
type EstimatesHandler struct {
	store store.Store
	log   zerolog.Logger
}

func NewEstimatesHandler(st store.Store, log zerolog.Logger) *EstimatesHandler {
	return &EstimatesHandler{store: st, log: log}
}

// List handles GET /api/estimates with optional scenario/from/to.
func (h *EstimatesHandler) List(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ests, err := h.store.ListEstimates(r.Context(), f)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list estimates")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list estimates")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"estimates": ests,
		"count":     len(ests),
	})
}

// Put handles POST and PUT /api/estimates. New estimates get an id;
// existing ids are upserted. WeekStart is realigned to its Monday so
// callers may send any date inside the intended week.
func (h *EstimatesHandler) Put(w http.ResponseWriter, r *http.Request) {
	var est domain.Estimate
	if err := json.NewDecoder(r.Body).Decode(&est); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validateEstimate(&est); err != nil {
		middleware.WriteError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	now := time.Now().UTC()
	if est.ID == "" {
		est.ID = uuid.NewString()
		est.CreatedAt = now
	}
	est.UpdatedAt = now
	if est.Scenario == "" {
		est.Scenario = domain.ScenarioBase
	}
	est.WeekStart = timeline.WeekStart(est.WeekStart)

	if err := h.store.PutEstimates(r.Context(), []domain.Estimate{est}); err != nil {
		h.log.Error().Err(err).Msg("Failed to save estimate")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save estimate")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, est)
}

// Delete handles DELETE /api/estimates/{id}.
func (h *EstimatesHandler) Delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.DeleteEstimates(r.Context(), []string{id}); err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("Failed to delete estimate")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to delete estimate")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

func validateEstimate(est *domain.Estimate) error {
	switch est.Direction {
	case domain.Inflow, domain.Outflow:
	default:
		return &queryError{"direction must be inflow or outflow"}
	}
	if est.Amount.IsNegative() {
		return &queryError{"amount must not be negative"}
	}
	if est.WeekStart.IsZero() {
		return &queryError{"week_start is required"}
	}
	if est.IsRecurring {
		switch est.RecurrencePeriod {
		case domain.RecurWeekly, domain.RecurBiweekly, domain.RecurMonthly:
		default:
			return &queryError{"recurrence_period must be weekly, biweekly or monthly"}
		}
	}
	return nil
}
