package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/runwayhq/runway/internal/api/middleware"
	"github.com/runwayhq/runway/internal/categorize"
	"github.com/runwayhq/runway/internal/domain"
	"github.com/runwayhq/runway/internal/jobs"
)

// CategoriesHandler exposes the rule table's category vocabulary so the
// dashboard can offer it in dropdowns.
type CategoriesHandler struct{}

func (h *CategoriesHandler) List(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string][]string{
		"inflow":  categorize.Categories(domain.Inflow),
		"outflow": categorize.Categories(domain.Outflow),
	})
}

// JobsHandler serves background job status.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

func NewJobsHandler(st jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{store: st, log: log}
}

// List handles GET /api/jobs with optional import_id and status.
func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := jobs.JobFilter{
		ImportID: r.URL.Query().Get("import_id"),
		Status:   jobs.JobStatus(r.URL.Query().Get("status")),
	}

	list, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  list,
		"count": len(list),
	})
}

// Get handles GET /api/jobs/{id}.
func (h *JobsHandler) Get(w http.ResponseWriter, r *http.Request, id string) {
	job, err := h.store.GetJob(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Job not found")
			return
		}
		h.log.Error().Err(err).Str("job_id", id).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get job")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, job)
}

// Health responds to liveness probes.
func Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
