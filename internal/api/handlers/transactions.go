package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/runwayhq/runway/internal/api/middleware"
	"github.com/runwayhq/runway/internal/store"
)

// TransactionsHandler serves the persisted transaction ledger.
type TransactionsHandler struct {
	store store.Store
	log   zerolog.Logger
}

func NewTransactionsHandler(st store.Store, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{store: st, log: log}
}

// List handles GET /api/transactions with optional from/to date bounds.
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	txs, err := h.store.ListTransactions(r.Context(), f)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"count":        len(txs),
	})
}

// Delete handles DELETE /api/transactions with a JSON body of ids.
func (h *TransactionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.IDs) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "No ids given")
		return
	}

	if err := h.store.DeleteTransactions(r.Context(), req.IDs); err != nil {
		h.log.Error().Err(err).Msg("Failed to delete transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to delete transactions")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]int{"deleted": len(req.IDs)})
}

// filterFromQuery reads the shared scenario/from/to query params.
func filterFromQuery(r *http.Request) (store.Filter, error) {
	f := store.Filter{Scenario: r.URL.Query().Get("scenario")}

	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return f, &queryError{"from must be YYYY-MM-DD"}
		}
		f.From = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return f, &queryError{"to must be YYYY-MM-DD"}
		}
		f.To = t
	}
	return f, nil
}

type queryError struct{ msg string }

func (e *queryError) Error() string { return e.msg }
