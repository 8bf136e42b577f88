// Package handlers implements the HTTP endpoints: CSV import
// preview/commit, transaction and estimate CRUD, forecast and scenario
// computation, and job status.
package handlers

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/runwayhq/runway/internal/api/middleware"
	"github.com/runwayhq/runway/internal/domain"
	"github.com/runwayhq/runway/internal/importer"
	"github.com/runwayhq/runway/internal/jobs"
	"github.com/runwayhq/runway/internal/metrics"
)

// maxUploadBytes bounds one CSV upload.
const maxUploadBytes = 16 << 20

// ImportsHandler drives the preview/commit import flow. Previews are
// held in memory keyed by id until committed or abandoned; nothing is
// persisted before an explicit commit.
type ImportsHandler struct {
	svc       *importer.Service
	publisher jobs.Publisher
	metrics   *metrics.Metrics
	log       zerolog.Logger

	mu       sync.Mutex
	previews map[string]*pendingImport
}

type pendingImport struct {
	preview  *importer.Preview
	filename string
	raw      []byte
}

func NewImportsHandler(svc *importer.Service, publisher jobs.Publisher, m *metrics.Metrics, log zerolog.Logger) *ImportsHandler {
	return &ImportsHandler{
		svc:       svc,
		publisher: publisher,
		metrics:   m,
		log:       log,
		previews:  make(map[string]*pendingImport),
	}
}

// Preview handles POST /api/imports/preview. The body is the raw CSV;
// the original filename may be passed in X-Filename.
func (h *ImportsHandler) Preview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Failed to read upload")
		return
	}
	if len(raw) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "Empty upload")
		return
	}

	preview, err := h.svc.Preview(ctx, bytes.NewReader(raw))
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			middleware.WriteError(w, http.StatusUnprocessableEntity, verr.Error())
			return
		}
		h.log.Error().Err(err).Msg("Import preview failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Preview failed")
		return
	}

	if h.metrics != nil {
		h.metrics.ObserveImport(preview.Counts.Unique, preview.Counts.Duplicate, preview.Counts.Errored)
	}

	id := uuid.NewString()
	h.mu.Lock()
	h.previews[id] = &pendingImport{
		preview:  preview,
		filename: r.Header.Get("X-Filename"),
		raw:      raw,
	}
	h.mu.Unlock()

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"preview_id":   id,
		"counts":       preview.Counts,
		"transactions": preview.Transactions,
		"removed":      preview.Removed,
		"row_errors":   preview.RowErrors,
	})
}

// Commit handles POST /api/imports/{id}/commit. On success the raw
// upload is archived asynchronously; archive failures never fail the
// commit.
func (h *ImportsHandler) Commit(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()

	h.mu.Lock()
	pending, ok := h.previews[id]
	h.mu.Unlock()
	if !ok {
		middleware.WriteError(w, http.StatusNotFound, "Unknown preview")
		return
	}

	if err := h.svc.Commit(ctx, pending.preview); err != nil {
		// The preview stays available for retry.
		h.log.Error().Err(err).Str("preview_id", id).Msg("Import commit failed")
		middleware.WriteError(w, http.StatusBadGateway, "Commit failed, preview retained")
		return
	}

	h.mu.Lock()
	delete(h.previews, id)
	h.mu.Unlock()

	if h.publisher != nil {
		job := &jobs.ArchiveUploadJob{
			ImportID: id,
			Filename: pending.filename,
			Data:     pending.raw,
		}
		if err := h.publisher.PublishArchiveUpload(ctx, job); err != nil {
			h.log.Warn().Err(err).Str("import_id", id).Msg("Failed to enqueue archive job")
		}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"imported": pending.preview.Counts.Unique,
	})
}

// Abandon handles DELETE /api/imports/{id}. Dropping an unconfirmed
// preview leaves no trace; nothing was written.
func (h *ImportsHandler) Abandon(w http.ResponseWriter, r *http.Request, id string) {
	h.mu.Lock()
	_, ok := h.previews[id]
	delete(h.previews, id)
	h.mu.Unlock()

	if !ok {
		middleware.WriteError(w, http.StatusNotFound, "Unknown preview")
		return
	}
	middleware.WriteJSON(w, http.StatusNoContent, nil)
}
