package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/b2bmart/search-service/internal/service"
	"github.com/b2bmart/search-service/pkg/httputil"
	"github.com/b2bmart/search-service/pkg/validator"
)

// Reindexer triggers a full index rebuild from the catalog service.
type Reindexer interface {
	Reindex(ctx context.Context) (int, error)
}

// BulkIndexRequest is the JSON request body for bulk indexing listings.
type BulkIndexRequest struct {
	Listings []service.IndexListingInput `json:"listings" validate:"required,min=1,max=500,dive"`
}

// InternalHandler handles the internal indexing endpoints. Unlike the
// public API these are strict: invalid payloads are rejected.
type InternalHandler struct {
	service   *service.SearchService
	reindexer Reindexer
	logger    *slog.Logger
}

// NewInternalHandler creates a handler for the internal indexing API.
func NewInternalHandler(svc *service.SearchService, reindexer Reindexer, logger *slog.Logger) *InternalHandler {
	return &InternalHandler{
		service:   svc,
		reindexer: reindexer,
		logger:    logger,
	}
}

// IndexListing handles POST /internal/listings
func (h *InternalHandler) IndexListing(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req service.IndexListingInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.service.IndexListing(r.Context(), &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"id": req.ID, "status": "indexed"}})
}

// BulkIndex handles POST /internal/listings/bulk
func (h *InternalHandler) BulkIndex(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20) // 10MB limit for bulk endpoint

	var req BulkIndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.service.BulkIndex(r.Context(), req.Listings); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{"indexed": len(req.Listings), "status": "ok"}})
}

// DeleteListing handles DELETE /internal/listings/{id}
func (h *InternalHandler) DeleteListing(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "id must be a valid UUID"},
		})
		return
	}

	if err := h.service.DeleteListing(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"id": id.String(), "status": "deleted"}})
}

// Reindex handles POST /internal/reindex
func (h *InternalHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	if h.reindexer == nil {
		httputil.WriteJSON(w, http.StatusServiceUnavailable, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "UNAVAILABLE", Message: "reindexing is not configured"},
		})
		return
	}

	go func() {
		ctx := context.Background()
		indexed, err := h.reindexer.Reindex(ctx)
		if err != nil {
			h.logger.ErrorContext(ctx, "background reindex failed",
				slog.Int("indexed", indexed),
				slog.String("error", err.Error()),
			)
		}
	}()

	httputil.WriteJSON(w, http.StatusAccepted, httputil.Response{Data: map[string]string{"status": "reindex started"}})
}
