package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/b2bmart/search-service/internal/domain"
	"github.com/b2bmart/search-service/internal/service"
	"github.com/b2bmart/search-service/pkg/httputil"
	"github.com/b2bmart/search-service/pkg/pagination"
)

// SearchHandler handles the public search endpoints. The public API is
// deliberately forgiving: malformed filters degrade to no filters, unknown
// sort values degrade to relevance, and bad paging values fall back to
// defaults. A storefront request never fails over a bad query string.
type SearchHandler struct {
	service *service.SearchService
	logger  *slog.Logger
}

// NewSearchHandler creates a new public search HTTP handler.
func NewSearchHandler(svc *service.SearchService, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		service: svc,
		logger:  logger,
	}
}

// Search handles GET /search
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := pagination.FromRequest(r)

	in := service.SearchInput{
		Q:            q.Get("q"),
		CategorySlug: q.Get("category"),
		Filters:      h.parseFilters(r.Context(), q.Get("filters")),
		Page:         page.Page,
		Limit:        page.Limit,
		Sort:         domain.ParseSortMode(q.Get("sort")),
	}

	resp, err := h.service.Search(r.Context(), in)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "search request failed", "error", err)
		httputil.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "search failed"})
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// Facets handles GET /facets
func (h *SearchHandler) Facets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	in := service.FacetsInput{
		Q:            q.Get("q"),
		CategorySlug: q.Get("category"),
		Filters:      h.parseFilters(r.Context(), q.Get("filters")),
		Limit:        parsePositiveInt(q.Get("limit")),
	}

	resp, err := h.service.Facets(r.Context(), in)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "facets request failed", "error", err)
		httputil.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load facets"})
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// parseFilters decodes the filters query parameter. Anything that is not a
// JSON object is treated as no filters.
func (h *SearchHandler) parseFilters(ctx context.Context, raw string) map[string]any {
	if raw == "" {
		return nil
	}
	var filters map[string]any
	if err := json.Unmarshal([]byte(raw), &filters); err != nil {
		h.logger.WarnContext(ctx, "ignoring malformed filters parameter",
			slog.String("filters", raw),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return filters
}

// parsePositiveInt returns the parsed value, or 0 when the value is missing
// or unusable so the service applies its default.
func parsePositiveInt(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0
	}
	return n
}
