package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/b2bmart/search-service/internal/service"
	"github.com/b2bmart/search-service/pkg/health"
	"github.com/b2bmart/search-service/pkg/middleware"
)

// facetCacheMaxAge is how long clients may cache facet previews. Facet
// counts drift as listings are indexed, so this stays short.
const facetCacheMaxAge = 60

// NewRouter creates a chi router with all search service routes registered.
func NewRouter(
	searchService *service.SearchService,
	reindexer Reindexer,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.Tracing("search"))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics("search"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	searchHandler := NewSearchHandler(searchService, logger)
	internalHandler := NewInternalHandler(searchService, reindexer, logger)

	// Public search API
	r.Get("/search", searchHandler.Search)
	r.With(middleware.CacheControl(facetCacheMaxAge)).Get("/facets", searchHandler.Facets)

	// Internal indexing API, called by the catalog service and ops tooling.
	r.Route("/internal", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Post("/listings", internalHandler.IndexListing)
		r.Post("/listings/bulk", internalHandler.BulkIndex)
		r.Delete("/listings/{id}", internalHandler.DeleteListing)
		r.Post("/reindex", internalHandler.Reindex)
	})

	return r
}

// ContentTypeJSON sets the response content type for the internal API group.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
