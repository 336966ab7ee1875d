package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/b2bmart/search-service/pkg/httpclient"
)

// defaultReindexBatchSize is how many listings one catalog page fetch pulls.
const defaultReindexBatchSize = 500

// catalogHTTP is the slice of the HTTP client the reindexer needs. The
// production implementation is the circuit-broken client, so a flapping
// catalog service stops a reindex instead of hammering it.
type catalogHTTP interface {
	Get(ctx context.Context, url string) (*http.Response, error)
}

// ReindexService rebuilds the search index from the catalog service's
// listing export endpoint.
type ReindexService struct {
	client    catalogHTTP
	baseURL   string
	batchSize int
	search    *SearchService
	logger    *slog.Logger
}

// NewReindexService creates a reindexer that pulls listings from the catalog
// service at baseURL. batchSize below 1 falls back to the default.
func NewReindexService(client catalogHTTP, baseURL string, batchSize int, search *SearchService, logger *slog.Logger) *ReindexService {
	if batchSize < 1 {
		batchSize = defaultReindexBatchSize
	}
	return &ReindexService{
		client:    client,
		baseURL:   baseURL,
		batchSize: batchSize,
		search:    search,
		logger:    logger,
	}
}

// catalogPage is one page of the catalog service's listing export.
type catalogPage struct {
	Items []IndexListingInput `json:"items"`
	Total int                 `json:"total"`
	Page  int                 `json:"page"`
}

// Reindex walks the catalog's listing export page by page and bulk-indexes
// each batch. It returns the number of listings indexed. A page fetch or
// bulk index failure aborts the run; already-indexed pages stay indexed.
func (r *ReindexService) Reindex(ctx context.Context) (int, error) {
	indexed := 0

	for page := 1; ; page++ {
		items, total, err := r.fetchPage(ctx, page)
		if err != nil {
			return indexed, fmt.Errorf("reindex page %d: %w", page, err)
		}
		if len(items) == 0 {
			break
		}

		if err := r.search.BulkIndex(ctx, items); err != nil {
			return indexed, fmt.Errorf("reindex page %d: %w", page, err)
		}
		indexed += len(items)

		r.logger.InfoContext(ctx, "reindex batch complete",
			slog.Int("page", page),
			slog.Int("indexed", indexed),
			slog.Int("total", total),
		)

		if indexed >= total || len(items) < r.batchSize {
			break
		}
	}

	r.logger.InfoContext(ctx, "reindex finished", slog.Int("indexed", indexed))
	return indexed, nil
}

func (r *ReindexService) fetchPage(ctx context.Context, page int) ([]IndexListingInput, int, error) {
	url := fmt.Sprintf("%s/internal/listings?page=%d&limit=%d", r.baseURL, page, r.batchSize)

	resp, err := r.client.Get(ctx, url)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch catalog listings: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, httpclient.ParseResponseError(resp)
	}

	var p catalogPage
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, 0, fmt.Errorf("decode catalog listings page: %w", err)
	}
	return p.Items, p.Total, nil
}
