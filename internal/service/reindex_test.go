package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b2bmart/search-service/internal/domain"
	"github.com/b2bmart/search-service/internal/engine/memory"
	"github.com/b2bmart/search-service/internal/facet"
	"github.com/b2bmart/search-service/internal/query"
	apperrors "github.com/b2bmart/search-service/pkg/errors"
)

type noopResolver struct{}

func (noopResolver) GetBySlug(context.Context, string) (*domain.Category, error) {
	return nil, apperrors.ErrNotFound
}

func newTestSearchService(eng *memory.Engine) *SearchService {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewSearchService(eng, query.New(noopResolver{}, logger), facet.New(eng, logger, 4), logger)
}

// stubCatalog serves a fixed set of listings through the paginated catalog
// export contract.
type stubCatalog struct {
	listings []IndexListingInput
	calls    int
	failPage int
}

func (s *stubCatalog) Get(_ context.Context, rawURL string) (*http.Response, error) {
	s.calls++

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	page, _ := strconv.Atoi(u.Query().Get("page"))
	limit, _ := strconv.Atoi(u.Query().Get("limit"))

	if s.failPage > 0 && page == s.failPage {
		return &http.Response{
			StatusCode: http.StatusServiceUnavailable,
			Body:       io.NopCloser(strings.NewReader(`{"error":{"code":"UNAVAILABLE","message":"catalog down"}}`)),
		}, nil
	}

	start := (page - 1) * limit
	end := start + limit
	if start > len(s.listings) {
		start = len(s.listings)
	}
	if end > len(s.listings) {
		end = len(s.listings)
	}

	body, _ := json.Marshal(catalogPage{
		Items: s.listings[start:end],
		Total: len(s.listings),
		Page:  page,
	})
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(string(body))),
	}, nil
}

func catalogListings(n int) []IndexListingInput {
	listings := make([]IndexListingInput, 0, n)
	for i := 0; i < n; i++ {
		listings = append(listings, IndexListingInput{
			ID:         uuid.New().String(),
			Title:      fmt.Sprintf("Packaging Machine %d", i),
			Price:      float64(10000 + i),
			CategoryID: uuid.New().String(),
			Status:     "active",
		})
	}
	return listings
}

func TestReindex_IndexesAllPages(t *testing.T) {
	eng := memory.New()
	svc := newTestSearchService(eng)
	catalog := &stubCatalog{listings: catalogListings(5)}

	r := NewReindexService(catalog, "http://catalog:8002", 2, svc, slog.New(slog.NewJSONHandler(io.Discard, nil)))

	indexed, err := r.Reindex(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 5, indexed)
	assert.Equal(t, 3, catalog.calls)

	total, err := eng.Count(context.Background(), domain.Predicate{})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
}

func TestReindex_EmptyCatalog(t *testing.T) {
	eng := memory.New()
	svc := newTestSearchService(eng)
	catalog := &stubCatalog{}

	r := NewReindexService(catalog, "http://catalog:8002", 2, svc, slog.New(slog.NewJSONHandler(io.Discard, nil)))

	indexed, err := r.Reindex(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, indexed)
}

func TestReindex_AbortsOnFetchFailure(t *testing.T) {
	eng := memory.New()
	svc := newTestSearchService(eng)
	catalog := &stubCatalog{listings: catalogListings(5), failPage: 2}

	r := NewReindexService(catalog, "http://catalog:8002", 2, svc, slog.New(slog.NewJSONHandler(io.Discard, nil)))

	indexed, err := r.Reindex(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "reindex page 2")
	// The first page stays indexed.
	assert.Equal(t, 2, indexed)
}
