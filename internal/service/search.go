package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/b2bmart/search-service/internal/domain"
	"github.com/b2bmart/search-service/internal/engine"
	"github.com/b2bmart/search-service/internal/facet"
	"github.com/b2bmart/search-service/internal/query"
	"github.com/b2bmart/search-service/pkg/pagination"
)

// SearchService implements the business logic for search and facet requests.
type SearchService struct {
	engine   engine.Engine
	compiler *query.Compiler
	facets   *facet.Engine
	logger   *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(eng engine.Engine, compiler *query.Compiler, facets *facet.Engine, logger *slog.Logger) *SearchService {
	return &SearchService{
		engine:   eng,
		compiler: compiler,
		facets:   facets,
		logger:   logger,
	}
}

// SearchInput holds the parameters for a search request after boundary
// parsing. Filters is the decoded filter map; nil means no filters.
type SearchInput struct {
	Q            string
	CategorySlug string
	Filters      map[string]any
	Page         int
	Limit        int
	Sort         domain.SortMode
}

// SearchResponse is the full search response contract.
type SearchResponse struct {
	Results       []domain.Listing      `json:"results"`
	Facets        []domain.Facet        `json:"facets"`
	Pagination    pagination.Pagination `json:"pagination"`
	Query         domain.SearchQuery    `json:"query"`
	ExecutionTime int64                 `json:"executionTime"`
}

// FacetsResponse is the standalone facet preview contract.
type FacetsResponse struct {
	Facets         []domain.Facet `json:"facets"`
	TotalResults   int64          `json:"totalResults"`
	AppliedFilters map[string]any `json:"appliedFilters"`
}

// Search compiles the input, then runs the result fetch and the facet
// fan-out concurrently and assembles the response. The result fetch failing
// fails the whole request; facet failures only thin the facet list.
// ExecutionTime covers the results+count phase only.
func (s *SearchService) Search(ctx context.Context, in SearchInput) (*SearchResponse, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	limit := in.Limit
	if limit < 1 {
		limit = pagination.DefaultLimit
	}
	if limit > pagination.MaxLimit {
		limit = pagination.MaxLimit
	}
	sortBy := in.Sort
	if sortBy == "" {
		sortBy = domain.SortRelevance
	}

	p, category, err := s.compiler.Compile(ctx, query.Input{
		Q:            in.Q,
		CategorySlug: in.CategorySlug,
		Filters:      in.Filters,
	})
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	var (
		result    *domain.SearchResult
		facets    []domain.Facet
		elapsedMs int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		r, err := s.engine.Search(gctx, p, sortBy, page, limit)
		if err != nil {
			return fmt.Errorf("execute search: %w", err)
		}
		result = r
		elapsedMs = time.Since(start).Milliseconds()
		return nil
	})
	g.Go(func() error {
		facets = s.facets.Compute(gctx, category, p, facet.DefaultValueLimit)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "search executed",
		slog.String("q", in.Q),
		slog.String("category", in.CategorySlug),
		slog.Int64("total", result.Total),
		slog.Int64("took_ms", elapsedMs),
	)

	return &SearchResponse{
		Results:       result.Listings,
		Facets:        facets,
		Pagination:    pagination.New(page, limit, int(result.Total)),
		Query:         echoQuery(in, page, limit, sortBy),
		ExecutionTime: elapsedMs,
	}, nil
}

// FacetsInput holds the parameters for a standalone facet preview.
type FacetsInput struct {
	Q            string
	CategorySlug string
	Filters      map[string]any
	Limit        int
}

// Facets computes the facet preview and total result count for a query
// without fetching a result page.
func (s *SearchService) Facets(ctx context.Context, in FacetsInput) (*FacetsResponse, error) {
	limit := in.Limit
	if limit < 1 {
		limit = facet.DefaultValueLimit
	}

	p, category, err := s.compiler.Compile(ctx, query.Input{
		Q:            in.Q,
		CategorySlug: in.CategorySlug,
		Filters:      in.Filters,
	})
	if err != nil {
		return nil, fmt.Errorf("facets: %w", err)
	}

	var (
		total  int64
		facets []domain.Facet
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.engine.Count(gctx, p)
		if err != nil {
			return fmt.Errorf("count results: %w", err)
		}
		total = n
		return nil
	})
	g.Go(func() error {
		facets = s.facets.Compute(gctx, category, p, limit)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	applied := in.Filters
	if applied == nil {
		applied = map[string]any{}
	}

	return &FacetsResponse{
		Facets:         facets,
		TotalResults:   total,
		AppliedFilters: applied,
	}, nil
}

// echoQuery reflects the normalized query back so the caller can reconcile
// UI state with what was actually executed.
func echoQuery(in SearchInput, page, limit int, sortBy domain.SortMode) domain.SearchQuery {
	filters := in.Filters
	if filters == nil {
		filters = map[string]any{}
	}
	return domain.SearchQuery{
		Q:        in.Q,
		Category: in.CategorySlug,
		Filters:  filters,
		Page:     page,
		Limit:    limit,
		Sort:     sortBy,
	}
}
