package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b2bmart/search-service/internal/domain"
	"github.com/b2bmart/search-service/internal/engine/memory"
	"github.com/b2bmart/search-service/internal/facet"
	"github.com/b2bmart/search-service/internal/query"
	"github.com/b2bmart/search-service/internal/service"
	apperrors "github.com/b2bmart/search-service/pkg/errors"
	"github.com/b2bmart/search-service/pkg/health"
)

type stubResolver struct {
	categories map[string]*domain.Category
}

func (s *stubResolver) GetBySlug(_ context.Context, slug string) (*domain.Category, error) {
	if c, ok := s.categories[slug]; ok {
		return c, nil
	}
	return nil, apperrors.ErrNotFound
}

type testFixture struct {
	router     http.Handler
	engine     *memory.Engine
	tvCategory *domain.Category
	shoeCat    *domain.Category
}

func enumAttr(label string, values ...string) domain.AttributeDefinition {
	return domain.AttributeDefinition{
		Type:       domain.AttributeEnum,
		Label:      label,
		Values:     values,
		Filterable: true,
	}
}

func seedListing(t *testing.T, eng *memory.Engine, categoryID uuid.UUID, title string, price float64, city, brand string, status domain.ListingStatus) domain.Listing {
	t.Helper()
	l := domain.Listing{
		ID:          uuid.New(),
		Title:       title,
		Description: "wholesale lot, GST invoice available",
		Price:       price,
		Currency:    "INR",
		Location:    domain.Location{City: city, State: "Maharashtra", Country: "India"},
		CategoryID:  categoryID,
		Attributes:  map[string]any{"brand": brand},
		Supplier:    domain.Supplier{Name: "Acme Traders", Verified: true},
		Status:      status,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	require.NoError(t, eng.Index(context.Background(), &l))
	return l
}

func newTestFixture(t *testing.T) *testFixture {
	t.Helper()

	tv := &domain.Category{
		ID:   uuid.New(),
		Name: "Televisions",
		Slug: "televisions",
		AttributeSchema: domain.AttributeSchema{
			{Key: "brand", AttributeDefinition: enumAttr("Brand", "Samsung", "LG", "Sony")},
		},
		IsActive: true,
	}
	shoes := &domain.Category{
		ID:   uuid.New(),
		Name: "Running Shoes",
		Slug: "running-shoes",
		AttributeSchema: domain.AttributeSchema{
			{Key: "brand", AttributeDefinition: enumAttr("Brand", "Nike", "Adidas", "Puma")},
		},
		IsActive: true,
	}

	eng := memory.New()
	seedListing(t, eng, tv.ID, "Samsung 55 inch Smart TV", 45000, "Mumbai", "Samsung", domain.ListingStatusActive)
	seedListing(t, eng, tv.ID, "Samsung 43 inch LED TV", 30000, "Mumbai", "Samsung", domain.ListingStatusActive)
	seedListing(t, eng, tv.ID, "LG 50 inch UHD TV", 38000, "Delhi", "LG", domain.ListingStatusActive)
	seedListing(t, eng, tv.ID, "Samsung 65 inch QLED TV", 120000, "Pune", "Samsung", domain.ListingStatusInactive)
	seedListing(t, eng, shoes.ID, "Nike Pegasus Running Shoes", 3000, "Delhi", "Nike", domain.ListingStatusActive)
	seedListing(t, eng, shoes.ID, "Adidas Ultraboost Running Shoes", 3500, "Mumbai", "Adidas", domain.ListingStatusActive)
	seedListing(t, eng, shoes.ID, "Puma Velocity Running Shoes", 2800, "Chennai", "Puma", domain.ListingStatusActive)

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	resolver := &stubResolver{categories: map[string]*domain.Category{
		tv.Slug:    tv,
		shoes.Slug: shoes,
	}}

	svc := service.NewSearchService(eng, query.New(resolver, logger), facet.New(eng, logger, 4), logger)
	router := NewRouter(svc, nil, health.NewHandler(), logger)

	return &testFixture{router: router, engine: eng, tvCategory: tv, shoeCat: shoes}
}

func (f *testFixture) search(t *testing.T, params url.Values) (*httptest.ResponseRecorder, *service.SearchResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/search?"+params.Encode(), nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var resp service.SearchResponse
	if w.Code == http.StatusOK {
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	}
	return w, &resp
}

func findBrandFacet(facets []domain.Facet) *domain.Facet {
	for i := range facets {
		if facets[i].Key == "brand" {
			return &facets[i]
		}
	}
	return nil
}

func TestSearch_CategoryScopedAttributeFilter(t *testing.T) {
	f := newTestFixture(t)

	w, resp := f.search(t, url.Values{
		"category": {"televisions"},
		"filters":  {`{"brand":["Samsung"]}`},
	})

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, resp.Results, 2)
	for _, l := range resp.Results {
		assert.Equal(t, f.tvCategory.ID, l.CategoryID)
		assert.Equal(t, "Samsung", l.Attributes["brand"])
	}
	assert.Equal(t, 2, resp.Pagination.Total)

	brand := findBrandFacet(resp.Facets)
	require.NotNil(t, brand, "category search should carry the brand facet")
	// The brand facet ignores the active brand filter, so sibling brands
	// keep their counts.
	var lgCount int64
	for _, v := range brand.Values {
		if v.Value == "LG" {
			lgCount = v.Count
		}
	}
	assert.Equal(t, int64(1), lgCount)
}

func TestSearch_PriceRangeCountsMatchResults(t *testing.T) {
	f := newTestFixture(t)

	w, resp := f.search(t, url.Values{
		"category": {"televisions"},
		"filters":  {`{"priceMin":25000,"priceMax":50000}`},
	})

	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, resp.Results)
	for _, l := range resp.Results {
		assert.GreaterOrEqual(t, l.Price, 25000.0)
		assert.LessOrEqual(t, l.Price, 50000.0)
	}
	assert.Equal(t, len(resp.Results), resp.Pagination.Total)
}

func TestSearch_MultiValueFilterIsUnionWithinKey(t *testing.T) {
	f := newTestFixture(t)

	w, resp := f.search(t, url.Values{
		"category": {"running-shoes"},
		"filters":  {`{"brand":["Nike","Adidas"]}`},
	})

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, resp.Results, 2)
	for _, l := range resp.Results {
		assert.Contains(t, []any{"Nike", "Adidas"}, l.Attributes["brand"])
	}
}

func TestSearch_MalformedFiltersIgnored(t *testing.T) {
	f := newTestFixture(t)

	wBad, respBad := f.search(t, url.Values{
		"category": {"televisions"},
		"filters":  {`{"brand":`},
	})
	wNone, respNone := f.search(t, url.Values{
		"category": {"televisions"},
	})

	require.Equal(t, http.StatusOK, wBad.Code)
	require.Equal(t, http.StatusOK, wNone.Code)
	assert.Equal(t, respNone.Pagination.Total, respBad.Pagination.Total)
	assert.Equal(t, map[string]any{}, respBad.Query.Filters)
}

func TestSearch_UnknownCategoryDegradesToUnscoped(t *testing.T) {
	f := newTestFixture(t)

	w, resp := f.search(t, url.Values{
		"category": {"heavy-machinery"},
	})

	require.Equal(t, http.StatusOK, w.Code)
	// All six active listings, across both categories.
	assert.Equal(t, 6, resp.Pagination.Total)
}

func TestSearch_UnknownSortFallsBackToRelevance(t *testing.T) {
	f := newTestFixture(t)

	w, resp := f.search(t, url.Values{
		"q":    {"tv"},
		"sort": {"alphabetical_reverse"},
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.SortRelevance, resp.Query.Sort)
}

func TestSearch_PriceSortAscending(t *testing.T) {
	f := newTestFixture(t)

	w, resp := f.search(t, url.Values{
		"category": {"televisions"},
		"sort":     {"price_asc"},
	})

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, resp.Results, 3)
	for i := 1; i < len(resp.Results); i++ {
		assert.LessOrEqual(t, resp.Results[i-1].Price, resp.Results[i].Price)
	}
}

func TestSearch_InactiveListingsNeverReturned(t *testing.T) {
	f := newTestFixture(t)

	w, resp := f.search(t, url.Values{
		"q": {"QLED"},
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, resp.Results)
	assert.Equal(t, 0, resp.Pagination.Total)
}

func TestSearch_PageBeyondResults(t *testing.T) {
	f := newTestFixture(t)

	w, resp := f.search(t, url.Values{
		"category": {"televisions"},
		"page":     {"50"},
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, resp.Results)
	assert.Equal(t, 3, resp.Pagination.Total)
	assert.False(t, resp.Pagination.HasNext)
}

func TestSearch_BadPagingValuesFallBackToDefaults(t *testing.T) {
	f := newTestFixture(t)

	w, resp := f.search(t, url.Values{
		"page":  {"banana"},
		"limit": {"-3"},
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, resp.Pagination.Page)
	assert.Equal(t, 20, resp.Pagination.Limit)
}

func TestSearch_EchoesNormalizedQuery(t *testing.T) {
	f := newTestFixture(t)

	w, resp := f.search(t, url.Values{
		"q":        {"  running shoes  "},
		"category": {"running-shoes"},
		"sort":     {"price_desc"},
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "running shoes", resp.Query.Q)
	assert.Equal(t, "running-shoes", resp.Query.Category)
	assert.Equal(t, domain.SortPriceDesc, resp.Query.Sort)
	assert.GreaterOrEqual(t, resp.ExecutionTime, int64(0))
}

func TestFacets_CategoryScoped(t *testing.T) {
	f := newTestFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/facets?category=televisions", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp service.FacetsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

	require.NotEmpty(t, resp.Facets)
	assert.Equal(t, "price", resp.Facets[0].Key)
	assert.Equal(t, int64(3), resp.TotalResults)
	assert.Equal(t, map[string]any{}, resp.AppliedFilters)

	brand := findBrandFacet(resp.Facets)
	require.NotNil(t, brand)
	assert.Equal(t, "enum", brand.Type)
}

func TestFacets_EchoesAppliedFilters(t *testing.T) {
	f := newTestFixture(t)

	filters := `{"brand":["Samsung"]}`
	req := httptest.NewRequest(http.MethodGet, "/facets?category=televisions&filters="+url.QueryEscape(filters), nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp service.FacetsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

	assert.Equal(t, int64(2), resp.TotalResults)
	assert.Equal(t, map[string]any{"brand": []any{"Samsung"}}, resp.AppliedFilters)
}

func TestSearch_RepeatedRequestIsStable(t *testing.T) {
	f := newTestFixture(t)

	params := url.Values{"category": {"televisions"}, "sort": {"price_asc"}}
	_, first := f.search(t, params)
	_, second := f.search(t, params)

	require.Equal(t, len(first.Results), len(second.Results))
	for i := range first.Results {
		assert.Equal(t, first.Results[i].ID, second.Results[i].ID,
			fmt.Sprintf("result %d changed between identical requests", i))
	}
}
