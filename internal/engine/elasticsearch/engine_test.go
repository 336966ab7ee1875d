package elasticsearch

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b2bmart/search-service/internal/domain"
)

func TestBuildQuery_TextAndFilters(t *testing.T) {
	catID := uuid.New()
	min := 25000.0
	max := 50000.0

	q := buildQuery(domain.Predicate{
		Text:          "samsung tv",
		CategoryID:    &catID,
		PriceMin:      &min,
		PriceMax:      &max,
		CitySubstring: "mumbai",
		Attributes: []domain.AttributeFilter{
			{Key: "brand", Values: []string{"Samsung"}},
		},
	})

	boolQuery := q["bool"].(map[string]any)
	must := boolQuery["must"].([]any)
	require.Len(t, must, 1)

	multiMatch := must[0].(map[string]any)["multi_match"].(map[string]any)
	assert.Equal(t, "samsung tv", multiMatch["query"])
	assert.Equal(t, []string{"title^10", "description^5", "supplier.name^3"}, multiMatch["fields"])

	// status + category + price + city + one attribute
	filters := boolQuery["filter"].([]any)
	assert.Len(t, filters, 5)
	assert.Equal(t, "active", filters[0].(map[string]any)["term"].(map[string]any)["status"])
}

func TestBuildQuery_EmptyPredicateMatchesAllActive(t *testing.T) {
	q := buildQuery(domain.Predicate{})

	boolQuery := q["bool"].(map[string]any)
	must := boolQuery["must"].([]any)
	require.Len(t, must, 1)
	assert.Contains(t, must[0].(map[string]any), "match_all")

	filters := boolQuery["filter"].([]any)
	require.Len(t, filters, 1)
	assert.Equal(t, "active", filters[0].(map[string]any)["term"].(map[string]any)["status"])
}

func TestBuildSort(t *testing.T) {
	assert.Equal(t, []any{map[string]any{"price": "asc"}}, buildSort(domain.SortPriceAsc, false))
	assert.Equal(t, []any{map[string]any{"price": "desc"}}, buildSort(domain.SortPriceDesc, false))
	assert.Equal(t, []any{map[string]any{"createdAt": "desc"}}, buildSort(domain.SortNewest, false))

	// Relevance sorts by score then recency with text, recency alone without.
	assert.Equal(t, []any{
		map[string]any{"_score": "desc"},
		map[string]any{"createdAt": "desc"},
	}, buildSort(domain.SortRelevance, true))
	assert.Equal(t, []any{map[string]any{"createdAt": "desc"}}, buildSort(domain.SortRelevance, false))
}
