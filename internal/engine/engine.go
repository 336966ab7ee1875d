package engine

import (
	"context"

	"github.com/b2bmart/search-service/internal/domain"
)

// Engine defines the interface for indexing and querying listings.
// Implementations may use Elasticsearch, in-memory storage, or other backends.
// Query methods only ever match active listings.
type Engine interface {
	// Index adds or updates a single listing in the search index.
	Index(ctx context.Context, listing *domain.Listing) error

	// Delete removes a listing from the search index by its ID.
	Delete(ctx context.Context, id string) error

	// BulkIndex adds or updates multiple listings in the search index.
	BulkIndex(ctx context.Context, listings []domain.Listing) error

	// Search returns one page of listings matching the predicate plus the
	// total match count, both computed against the identical predicate.
	Search(ctx context.Context, p domain.Predicate, sort domain.SortMode, page, limit int) (*domain.SearchResult, error)

	// Count returns the number of listings matching the predicate.
	Count(ctx context.Context, p domain.Predicate) (int64, error)

	// DistinctCities returns up to limit distinct city values among listings
	// matching the predicate. Which cities are returned when more than limit
	// exist is implementation-defined.
	DistinctCities(ctx context.Context, p domain.Predicate, limit int) ([]string, error)

	// AttributeBounds returns the min and max numeric value of the given
	// attribute among listings matching the predicate. Both are nil when no
	// matching listing carries a numeric value for the attribute.
	AttributeBounds(ctx context.Context, p domain.Predicate, key string) (min, max *float64, err error)
}
