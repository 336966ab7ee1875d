package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/b2bmart/search-service/internal/domain"
)

// Engine is an in-memory implementation of the search engine interface.
// It provides substring text matching with weighted relevance scoring.
// Iteration follows insertion order so results are deterministic.
// Thread-safe via sync.RWMutex.
type Engine struct {
	mu       sync.RWMutex
	listings map[string]domain.Listing
	order    []string
}

// New creates a new in-memory search engine.
func New() *Engine {
	return &Engine{
		listings: make(map[string]domain.Listing),
	}
}

// Index adds or updates a single listing in the in-memory index.
func (e *Engine) Index(_ context.Context, listing *domain.Listing) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.put(*listing)
	return nil
}

// Delete removes a listing from the in-memory index by its ID.
func (e *Engine) Delete(_ context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.listings[id]; !ok {
		return nil
	}
	delete(e.listings, id)
	for i, existing := range e.order {
		if existing == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	return nil
}

// BulkIndex adds or updates multiple listings in the in-memory index.
func (e *Engine) BulkIndex(_ context.Context, listings []domain.Listing) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range listings {
		e.put(listings[i])
	}
	return nil
}

func (e *Engine) put(l domain.Listing) {
	l.Normalize()
	id := l.ID.String()
	if _, ok := e.listings[id]; !ok {
		e.order = append(e.order, id)
	}
	e.listings[id] = l
}

// Search executes the predicate against the in-memory index with sorting
// and pagination.
func (e *Engine) Search(_ context.Context, p domain.Predicate, sortBy domain.SortMode, page, limit int) (*domain.SearchResult, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	matched, scores := e.match(p)
	sortListings(matched, scores, sortBy, p.HasText())

	total := int64(len(matched))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	offset := (page - 1) * limit
	if offset > len(matched) {
		offset = len(matched)
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}

	return &domain.SearchResult{
		Listings: matched[offset:end],
		Total:    total,
	}, nil
}

// Count returns the number of listings matching the predicate.
func (e *Engine) Count(_ context.Context, p domain.Predicate) (int64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	matched, _ := e.match(p)
	return int64(len(matched)), nil
}

// DistinctCities returns up to limit distinct cities among matching listings,
// in first-seen order.
func (e *Engine) DistinctCities(_ context.Context, p domain.Predicate, limit int) ([]string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	matched, _ := e.match(p)
	seen := make(map[string]struct{})
	cities := make([]string, 0)
	for _, l := range matched {
		city := l.Location.City
		if city == "" {
			continue
		}
		if _, ok := seen[city]; ok {
			continue
		}
		seen[city] = struct{}{}
		cities = append(cities, city)
		if limit > 0 && len(cities) == limit {
			break
		}
	}
	return cities, nil
}

// AttributeBounds returns the min and max numeric value of the attribute
// among matching listings.
func (e *Engine) AttributeBounds(_ context.Context, p domain.Predicate, key string) (*float64, *float64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	matched, _ := e.match(p)
	var min, max *float64
	for _, l := range matched {
		v, ok := l.AttributeNumber(key)
		if !ok {
			continue
		}
		if min == nil || v < *min {
			val := v
			min = &val
		}
		if max == nil || v > *max {
			val := v
			max = &val
		}
	}
	return min, max, nil
}

// match returns matching listings in insertion order with relevance scores.
func (e *Engine) match(p domain.Predicate) ([]domain.Listing, map[string]float64) {
	terms := textTerms(p.Text)
	matched := make([]domain.Listing, 0)
	scores := make(map[string]float64)

	for _, id := range e.order {
		l := e.listings[id]
		score, ok := matches(&l, p, terms)
		if !ok {
			continue
		}
		matched = append(matched, l)
		scores[id] = score
	}
	return matched, scores
}

func textTerms(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Fields(strings.ToLower(text))
}

// matches checks the listing against every predicate condition and, when a
// text condition is active, computes the weighted relevance score. A listing
// matches the text condition when any term appears in any weighted field.
func matches(l *domain.Listing, p domain.Predicate, terms []string) (float64, bool) {
	if l.Status != domain.ListingStatusActive {
		return 0, false
	}

	var score float64
	if len(terms) > 0 {
		title := strings.ToLower(l.Title)
		desc := strings.ToLower(l.Description)
		supplier := strings.ToLower(l.Supplier.Name)
		for _, term := range terms {
			if strings.Contains(title, term) {
				score += domain.TextWeightTitle
			}
			if strings.Contains(desc, term) {
				score += domain.TextWeightDescription
			}
			if strings.Contains(supplier, term) {
				score += domain.TextWeightSupplier
			}
		}
		if score == 0 {
			return 0, false
		}
	}

	if p.CategoryID != nil && l.CategoryID != *p.CategoryID {
		return 0, false
	}
	if p.PriceMin != nil && l.Price < *p.PriceMin {
		return 0, false
	}
	if p.PriceMax != nil && l.Price > *p.PriceMax {
		return 0, false
	}
	if p.CitySubstring != "" &&
		!strings.Contains(strings.ToLower(l.Location.City), strings.ToLower(p.CitySubstring)) {
		return 0, false
	}
	if p.CityExact != "" && l.Location.City != p.CityExact {
		return 0, false
	}

	for _, f := range p.Attributes {
		values := l.AttributeStrings(f.Key)
		if !intersects(values, f.Values) {
			return 0, false
		}
	}

	return score, true
}

func intersects(have, want []string) bool {
	for _, h := range have {
		for _, w := range want {
			if h == w {
				return true
			}
		}
	}
	return false
}

// sortListings orders matched listings. Relevance falls back to newest when
// no text condition is active. All sorts are stable so equal keys retain
// insertion order.
func sortListings(listings []domain.Listing, scores map[string]float64, sortBy domain.SortMode, hasText bool) {
	switch sortBy {
	case domain.SortPriceAsc:
		sort.SliceStable(listings, func(i, j int) bool {
			return listings[i].Price < listings[j].Price
		})
	case domain.SortPriceDesc:
		sort.SliceStable(listings, func(i, j int) bool {
			return listings[i].Price > listings[j].Price
		})
	case domain.SortNewest:
		sort.SliceStable(listings, func(i, j int) bool {
			return listings[i].CreatedAt.After(listings[j].CreatedAt)
		})
	default:
		if hasText {
			sort.SliceStable(listings, func(i, j int) bool {
				si := scores[listings[i].ID.String()]
				sj := scores[listings[j].ID.String()]
				if si != sj {
					return si > sj
				}
				return listings[i].CreatedAt.After(listings[j].CreatedAt)
			})
		} else {
			sort.SliceStable(listings, func(i, j int) bool {
				return listings[i].CreatedAt.After(listings[j].CreatedAt)
			})
		}
	}
}
