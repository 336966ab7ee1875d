package domain

import "github.com/google/uuid"

// SortMode orders search results.
type SortMode string

const (
	SortRelevance SortMode = "relevance"
	SortPriceAsc  SortMode = "price_asc"
	SortPriceDesc SortMode = "price_desc"
	SortNewest    SortMode = "newest"
)

// ParseSortMode maps a caller-supplied sort string to a SortMode.
// Unrecognized values fall back to relevance rather than failing the request.
func ParseSortMode(s string) SortMode {
	switch SortMode(s) {
	case SortPriceAsc, SortPriceDesc, SortNewest:
		return SortMode(s)
	default:
		return SortRelevance
	}
}

// Relevance weights for text matching. Weights affect ordering only,
// never inclusion.
const (
	TextWeightTitle       = 10
	TextWeightDescription = 5
	TextWeightSupplier    = 3
)

// AttributeFilter constrains a dynamic attribute to one of a set of values
// (OR semantics within a key).
type AttributeFilter struct {
	Key    string
	Values []string
}

// Predicate is the engine-agnostic compiled form of a search query. All
// conditions are conjunctive. Only active listings ever match; that
// constraint is implicit and not representable here.
type Predicate struct {
	Text          string
	CategoryID    *uuid.UUID
	PriceMin      *float64
	PriceMax      *float64
	CitySubstring string
	CityExact     string
	Attributes    []AttributeFilter
}

// HasText reports whether a text-relevance condition is active.
func (p Predicate) HasText() bool {
	return p.Text != ""
}

// WithPriceRange returns a copy of the predicate with its price bounds
// replaced by the given bucket bounds. Used for price facet counting, where
// each bucket overrides any price filter already in the query.
func (p Predicate) WithPriceRange(min, max float64) Predicate {
	cp := p.clone()
	cp.PriceMin = &min
	cp.PriceMax = &max
	return cp
}

// WithAttribute returns a copy of the predicate with the filter on key
// replaced by an exact single-value constraint. Other attribute filters are
// retained, so facet counts answer "what if I also picked this value".
func (p Predicate) WithAttribute(key, value string) Predicate {
	cp := p.clone()
	kept := make([]AttributeFilter, 0, len(cp.Attributes)+1)
	for _, f := range cp.Attributes {
		if f.Key != key {
			kept = append(kept, f)
		}
	}
	cp.Attributes = append(kept, AttributeFilter{Key: key, Values: []string{value}})
	return cp
}

// WithCity returns a copy of the predicate constrained to an exact city,
// replacing any substring location filter. Used for location facet counting.
func (p Predicate) WithCity(city string) Predicate {
	cp := p.clone()
	cp.CitySubstring = ""
	cp.CityExact = city
	return cp
}

func (p Predicate) clone() Predicate {
	cp := p
	cp.Attributes = make([]AttributeFilter, len(p.Attributes))
	copy(cp.Attributes, p.Attributes)
	return cp
}

// SearchQuery is the normalized query echoed back to the caller so UI state
// can be reconciled with what was actually executed.
type SearchQuery struct {
	Q        string         `json:"q,omitempty"`
	Category string         `json:"category,omitempty"`
	Filters  map[string]any `json:"filters"`
	Page     int            `json:"page"`
	Limit    int            `json:"limit"`
	Sort     SortMode       `json:"sort"`
}

// SearchResult is one page of matches plus the total match count. Total is
// computed against the same predicate as the page fetch.
type SearchResult struct {
	Listings []Listing
	Total    int64
}
