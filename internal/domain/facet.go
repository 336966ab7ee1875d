package domain

// Facet is one filterable dimension of a result set with per-value counts.
// Facets are recomputed on every query and never persisted.
type Facet struct {
	Key    string       `json:"key"`
	Label  string       `json:"label"`
	Type   string       `json:"type"`
	Values []FacetValue `json:"values,omitempty"`
	Min    *float64     `json:"min,omitempty"`
	Max    *float64     `json:"max,omitempty"`
	Unit   string       `json:"unit,omitempty"`
}

// FacetValue is one candidate filter value with its result count under the
// current query.
type FacetValue struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// PriceBucket is one fixed price range for the price facet. Bounds are
// inclusive on both ends, so boundary values count toward adjacent buckets.
type PriceBucket struct {
	Value string
	Label string
	Min   float64
	Max   float64
}

// PriceBuckets are the fixed INR buckets for the price facet.
var PriceBuckets = []PriceBucket{
	{Value: "0-25000", Label: "Under ₹25,000", Min: 0, Max: 25000},
	{Value: "25000-50000", Label: "₹25,000 - ₹50,000", Min: 25000, Max: 50000},
	{Value: "50000-100000", Label: "₹50,000 - ₹1,00,000", Min: 50000, Max: 100000},
	{Value: "100000-999999", Label: "Above ₹1,00,000", Min: 100000, Max: 999999},
}
