package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ListingStatus is the lifecycle state of a listing. Only active listings
// are searchable.
type ListingStatus string

const (
	ListingStatusDraft    ListingStatus = "draft"
	ListingStatusActive   ListingStatus = "active"
	ListingStatusInactive ListingStatus = "inactive"
	ListingStatusExpired  ListingStatus = "expired"
)

// PlaceholderImage is substituted when a listing is indexed without images.
const PlaceholderImage = "/images/placeholder.svg"

// Coordinates is an optional geographic point on a listing location.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Location is where a listing's goods ship from.
type Location struct {
	City        string       `json:"city"`
	State       string       `json:"state"`
	Country     string       `json:"country"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// Supplier is the seller behind a listing, denormalized onto the search document.
type Supplier struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone,omitempty"`
	Verified bool     `json:"verified"`
	Rating   *float64 `json:"rating,omitempty"`
}

// Inventory carries B2B order constraints. MOQ is the minimum order quantity.
type Inventory struct {
	Quantity int    `json:"quantity"`
	Unit     string `json:"unit"`
	MOQ      int    `json:"moq"`
}

// Listing is a searchable marketplace listing. Attribute values are dynamic
// per category: a scalar (string, number, bool) or a list of strings.
type Listing struct {
	ID          uuid.UUID      `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Price       float64        `json:"price"`
	Currency    string         `json:"currency"`
	Location    Location       `json:"location"`
	CategoryID  uuid.UUID      `json:"categoryId"`
	Attributes  map[string]any `json:"attributes"`
	Images      []string       `json:"images"`
	Supplier    Supplier       `json:"supplier"`
	Inventory   Inventory      `json:"inventory"`
	Status      ListingStatus  `json:"status"`
	Featured    bool           `json:"featured"`
	Views       int            `json:"views"`
	Inquiries   int            `json:"inquiries"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// Normalize fills defaults before indexing: a placeholder image when none
// were provided and an empty attributes map instead of nil.
func (l *Listing) Normalize() {
	if len(l.Images) == 0 {
		l.Images = []string{PlaceholderImage}
	}
	if l.Attributes == nil {
		l.Attributes = map[string]any{}
	}
}

// AttributeStrings returns the listing's value(s) for an attribute key
// normalized to strings, so filters can match scalars and lists uniformly.
// Numbers are formatted without a trailing exponent; booleans as true/false.
func (l *Listing) AttributeStrings(key string) []string {
	raw, ok := l.Attributes[key]
	if !ok || raw == nil {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, AttributeValueString(item))
		}
		return out
	default:
		return []string{AttributeValueString(v)}
	}
}

// AttributeNumber returns the listing's value for a numeric attribute key.
func (l *Listing) AttributeNumber(key string) (float64, bool) {
	raw, ok := l.Attributes[key]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// AttributeValueString renders a dynamic attribute value as the string form
// used for matching. JSON numbers print without a trailing decimal point when
// integral; booleans as true/false.
func AttributeValueString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	case bool:
		return fmt.Sprintf("%t", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
