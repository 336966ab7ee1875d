package domain

import (
	"time"

	"github.com/google/uuid"
)

// AttributeType is the kind of a dynamic category attribute.
type AttributeType string

const (
	AttributeEnum    AttributeType = "enum"
	AttributeRange   AttributeType = "range"
	AttributeBoolean AttributeType = "boolean"
	AttributeText    AttributeType = "text"
	AttributeNumber  AttributeType = "number"
)

// AttributeDefinition describes one dynamic attribute declared by a category.
// Enum attributes carry the set of allowed values; range and number attributes
// derive their bounds from the data at facet time.
type AttributeDefinition struct {
	Type       AttributeType `json:"type"`
	Label      string        `json:"label"`
	Values     []string      `json:"values,omitempty"`
	Unit       string        `json:"unit,omitempty"`
	Required   bool          `json:"required"`
	Searchable bool          `json:"searchable"`
	Filterable bool          `json:"filterable"`
}

// SchemaEntry pairs an attribute key with its definition. The schema is kept
// as an ordered slice so facet output follows declaration order.
type SchemaEntry struct {
	Key string `json:"key"`
	AttributeDefinition
}

// AttributeSchema is a category's ordered attribute declarations.
type AttributeSchema []SchemaEntry

// Get returns the definition for key, if declared.
func (s AttributeSchema) Get(key string) (AttributeDefinition, bool) {
	for _, entry := range s {
		if entry.Key == key {
			return entry.AttributeDefinition, true
		}
	}
	return AttributeDefinition{}, false
}

// Keys returns the attribute keys in declaration order.
func (s AttributeSchema) Keys() []string {
	keys := make([]string, len(s))
	for i, entry := range s {
		keys[i] = entry.Key
	}
	return keys
}

// Category is a marketplace category with its dynamic attribute schema.
// Categories are owned by the catalog service; this service reads them.
type Category struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Slug            string          `json:"slug"`
	Description     string          `json:"description,omitempty"`
	AttributeSchema AttributeSchema `json:"attributeSchema"`
	IsActive        bool            `json:"isActive"`
	SortOrder       int             `json:"sortOrder"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}
