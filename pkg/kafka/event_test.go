package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopic(t *testing.T) {
	assert.Equal(t, "marketplace.listing.created", Topic("listing", "created"))
	assert.Equal(t, "marketplace.category.updated", Topic("category", "updated"))
}

func TestNewEvent_PopulatesEnvelope(t *testing.T) {
	payload := map[string]string{"id": "listing-1"}

	e, err := NewEvent("marketplace.listing.created", "listing-1", "listing", "catalog-service", payload)
	require.NoError(t, err)

	assert.NotEmpty(t, e.EventID)
	assert.Equal(t, "marketplace.listing.created", e.EventType)
	assert.Equal(t, "listing-1", e.AggregateID)
	assert.Equal(t, "listing", e.AggregateType)
	assert.Equal(t, "catalog-service", e.Source)
	assert.Equal(t, 1, e.Version)
	assert.False(t, e.Timestamp.IsZero())

	var decoded map[string]string
	require.NoError(t, e.UnmarshalData(&decoded))
	assert.Equal(t, payload, decoded)
}

func TestNewEvent_UnmarshalableData(t *testing.T) {
	_, err := NewEvent("marketplace.listing.created", "x", "listing", "test", make(chan int))
	assert.Error(t, err)
}

func TestWithCorrelationID(t *testing.T) {
	e, err := NewEvent("marketplace.listing.deleted", "x", "listing", "test", nil)
	require.NoError(t, err)

	e.WithCorrelationID("corr-123")
	assert.Equal(t, "corr-123", e.CorrelationID)
}
