package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/b2bmart/search-service/internal/service"
	pkgkafka "github.com/b2bmart/search-service/pkg/kafka"
)

// Kafka topic constants for listing domain events consumed by the search service.
const (
	TopicListingCreated = "marketplace.listing.created"
	TopicListingUpdated = "marketplace.listing.updated"
	TopicListingDeleted = "marketplace.listing.deleted"
)

// ListingDeletedData represents the payload from a listing.deleted event.
type ListingDeletedData struct {
	ID string `json:"id"`
}

// ListingIndexer is the slice of the search service the consumer needs.
type ListingIndexer interface {
	IndexListing(ctx context.Context, in *service.IndexListingInput) error
	DeleteListing(ctx context.Context, id string) error
}

// Consumer handles Kafka events related to listing changes for search indexing.
type Consumer struct {
	indexer ListingIndexer
	logger  *slog.Logger
}

// NewConsumer creates a new event consumer for the search service.
func NewConsumer(indexer ListingIndexer, logger *slog.Logger) *Consumer {
	return &Consumer{
		indexer: indexer,
		logger:  logger,
	}
}

// Handle processes a Kafka event based on its type.
func (c *Consumer) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch event.EventType {
	case TopicListingCreated:
		return c.handleListingUpserted(ctx, event, "created")
	case TopicListingUpdated:
		return c.handleListingUpserted(ctx, event, "updated")
	case TopicListingDeleted:
		return c.handleListingDeleted(ctx, event)
	default:
		c.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}

// handleListingUpserted indexes a created or updated listing. The catalog
// service emits the full listing document, so the event payload unmarshals
// straight into the index input.
func (c *Consumer) handleListingUpserted(ctx context.Context, event *pkgkafka.Event, action string) error {
	var input service.IndexListingInput
	if err := json.Unmarshal(event.Data, &input); err != nil {
		return fmt.Errorf("unmarshal listing.%s data: %w", action, err)
	}

	if err := c.indexer.IndexListing(ctx, &input); err != nil {
		return fmt.Errorf("index listing from %s event: %w", action, err)
	}

	c.logger.InfoContext(ctx, "indexed listing from event",
		slog.String("listing_id", input.ID),
		slog.String("action", action),
	)

	return nil
}

// handleListingDeleted removes a deleted listing from the index.
func (c *Consumer) handleListingDeleted(ctx context.Context, event *pkgkafka.Event) error {
	var data ListingDeletedData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal listing.deleted data: %w", err)
	}

	if err := c.indexer.DeleteListing(ctx, data.ID); err != nil {
		return fmt.Errorf("delete listing from deleted event: %w", err)
	}

	c.logger.InfoContext(ctx, "deleted listing from event",
		slog.String("listing_id", data.ID),
	)

	return nil
}
