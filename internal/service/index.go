package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/b2bmart/search-service/internal/domain"
)

// IndexListingInput holds the parameters for indexing a listing. It mirrors
// the listing document published by the catalog service.
type IndexListingInput struct {
	ID          string           `json:"id" validate:"required,uuid"`
	Title       string           `json:"title" validate:"required"`
	Description string           `json:"description"`
	Price       float64          `json:"price" validate:"gte=0"`
	Currency    string           `json:"currency"`
	Location    domain.Location  `json:"location"`
	CategoryID  string           `json:"categoryId" validate:"required,uuid"`
	Attributes  map[string]any   `json:"attributes"`
	Images      []string         `json:"images"`
	Supplier    domain.Supplier  `json:"supplier"`
	Inventory   domain.Inventory `json:"inventory"`
	Status      string           `json:"status"`
	Featured    bool             `json:"featured"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

func (in *IndexListingInput) toListing() (*domain.Listing, error) {
	id, err := uuid.Parse(in.ID)
	if err != nil {
		return nil, fmt.Errorf("parse listing id: %w", err)
	}
	categoryID, err := uuid.Parse(in.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("parse category id: %w", err)
	}

	status := domain.ListingStatus(in.Status)
	if status == "" {
		status = domain.ListingStatusActive
	}

	now := time.Now().UTC()
	createdAt := in.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := in.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}

	l := &domain.Listing{
		ID:          id,
		Title:       in.Title,
		Description: in.Description,
		Price:       in.Price,
		Currency:    in.Currency,
		Location:    in.Location,
		CategoryID:  categoryID,
		Attributes:  in.Attributes,
		Images:      in.Images,
		Supplier:    in.Supplier,
		Inventory:   in.Inventory,
		Status:      status,
		Featured:    in.Featured,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
	l.Normalize()
	return l, nil
}

// IndexListing adds or updates a single listing in the search index.
func (s *SearchService) IndexListing(ctx context.Context, in *IndexListingInput) error {
	listing, err := in.toListing()
	if err != nil {
		return fmt.Errorf("index listing: %w", err)
	}

	if err := s.engine.Index(ctx, listing); err != nil {
		return fmt.Errorf("index listing: %w", err)
	}

	s.logger.InfoContext(ctx, "listing indexed",
		slog.String("listing_id", in.ID),
		slog.String("title", in.Title),
	)
	return nil
}

// DeleteListing removes a listing from the search index.
func (s *SearchService) DeleteListing(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("delete listing: id is required")
	}

	if err := s.engine.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}

	s.logger.InfoContext(ctx, "listing deleted from index",
		slog.String("listing_id", id),
	)
	return nil
}

// BulkIndex indexes multiple listings. Inputs that fail conversion are
// skipped with a log line rather than failing the batch.
func (s *SearchService) BulkIndex(ctx context.Context, inputs []IndexListingInput) error {
	listings := make([]domain.Listing, 0, len(inputs))
	for i := range inputs {
		listing, err := inputs[i].toListing()
		if err != nil {
			s.logger.WarnContext(ctx, "skipping invalid listing in bulk index",
				slog.String("listing_id", inputs[i].ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		listings = append(listings, *listing)
	}

	if err := s.engine.BulkIndex(ctx, listings); err != nil {
		return fmt.Errorf("bulk index: %w", err)
	}

	s.logger.InfoContext(ctx, "bulk index completed",
		slog.Int("count", len(listings)),
	)
	return nil
}
