// Package registry is the read path for category attribute schemas. It wraps
// the category store with an optional Redis cache so schema lookups stay off
// the hot path of every search request.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/b2bmart/search-service/internal/domain"
	apperrors "github.com/b2bmart/search-service/pkg/errors"
	"github.com/b2bmart/search-service/pkg/slug"
)

const keyPrefix = "search:category:"

// CategorySource is the persistence read path the registry sits in front of.
type CategorySource interface {
	GetBySlug(ctx context.Context, slug string) (*domain.Category, error)
	ListActive(ctx context.Context) ([]domain.Category, error)
}

// Registry resolves category slugs to categories with their attribute
// schemas. Lookups are cached with a short TTL; cache failures fall through
// to the source so Redis being down never fails a lookup.
type Registry struct {
	source CategorySource
	cache  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New creates a registry. cache may be nil to disable caching.
func New(source CategorySource, cache *redis.Client, ttl time.Duration, logger *slog.Logger) *Registry {
	return &Registry{
		source: source,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// GetBySlug resolves an active category by slug. Returns ErrNotFound when the
// slug does not resolve; callers treat that as "no category scoping", not a
// hard error. Input that is not a well-formed slug is rejected up front so
// caller-controlled strings never reach the store or cache as keys.
func (r *Registry) GetBySlug(ctx context.Context, s string) (*domain.Category, error) {
	if !slug.IsValid(s) {
		return nil, apperrors.ErrNotFound
	}

	if cached := r.fromCache(ctx, s); cached != nil {
		return cached, nil
	}

	category, err := r.source.GetBySlug(ctx, s)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("registry get category: %w", err)
	}

	r.toCache(ctx, s, category)
	return category, nil
}

// ListActive returns all active categories, uncached. Used by admin and
// reindex paths, not per-request.
func (r *Registry) ListActive(ctx context.Context) ([]domain.Category, error) {
	return r.source.ListActive(ctx)
}

func (r *Registry) fromCache(ctx context.Context, s string) *domain.Category {
	if r.cache == nil {
		return nil
	}

	data, err := r.cache.Get(ctx, keyPrefix+s).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("category cache read failed", "slug", s, "error", err)
		}
		return nil
	}

	var category domain.Category
	if err := json.Unmarshal(data, &category); err != nil {
		r.logger.Warn("category cache entry corrupt", "slug", s, "error", err)
		return nil
	}
	return &category
}

func (r *Registry) toCache(ctx context.Context, s string, category *domain.Category) {
	if r.cache == nil {
		return
	}

	data, err := json.Marshal(category)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, keyPrefix+s, data, r.ttl).Err(); err != nil {
		r.logger.Warn("category cache write failed", "slug", s, "error", err)
	}
}
