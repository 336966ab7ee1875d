// Package query compiles loosely-typed caller input into the engine-agnostic
// search predicate. The compiler is deliberately permissive: malformed filter
// values are skipped with a log line, never surfaced as request errors, since
// filter payloads originate from caller-controlled UI state.
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/b2bmart/search-service/internal/domain"
	apperrors "github.com/b2bmart/search-service/pkg/errors"
)

// Reserved filter keys handled ahead of dynamic attribute keys.
const (
	filterPriceMin = "priceMin"
	filterPriceMax = "priceMax"
	filterLocation = "location"
)

// CategoryResolver resolves a category slug to its category. ErrNotFound
// means no category scoping, not a failure.
type CategoryResolver interface {
	GetBySlug(ctx context.Context, slug string) (*domain.Category, error)
}

// Input is the raw, request-scoped search input before compilation.
type Input struct {
	Q            string
	CategorySlug string
	Filters      map[string]any
}

// Compiler turns raw search input into a predicate plus the resolved
// category for downstream facet generation.
type Compiler struct {
	resolver CategoryResolver
	logger   *slog.Logger
}

// New creates a compiler backed by the given category resolver.
func New(resolver CategoryResolver, logger *slog.Logger) *Compiler {
	return &Compiler{resolver: resolver, logger: logger}
}

// Compile produces a conjunctive predicate from the input. An unresolvable
// category slug degrades to an unscoped search; a store failure during
// resolution is the only error path.
func (c *Compiler) Compile(ctx context.Context, in Input) (domain.Predicate, *domain.Category, error) {
	var p domain.Predicate

	if q := strings.TrimSpace(in.Q); q != "" {
		p.Text = q
	}

	var resolved *domain.Category
	if in.CategorySlug != "" {
		cat, err := c.resolver.GetBySlug(ctx, in.CategorySlug)
		switch {
		case err == nil:
			resolved = cat
			id := cat.ID
			p.CategoryID = &id
		case errors.Is(err, apperrors.ErrNotFound):
			c.logger.DebugContext(ctx, "category slug did not resolve, searching unscoped",
				slog.String("slug", in.CategorySlug))
		default:
			return p, nil, fmt.Errorf("resolve category %q: %w", in.CategorySlug, err)
		}
	}

	// Iterate filter keys in sorted order so compilation is deterministic.
	keys := make([]string, 0, len(in.Filters))
	for k := range in.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := in.Filters[key]
		switch key {
		case filterPriceMin:
			if n, ok := toNumber(value); ok {
				p.PriceMin = &n
			} else {
				c.logSkipped(ctx, key, value)
			}
		case filterPriceMax:
			if n, ok := toNumber(value); ok {
				p.PriceMax = &n
			} else {
				c.logSkipped(ctx, key, value)
			}
		case filterLocation:
			if s, ok := value.(string); ok && s != "" {
				p.CitySubstring = s
			} else {
				c.logSkipped(ctx, key, value)
			}
		default:
			values, ok := attributeValues(value)
			if !ok {
				c.logSkipped(ctx, key, value)
				continue
			}
			p.Attributes = append(p.Attributes, domain.AttributeFilter{
				Key:    key,
				Values: values,
			})
		}
	}

	return p, resolved, nil
}

func (c *Compiler) logSkipped(ctx context.Context, key string, value any) {
	c.logger.DebugContext(ctx, "skipping malformed filter value",
		slog.String("key", key),
		slog.Any("value", value),
	)
}

// toNumber accepts the numeric types a decoded JSON filter can carry.
// Numeric strings are deliberately rejected: price bounds must be numbers.
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// attributeValues normalizes an attribute filter value to its string forms.
// Scalars must be truthy (empty strings, zero, false and null are skipped);
// arrays are kept as-is, including the empty array, which matches nothing.
func attributeValues(v any) ([]string, bool) {
	switch val := v.(type) {
	case nil:
		return nil, false
	case string:
		if val == "" {
			return nil, false
		}
		return []string{val}, true
	case bool:
		if !val {
			return nil, false
		}
		return []string{"true"}, true
	case float64:
		if val == 0 {
			return nil, false
		}
		return []string{domain.AttributeValueString(val)}, true
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			out = append(out, domain.AttributeValueString(item))
		}
		return out, true
	case []string:
		return val, true
	default:
		return []string{domain.AttributeValueString(val)}, true
	}
}
