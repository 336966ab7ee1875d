package query

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b2bmart/search-service/internal/domain"
	apperrors "github.com/b2bmart/search-service/pkg/errors"
)

type stubResolver struct {
	categories map[string]*domain.Category
	err        error
}

func (s *stubResolver) GetBySlug(_ context.Context, slug string) (*domain.Category, error) {
	if s.err != nil {
		return nil, s.err
	}
	c, ok := s.categories[slug]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return c, nil
}

func newCompiler(resolver CategoryResolver) *Compiler {
	return New(resolver, slog.New(slog.NewJSONHandler(io.Discard, nil)))
}

func TestCompile_TextTrimmed(t *testing.T) {
	c := newCompiler(&stubResolver{})

	p, cat, err := c.Compile(context.Background(), Input{Q: "  samsung tv  "})
	require.NoError(t, err)
	assert.Nil(t, cat)
	assert.Equal(t, "samsung tv", p.Text)

	p, _, err = c.Compile(context.Background(), Input{Q: "   "})
	require.NoError(t, err)
	assert.False(t, p.HasText())
}

func TestCompile_CategoryResolved(t *testing.T) {
	cat := &domain.Category{ID: uuid.New(), Slug: "televisions"}
	c := newCompiler(&stubResolver{categories: map[string]*domain.Category{
		"televisions": cat,
	}})

	p, resolved, err := c.Compile(context.Background(), Input{CategorySlug: "televisions"})
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, cat.ID, resolved.ID)
	require.NotNil(t, p.CategoryID)
	assert.Equal(t, cat.ID, *p.CategoryID)
}

func TestCompile_UnresolvableCategoryIsSilentNoOp(t *testing.T) {
	c := newCompiler(&stubResolver{categories: map[string]*domain.Category{}})

	p, resolved, err := c.Compile(context.Background(), Input{
		Q:            "pumps",
		CategorySlug: "nonexistent",
	})
	require.NoError(t, err)
	assert.Nil(t, resolved)
	assert.Nil(t, p.CategoryID)
	assert.Equal(t, "pumps", p.Text)
}

func TestCompile_ResolverStoreFailureIsFatal(t *testing.T) {
	c := newCompiler(&stubResolver{err: errors.New("connection refused")})

	_, _, err := c.Compile(context.Background(), Input{CategorySlug: "televisions"})
	assert.Error(t, err)
}

func TestCompile_PriceBounds(t *testing.T) {
	c := newCompiler(&stubResolver{})

	p, _, err := c.Compile(context.Background(), Input{Filters: map[string]any{
		"priceMin": 25000.0,
		"priceMax": 50000.0,
	}})
	require.NoError(t, err)
	require.NotNil(t, p.PriceMin)
	require.NotNil(t, p.PriceMax)
	assert.Equal(t, 25000.0, *p.PriceMin)
	assert.Equal(t, 50000.0, *p.PriceMax)
}

func TestCompile_NonNumericPriceBoundSkipped(t *testing.T) {
	c := newCompiler(&stubResolver{})

	p, _, err := c.Compile(context.Background(), Input{Filters: map[string]any{
		"priceMin": "25000",
		"priceMax": 50000.0,
	}})
	require.NoError(t, err)
	assert.Nil(t, p.PriceMin)
	require.NotNil(t, p.PriceMax)
	assert.Equal(t, 50000.0, *p.PriceMax)
}

func TestCompile_LocationSubstring(t *testing.T) {
	c := newCompiler(&stubResolver{})

	p, _, err := c.Compile(context.Background(), Input{Filters: map[string]any{
		"location": "mumbai",
	}})
	require.NoError(t, err)
	assert.Equal(t, "mumbai", p.CitySubstring)

	// Non-string location values are skipped.
	p, _, err = c.Compile(context.Background(), Input{Filters: map[string]any{
		"location": 42.0,
	}})
	require.NoError(t, err)
	assert.Empty(t, p.CitySubstring)
}

func TestCompile_AttributeFilters(t *testing.T) {
	c := newCompiler(&stubResolver{})

	p, _, err := c.Compile(context.Background(), Input{Filters: map[string]any{
		"brand":       []any{"Nike", "Adidas"},
		"screen_size": 55.0,
		"smart_tv":    true,
	}})
	require.NoError(t, err)
	require.Len(t, p.Attributes, 3)

	// Keys come out sorted for deterministic compilation.
	assert.Equal(t, domain.AttributeFilter{Key: "brand", Values: []string{"Nike", "Adidas"}}, p.Attributes[0])
	assert.Equal(t, domain.AttributeFilter{Key: "screen_size", Values: []string{"55"}}, p.Attributes[1])
	assert.Equal(t, domain.AttributeFilter{Key: "smart_tv", Values: []string{"true"}}, p.Attributes[2])
}

func TestCompile_FalsyAttributeValuesSkipped(t *testing.T) {
	c := newCompiler(&stubResolver{})

	p, _, err := c.Compile(context.Background(), Input{Filters: map[string]any{
		"brand":    "",
		"warranty": false,
		"count":    0.0,
		"missing":  nil,
	}})
	require.NoError(t, err)
	assert.Empty(t, p.Attributes)
}

func TestCompile_EmptyArrayFilterKept(t *testing.T) {
	c := newCompiler(&stubResolver{})

	// An explicit empty array means "match none of the declared values",
	// which matches nothing; it is compiled, not dropped.
	p, _, err := c.Compile(context.Background(), Input{Filters: map[string]any{
		"brand": []any{},
	}})
	require.NoError(t, err)
	require.Len(t, p.Attributes, 1)
	assert.Empty(t, p.Attributes[0].Values)
}

func TestCompile_UnknownAttributeKeysAccepted(t *testing.T) {
	cat := &domain.Category{ID: uuid.New(), Slug: "televisions"}
	c := newCompiler(&stubResolver{categories: map[string]*domain.Category{
		"televisions": cat,
	}})

	// Keys absent from the category schema still compile; the store simply
	// finds no matches if no listing carries them.
	p, _, err := c.Compile(context.Background(), Input{
		CategorySlug: "televisions",
		Filters:      map[string]any{"made_up_key": "whatever"},
	})
	require.NoError(t, err)
	require.Len(t, p.Attributes, 1)
	assert.Equal(t, "made_up_key", p.Attributes[0].Key)
}
