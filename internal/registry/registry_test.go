package registry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b2bmart/search-service/internal/domain"
	apperrors "github.com/b2bmart/search-service/pkg/errors"
)

type stubSource struct {
	categories map[string]*domain.Category
	calls      int
	err        error
}

func (s *stubSource) GetBySlug(_ context.Context, slug string) (*domain.Category, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	c, ok := s.categories[slug]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return c, nil
}

func (s *stubSource) ListActive(_ context.Context) ([]domain.Category, error) {
	out := make([]domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, *c)
	}
	return out, nil
}

func testCategory(slug string) *domain.Category {
	return &domain.Category{
		ID:   uuid.New(),
		Name: "Televisions",
		Slug: slug,
		AttributeSchema: domain.AttributeSchema{
			{
				Key: "brand",
				AttributeDefinition: domain.AttributeDefinition{
					Type:       domain.AttributeEnum,
					Label:      "Brand",
					Values:     []string{"Samsung", "LG"},
					Filterable: true,
				},
			},
		},
		IsActive: true,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func setupRegistry(t *testing.T, source CategorySource) (*Registry, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(source, client, 5*time.Minute, testLogger()), mr
}

func TestRegistry_GetBySlug_Found(t *testing.T) {
	src := &stubSource{categories: map[string]*domain.Category{
		"televisions": testCategory("televisions"),
	}}
	reg, _ := setupRegistry(t, src)

	got, err := reg.GetBySlug(context.Background(), "televisions")
	require.NoError(t, err)
	assert.Equal(t, "televisions", got.Slug)
	require.Len(t, got.AttributeSchema, 1)
	assert.Equal(t, "brand", got.AttributeSchema[0].Key)
}

func TestRegistry_GetBySlug_NotFound(t *testing.T) {
	src := &stubSource{categories: map[string]*domain.Category{}}
	reg, _ := setupRegistry(t, src)

	got, err := reg.GetBySlug(context.Background(), "nonexistent")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRegistry_GetBySlug_InvalidSlugRejectedBeforeStore(t *testing.T) {
	src := &stubSource{categories: map[string]*domain.Category{}}
	reg, _ := setupRegistry(t, src)

	for _, bad := range []string{"", "Televisions", "tv category", "a/../b", "x;drop"} {
		got, err := reg.GetBySlug(context.Background(), bad)
		assert.Nil(t, got, "slug %q", bad)
		assert.ErrorIs(t, err, apperrors.ErrNotFound, "slug %q", bad)
	}
	assert.Zero(t, src.calls)
}

func TestRegistry_GetBySlug_SecondLookupServedFromCache(t *testing.T) {
	src := &stubSource{categories: map[string]*domain.Category{
		"televisions": testCategory("televisions"),
	}}
	reg, _ := setupRegistry(t, src)

	_, err := reg.GetBySlug(context.Background(), "televisions")
	require.NoError(t, err)

	got, err := reg.GetBySlug(context.Background(), "televisions")
	require.NoError(t, err)
	assert.Equal(t, "televisions", got.Slug)
	assert.Equal(t, 1, src.calls)
}

func TestRegistry_GetBySlug_CacheExpiryFallsBackToSource(t *testing.T) {
	src := &stubSource{categories: map[string]*domain.Category{
		"televisions": testCategory("televisions"),
	}}
	reg, mr := setupRegistry(t, src)

	_, err := reg.GetBySlug(context.Background(), "televisions")
	require.NoError(t, err)

	mr.FastForward(10 * time.Minute)

	_, err = reg.GetBySlug(context.Background(), "televisions")
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestRegistry_GetBySlug_CorruptCacheEntryIgnored(t *testing.T) {
	src := &stubSource{categories: map[string]*domain.Category{
		"televisions": testCategory("televisions"),
	}}
	reg, mr := setupRegistry(t, src)

	require.NoError(t, mr.Set(keyPrefix+"televisions", "{not json"))

	got, err := reg.GetBySlug(context.Background(), "televisions")
	require.NoError(t, err)
	assert.Equal(t, "televisions", got.Slug)
	assert.Equal(t, 1, src.calls)
}

func TestRegistry_GetBySlug_NilCache(t *testing.T) {
	src := &stubSource{categories: map[string]*domain.Category{
		"televisions": testCategory("televisions"),
	}}
	reg := New(src, nil, time.Minute, testLogger())

	got, err := reg.GetBySlug(context.Background(), "televisions")
	require.NoError(t, err)
	assert.Equal(t, "televisions", got.Slug)
}

func TestRegistry_GetBySlug_SourceError(t *testing.T) {
	src := &stubSource{err: errors.New("connection refused")}
	reg, _ := setupRegistry(t, src)

	got, err := reg.GetBySlug(context.Background(), "televisions")
	assert.Nil(t, got)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrNotFound)
}
