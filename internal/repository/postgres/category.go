package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/b2bmart/search-service/internal/domain"
	"github.com/b2bmart/search-service/pkg/database"
	apperrors "github.com/b2bmart/search-service/pkg/errors"
)

// categoryColumns is the standard SELECT column list for categories.
const categoryColumns = `id, name, slug, description, attribute_schema,
	is_active, sort_order, created_at, updated_at`

// CategoryRepository reads categories and their attribute schemas from
// PostgreSQL. Categories are written by the catalog admin service; this
// service only reads them.
type CategoryRepository struct {
	pool database.DBTX
}

// NewCategoryRepository creates a new PostgreSQL-backed category repository.
func NewCategoryRepository(pool database.DBTX) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// GetBySlug retrieves an active category by its URL-friendly slug.
// Inactive categories are treated as not found.
func (r *CategoryRepository) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM categories WHERE slug = $1 AND is_active = true`,
		categoryColumns,
	)
	return r.scanCategory(ctx, query, slug)
}

// ListActive returns all active categories ordered by sort_order and name.
func (r *CategoryRepository) ListActive(ctx context.Context) ([]domain.Category, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM categories
		WHERE is_active = true
		ORDER BY sort_order, name`, categoryColumns)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category

	for rows.Next() {
		var c domain.Category
		var schemaRaw []byte
		if err := rows.Scan(
			&c.ID,
			&c.Name,
			&c.Slug,
			&c.Description,
			&schemaRaw,
			&c.IsActive,
			&c.SortOrder,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		if err := unmarshalSchema(schemaRaw, &c.AttributeSchema); err != nil {
			return nil, fmt.Errorf("decode attribute schema for %s: %w", c.Slug, err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category rows: %w", err)
	}

	if categories == nil {
		categories = []domain.Category{}
	}

	return categories, nil
}

// scanCategory executes a query expected to return a single category row.
func (r *CategoryRepository) scanCategory(ctx context.Context, query string, args ...any) (*domain.Category, error) {
	var c domain.Category
	var schemaRaw []byte

	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&c.ID,
		&c.Name,
		&c.Slug,
		&c.Description,
		&schemaRaw,
		&c.IsActive,
		&c.SortOrder,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan category: %w", err)
	}

	if err := unmarshalSchema(schemaRaw, &c.AttributeSchema); err != nil {
		return nil, fmt.Errorf("decode attribute schema for %s: %w", c.Slug, err)
	}

	return &c, nil
}

// unmarshalSchema decodes the attribute_schema JSONB column. The column holds
// a JSON array so declaration order survives the round trip; NULL means an
// empty schema.
func unmarshalSchema(raw []byte, schema *domain.AttributeSchema) error {
	if len(raw) == 0 {
		*schema = domain.AttributeSchema{}
		return nil
	}
	return json.Unmarshal(raw, schema)
}
