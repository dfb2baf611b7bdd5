package repository

import (
	"context"
	"errors"
	"fmt"

	"storefront/pkg/metrics"
	"storefront/storefront-service/internal/app/storefront/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	categoryColumns         = `id, slug, name, description, image, type, parent_id, created_at`
	categoryColumnsPrefixed = `c.id, c.slug, c.name, c.description, c.image, c.type, c.parent_id, c.created_at`
)

type categoryRepository struct {
	db *pgxpool.Pool // Пул соединений с PostgreSQL
}

// NewCategoryRepository создает репозиторий категорий поверх pgx
func NewCategoryRepository(db *pgxpool.Pool) CategoryRepository {
	return &categoryRepository{db: db}
}

// FindByID получает категорию по ID
func (r *categoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Category, error) {
	timer := metrics.NewDbTimer(metricsService, metrics.DbOpSelect, "categories")
	defer timer.ObserveDuration()

	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`

	category, err := scanCategory(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		metrics.RecordDbError(metricsService, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to get category by id: %w", err)
	}

	return category, nil
}

// FindBySlugAndParentSlug ищет категорию по slug с опциональной проверкой slug родителя.
// Один и тот же slug может встречаться у разных родителей, поэтому без parentSlug
// предпочитаем корневую категорию, затем самую старую
func (r *categoryRepository) FindBySlugAndParentSlug(ctx context.Context, slug string, parentSlug *string) (*entity.Category, error) {
	timer := metrics.NewDbTimer(metricsService, metrics.DbOpSelect, "categories")
	defer timer.ObserveDuration()

	var row pgx.Row
	if parentSlug == nil {
		query := `
			SELECT ` + categoryColumns + `
			FROM categories
			WHERE slug = $1
			ORDER BY (parent_id IS NULL) DESC, created_at ASC, id ASC
			LIMIT 1
		`
		row = r.db.QueryRow(ctx, query, slug)
	} else {
		query := `
			SELECT ` + categoryColumnsPrefixed + `
			FROM categories c
			JOIN categories p ON p.id = c.parent_id
			WHERE c.slug = $1 AND p.slug = $2
			ORDER BY c.created_at ASC, c.id ASC
			LIMIT 1
		`
		row = r.db.QueryRow(ctx, query, slug, *parentSlug)
	}

	category, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		metrics.RecordDbError(metricsService, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to get category by slug: %w", err)
	}

	return category, nil
}

// FindChildrenOf получает прямых потомков категории, отсортированных по имени
func (r *categoryRepository) FindChildrenOf(ctx context.Context, id uuid.UUID) ([]entity.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE parent_id = $1 ORDER BY name ASC`
	return r.queryCategories(ctx, query, id)
}

// FindChildrenOfAny получает прямых потомков набора категорий одним запросом.
// Используется при обходе дерева по уровням
func (r *categoryRepository) FindChildrenOfAny(ctx context.Context, ids []uuid.UUID) ([]entity.Category, error) {
	if len(ids) == 0 {
		return []entity.Category{}, nil
	}

	query := `SELECT ` + categoryColumns + ` FROM categories WHERE parent_id = ANY($1) ORDER BY name ASC`
	return r.queryCategories(ctx, query, ids)
}

// FindRootCategories получает категории верхнего уровня
func (r *categoryRepository) FindRootCategories(ctx context.Context) ([]entity.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE parent_id IS NULL ORDER BY name ASC`
	return r.queryCategories(ctx, query)
}

// FindAll получает все категории, используется фоновой проверкой целостности
func (r *categoryRepository) FindAll(ctx context.Context) ([]entity.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories ORDER BY created_at ASC`
	return r.queryCategories(ctx, query)
}

func (r *categoryRepository) queryCategories(ctx context.Context, query string, args ...any) ([]entity.Category, error) {
	timer := metrics.NewDbTimer(metricsService, metrics.DbOpSelect, "categories")
	defer timer.ObserveDuration()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		metrics.RecordDbError(metricsService, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []entity.Category{}
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, *category)
	}

	// Проверяем ошибки итерации
	if err := rows.Err(); err != nil {
		metrics.RecordDbError(metricsService, metrics.DbOpSelect)
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

func scanCategory(row pgx.Row) (*entity.Category, error) {
	var category entity.Category
	err := row.Scan(
		&category.ID,
		&category.Slug,
		&category.Name,
		&category.Description,
		&category.Image,
		&category.Type,
		&category.ParentID,
		&category.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &category, nil
}
