package repository

import (
	"context"
	"fmt"
	"time"

	"storefront/pkg/logger"
	"storefront/pkg/metrics"
	"storefront/storefront-service/internal/app/storefront/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SeedImporter заливает дерево категорий и товары из JSON документа.
// Существующие данные каталога удаляются, импорт выполняется в одной транзакции
type SeedImporter struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSeedImporter(db *gorm.DB) *SeedImporter {
	return &SeedImporter{db: db, now: time.Now}
}

// Import создает категории рекурсивно, затем товары.
// Товар без единой найденной категории пропускается с предупреждением
func (s *SeedImporter) Import(ctx context.Context, content entity.SeedContent) (*entity.SeedResult, error) {
	result := &entity.SeedResult{ItemsSkipped: []string{}}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{"item_categories", "items", "categories"} {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}

		// slug -> id первой категории с таким slug, полный путь -> id
		bySlug := make(map[string]uuid.UUID)
		for _, seed := range content.Categories {
			created, err := s.createCategory(tx, seed, nil, "", bySlug)
			if err != nil {
				return err
			}
			result.CategoriesCreated += created
		}

		for _, seed := range content.Items {
			categoryIDs := resolveSeedCategories(seed, bySlug)
			if len(categoryIDs) == 0 {
				logger.Warn().
					Str("item", seed.Slug).
					Strs("category_slugs", seedCategorySlugs(seed)).
					Msg("No category found for seed item, skipping")
				result.ItemsSkipped = append(result.ItemsSkipped, seed.Slug)
				continue
			}

			if err := s.createItem(tx, seed, categoryIDs); err != nil {
				return err
			}
			result.ItemsCreated++
		}

		return nil
	})
	if err != nil {
		metrics.RecordDbError(metricsService, metrics.DbOpInsert)
		return nil, err
	}

	return result, nil
}

func (s *SeedImporter) createCategory(tx *gorm.DB, seed entity.SeedCategory, parentID *uuid.UUID, parentPath string, bySlug map[string]uuid.UUID) (int, error) {
	categoryType := seed.Type
	if categoryType == "" {
		categoryType = entity.CategoryTypeProduct
	}

	category := &entity.Category{
		ID:          uuid.New(),
		Slug:        seed.Slug,
		Name:        seed.Name,
		Description: optionalString(seed.Description),
		Image:       optionalString(seed.Image),
		Type:        categoryType,
		ParentID:    parentID,
		CreatedAt:   s.now().UTC(),
	}

	if err := tx.Create(category).Error; err != nil {
		return 0, fmt.Errorf("failed to create category %q: %w", seed.Slug, err)
	}

	path := seed.Slug
	if parentPath != "" {
		path = parentPath + "/" + seed.Slug
	}
	bySlug[path] = category.ID
	if _, exists := bySlug[seed.Slug]; !exists {
		bySlug[seed.Slug] = category.ID
	}

	created := 1
	for _, child := range seed.Children {
		n, err := s.createCategory(tx, child, &category.ID, path, bySlug)
		if err != nil {
			return 0, err
		}
		created += n
	}

	return created, nil
}

func (s *SeedImporter) createItem(tx *gorm.DB, seed entity.SeedItem, categoryIDs []uuid.UUID) error {
	availability := seed.Availability
	if availability == "" {
		availability = entity.AvailabilityInStock
	}

	item := &entity.Item{
		ID:           uuid.New(),
		Slug:         seed.Slug,
		Name:         seed.Name,
		Description:  seed.Description,
		Type:         seed.Type,
		Price:        decimal.NewFromFloat(seed.Price),
		Availability: availability,
		Vendor:       optionalString(seed.Vendor),
		SKU:          optionalString(seed.SKU),
		CreatedAt:    s.now().UTC(),
	}
	if seed.SalePrice != nil {
		item.SalePrice = decimal.NewNullDecimal(decimal.NewFromFloat(*seed.SalePrice))
	}

	if err := tx.Create(item).Error; err != nil {
		return fmt.Errorf("failed to create item %q: %w", seed.Slug, err)
	}

	links := make([]entity.ItemCategory, len(categoryIDs))
	for i, categoryID := range categoryIDs {
		links[i] = entity.ItemCategory{ItemID: item.ID, CategoryID: categoryID, Position: i}
	}
	if err := tx.Create(&links).Error; err != nil {
		return fmt.Errorf("failed to link item %q to categories: %w", seed.Slug, err)
	}

	return nil
}

// resolveSeedCategories сохраняет порядок из документа и убирает дубликаты
func resolveSeedCategories(seed entity.SeedItem, bySlug map[string]uuid.UUID) []uuid.UUID {
	var ids []uuid.UUID
	seen := make(map[uuid.UUID]bool)
	for _, slug := range seedCategorySlugs(seed) {
		id, ok := bySlug[slug]
		if !ok {
			logger.Warn().Str("item", seed.Slug).Str("category_slug", slug).Msg("Seed item references unknown category")
			continue
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

func seedCategorySlugs(seed entity.SeedItem) []string {
	slugs := append([]string{}, seed.CategorySlugs...)
	if seed.CategorySlug != "" {
		slugs = append(slugs, seed.CategorySlug)
	}
	return slugs
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
