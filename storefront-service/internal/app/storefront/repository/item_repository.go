package repository

import (
	"context"
	"errors"
	"fmt"

	"storefront/pkg/metrics"
	"storefront/storefront-service/internal/app/storefront/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type itemRepository struct {
	db *gorm.DB
}

// NewItemRepository создает репозиторий товаров поверх GORM
func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepository{db: db}
}

// FindBySlug получает товар по slug вместе с упорядоченным набором категорий
func (r *itemRepository) FindBySlug(ctx context.Context, slug string, itemType *entity.ItemType) (*entity.Item, error) {
	timer := metrics.NewDbTimer(metricsService, metrics.DbOpSelect, "items")
	defer timer.ObserveDuration()

	query := r.db.WithContext(ctx).Where("slug = ?", slug)
	if itemType != nil {
		query = query.Where("type = ?", *itemType)
	}

	var item entity.Item
	if err := query.First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		metrics.RecordDbError(metricsService, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to get item by slug: %w", err)
	}

	items := []entity.Item{item}
	if err := r.attachCategories(ctx, items); err != nil {
		return nil, err
	}

	return &items[0], nil
}

// FindByCategoryIDsIn получает товары, у которых хотя бы одна категория входит в ids
func (r *itemRepository) FindByCategoryIDsIn(ctx context.Context, ids []uuid.UUID, filter entity.ItemFilter, sortBy entity.SortOption) ([]entity.Item, error) {
	if len(ids) == 0 {
		return []entity.Item{}, nil
	}

	membership := r.db.Model(&entity.ItemCategory{}).
		Select("item_id").
		Where("category_id IN ?", ids)

	query := r.db.WithContext(ctx).Model(&entity.Item{}).Where("id IN (?)", membership)
	return r.find(ctx, query, filter, sortBy)
}

// FindAll получает товары без привязки к категориям
func (r *itemRepository) FindAll(ctx context.Context, filter entity.ItemFilter, sortBy entity.SortOption) ([]entity.Item, error) {
	return r.find(ctx, r.db.WithContext(ctx).Model(&entity.Item{}), filter, sortBy)
}

func (r *itemRepository) find(ctx context.Context, query *gorm.DB, filter entity.ItemFilter, sortBy entity.SortOption) ([]entity.Item, error) {
	timer := metrics.NewDbTimer(metricsService, metrics.DbOpSelect, "items")
	defer timer.ObserveDuration()

	if len(filter.Availability) > 0 {
		query = query.Where("availability IN ?", filter.Availability)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}

	items := []entity.Item{}
	if err := applyOrder(query, sortBy).Find(&items).Error; err != nil {
		metrics.RecordDbError(metricsService, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to get items: %w", err)
	}

	if err := r.attachCategories(ctx, items); err != nil {
		return nil, err
	}

	return items, nil
}

// attachCategories заполняет CategoryIDs в порядке position
func (r *itemRepository) attachCategories(ctx context.Context, items []entity.Item) error {
	if len(items) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}

	var links []entity.ItemCategory
	err := r.db.WithContext(ctx).
		Where("item_id IN ?", ids).
		Order("item_id ASC").
		Order("position ASC").
		Find(&links).Error
	if err != nil {
		metrics.RecordDbError(metricsService, metrics.DbOpSelect)
		return fmt.Errorf("failed to get item categories: %w", err)
	}

	byItem := make(map[uuid.UUID][]uuid.UUID, len(items))
	for _, link := range links {
		byItem[link.ItemID] = append(byItem[link.ItemID], link.CategoryID)
	}

	for i := range items {
		if categoryIDs, ok := byItem[items[i].ID]; ok {
			items[i].CategoryIDs = categoryIDs
		} else {
			items[i].CategoryIDs = []uuid.UUID{}
		}
	}

	return nil
}

// applyOrder задает сортировку; при равенстве ключа более новые товары идут первыми
func applyOrder(query *gorm.DB, sortBy entity.SortOption) *gorm.DB {
	switch sortBy {
	case entity.SortPriceAsc:
		query = query.Order("COALESCE(sale_price, price) ASC")
	case entity.SortPriceDesc:
		query = query.Order("COALESCE(sale_price, price) DESC")
	case entity.SortNameAsc:
		query = query.Order("name ASC")
	}
	return query.Order("created_at DESC").Order("id ASC")
}
