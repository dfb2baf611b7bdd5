package repository

import (
	"context"
	"errors"

	"storefront/storefront-service/internal/app/storefront/entity"

	"github.com/google/uuid"
)

const metricsService = "storefront-service"

var (
	// Стандартные ошибки репозитория для обработки в service layer
	ErrCategoryNotFound = errors.New("category not found")
	ErrItemNotFound     = errors.New("item not found")
)

// CategoryRepository - доступ к дереву категорий, только чтение
type CategoryRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Category, error)
	// parentSlug == nil - любая категория с таким slug, приоритет у корневых
	FindBySlugAndParentSlug(ctx context.Context, slug string, parentSlug *string) (*entity.Category, error)
	FindChildrenOf(ctx context.Context, id uuid.UUID) ([]entity.Category, error)
	// FindChildrenOfAny возвращает прямых детей всех переданных категорий за один запрос
	FindChildrenOfAny(ctx context.Context, ids []uuid.UUID) ([]entity.Category, error)
	FindRootCategories(ctx context.Context) ([]entity.Category, error)
	FindAll(ctx context.Context) ([]entity.Category, error)
}

// ItemRepository - доступ к товарам и услугам, только чтение
type ItemRepository interface {
	FindBySlug(ctx context.Context, slug string, itemType *entity.ItemType) (*entity.Item, error)
	FindByCategoryIDsIn(ctx context.Context, ids []uuid.UUID, filter entity.ItemFilter, sortBy entity.SortOption) ([]entity.Item, error)
	FindAll(ctx context.Context, filter entity.ItemFilter, sortBy entity.SortOption) ([]entity.Item, error)
}

// CategoryCacheInvalidator сбрасывает кеш дерева категорий до истечения TTL
type CategoryCacheInvalidator interface {
	InvalidateCategories(ctx context.Context) error
}
