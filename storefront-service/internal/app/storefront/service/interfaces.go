package service

import (
	"context"

	"storefront/storefront-service/internal/app/storefront/entity"
)

// IntegrityReporter принимает предупреждения о нарушении целостности дерева категорий.
// Report никогда не прерывает запрос, в котором нарушение обнаружено
type IntegrityReporter interface {
	Report(ctx context.Context, warning entity.IntegrityWarning)
}

type CatalogServiceInterface interface {
	GetCategoryPageData(ctx context.Context, slugPath, sortBy string, availability []string) (*entity.CategoryPageResult, error)
	GetProductPageData(ctx context.Context, slug string) (*entity.ProductPageResult, error)
	ListRootCategories(ctx context.Context) ([]entity.Category, error)
	GetCategoryTree(ctx context.Context) ([]entity.CategoryNode, error)
	ListItems(ctx context.Context, query entity.ItemQuery) ([]entity.Item, error)
}

type IntegrityAuditorInterface interface {
	Audit(ctx context.Context) (*entity.AuditReport, error)
}
