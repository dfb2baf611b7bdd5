package service

import (
	"context"
	"errors"
	"slices"
	"time"

	"storefront/pkg/metrics"
	"storefront/storefront-service/internal/app/storefront/entity"
	"storefront/storefront-service/internal/app/storefront/repository"

	"github.com/google/uuid"
)

const operationResolveAncestry = "resolve_ancestry"

// categoryLookup возвращает repository.ErrCategoryNotFound для отсутствующей категории
type categoryLookup func(ctx context.Context, id uuid.UUID) (*entity.Category, error)

// AncestryResolver строит цепочку предков категории от корня к листу для хлебных крошек
type AncestryResolver struct {
	categories repository.CategoryRepository
	reporter   IntegrityReporter
	timeout    time.Duration
	now        func() time.Time
}

func NewAncestryResolver(categories repository.CategoryRepository, reporter IntegrityReporter, storeTimeout time.Duration) *AncestryResolver {
	return &AncestryResolver{
		categories: categories,
		reporter:   reporter,
		timeout:    storeTimeout,
		now:        time.Now,
	}
}

// Resolve возвращает цепочку предков, начиная с корня и заканчивая самой категорией.
// nil id или отсутствующая категория дают пустую цепочку без ошибки
func (r *AncestryResolver) Resolve(ctx context.Context, id *uuid.UUID) ([]entity.Category, error) {
	if id == nil {
		return []entity.Category{}, nil
	}

	start, err := r.lookup(ctx, *id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return []entity.Category{}, nil
		}
		return nil, unavailable(operationResolveAncestry, err)
	}

	return r.ResolveFrom(ctx, *start)
}

// ResolveFrom строит цепочку для уже загруженной категории
func (r *AncestryResolver) ResolveFrom(ctx context.Context, start entity.Category) ([]entity.Category, error) {
	chain, warnings, err := walkAncestry(ctx, start, r.lookup, operationResolveAncestry, r.now)
	if err != nil {
		return nil, unavailable(operationResolveAncestry, err)
	}

	for _, warning := range warnings {
		r.reporter.Report(ctx, warning)
	}

	metrics.CatalogBreadcrumbDepth.Observe(float64(len(chain)))
	return chain, nil
}

func (r *AncestryResolver) lookup(ctx context.Context, id uuid.UUID) (*entity.Category, error) {
	callCtx, cancel := withStoreTimeout(ctx, r.timeout)
	defer cancel()
	return r.categories.FindByID(callCtx, id)
}

// walkAncestry поднимается по parent_id до корня.
// Самоссылка, повторный визит и висячая ссылка останавливают обход,
// цепочка собранная к этому моменту возвращается вместе с предупреждением
func walkAncestry(ctx context.Context, start entity.Category, lookup categoryLookup, operation string, now func() time.Time) ([]entity.Category, []entity.IntegrityWarning, error) {
	chain := []entity.Category{start}
	visited := map[uuid.UUID]struct{}{start.ID: {}}
	var warnings []entity.IntegrityWarning

	current := start
	for current.ParentID != nil {
		parentID := *current.ParentID

		if parentID == current.ID {
			warnings = append(warnings, newWarning(entity.IntegritySelfParent, current.ID, parentID, operation, now))
			break
		}
		if _, seen := visited[parentID]; seen {
			warnings = append(warnings, newWarning(entity.IntegrityCycle, current.ID, parentID, operation, now))
			break
		}

		parent, err := lookup(ctx, parentID)
		if err != nil {
			if errors.Is(err, repository.ErrCategoryNotFound) {
				warnings = append(warnings, newWarning(entity.IntegrityDanglingParent, current.ID, parentID, operation, now))
				break
			}
			return nil, nil, err
		}

		visited[parent.ID] = struct{}{}
		chain = append(chain, *parent)
		current = *parent
	}

	slices.Reverse(chain)
	return chain, warnings, nil
}

func newWarning(kind entity.IntegrityKind, categoryID, parentID uuid.UUID, operation string, now func() time.Time) entity.IntegrityWarning {
	return entity.IntegrityWarning{
		Kind:       kind,
		CategoryID: categoryID,
		ParentID:   &parentID,
		Operation:  operation,
		DetectedAt: now().UTC(),
	}
}
