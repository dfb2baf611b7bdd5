package service

import (
	"context"
	"time"

	"storefront/pkg/metrics"
	"storefront/storefront-service/internal/app/storefront/entity"
	"storefront/storefront-service/internal/app/storefront/repository"

	"github.com/google/uuid"
)

const operationResolveDescendants = "resolve_descendants"

// DescendantResolver обходит дерево категорий вниз по уровням:
// одно обращение к хранилищу на уровень, каждая категория раскрывается не более одного раза
type DescendantResolver struct {
	categories repository.CategoryRepository
	reporter   IntegrityReporter
	timeout    time.Duration
	now        func() time.Time
}

func NewDescendantResolver(categories repository.CategoryRepository, reporter IntegrityReporter, storeTimeout time.Duration) *DescendantResolver {
	return &DescendantResolver{
		categories: categories,
		reporter:   reporter,
		timeout:    storeTimeout,
		now:        time.Now,
	}
}

// Resolve возвращает id категории и всех ее потомков в порядке обнаружения, первым идет сам id
func (r *DescendantResolver) Resolve(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	descendants, err := r.Walk(ctx, []uuid.UUID{id}, operationResolveDescendants)
	if err != nil {
		return nil, err
	}

	return closureIDs(id, descendants), nil
}

// Walk возвращает всех потомков стартовых категорий (сами стартовые не включаются).
// Категория, найденная повторно, не раскрывается и отправляется в IntegrityReporter
func (r *DescendantResolver) Walk(ctx context.Context, start []uuid.UUID, operation string) ([]entity.Category, error) {
	visited := make(map[uuid.UUID]struct{}, len(start))
	frontier := make([]uuid.UUID, 0, len(start))
	for _, id := range start {
		if _, ok := visited[id]; ok {
			continue
		}
		visited[id] = struct{}{}
		frontier = append(frontier, id)
	}

	discovered := []entity.Category{}
	for len(frontier) > 0 {
		children, err := r.childrenOf(ctx, frontier)
		if err != nil {
			return nil, unavailable(operation, err)
		}

		next := make([]uuid.UUID, 0, len(children))
		for _, child := range children {
			if _, seen := visited[child.ID]; seen {
				r.reportRevisit(ctx, child, operation)
				continue
			}
			visited[child.ID] = struct{}{}
			discovered = append(discovered, child)
			next = append(next, child.ID)
		}
		frontier = next
	}

	metrics.CatalogDescendantClosureSize.Observe(float64(len(discovered) + len(start)))
	return discovered, nil
}

func (r *DescendantResolver) childrenOf(ctx context.Context, ids []uuid.UUID) ([]entity.Category, error) {
	callCtx, cancel := withStoreTimeout(ctx, r.timeout)
	defer cancel()
	return r.categories.FindChildrenOfAny(callCtx, ids)
}

func (r *DescendantResolver) reportRevisit(ctx context.Context, child entity.Category, operation string) {
	kind := entity.IntegrityCycle
	if child.ParentID != nil && *child.ParentID == child.ID {
		kind = entity.IntegritySelfParent
	}

	var parentID uuid.UUID
	if child.ParentID != nil {
		parentID = *child.ParentID
	}
	r.reporter.Report(ctx, newWarning(kind, child.ID, parentID, operation, r.now))
}

func closureIDs(start uuid.UUID, descendants []entity.Category) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(descendants)+1)
	ids = append(ids, start)
	for _, category := range descendants {
		ids = append(ids, category.ID)
	}
	return ids
}
