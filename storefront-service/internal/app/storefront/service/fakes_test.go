package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"storefront/storefront-service/internal/app/storefront/entity"
	"storefront/storefront-service/internal/app/storefront/repository"

	"github.com/google/uuid"
)

// fakeCategoryStore - дерево категорий в памяти, повторяет контракт репозитория
type fakeCategoryStore struct {
	mu         sync.Mutex
	categories map[uuid.UUID]entity.Category
	order      []uuid.UUID
	err        error // если задана, возвращается всеми методами
	block      bool  // методы ждут отмены контекста

	findByIDCalls int
	childrenCalls int
}

func newFakeCategoryStore() *fakeCategoryStore {
	return &fakeCategoryStore{categories: make(map[uuid.UUID]entity.Category)}
}

// add создает категорию; name совпадает со slug, если не указан отдельно
func (f *fakeCategoryStore) add(slug string, parent *entity.Category) entity.Category {
	var parentID *uuid.UUID
	if parent != nil {
		id := parent.ID
		parentID = &id
	}
	return f.addWithParentID(slug, parentID)
}

func (f *fakeCategoryStore) addWithParentID(slug string, parentID *uuid.UUID) entity.Category {
	f.mu.Lock()
	defer f.mu.Unlock()

	category := entity.Category{
		ID:        uuid.New(),
		Slug:      slug,
		Name:      slug,
		Type:      entity.CategoryTypeProduct,
		ParentID:  parentID,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, len(f.order), 0, time.UTC),
	}
	f.categories[category.ID] = category
	f.order = append(f.order, category.ID)
	return category
}

func (f *fakeCategoryStore) setParent(id uuid.UUID, parentID *uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()

	category := f.categories[id]
	category.ParentID = parentID
	f.categories[id] = category
}

func (f *fakeCategoryStore) get(id uuid.UUID) entity.Category {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.categories[id]
}

func (f *fakeCategoryStore) fail(ctx context.Context) error {
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.err
}

func (f *fakeCategoryStore) FindByID(ctx context.Context, id uuid.UUID) (*entity.Category, error) {
	f.mu.Lock()
	f.findByIDCalls++
	f.mu.Unlock()

	if err := f.fail(ctx); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	category, ok := f.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	return &category, nil
}

func (f *fakeCategoryStore) FindBySlugAndParentSlug(ctx context.Context, slug string, parentSlug *string) (*entity.Category, error) {
	if err := f.fail(ctx); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var fallback *entity.Category
	for _, id := range f.order {
		category := f.categories[id]
		if category.Slug != slug {
			continue
		}

		if parentSlug != nil {
			if category.ParentID == nil {
				continue
			}
			parent, ok := f.categories[*category.ParentID]
			if ok && parent.Slug == *parentSlug {
				return &category, nil
			}
			continue
		}

		if category.ParentID == nil {
			return &category, nil
		}
		if fallback == nil {
			fallback = &category
		}
	}

	if fallback != nil {
		return fallback, nil
	}
	return nil, repository.ErrCategoryNotFound
}

func (f *fakeCategoryStore) FindChildrenOf(ctx context.Context, id uuid.UUID) ([]entity.Category, error) {
	return f.FindChildrenOfAny(ctx, []uuid.UUID{id})
}

func (f *fakeCategoryStore) FindChildrenOfAny(ctx context.Context, ids []uuid.UUID) ([]entity.Category, error) {
	f.mu.Lock()
	f.childrenCalls++
	f.mu.Unlock()

	if err := f.fail(ctx); err != nil {
		return nil, err
	}

	wanted := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	return f.filter(func(c entity.Category) bool {
		return c.ParentID != nil && wanted[*c.ParentID]
	}), nil
}

func (f *fakeCategoryStore) FindRootCategories(ctx context.Context) ([]entity.Category, error) {
	if err := f.fail(ctx); err != nil {
		return nil, err
	}

	return f.filter(func(c entity.Category) bool { return c.ParentID == nil }), nil
}

func (f *fakeCategoryStore) FindAll(ctx context.Context) ([]entity.Category, error) {
	if err := f.fail(ctx); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	all := make([]entity.Category, 0, len(f.order))
	for _, id := range f.order {
		all = append(all, f.categories[id])
	}
	return all, nil
}

// filter возвращает категории, отсортированные по имени, как и репозиторий
func (f *fakeCategoryStore) filter(match func(entity.Category) bool) []entity.Category {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []entity.Category{}
	for _, id := range f.order {
		if category := f.categories[id]; match(category) {
			out = append(out, category)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// recordingReporter запоминает все предупреждения
type recordingReporter struct {
	mu       sync.Mutex
	warnings []entity.IntegrityWarning
}

func (r *recordingReporter) Report(_ context.Context, warning entity.IntegrityWarning) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings = append(r.warnings, warning)
}

func (r *recordingReporter) kinds() []entity.IntegrityKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]entity.IntegrityKind, len(r.warnings))
	for i, w := range r.warnings {
		kinds[i] = w.Kind
	}
	return kinds
}

func slugs(categories []entity.Category) []string {
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = c.Slug
	}
	return out
}
