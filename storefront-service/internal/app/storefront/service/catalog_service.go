package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/pkg/logger"
	"storefront/pkg/metrics"
	"storefront/storefront-service/internal/app/storefront/entity"
	"storefront/storefront-service/internal/app/storefront/repository"

	"github.com/google/uuid"
)

const (
	operationCategoryPage = "category_page"
	operationProductPage  = "product_page"
	operationRootList     = "root_categories"
	operationCategoryTree = "category_tree"
	operationItemList     = "item_list"
)

// CatalogService отвечает на запросы витрины: страница категории, страница товара,
// навигация и списки товаров. Состояния между запросами нет, все данные читаются из хранилищ
type CatalogService struct {
	categoryRepo repository.CategoryRepository // Дерево категорий (PostgreSQL, опционально через Redis кеш)
	itemRepo     repository.ItemRepository     // Товары и их связи с категориями
	ancestry     *AncestryResolver
	descendants  *DescendantResolver
	timeout      time.Duration // Таймаут одного обращения к хранилищу
}

// NewCatalogService создает новый сервис каталога с внедрением зависимостей
func NewCatalogService(
	categoryRepo repository.CategoryRepository,
	itemRepo repository.ItemRepository,
	reporter IntegrityReporter,
	storeTimeout time.Duration,
) *CatalogService {
	return &CatalogService{
		categoryRepo: categoryRepo,
		itemRepo:     itemRepo,
		ancestry:     NewAncestryResolver(categoryRepo, reporter, storeTimeout),
		descendants:  NewDescendantResolver(categoryRepo, reporter, storeTimeout),
		timeout:      storeTimeout,
	}
}

// GetCategoryPageData собирает страницу категории по slug или пути вида parent/child.
// Товары берутся из всего поддерева, группировка идет по прямым подкатегориям
func (s *CatalogService) GetCategoryPageData(ctx context.Context, slugPath, sortBy string, availability []string) (result *entity.CategoryPageResult, err error) {
	defer func() { metrics.RecordCatalogQuery(operationCategoryPage, outcomeOf(err)) }()

	sort, ok := entity.ParseSortOption(sortBy)
	if !ok {
		return nil, fmt.Errorf("%w: unknown sort option %q", ErrInvalidArgument, sortBy)
	}

	category, err := s.resolveSlugPath(ctx, slugPath)
	if err != nil {
		return nil, err
	}

	breadcrumbs, err := s.ancestry.ResolveFrom(ctx, *category)
	if err != nil {
		return nil, err
	}

	descendants, err := s.descendants.Walk(ctx, []uuid.UUID{category.ID}, operationCategoryPage)
	if err != nil {
		return nil, err
	}

	items, err := s.findItemsIn(ctx, closureIDs(category.ID, descendants), entity.ItemFilter{
		Availability: normalizeAvailability(availability),
	}, sort)
	if err != nil {
		return nil, err
	}

	return &entity.CategoryPageResult{
		Category:     *category,
		Items:        items,
		Breadcrumbs:  breadcrumbs,
		GroupedItems: groupByChild(category.ID, descendants, items),
	}, nil
}

// GetProductPageData возвращает товар и хлебные крошки его первой категории.
// Товар из нескольких категорий показывает одну цепочку, выбранную по порядку связей
func (s *CatalogService) GetProductPageData(ctx context.Context, slug string) (result *entity.ProductPageResult, err error) {
	defer func() { metrics.RecordCatalogQuery(operationProductPage, outcomeOf(err)) }()

	if strings.TrimSpace(slug) == "" {
		return nil, fmt.Errorf("item %w", ErrNotFound)
	}

	callCtx, cancel := withStoreTimeout(ctx, s.timeout)
	item, err := s.itemRepo.FindBySlug(callCtx, slug, nil)
	cancel()
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return nil, fmt.Errorf("item %q: %w", slug, ErrNotFound)
		}
		return nil, unavailable(operationProductPage, err)
	}

	breadcrumbs, err := s.ancestry.Resolve(ctx, item.PrimaryCategoryID())
	if err != nil {
		return nil, err
	}

	return &entity.ProductPageResult{
		Item:        *item,
		Breadcrumbs: breadcrumbs,
	}, nil
}

// ListRootCategories возвращает категории верхнего уровня
func (s *CatalogService) ListRootCategories(ctx context.Context) (categories []entity.Category, err error) {
	defer func() { metrics.RecordCatalogQuery(operationRootList, outcomeOf(err)) }()

	callCtx, cancel := withStoreTimeout(ctx, s.timeout)
	defer cancel()

	categories, err = s.categoryRepo.FindRootCategories(callCtx)
	if err != nil {
		return nil, unavailable(operationRootList, err)
	}

	return categories, nil
}

// GetCategoryTree строит навигационное дерево от корневых категорий
func (s *CatalogService) GetCategoryTree(ctx context.Context) (tree []entity.CategoryNode, err error) {
	defer func() { metrics.RecordCatalogQuery(operationCategoryTree, outcomeOf(err)) }()

	callCtx, cancel := withStoreTimeout(ctx, s.timeout)
	roots, err := s.categoryRepo.FindRootCategories(callCtx)
	cancel()
	if err != nil {
		return nil, unavailable(operationCategoryTree, err)
	}

	rootIDs := make([]uuid.UUID, len(roots))
	for i, root := range roots {
		rootIDs[i] = root.ID
	}

	descendants, err := s.descendants.Walk(ctx, rootIDs, operationCategoryTree)
	if err != nil {
		return nil, err
	}

	childrenByParent := make(map[uuid.UUID][]entity.Category)
	for _, category := range descendants {
		childrenByParent[*category.ParentID] = append(childrenByParent[*category.ParentID], category)
	}

	tree = make([]entity.CategoryNode, len(roots))
	for i, root := range roots {
		tree[i] = buildNode(root, childrenByParent)
	}

	return tree, nil
}

// ListItems возвращает товары с фильтрами; с категорией выборка ограничена ее поддеревом.
// Неизвестная категория дает пустой список, а не ошибку
func (s *CatalogService) ListItems(ctx context.Context, query entity.ItemQuery) (items []entity.Item, err error) {
	defer func() { metrics.RecordCatalogQuery(operationItemList, outcomeOf(err)) }()

	sort, ok := entity.ParseSortOption(query.SortBy)
	if !ok {
		return nil, fmt.Errorf("%w: unknown sort option %q", ErrInvalidArgument, query.SortBy)
	}

	filter := entity.ItemFilter{
		Availability: normalizeAvailability(query.Availability),
		Type:         query.Type,
	}

	if strings.Trim(query.CategorySlug, "/ ") == "" {
		callCtx, cancel := withStoreTimeout(ctx, s.timeout)
		defer cancel()

		items, err = s.itemRepo.FindAll(callCtx, filter, sort)
		if err != nil {
			return nil, unavailable(operationItemList, err)
		}
		return items, nil
	}

	category, err := s.resolveSlugPath(ctx, query.CategorySlug)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.Debug().Str("category", query.CategorySlug).Msg("Unknown category in item query")
			return []entity.Item{}, nil
		}
		return nil, err
	}

	ids, err := s.descendants.Resolve(ctx, category.ID)
	if err != nil {
		return nil, err
	}

	return s.findItemsIn(ctx, ids, filter, sort)
}

// resolveSlugPath находит категорию по последнему сегменту пути.
// Если сегментов несколько, slug прямого родителя должен совпасть с предпоследним
func (s *CatalogService) resolveSlugPath(ctx context.Context, slugPath string) (*entity.Category, error) {
	segments := splitSlugPath(slugPath)
	if len(segments) == 0 {
		return nil, fmt.Errorf("category %w", ErrNotFound)
	}

	slug := segments[len(segments)-1]
	var parentSlug *string
	if len(segments) > 1 {
		parentSlug = &segments[len(segments)-2]
	}

	callCtx, cancel := withStoreTimeout(ctx, s.timeout)
	defer cancel()

	category, err := s.categoryRepo.FindBySlugAndParentSlug(callCtx, slug, parentSlug)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, fmt.Errorf("category %q: %w", slugPath, ErrNotFound)
		}
		return nil, unavailable("resolve_slug_path", err)
	}

	return category, nil
}

func (s *CatalogService) findItemsIn(ctx context.Context, ids []uuid.UUID, filter entity.ItemFilter, sort entity.SortOption) ([]entity.Item, error) {
	callCtx, cancel := withStoreTimeout(ctx, s.timeout)
	defer cancel()

	items, err := s.itemRepo.FindByCategoryIDsIn(callCtx, ids, filter, sort)
	if err != nil {
		return nil, unavailable("find_items", err)
	}

	return items, nil
}

// groupByChild раскладывает товары по первой категории из набора товара,
// которая является прямой подкатегорией parentID. Остальные товары в группировку не попадают
func groupByChild(parentID uuid.UUID, descendants []entity.Category, items []entity.Item) map[string][]entity.Item {
	childNames := make(map[uuid.UUID]string)
	for _, category := range descendants {
		if category.ParentID != nil && *category.ParentID == parentID {
			childNames[category.ID] = category.Name
		}
	}

	grouped := make(map[string][]entity.Item)
	if len(childNames) == 0 {
		return grouped
	}

	for _, item := range items {
		for _, categoryID := range item.CategoryIDs {
			if name, ok := childNames[categoryID]; ok {
				grouped[name] = append(grouped[name], item)
				break
			}
		}
	}

	return grouped
}

// buildNode рекурсивно собирает узел; childrenByParent получен обходом с visited-set, поэтому это дерево
func buildNode(category entity.Category, childrenByParent map[uuid.UUID][]entity.Category) entity.CategoryNode {
	children := childrenByParent[category.ID]
	node := entity.CategoryNode{
		Category: category,
		Children: make([]entity.CategoryNode, len(children)),
	}
	for i, child := range children {
		node.Children[i] = buildNode(child, childrenByParent)
	}
	return node
}

func splitSlugPath(slugPath string) []string {
	var segments []string
	for _, segment := range strings.Split(slugPath, "/") {
		if segment = strings.TrimSpace(segment); segment != "" {
			segments = append(segments, segment)
		}
	}
	return segments
}

// normalizeAvailability убирает пустые значения и дубликаты
func normalizeAvailability(values []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
