package repository

import (
	"context"
	"encoding/json"
	"time"

	"storefront/pkg/logger"
	"storefront/pkg/metrics"
	"storefront/storefront-service/internal/app/storefront/entity"
	"storefront/storefront-service/internal/app/storefront/util"

	"github.com/google/uuid"
)

const (
	categoryCachePrefix   = "catalog:category:"
	categoryByIDKey       = categoryCachePrefix + "id:"
	categoryChildrenKey   = categoryCachePrefix + "children:"
	categoryRootsKey      = categoryCachePrefix + "roots"
	categoryCacheMetricID = "category"
)

// CachedCategoryRepository - декоратор CategoryRepository с кешем в Redis.
// Кешируются только найденные записи, промахи и ErrCategoryNotFound всегда идут в хранилище.
// При недоступности Redis запросы обслуживаются напрямую из хранилища
type CachedCategoryRepository struct {
	next  CategoryRepository
	cache util.RedisCache
	ttl   time.Duration
}

func NewCachedCategoryRepository(next CategoryRepository, cache util.RedisCache, ttl time.Duration) *CachedCategoryRepository {
	return &CachedCategoryRepository{
		next:  next,
		cache: cache,
		ttl:   ttl,
	}
}

func (r *CachedCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Category, error) {
	key := categoryByIDKey + id.String()

	var cached entity.Category
	if r.load(ctx, key, &cached) {
		return &cached, nil
	}

	category, err := r.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	r.store(ctx, key, category)
	return category, nil
}

// FindBySlugAndParentSlug не кешируется: slug-пути приходят от пользователя и их множество не ограничено
func (r *CachedCategoryRepository) FindBySlugAndParentSlug(ctx context.Context, slug string, parentSlug *string) (*entity.Category, error) {
	return r.next.FindBySlugAndParentSlug(ctx, slug, parentSlug)
}

func (r *CachedCategoryRepository) FindChildrenOf(ctx context.Context, id uuid.UUID) ([]entity.Category, error) {
	key := categoryChildrenKey + id.String()

	var cached []entity.Category
	if r.load(ctx, key, &cached) {
		return cached, nil
	}

	children, err := r.next.FindChildrenOf(ctx, id)
	if err != nil {
		return nil, err
	}

	r.store(ctx, key, children)
	return children, nil
}

// FindChildrenOfAny читает детей каждого родителя из кеша одним MGET,
// недостающих родителей запрашивает из хранилища одним запросом
func (r *CachedCategoryRepository) FindChildrenOfAny(ctx context.Context, ids []uuid.UUID) ([]entity.Category, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return []entity.Category{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = categoryChildrenKey + id.String()
	}

	byParent := make(map[uuid.UUID][]entity.Category, len(ids))
	missing := make([]uuid.UUID, 0, len(ids))

	values, err := r.cache.MGet(ctx, keys)
	if err != nil {
		logger.Warn().Err(err).Msg("Category cache unavailable, reading children from store")
		values = make([][]byte, len(ids))
	}

	for i, id := range ids {
		var children []entity.Category
		if values[i] != nil && json.Unmarshal(values[i], &children) == nil {
			metrics.RecordCacheHit(metricsService, categoryCacheMetricID)
			byParent[id] = children
			continue
		}
		metrics.RecordCacheMiss(metricsService, categoryCacheMetricID)
		missing = append(missing, id)
	}

	if len(missing) > 0 {
		fetched, err := r.next.FindChildrenOfAny(ctx, missing)
		if err != nil {
			return nil, err
		}

		toCache := make(map[string][]byte, len(missing))
		for _, id := range missing {
			byParent[id] = []entity.Category{}
		}
		for _, child := range fetched {
			if child.ParentID == nil {
				continue
			}
			byParent[*child.ParentID] = append(byParent[*child.ParentID], child)
		}
		for _, id := range missing {
			data, err := json.Marshal(byParent[id])
			if err != nil {
				continue
			}
			toCache[categoryChildrenKey+id.String()] = data
		}

		if err := r.cache.SetMany(ctx, toCache, r.ttl); err != nil {
			logger.Warn().Err(err).Msg("Failed to cache category children")
		}
	}

	result := make([]entity.Category, 0)
	for _, id := range ids {
		result = append(result, byParent[id]...)
	}

	return result, nil
}

func (r *CachedCategoryRepository) FindRootCategories(ctx context.Context) ([]entity.Category, error) {
	var cached []entity.Category
	if r.load(ctx, categoryRootsKey, &cached) {
		return cached, nil
	}

	roots, err := r.next.FindRootCategories(ctx)
	if err != nil {
		return nil, err
	}

	r.store(ctx, categoryRootsKey, roots)
	return roots, nil
}

// FindAll не кешируется, проверка целостности должна видеть актуальное состояние
func (r *CachedCategoryRepository) FindAll(ctx context.Context) ([]entity.Category, error) {
	return r.next.FindAll(ctx)
}

// InvalidateCategories удаляет все ключи дерева категорий
func (r *CachedCategoryRepository) InvalidateCategories(ctx context.Context) error {
	return r.cache.DeleteByPrefix(ctx, categoryCachePrefix)
}

// load возвращает true при попадании в кеш; ошибки Redis считаются промахом
func (r *CachedCategoryRepository) load(ctx context.Context, key string, dest any) bool {
	data, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("Category cache unavailable, reading from store")
		return false
	}
	if !ok {
		metrics.RecordCacheMiss(metricsService, categoryCacheMetricID)
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("Corrupted category cache entry")
		return false
	}

	metrics.RecordCacheHit(metricsService, categoryCacheMetricID)
	return true
}

func (r *CachedCategoryRepository) store(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}

	if err := r.cache.Set(ctx, key, data, r.ttl); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("Failed to cache categories")
	}
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
