package handler

import (
	"errors"
	"net/http"
	"strings"

	"storefront/pkg/logger"
	"storefront/storefront-service/internal/app/storefront/entity"
	"storefront/storefront-service/internal/app/storefront/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// retryAfterSeconds - подсказка клиенту при временной недоступности хранилища
const retryAfterSeconds = "5"

// CatalogHandler обрабатывает HTTP запросы витрины с использованием Gin
type CatalogHandler struct {
	catalogService service.CatalogServiceInterface
	auditor        service.IntegrityAuditorInterface
	validator      *validator.Validate
}

// NewCatalogHandler создает новый обработчик каталога
func NewCatalogHandler(catalogService service.CatalogServiceInterface, auditor service.IntegrityAuditorInterface) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		auditor:        auditor,
		validator:      validator.New(),
	}
}

// GetCategories обрабатывает GET /content/categories
func (h *CatalogHandler) GetCategories(c *gin.Context) {
	categories, err := h.catalogService.ListRootCategories(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "Failed to get categories")
		return
	}

	c.JSON(http.StatusOK, entity.CategoryListResponse{
		Categories: categories,
		Total:      len(categories),
	})
}

// GetCategoryTree обрабатывает GET /content/categories/tree
func (h *CatalogHandler) GetCategoryTree(c *gin.Context) {
	tree, err := h.catalogService.GetCategoryTree(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "Failed to get category tree")
		return
	}

	c.JSON(http.StatusOK, entity.CategoryTreeResponse{Tree: tree})
}

// GetCategoryPage обрабатывает GET /content/category-data/*path
// path - slug или цепочка slug через "/", например womens/shoes
func (h *CatalogHandler) GetCategoryPage(c *gin.Context) {
	var query entity.CategoryPageQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "invalid_query", Message: "Invalid query parameters"})
		return
	}

	// Валидация
	if err := h.validator.Struct(query); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "invalid_query", Message: formatValidationError(err)})
		return
	}

	result, err := h.catalogService.GetCategoryPageData(
		c.Request.Context(),
		c.Param("path"),
		query.SortBy,
		splitList(query.Availability),
	)
	if err != nil {
		respondServiceError(c, err, "Failed to get category page")
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetProductPage обрабатывает GET /content/product-data/:slug
func (h *CatalogHandler) GetProductPage(c *gin.Context) {
	result, err := h.catalogService.GetProductPageData(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondServiceError(c, err, "Failed to get product page")
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListItems обрабатывает GET /content/items
func (h *CatalogHandler) ListItems(c *gin.Context) {
	var query entity.ItemListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "invalid_query", Message: "Invalid query parameters"})
		return
	}

	if err := h.validator.Struct(query); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "invalid_query", Message: formatValidationError(err)})
		return
	}

	itemQuery := entity.ItemQuery{
		CategorySlug: query.Category,
		SortBy:       query.SortBy,
		Availability: splitList(query.Availability),
	}
	if query.Type != "" {
		itemType := entity.ItemType(query.Type)
		itemQuery.Type = &itemType
	}

	items, err := h.catalogService.ListItems(c.Request.Context(), itemQuery)
	if err != nil {
		respondServiceError(c, err, "Failed to get items")
		return
	}

	c.JSON(http.StatusOK, entity.ItemListResponse{
		Items: items,
		Total: len(items),
	})
}

// RunIntegrityAudit обрабатывает POST /admin/integrity/audit
// Запускает проверку дерева категорий немедленно, не дожидаясь расписания
func (h *CatalogHandler) RunIntegrityAudit(c *gin.Context) {
	report, err := h.auditor.Audit(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "Failed to run integrity audit")
		return
	}

	c.JSON(http.StatusOK, report)
}

// respondServiceError переводит ошибки сервиса в HTTP статусы
func respondServiceError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, entity.ErrorResponse{Error: "not_found", Message: err.Error()})
	case errors.Is(err, service.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "invalid_argument", Message: err.Error()})
	case errors.Is(err, service.ErrUnavailable):
		logger.Error().Err(err).Str("request_id", c.GetString("request_id")).Msg(message)
		c.Header("Retry-After", retryAfterSeconds)
		c.JSON(http.StatusServiceUnavailable, entity.ErrorResponse{Error: "unavailable", Message: "Catalog is temporarily unavailable"})
	default:
		logger.Error().Err(err).Str("request_id", c.GetString("request_id")).Msg(message)
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "internal", Message: message})
	}
}

// formatValidationError форматирует ошибки валидации
func formatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fieldError := range validationErrors {
			return fieldError.Field() + " is " + fieldError.Tag()
		}
	}
	return "Validation failed"
}

// splitList разбирает значения вида "in-stock,pre-order"
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
