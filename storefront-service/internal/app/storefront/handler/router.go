package handler

import (
	"net/http"

	"storefront/pkg/logger"
	"storefront/pkg/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const serviceName = "storefront-service"

// SetupRoutes настраивает все маршруты витрины
// Чтение каталога публичное, запуск проверки целостности только для администраторов
func SetupRoutes(catalogHandler *CatalogHandler, healthHandler *HealthHandler, authMiddleware *AuthMiddleware) *gin.Engine {
	router := gin.New()

	// Recovery middleware для обработки panic
	router.Use(gin.Recovery())

	// JSON logging middleware для HTTP-запросов (ELK Stack)
	router.Use(logger.GinLoggerMiddleware())

	// Prometheus metrics middleware
	router.Use(metrics.GinPrometheusMiddleware(serviceName))

	// Витрина - SPA на другом домене
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"https://*", "http://*"},
		AllowWildcard: true,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Accept", "Authorization", "Content-Type", logger.RequestIDHeader},
		ExposeHeaders: []string{logger.RequestIDHeader, "Retry-After"},
		MaxAge:        300,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": serviceName,
		})
	})
	router.GET("/health/readiness", healthHandler.Readiness)

	// Prometheus metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	content := router.Group("/content")
	{
		content.GET("/categories", catalogHandler.GetCategories)
		content.GET("/categories/tree", catalogHandler.GetCategoryTree)
		content.GET("/category-data/*path", catalogHandler.GetCategoryPage)
		content.GET("/product-data/:slug", catalogHandler.GetProductPage)
		content.GET("/items", catalogHandler.ListItems)
	}

	admin := router.Group("/admin")
	admin.Use(authMiddleware.Authenticate())
	admin.Use(authMiddleware.RequireRole("admin"))
	{
		admin.POST("/integrity/audit", catalogHandler.RunIntegrityAudit)
	}

	return router
}
