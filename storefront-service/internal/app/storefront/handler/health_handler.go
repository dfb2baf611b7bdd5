package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheck проверяет одну зависимость сервиса
type HealthCheck func(ctx context.Context) error

type namedCheck struct {
	name     string
	check    HealthCheck
	required bool
}

// HealthHandler отвечает на проверки готовности.
// Отказ обязательной зависимости дает 503, необязательной только статус degraded
type HealthHandler struct {
	checks  []namedCheck
	timeout time.Duration
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{timeout: 5 * time.Second}
}

// Require добавляет зависимость, без которой сервис не может отвечать
func (h *HealthHandler) Require(name string, check HealthCheck) *HealthHandler {
	h.checks = append(h.checks, namedCheck{name: name, check: check, required: true})
	return h
}

// Optional добавляет зависимость, без которой сервис работает в деградированном режиме (например кеш)
func (h *HealthHandler) Optional(name string, check HealthCheck) *HealthHandler {
	h.checks = append(h.checks, namedCheck{name: name, check: check})
	return h
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp time.Time         `json:"timestamp"`
}

// Readiness обрабатывает GET /health/readiness
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	checks := make(map[string]string, len(h.checks))
	status := "healthy"

	for _, nc := range h.checks {
		if err := nc.check(ctx); err != nil {
			if nc.required {
				checks[nc.name] = "unhealthy: " + err.Error()
				status = "unhealthy"
			} else {
				checks[nc.name] = "warning: " + err.Error()
				if status == "healthy" {
					status = "degraded"
				}
			}
			continue
		}
		checks[nc.name] = "healthy"
	}

	code := http.StatusOK
	if status == "unhealthy" {
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, HealthResponse{
		Status:    status,
		Checks:    checks,
		Timestamp: time.Now().UTC(),
	})
}
