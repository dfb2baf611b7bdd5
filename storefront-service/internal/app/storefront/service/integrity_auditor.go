package service

import (
	"context"
	"time"

	"storefront/pkg/logger"
	"storefront/storefront-service/internal/app/storefront/entity"
	"storefront/storefront-service/internal/app/storefront/repository"

	"github.com/google/uuid"
)

const operationIntegrityAudit = "integrity_audit"

// IntegrityAuditor проверяет весь граф категорий на циклы и висячие ссылки.
// Категории загружаются одним запросом, обход идет по карте в памяти
type IntegrityAuditor struct {
	categories repository.CategoryRepository
	reporter   IntegrityReporter
	timeout    time.Duration
	now        func() time.Time
}

func NewIntegrityAuditor(categories repository.CategoryRepository, reporter IntegrityReporter, storeTimeout time.Duration) *IntegrityAuditor {
	return &IntegrityAuditor{
		categories: categories,
		reporter:   reporter,
		timeout:    storeTimeout,
		now:        time.Now,
	}
}

type warningKey struct {
	kind       entity.IntegrityKind
	categoryID uuid.UUID
}

// Audit находит все нарушения и отправляет каждое в IntegrityReporter один раз
func (a *IntegrityAuditor) Audit(ctx context.Context) (*entity.AuditReport, error) {
	report := &entity.AuditReport{
		Warnings:  []entity.IntegrityWarning{},
		StartedAt: a.now().UTC(),
	}

	callCtx, cancel := withStoreTimeout(ctx, a.timeout)
	all, err := a.categories.FindAll(callCtx)
	cancel()
	if err != nil {
		return nil, unavailable(operationIntegrityAudit, err)
	}

	byID := make(map[uuid.UUID]*entity.Category, len(all))
	for i := range all {
		byID[all[i].ID] = &all[i]
	}
	lookup := func(_ context.Context, id uuid.UUID) (*entity.Category, error) {
		if category, ok := byID[id]; ok {
			return category, nil
		}
		return nil, repository.ErrCategoryNotFound
	}

	// Одно и то же ребро встречается при обходе от разных категорий, в отчет попадает одна запись на ребро
	seen := make(map[warningKey]struct{})
	for _, category := range all {
		if err := ctx.Err(); err != nil {
			return nil, unavailable(operationIntegrityAudit, err)
		}

		_, warnings, err := walkAncestry(ctx, category, lookup, operationIntegrityAudit, a.now)
		if err != nil {
			return nil, unavailable(operationIntegrityAudit, err)
		}

		for _, warning := range warnings {
			key := warningKey{kind: warning.Kind, categoryID: warning.CategoryID}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			report.Warnings = append(report.Warnings, warning)
			a.reporter.Report(ctx, warning)
		}
	}

	report.CategoriesScanned = len(all)
	report.FinishedAt = a.now().UTC()

	logger.Info().
		Int("categories", report.CategoriesScanned).
		Int("warnings", len(report.Warnings)).
		Dur("duration", report.FinishedAt.Sub(report.StartedAt)).
		Msg("Category integrity audit finished")

	return report, nil
}
