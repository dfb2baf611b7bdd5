package service

import (
	"context"
	"encoding/json"
	"time"

	"storefront/pkg/logger"
	"storefront/pkg/metrics"
	"storefront/storefront-service/internal/app/storefront/entity"
	"storefront/storefront-service/internal/app/storefront/util"
)

const integrityEventType = "CATALOG_INTEGRITY_WARNING"

// EventIntegrityReporter пишет предупреждение в лог, увеличивает метрику
// и отправляет событие в Kafka для команды, управляющей каталогом
type EventIntegrityReporter struct {
	publisher util.MessagePublisher // nil - только лог и метрика
	now       func() time.Time
}

func NewIntegrityReporter(publisher util.MessagePublisher) *EventIntegrityReporter {
	return &EventIntegrityReporter{
		publisher: publisher,
		now:       time.Now,
	}
}

func (r *EventIntegrityReporter) Report(ctx context.Context, warning entity.IntegrityWarning) {
	event := logger.Warn().
		Str("kind", string(warning.Kind)).
		Str("category_id", warning.CategoryID.String()).
		Str("operation", warning.Operation)
	if warning.ParentID != nil {
		event = event.Str("parent_id", warning.ParentID.String())
	}
	event.Msg("Category graph integrity violation")

	metrics.RecordIntegrityWarning(string(warning.Kind))

	if r.publisher == nil {
		return
	}

	payload, err := json.Marshal(entity.IntegrityEvent{
		EventType: integrityEventType,
		Warning:   warning,
		Timestamp: r.now().UTC(),
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to marshal integrity event")
		return
	}

	// Событие не должно пропасть из-за отмены запроса клиентом
	if err := r.publisher.PublishMessage(context.WithoutCancel(ctx), warning.CategoryID.String(), payload); err != nil {
		logger.Error().Err(err).Str("category_id", warning.CategoryID.String()).Msg("Failed to publish integrity event")
	}
}
