package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/pkg/logger"
	"storefront/pkg/metrics"
	"storefront/storefront-service/internal/app/storefront/entity"
	"storefront/storefront-service/internal/app/storefront/repository"

	"github.com/segmentio/kafka-go"
)

const metricsService = "storefront-service"

// messageReader - часть kafka.Reader, которую использует consumer
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Stats() kafka.ReaderStats
	Close() error
}

// CatalogEventsConsumer читает события изменения каталога из топика catalog_events.
// События категорий сбрасывают кеш дерева раньше истечения TTL, события товаров игнорируются
type CatalogEventsConsumer struct {
	reader      messageReader
	invalidator repository.CategoryCacheInvalidator
	topic       string
	groupID     string
	stopChan    chan struct{}
	doneChan    chan struct{}
	cancel      context.CancelFunc
}

// NewCatalogEventsConsumer создает новый Kafka consumer
func NewCatalogEventsConsumer(brokers []string, topic, groupID string, invalidator repository.CategoryCacheInvalidator) *CatalogEventsConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		StartOffset:    kafka.LastOffset, // История изменений не нужна, кеш все равно ограничен TTL
		CommitInterval: time.Second,
		ReadBackoffMin: 100 * time.Millisecond,
		ReadBackoffMax: time.Second,
	})

	return newCatalogEventsConsumer(reader, topic, groupID, invalidator)
}

func newCatalogEventsConsumer(reader messageReader, topic, groupID string, invalidator repository.CategoryCacheInvalidator) *CatalogEventsConsumer {
	return &CatalogEventsConsumer{
		reader:      reader,
		invalidator: invalidator,
		topic:       topic,
		groupID:     groupID,
		stopChan:    make(chan struct{}),
		doneChan:    make(chan struct{}),
	}
}

// Start запускает consumer в отдельной горутине
func (c *CatalogEventsConsumer) Start(ctx context.Context) {
	logger.Info().Str("topic", c.topic).Str("group", c.groupID).Msg("Starting catalog events consumer")
	// Отмена прерывает ожидание в FetchMessage при остановке
	ctx, c.cancel = context.WithCancel(ctx)
	go c.consume(ctx)
}

// Stop останавливает consumer и закрывает reader
func (c *CatalogEventsConsumer) Stop() {
	close(c.stopChan)
	if c.cancel != nil {
		c.cancel()
		<-c.doneChan
	}
	if err := c.reader.Close(); err != nil {
		logger.Error().Err(err).Msg("Failed to close kafka reader")
	}
	logger.Info().Msg("Catalog events consumer stopped")
}

func (c *CatalogEventsConsumer) consume(ctx context.Context) {
	defer close(c.doneChan)

	for {
		select {
		case <-c.stopChan:
			return
		case <-ctx.Done():
			return
		default:
		}

		readCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		message, err := c.reader.FetchMessage(readCtx)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				return
			}
			// Таймаут чтения означает отсутствие новых сообщений
			if errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			metrics.RecordKafkaError(metricsService, c.topic, "fetch")
			logger.Error().Err(err).Str("topic", c.topic).Msg("Error fetching message")
			c.pause(time.Second)
			continue
		}

		start := time.Now()
		if err := c.processMessage(ctx, message); err != nil {
			// offset не коммитим, сообщение будет прочитано повторно
			metrics.RecordKafkaError(metricsService, c.topic, "process")
			logger.Error().Err(err).Int64("offset", message.Offset).Msg("Error processing catalog event")
			c.pause(time.Second)
			continue
		}
		metrics.RecordKafkaMessageConsumed(metricsService, c.topic, c.groupID, time.Since(start))

		if err := c.reader.CommitMessages(ctx, message); err != nil {
			metrics.RecordKafkaError(metricsService, c.topic, "commit")
			logger.Error().Err(err).Int64("offset", message.Offset).Msg("Error committing message")
		}
	}
}

// processMessage обрабатывает одно сообщение.
// Некорректное сообщение логируется и считается обработанным, иначе оно блокировало бы партицию
func (c *CatalogEventsConsumer) processMessage(ctx context.Context, message kafka.Message) error {
	var event entity.CatalogEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		logger.Warn().
			Err(err).
			Int64("offset", message.Offset).
			Int("partition", message.Partition).
			Msg("Skipping malformed catalog event")
		return nil
	}

	if !event.IsCategoryEvent() {
		logger.Debug().Str("event_type", event.EventType).Msg("Ignoring catalog event")
		return nil
	}

	if err := c.invalidator.InvalidateCategories(ctx); err != nil {
		return fmt.Errorf("failed to invalidate category cache: %w", err)
	}

	logger.Info().
		Str("event_type", event.EventType).
		Str("category_id", event.EntityID.String()).
		Msg("Category cache invalidated")

	return nil
}

func (c *CatalogEventsConsumer) pause(d time.Duration) {
	select {
	case <-c.stopChan:
	case <-time.After(d):
	}
}

// GetStats возвращает статистику consumer
func (c *CatalogEventsConsumer) GetStats() kafka.ReaderStats {
	return c.reader.Stats()
}
