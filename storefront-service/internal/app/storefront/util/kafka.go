package util

import (
	"context"
	"fmt"
	"time"

	"storefront/pkg/logger"
	"storefront/pkg/metrics"

	"github.com/segmentio/kafka-go"
)

// KafkaProducer обертка над Kafka writer для отправки событий
// Используется для предупреждений о целостности каталога в топик catalog_integrity
type KafkaProducer struct {
	writer *kafka.Writer
	topic  string
}

// NewKafkaProducer создает асинхронный producer:
// WriteMessages не ждет подтверждения брокера, поэтому публикация не задерживает HTTP запрос
func NewKafkaProducer(brokers []string, topic string) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    100,
		BatchTimeout: time.Second,
		Async:        true,
		// В async режиме ошибки доставки приходят только сюда
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				metrics.RecordKafkaError(metricsService, topic, "produce")
				logger.Error().Err(err).Str("topic", topic).Int("messages", len(messages)).Msg("Failed to deliver kafka messages")
				return
			}
			for range messages {
				metrics.RecordKafkaMessageProduced(metricsService, topic)
			}
		},
	}

	return &KafkaProducer{writer: writer, topic: topic}
}

// PublishMessage ставит сообщение в очередь отправки
// key - используется для партиционирования (ID категории)
func (p *KafkaProducer) PublishMessage(ctx context.Context, key string, value []byte) error {
	message := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		metrics.RecordKafkaError(metricsService, p.topic, "produce")
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close дожидается отправки буфера и закрывает writer
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}
