package util

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

const metricsService = "storefront-service"

type RedisClient struct {
	client *redis.Client
}

// NewRedisClient подключается к Redis и проверяет соединение через PING
func NewRedisClient(addr, password string, db int) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisClient{client: client}, nil
}

// Get возвращает значение ключа; ok == false если ключа нет
func (r *RedisClient) Get(ctx context.Context, key string) ([]byte, bool, error) {
	timer := metrics.NewRedisTimer(metricsService, metrics.RedisOpGet)
	defer timer.ObserveDuration()

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		metrics.RecordRedisError(metricsService, metrics.RedisOpGet)
		return nil, false, fmt.Errorf("failed to get %s from cache: %w", key, err)
	}

	return data, true, nil
}

// MGet возвращает значения в порядке ключей, nil для отсутствующих
func (r *RedisClient) MGet(ctx context.Context, keys []string) ([][]byte, error) {
	if len(keys) == 0 {
		return [][]byte{}, nil
	}

	timer := metrics.NewRedisTimer(metricsService, metrics.RedisOpMGet)
	defer timer.ObserveDuration()

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		metrics.RecordRedisError(metricsService, metrics.RedisOpMGet)
		return nil, fmt.Errorf("failed to mget from cache: %w", err)
	}

	out := make([][]byte, len(values))
	for i, v := range values {
		if s, ok := v.(string); ok {
			out[i] = []byte(s)
		}
	}

	return out, nil
}

func (r *RedisClient) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	timer := metrics.NewRedisTimer(metricsService, metrics.RedisOpSet)
	defer timer.ObserveDuration()

	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		metrics.RecordRedisError(metricsService, metrics.RedisOpSet)
		return fmt.Errorf("failed to set %s in cache: %w", key, err)
	}

	return nil
}

// SetMany записывает несколько ключей одним pipeline
func (r *RedisClient) SetMany(ctx context.Context, values map[string][]byte, ttl time.Duration) error {
	if len(values) == 0 {
		return nil
	}

	timer := metrics.NewRedisTimer(metricsService, metrics.RedisOpSet)
	defer timer.ObserveDuration()

	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for key, value := range values {
			pipe.Set(ctx, key, value, ttl)
		}
		return nil
	})
	if err != nil {
		metrics.RecordRedisError(metricsService, metrics.RedisOpSet)
		return fmt.Errorf("failed to set values in cache: %w", err)
	}

	return nil
}

// DeleteByPrefix удаляет все ключи с префиксом через SCAN, без блокирующего KEYS
func (r *RedisClient) DeleteByPrefix(ctx context.Context, prefix string) error {
	timer := metrics.NewRedisTimer(metricsService, metrics.RedisOpScan)
	defer timer.ObserveDuration()

	iter := r.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		metrics.RecordRedisError(metricsService, metrics.RedisOpScan)
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		metrics.RecordRedisError(metricsService, metrics.RedisOpDel)
		return fmt.Errorf("failed to delete cache keys: %w", err)
	}

	return nil
}

// Ping используется проверкой готовности
func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}
