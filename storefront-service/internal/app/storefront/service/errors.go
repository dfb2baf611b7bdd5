package service

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// Ошибки бизнес-логики для обработки в handlers
	ErrNotFound        = errors.New("not found")
	ErrUnavailable     = errors.New("catalog store unavailable")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Исходы запросов для метрики catalog_queries_total
const (
	outcomeOK          = "ok"
	outcomeNotFound    = "not_found"
	outcomeInvalid     = "invalid_argument"
	outcomeUnavailable = "unavailable"
	outcomeError       = "error"
)

// unavailable помечает ошибку хранилища как временную, вызывающий может повторить запрос
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, ErrNotFound):
		return outcomeNotFound
	case errors.Is(err, ErrInvalidArgument):
		return outcomeInvalid
	case errors.Is(err, ErrUnavailable):
		return outcomeUnavailable
	default:
		return outcomeError
	}
}

// withStoreTimeout ограничивает время одного обращения к хранилищу
func withStoreTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
