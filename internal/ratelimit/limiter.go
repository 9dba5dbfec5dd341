// Package ratelimit реализует лимитер запросов с фиксированным окном
// на основе счётчиков в redis. Ключ включает маршрут и IP клиента,
// счётчики самоуничтожаются по истечении окна.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aprendaplus/platform-backend/internal/cache"
	"github.com/aprendaplus/platform-backend/internal/lib/sl"
)

const keyPrefix = "ratelimit:"

// Result итог проверки лимита для одного запроса.
type Result struct {
	Allowed    bool          // Укладывается ли запрос в лимит
	Remaining  int           // Оставшийся запас в текущем окне
	RetryAfter time.Duration // Время до сброса окна
}

// Limiter лимитер с фиксированным окном поверх redis-счётчиков.
// Если store равен nil (redis не сконфигурирован), лимитер пропускает
// все запросы: доступность важнее строгости в окружениях без общего
// хранилища. Не «чинить» без проверки продовой конфигурации.
type Limiter struct {
	store *cache.Cache
	log   *slog.Logger
}

// New создаёт лимитер. store может быть nil.
func New(store *cache.Cache, log *slog.Logger) *Limiter {
	return &Limiter{store: store, log: log}
}

// Allow атомарно увеличивает счётчик окна для ключа route+ip.
// Первое попадание в окно выставляет ключу TTL, равный длине окна.
// RetryAfter берётся из оставшегося TTL ключа, при его недоступности —
// полное окно.
func (l *Limiter) Allow(ctx context.Context, route, ip string, limit int, window time.Duration) (Result, error) {
	const op = "ratelimit.Allow"
	if l.store == nil {
		return Result{Allowed: true, Remaining: limit, RetryAfter: 0}, nil
	}

	key := fmt.Sprintf("%s%s:%s", keyPrefix, route, ip)
	count, err := l.store.Incr(ctx, key)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}
	if count == 1 {
		if err := l.store.Expire(ctx, key, window); err != nil {
			return Result{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	retryAfter := window
	if ttl, err := l.store.TTL(ctx, key); err != nil {
		l.log.Warn("failed to read rate limit ttl", sl.Err(err))
	} else if ttl > 0 {
		retryAfter = ttl
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:    count <= int64(limit),
		Remaining:  remaining,
		RetryAfter: retryAfter,
	}, nil
}

// FlushAll удаляет все счётчики лимитера. Используется административной
// конечной точкой сброса. Возвращает количество удалённых ключей.
func (l *Limiter) FlushAll(ctx context.Context) (int, error) {
	const op = "ratelimit.FlushAll"
	if l.store == nil {
		return 0, nil
	}
	deleted, err := l.store.DeleteByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return deleted, fmt.Errorf("%s: %w", op, err)
	}
	return deleted, nil
}
