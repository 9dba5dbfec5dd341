// Package cache реализует обёртку над redis: JSON-кеш с TTL,
// read-through хелпер GetOrSet и счётчики для лимитера запросов.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aprendaplus/platform-backend/internal/config"
)

// Cache инкапсулирует соединение с redis.
type Cache struct {
	Db *redis.Client
}

// InitServer подключается к redis и проверяет соединение.
func InitServer(ctx context.Context, cfg config.RedisConnection) (*Cache, error) {
	const op = "cache.InitServer"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.AddressRedis,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.TimeoutRedis,
		WriteTimeout: cfg.TimeoutRedis,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Cache{Db: db}, nil
}

// Get пытается получить значение по ключу и декодировать его в result.
// Возвращает false без ошибки, если ключа нет.
func (c *Cache) Get(key string, result any) (bool, error) {
	const op = "cache.Get"
	val, err := c.Db.Get(context.Background(), key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if err = json.Unmarshal([]byte(val), result); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// Set сохраняет значение в кеш с временем жизни.
func (c *Cache) Set(key string, value any, expiration time.Duration) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Db.Set(context.Background(), key, jsonData, expiration).Err()
}

// Invalidate удаляет значение из кеша по ключу.
func (c *Cache) Invalidate(key string) error {
	return c.Db.Del(context.Background(), key).Err()
}

// GetOrSet возвращает закешированное значение, если оно есть и не истекло,
// иначе вызывает producer, кладёт результат в кеш с TTL и декодирует его в dest.
// Конкурентные промахи по одному ключу не дедуплицируются: producer может
// быть вызван повторно, результат идемпотентен.
func (c *Cache) GetOrSet(key string, ttl time.Duration, dest any, producer func() (any, error)) error {
	const op = "cache.GetOrSet"
	found, err := c.Get(key, dest)
	if err == nil && found {
		return nil
	}
	// Ошибка чтения кеша считается промахом: значение всегда можно пересчитать.

	value, err := producer()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := c.Db.Set(context.Background(), key, jsonData, ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return json.Unmarshal(jsonData, dest)
}

// Incr атомарно увеличивает счётчик и возвращает новое значение.
func (c *Cache) Incr(ctx context.Context, key string) (int64, error) {
	const op = "cache.Incr"
	val, err := c.Db.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return val, nil
}

// Expire выставляет время жизни ключа.
func (c *Cache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return c.Db.Expire(ctx, key, ttl).Err()
}

// TTL возвращает оставшееся время жизни ключа.
// Отрицательное значение означает, что TTL недоступен.
func (c *Cache) TTL(ctx context.Context, key string) (time.Duration, error) {
	const op = "cache.TTL"
	ttl, err := c.Db.TTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return ttl, nil
}

// DeleteByPattern удаляет все ключи по шаблону через SCAN.
// Возвращает количество удалённых ключей.
func (c *Cache) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	const op = "cache.DeleteByPattern"
	var deleted int
	iter := c.Db.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.Db.Del(ctx, iter.Val()).Err(); err != nil {
			return deleted, fmt.Errorf("%s: %w", op, err)
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("%s: %w", op, err)
	}
	return deleted, nil
}
