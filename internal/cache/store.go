package cache

import (
	"context"
	"time"

	"github.com/ikkim/campus-backend/pkg/logger"
)

// Store is a JSON key/value cache with per-key TTL.
type Store interface {
	// Get decodes the cached value into dest and reports whether the key was present.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// DeletePattern removes every key matching a glob such as "videos:course:3:user:*".
	DeletePattern(ctx context.Context, pattern string) error
}

// Remember is a read-through helper. Cache failures are logged and fall back to load.
func Remember[T any](ctx context.Context, store Store, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	var cached T
	hit, err := store.Get(ctx, key, &cached)
	if err != nil {
		logger.Warn("Cache read failed, loading from source", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	} else if hit {
		logger.Debug("Cache hit", map[string]interface{}{"key": key})
		return cached, nil
	}

	value, err := load()
	if err != nil {
		return value, err
	}

	if err := store.Set(ctx, key, value, ttl); err != nil {
		logger.Warn("Cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
	return value, nil
}
