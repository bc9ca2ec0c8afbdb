package cache

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

type Cache interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Stats() map[string]interface{}
	Health(ctx context.Context) error
	Close() error
}

// maxL1TTL bounds how long one process may serve a value another process has
// already invalidated in Redis.
const maxL1TTL = 30 * time.Second

// MultiLevelCache reads through an in-process L1 to an optional Redis L2.
// Redis calls go through a circuit breaker.
type MultiLevelCache struct {
	l1      *MemoryCache
	l2      *RedisCache
	breaker *CircuitBreaker
	metrics *CacheMetrics
	logger  zerolog.Logger
}

func NewMultiLevelCache(redisCache *RedisCache, breaker *CircuitBreaker, logger zerolog.Logger) *MultiLevelCache {
	if breaker == nil {
		breaker = NewCircuitBreaker(nil)
	}

	return &MultiLevelCache{
		l1:      NewMemoryCache(),
		l2:      redisCache,
		breaker: breaker,
		metrics: NewCacheMetrics(),
		logger:  logger.With().Str("component", "cache").Logger(),
	}
}

func l1TTL(ttl time.Duration) time.Duration {
	if ttl <= 0 || ttl > maxL1TTL {
		return maxL1TTL
	}
	return ttl
}

func (c *MultiLevelCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if err := c.l1.Set(ctx, key, value, l1TTL(ttl)); err != nil {
		c.metrics.RecordError()
		return err
	}
	c.metrics.RecordSet()

	if c.l2 == nil {
		return nil
	}

	return c.remote(func() error {
		return c.l2.Set(ctx, key, value, ttl)
	})
}

func (c *MultiLevelCache) Get(ctx context.Context, key string, dest interface{}) error {
	if err := c.l1.Get(ctx, key, dest); err == nil {
		c.metrics.RecordHit()
		return nil
	}

	if c.l2 == nil {
		c.metrics.RecordMiss()
		return ErrCacheMiss
	}

	missed := false
	err := c.remote(func() error {
		err := c.l2.Get(ctx, key, dest)
		if errors.Is(err, ErrCacheMiss) {
			// a miss means Redis answered
			missed = true
			return nil
		}
		return err
	})
	if err != nil {
		return err
	}

	if missed {
		c.metrics.RecordMiss()
		return ErrCacheMiss
	}

	c.metrics.RecordHit()
	if err := c.l1.Set(ctx, key, dest, maxL1TTL); err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("failed to promote value to l1")
	}
	return nil
}

func (c *MultiLevelCache) Delete(ctx context.Context, keys ...string) error {
	_ = c.l1.Delete(ctx, keys...)
	c.metrics.RecordDelete()

	if c.l2 == nil {
		return nil
	}

	return c.remote(func() error {
		return c.l2.Delete(ctx, keys...)
	})
}

func (c *MultiLevelCache) remote(fn func() error) error {
	err := c.breaker.Execute(fn)
	if err == nil {
		return nil
	}

	c.metrics.RecordError()
	if errors.Is(err, ErrCircuitBreakerOpen) {
		return ErrCacheDown
	}

	c.logger.Warn().Err(err).Str("breaker", c.breaker.GetState().String()).Msg("redis operation failed")
	return err
}

func (c *MultiLevelCache) Metrics() MetricsSnapshot {
	return c.metrics.GetStats()
}

func (c *MultiLevelCache) Stats() map[string]interface{} {
	metrics := c.metrics.GetStats()
	stats := map[string]interface{}{
		"l1":       c.l1.Stats(),
		"metrics":  metrics,
		"hit_rate": c.metrics.HitRate(),
		"breaker":  c.breaker.GetStats(),
	}

	if c.l2 != nil {
		stats["l2"] = c.l2.Stats()
	}

	return stats
}

func (c *MultiLevelCache) Health(ctx context.Context) error {
	if c.l2 != nil {
		return c.l2.Health(ctx)
	}

	return nil
}

func (c *MultiLevelCache) Close() error {
	_ = c.l1.Close()

	if c.l2 != nil {
		return c.l2.Close()
	}

	return nil
}
