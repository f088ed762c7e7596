// Package cache memoises keyword extraction results in Redis, keyed by a hash
// of the document text and the pipeline settings. Concurrent requests for
// the same text are coalesced, and a circuit breaker stops hammering Redis
// while it is unhealthy; in both failure modes extraction still runs.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/internal/keywords/pipeline"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/config"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/resilience"
)

const keyPrefix = "keywords:"

// Backend is the subset of the Redis client the cache needs.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

type ResultCache struct {
	backend     Backend
	ttl         time.Duration
	fingerprint string
	breaker     *resilience.CircuitBreaker
	group       singleflight.Group
	logger      *slog.Logger
	hits        atomic.Int64
	misses      atomic.Int64
}

// New creates a ResultCache. fingerprint identifies the pipeline settings
// (language, stopword source, length and word limits) so that results
// computed under different settings never collide.
// onBreakerChange may be nil.
func New(
	backend Backend,
	cfg config.RedisConfig,
	fingerprint string,
	onBreakerChange func(name string, from, to resilience.State),
) *ResultCache {
	return &ResultCache{
		backend:     backend,
		ttl:         cfg.CacheTTL,
		fingerprint: fingerprint,
		breaker: resilience.NewCircuitBreaker("redis-cache", resilience.CircuitBreakerConfig{
			FailureThreshold: 5,
			ResetTimeout:     30 * time.Second,
			OnStateChange:    onBreakerChange,
		}),
		logger: slog.Default().With("component", "result-cache"),
	}
}

// Fingerprint renders extraction settings into the string passed to New.
func Fingerprint(cfg config.ExtractionConfig) string {
	return fmt.Sprintf("lang=%s|stop=%s|min=%d|words=%d",
		cfg.Language, cfg.StopwordsPath, cfg.MinLength, cfg.MaxWords)
}

func (c *ResultCache) Get(ctx context.Context, text string) (*pipeline.Result, bool) {
	key := c.buildKey(text)
	var data []byte
	err := c.breaker.Execute(func() error {
		var getErr error
		data, getErr = c.backend.Get(ctx, key)
		if pkgredis.IsNilError(getErr) {
			return nil
		}
		return getErr
	})
	if err != nil {
		if !errors.Is(err, resilience.ErrCircuitOpen) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	if data == nil {
		c.misses.Add(1)
		return nil, false
	}
	var result pipeline.Result
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "key", key)
	return &result, true
}

func (c *ResultCache) Set(ctx context.Context, text string, result *pipeline.Result) {
	key := c.buildKey(text)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Execute(func() error {
		return c.backend.Set(ctx, key, data, c.ttl)
	})
	if err != nil && !errors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result for text, or runs computeFn once
// per key across concurrent callers and caches its result. The boolean
// reports a cache hit.
func (c *ResultCache) GetOrCompute(
	ctx context.Context,
	text string,
	computeFn func() (*pipeline.Result, error),
) (*pipeline.Result, bool, error) {
	if result, ok := c.Get(ctx, text); ok {
		return result, true, nil
	}
	key := c.buildKey(text)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		result, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, text, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*pipeline.Result), false, nil
}

func (c *ResultCache) Invalidate(ctx context.Context) error {
	pattern := keyPrefix + "*"
	deleted, err := c.backend.FlushByPattern(ctx, pattern)
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidate", "keys_deleted", deleted)
	return nil
}

func (c *ResultCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// BreakerState exposes the circuit breaker for metrics and health checks.
func (c *ResultCache) BreakerState() resilience.State {
	return c.breaker.GetState()
}

func (c *ResultCache) buildKey(text string) string {
	h := sha256.New()
	h.Write([]byte(c.fingerprint))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return fmt.Sprintf("%s%x", keyPrefix, h.Sum(nil)[:16])
}
