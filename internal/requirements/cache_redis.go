package requirements

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"casedesk/internal/requirements/metrics"
	"casedesk/pkg/platform/circuit"
)

const catalogCacheKey = "casedesk:catalog:templates"

// CachedCatalog serves templates from Redis, loading from the backing
// catalog on a miss. Concurrent misses share one backing load. Redis
// failures never fail resolution: the backing catalog is used directly, and
// once the breaker opens per-call warnings stop until Redis recovers.
type CachedCatalog struct {
	backing Catalog
	client  *redis.Client
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
	breaker *circuit.Breaker
	group   singleflight.Group
}

type CacheOption func(*CachedCatalog)

func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(c *CachedCatalog) {
		c.logger = logger
	}
}

func WithCacheMetrics(m *metrics.Metrics) CacheOption {
	return func(c *CachedCatalog) {
		c.metrics = m
	}
}

func WithCacheBreaker(b *circuit.Breaker) CacheOption {
	return func(c *CachedCatalog) {
		if b != nil {
			c.breaker = b
		}
	}
}

func NewCachedCatalog(backing Catalog, client *redis.Client, ttl time.Duration, opts ...CacheOption) *CachedCatalog {
	c := &CachedCatalog{
		backing: backing,
		client:  client,
		ttl:     ttl,
		breaker: circuit.New("catalog-cache"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *CachedCatalog) Templates(ctx context.Context) ([]Template, error) {
	raw, err := c.client.Get(ctx, catalogCacheKey).Bytes()
	switch {
	case err == nil:
		c.recordSuccess(ctx)
		var out []Template
		decodeErr := json.Unmarshal(raw, &out)
		if decodeErr == nil {
			c.metrics.IncCacheLookup("hit")
			return out, nil
		}
		c.warn(ctx, "discarding undecodable catalog cache entry", decodeErr)
	case errors.Is(err, redis.Nil):
		c.recordSuccess(ctx)
		c.metrics.IncCacheLookup("miss")
	default:
		c.metrics.IncCacheLookup("error")
		// A caller giving up says nothing about Redis health.
		if ctx.Err() == nil {
			c.recordFailure(ctx, err)
		}
	}

	// The shared load serves every waiter, so it must not end with the
	// caller that happened to start it.
	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do(catalogCacheKey, func() (any, error) {
		templates, err := c.backing.Templates(loadCtx)
		if err != nil {
			return nil, err
		}
		if !c.breaker.IsOpen() {
			c.store(loadCtx, templates)
		}
		return templates, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Template), nil
}

// Invalidate drops the cached catalog so the next read reloads it.
func (c *CachedCatalog) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, catalogCacheKey).Err(); err != nil {
		return fmt.Errorf("invalidate catalog cache: %w", err)
	}
	return nil
}

func (c *CachedCatalog) store(ctx context.Context, templates []Template) {
	raw, err := json.Marshal(templates)
	if err != nil {
		c.warn(ctx, "encode catalog for cache", err)
		return
	}
	if err := c.client.Set(ctx, catalogCacheKey, raw, c.ttl).Err(); err != nil {
		c.warn(ctx, "catalog cache write failed", err)
	}
}

// Degraded reports whether the cache is bypassed because Redis keeps failing.
func (c *CachedCatalog) Degraded() bool {
	return c.breaker.IsOpen()
}

func (c *CachedCatalog) recordFailure(ctx context.Context, err error) {
	useFallback, change := c.breaker.RecordFailure()
	switch {
	case change.Opened:
		c.warn(ctx, "catalog cache circuit opened, reading catalog directly", err)
	case !useFallback:
		c.warn(ctx, "catalog cache read failed", err)
	}
}

func (c *CachedCatalog) recordSuccess(ctx context.Context) {
	if _, change := c.breaker.RecordSuccess(); change.Closed && c.logger != nil {
		c.logger.InfoContext(ctx, "catalog cache circuit closed")
	}
}

func (c *CachedCatalog) warn(ctx context.Context, msg string, err error) {
	if c.logger == nil {
		return
	}
	c.logger.WarnContext(ctx, msg, "error", err)
}
