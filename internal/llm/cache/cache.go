// Package cache provides a Redis-backed response cache for model calls.
//
// Only successful responses are stored. Failures always reach the caller
// unchanged and are retried on the next request, so a transient upstream
// error never becomes a sticky answer.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ahrav/go-triad/internal/domain"
	"github.com/ahrav/go-triad/internal/llm/configuration"
	"github.com/ahrav/go-triad/internal/llm/transport"
)

const (
	keyPrefix         = "triad:gen:"
	defaultPoolSize   = 10
	connectionTimeout = 5 * time.Second
)

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits   int64
	Misses int64
	Errors int64
}

// entry is the stored form of a successful response.
type entry struct {
	Content            string                    `json:"content"`
	FinishReason       domain.FinishReason       `json:"finish_reason"`
	ProviderRequestIDs []string                  `json:"provider_request_ids,omitempty"`
	Usage              transport.NormalizedUsage `json:"usage"`
	StoredAt           time.Time                 `json:"stored_at"`
}

// Cache stores successful responses in Redis keyed by the request's
// idempotency key.
type Cache struct {
	client  redis.UniversalClient
	ttl     time.Duration
	enabled bool
	logger  *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64
	errors atomic.Int64
}

// New creates a cache. When client is nil and caching is enabled a client is
// dialed from cfg; an unreachable Redis disables the cache instead of failing.
func New(ctx context.Context, cfg configuration.CacheConfig, client redis.UniversalClient, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "cache")

	if client == nil && cfg.Enabled {
		client = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			PoolSize: defaultPoolSize,
		})

		pingCtx, cancel := context.WithTimeout(ctx, connectionTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis connection failed, cache disabled", "addr", cfg.RedisAddr, "error", err)
			cfg.Enabled = false
		}
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = configuration.DefaultCacheTTL
	}

	return &Cache{
		client:  client,
		ttl:     ttl,
		enabled: cfg.Enabled && client != nil,
		logger:  logger,
	}
}

// Enabled reports whether lookups reach Redis.
func (c *Cache) Enabled() bool { return c.enabled }

// Stats returns the current counters.
func (c *Cache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Errors: c.errors.Load()}
}

func buildKey(idem transport.IdemKey) string {
	return keyPrefix + idem.String()
}

// Get returns the stored response for key. A miss returns (nil, nil).
func (c *Cache) Get(ctx context.Context, key transport.IdemKey) (*transport.Response, error) {
	raw, err := c.client.Get(ctx, buildKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("cache decode: %w", err)
	}
	return &transport.Response{
		Content:            e.Content,
		FinishReason:       e.FinishReason,
		ProviderRequestIDs: e.ProviderRequestIDs,
		Usage:              e.Usage,
	}, nil
}

// Set stores resp under key with the configured TTL.
func (c *Cache) Set(ctx context.Context, key transport.IdemKey, resp *transport.Response) error {
	b, err := json.Marshal(entry{
		Content:            resp.Content,
		FinishReason:       resp.FinishReason,
		ProviderRequestIDs: resp.ProviderRequestIDs,
		Usage:              resp.Usage,
		StoredAt:           time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, buildKey(key), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Middleware returns the caching transport middleware. Requests without an
// idempotency key get one derived from their canonical payload. Redis errors
// are logged and bypassed.
func (c *Cache) Middleware() transport.Middleware {
	return func(next transport.Handler) transport.Handler {
		return transport.HandlerFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			if !c.enabled {
				return next.Handle(ctx, req)
			}

			key := transport.IdemKey(req.IdempotencyKey)
			if key == "" {
				var err error
				if key, err = transport.GenerateIdemKey(req); err != nil {
					c.errors.Add(1)
					c.logger.Warn("cache key generation failed", "error", err)
					return next.Handle(ctx, req)
				}
				req.IdempotencyKey = key.String()
			}

			cached, err := c.Get(ctx, key)
			switch {
			case err != nil:
				c.errors.Add(1)
				c.logger.Warn("cache lookup failed", "error", err, "key", key)
			case cached != nil:
				c.hits.Add(1)
				c.logger.Debug("cache hit", "key", key, "provider", req.Provider, "model", req.Model)
				return cached, nil
			default:
				c.misses.Add(1)
			}

			resp, err := next.Handle(ctx, req)
			if err != nil {
				return nil, err
			}

			if setErr := c.Set(ctx, key, resp); setErr != nil {
				c.errors.Add(1)
				c.logger.Warn("cache store failed", "error", setErr, "key", key)
			}
			return resp, nil
		})
	}
}
