// Package ratelimit throttles outbound model calls with in-process token
// buckets, one per provider:model pair.
//
// A request that finds its bucket empty is rejected with a
// *llmerrors.RateLimitError instead of waiting, so the caller records a failed
// result immediately rather than blocking a fan-out slot.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"golang.org/x/time/rate"

	"github.com/ahrav/go-triad/internal/llm/configuration"
	llmerrors "github.com/ahrav/go-triad/internal/llm/errors"
	"github.com/ahrav/go-triad/internal/llm/transport"
)

// ErrInvalidConfig reports a rate limit configuration that cannot build a bucket.
var ErrInvalidConfig = errors.New("invalid rate limit configuration")

// Limiter holds the token buckets. Keys are bounded by the configured
// provider and model pairs, so buckets are never evicted.
type Limiter struct {
	cfg    configuration.LocalRateLimitConfig
	logger *slog.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewLimiter validates cfg and returns an empty limiter.
func NewLimiter(cfg configuration.LocalRateLimitConfig, logger *slog.Logger) (*Limiter, error) {
	if cfg.Enabled {
		if cfg.TokensPerSecond <= 0 {
			return nil, fmt.Errorf("%w: tokens_per_second must be positive", ErrInvalidConfig)
		}
		if cfg.BurstSize <= 0 {
			return nil, fmt.Errorf("%w: burst_size must be positive", ErrInvalidConfig)
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{
		cfg:      cfg,
		logger:   logger.With("component", "ratelimit"),
		limiters: make(map[string]*rate.Limiter),
	}, nil
}

// Allow consumes one token for the pair or returns a RateLimitError carrying
// the delay until the next token. A rejected check does not consume capacity.
func (l *Limiter) Allow(provider, model string) error {
	if !l.cfg.Enabled {
		return nil
	}

	limiter := l.bucket(buildKey(provider, model))
	if limiter.Allow() {
		return nil
	}

	reservation := limiter.Reserve()
	delay := reservation.Delay()
	reservation.Cancel()

	retryAfter := int(math.Ceil(delay.Seconds()))
	if retryAfter < 1 {
		retryAfter = 1
	}

	l.logger.Warn("local rate limit exceeded",
		"provider", provider,
		"model", model,
		"retry_after_s", retryAfter)

	return &llmerrors.RateLimitError{
		Provider:   provider,
		Limit:      int(l.cfg.TokensPerSecond),
		RetryAfter: retryAfter,
		LocalLimit: true,
	}
}

func (l *Limiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(l.cfg.TokensPerSecond), l.cfg.BurstSize)
		l.limiters[key] = limiter
	}
	return limiter
}

func buildKey(provider, model string) string {
	return provider + ":" + model
}

// Middleware returns the transport middleware that checks the bucket before
// every provider call.
func (l *Limiter) Middleware() transport.Middleware {
	return func(next transport.Handler) transport.Handler {
		return transport.HandlerFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			if err := l.Allow(req.Provider, req.Model); err != nil {
				return nil, err
			}
			return next.Handle(ctx, req)
		})
	}
}

// NewMiddleware builds a limiter from cfg and returns its middleware.
func NewMiddleware(cfg configuration.RateLimitConfig, logger *slog.Logger) (transport.Middleware, error) {
	l, err := NewLimiter(cfg.Local, logger)
	if err != nil {
		return nil, err
	}
	return l.Middleware(), nil
}
