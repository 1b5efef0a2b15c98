// Package llm provides the HTTP client used to reach language model
// providers. Requests flow through a middleware pipeline: observability and
// the success-only response cache wrap each logical call, and the local rate
// limiter guards every outbound attempt.
//
// The client never retries. A failed call is reported to the caller as-is.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ahrav/go-triad/internal/domain"
	"github.com/ahrav/go-triad/internal/llm/cache"
	"github.com/ahrav/go-triad/internal/llm/configuration"
	"github.com/ahrav/go-triad/internal/llm/observability"
	"github.com/ahrav/go-triad/internal/llm/providers"
	"github.com/ahrav/go-triad/internal/llm/ratelimit"
	"github.com/ahrav/go-triad/internal/llm/transport"
)

// Client generates one completion per call. Implementations are safe for
// concurrent use.
type Client interface {
	Generate(ctx context.Context, in domain.GenerateInput) (*domain.GenerateOutput, error)
}

type options struct {
	logger      *slog.Logger
	metrics     observability.Metrics
	redisClient redis.UniversalClient
}

// Option customizes NewClient.
type Option func(*options)

// WithLogger sets the logger used by the pipeline.
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// WithMetrics sets the metrics sink. Without it, metrics are discarded.
func WithMetrics(m observability.Metrics) Option { return func(o *options) { o.metrics = m } }

// WithRedisClient supplies the cache's Redis client instead of dialing one
// from configuration.
func WithRedisClient(c redis.UniversalClient) Option { return func(o *options) { o.redisClient = c } }

type client struct {
	handler transport.Handler
}

// NewClient builds the client and its pipeline from cfg. A nil cfg uses
// configuration.DefaultConfig.
func NewClient(ctx context.Context, cfg *configuration.Config, opts ...Option) (Client, error) {
	if cfg == nil {
		cfg = configuration.DefaultConfig()
	}
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.metrics == nil || !cfg.Observability.MetricsEnabled {
		o.metrics = observability.NewNoOpMetrics()
	}

	router, err := providers.NewRouter(cfg.Providers)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize router: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = newHTTPClient(cfg.HTTPTimeout)
	}

	coreHandler := transport.NewHTTPHandler(httpClient, router)

	// Attempt-level middleware sits next to the wire.
	rl, err := ratelimit.NewMiddleware(cfg.RateLimit, o.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize rate limiter: %w", err)
	}
	attemptHandler := transport.Chain(coreHandler, rl)

	// Call-level middleware: outermost first.
	callMiddlewares := []transport.Middleware{
		observability.NewLoggingMiddleware(cfg.Observability, o.logger, o.metrics),
	}
	if cfg.Cache.Enabled {
		c := cache.New(ctx, cfg.Cache, o.redisClient, o.logger)
		callMiddlewares = append(callMiddlewares, c.Middleware())
	}

	return &client{handler: transport.Chain(attemptHandler, callMiddlewares...)}, nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = configuration.DefaultHTTPTimeoutSeconds * time.Second
	}
	return &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			MaxIdleConns:          configuration.DefaultMaxIdleConns,
			IdleConnTimeout:       configuration.DefaultIdleTimeoutSeconds * time.Second,
			TLSHandshakeTimeout:   configuration.DefaultTLSTimeoutSeconds * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
		Timeout: timeout,
	}
}

// Generate validates in, derives its idempotency key, and sends it through
// the pipeline.
func (c *client) Generate(ctx context.Context, in domain.GenerateInput) (*domain.GenerateOutput, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("invalid generate input: %w", err)
	}

	req := transport.FromGenerateInput(ctx, in)
	key, err := transport.GenerateIdemKey(req)
	if err != nil {
		return nil, fmt.Errorf("failed to generate idempotency key: %w", err)
	}
	req.IdempotencyKey = key.String()

	resp, err := c.handler.Handle(ctx, req)
	if err != nil {
		return nil, err
	}
	return transport.ToGenerateOutput(resp), nil
}
