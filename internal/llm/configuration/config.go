// Package configuration holds the comparator's runtime configuration: HTTP
// server, upstream providers, persona table, generation parameters, and the
// optional rate limiting, caching, observability, and Temporal settings.
package configuration

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ahrav/go-triad/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config holds the complete configuration for the comparator.
type Config struct {
	// Server configures the HTTP API.
	Server ServerConfig `yaml:"server"`

	// HTTP client configuration shared by every provider adapter.
	HTTPTimeout time.Duration `yaml:"http_timeout" validate:"gt=0"`
	HTTPClient  *http.Client  `yaml:"-" validate:"-"`

	// Providers maps provider names ("google", "openai", "anthropic") to
	// their endpoint and credentials.
	Providers map[string]ProviderConfig `yaml:"providers" validate:"required,min=1,dive"`

	// Personas lists the personas in display order.
	Personas []domain.Persona `yaml:"personas"`

	// Generation holds the per-call model parameters.
	Generation GenerationConfig `yaml:"generation"`

	// RateLimit configures the per provider:model token buckets.
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// Cache configures the Redis response cache.
	Cache CacheConfig `yaml:"cache"`

	// Observability configures logging and metrics.
	Observability ObservabilityConfig `yaml:"observability"`

	// Temporal configures the durable comparison worker.
	Temporal TemporalConfig `yaml:"temporal"`
}

// ServerConfig configures the HTTP API listener.
type ServerConfig struct {
	Addr              string        `yaml:"addr" validate:"required"`
	AllowedOrigins    []string      `yaml:"allowed_origins"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" validate:"gte=0"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" validate:"gte=0"`
}

// ProviderConfig holds provider-specific endpoint and authentication.
type ProviderConfig struct {
	Endpoint  string            `yaml:"endpoint"`
	APIKey    string            `yaml:"-"` // Sensitive, resolved from APIKeyEnv
	APIKeyEnv string            `yaml:"api_key_env"`
	Headers   map[string]string `yaml:"headers"`
}

// GenerationConfig controls model behavior for every persona call.
// A zero MaxTokens leaves the provider default in place.
type GenerationConfig struct {
	MaxTokens   int64         `yaml:"max_tokens" validate:"gte=0"`
	Temperature float64       `yaml:"temperature" validate:"gte=0,lte=2"`
	Timeout     time.Duration `yaml:"timeout" validate:"gte=0"`
}

// RateLimitConfig controls local rate limiting.
type RateLimitConfig struct {
	Local LocalRateLimitConfig `yaml:"local"`
}

// LocalRateLimitConfig for in-memory token buckets.
type LocalRateLimitConfig struct {
	TokensPerSecond float64 `yaml:"tokens_per_second" validate:"gte=0"`
	BurstSize       int     `yaml:"burst_size" validate:"gte=0"`
	Enabled         bool    `yaml:"enabled"`
}

// CacheConfig controls Redis-based response caching.
// Only successful responses are cached.
type CacheConfig struct {
	Enabled       bool          `yaml:"enabled"`
	TTL           time.Duration `yaml:"ttl" validate:"gte=0"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"-"` // Sensitive, from REDIS_PASSWORD
	RedisDB       int           `yaml:"redis_db" validate:"gte=0"`
}

// ObservabilityConfig controls logging and metrics.
type ObservabilityConfig struct {
	MetricsEnabled bool   `yaml:"metrics_enabled"`
	LogLevel       string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	LogFormat      string `yaml:"log_format" validate:"omitempty,oneof=json text"`
	RedactPrompts  bool   `yaml:"redact_prompts"`
}

// TemporalConfig configures the Temporal client used by the worker.
type TemporalConfig struct {
	HostPort        string        `yaml:"host_port"`
	Namespace       string        `yaml:"namespace"`
	TaskQueue       string        `yaml:"task_queue"`
	ActivityTimeout time.Duration `yaml:"activity_timeout" validate:"gte=0"`
}

// Validate checks struct constraints, the persona table, and that every
// persona routes to a configured provider.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Cache.Enabled && c.Cache.RedisAddr == "" {
		return fmt.Errorf("%w: cache enabled without redis_addr", ErrInvalidConfig)
	}
	if err := domain.ValidatePersonas(c.Personas); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	for _, p := range c.Personas {
		if _, ok := c.Providers[p.Provider]; !ok {
			return fmt.Errorf("%w: persona %q uses unconfigured provider %q", ErrInvalidConfig, p.ID, p.Provider)
		}
	}
	return nil
}
