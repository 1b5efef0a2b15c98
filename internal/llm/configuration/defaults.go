package configuration

import (
	"time"

	"github.com/ahrav/go-triad/internal/domain"
)

// HTTP and connection constants.
const (
	DefaultMaxIdleConns        = 100
	DefaultIdleTimeoutSeconds  = 90
	DefaultTLSTimeoutSeconds   = 10
	DefaultHTTPTimeoutSeconds  = 180
	DefaultAddr                = ":3001"
	DefaultReadHeaderTimeout   = 10 * time.Second
	DefaultShutdownTimeout     = 15 * time.Second
	DefaultGenerationTimeout   = 120 * time.Second
	DefaultGenerationTemp      = 1.0
	ServerErrorStatusThreshold = 500
)

// Rate limiting constants.
const (
	DefaultTokensPerSecond = 10
	DefaultBurstSize       = 20
)

// Cache constants.
const (
	DefaultCacheTTL  = 24 * time.Hour
	DefaultRedisAddr = "localhost:6379"
)

// Temporal constants.
const (
	DefaultTemporalHostPort  = "localhost:7233"
	DefaultTemporalNamespace = "default"
	DefaultTaskQueue         = "triad-comparisons"
	DefaultActivityTimeout   = 3 * time.Minute
)

// Provider names and the environment variables their keys come from.
// The google key lives in API_KEY, matching the original .env layout.
const (
	ProviderGoogle    = "google"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	EnvGoogleAPIKey    = "API_KEY"
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
	EnvRedisPassword   = "REDIS_PASSWORD"
)

// DefaultConfig returns a configuration that runs the three built-in
// personas against Google with local rate limiting and no cache.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              DefaultAddr,
			AllowedOrigins:    []string{"*"},
			ReadHeaderTimeout: DefaultReadHeaderTimeout,
			ShutdownTimeout:   DefaultShutdownTimeout,
		},
		HTTPTimeout: DefaultHTTPTimeoutSeconds * time.Second,
		Providers: map[string]ProviderConfig{
			ProviderGoogle:    {APIKeyEnv: EnvGoogleAPIKey},
			ProviderOpenAI:    {APIKeyEnv: EnvOpenAIAPIKey},
			ProviderAnthropic: {APIKeyEnv: EnvAnthropicAPIKey},
		},
		Personas: domain.DefaultPersonas(),
		Generation: GenerationConfig{
			Temperature: DefaultGenerationTemp,
			Timeout:     DefaultGenerationTimeout,
		},
		RateLimit: RateLimitConfig{
			Local: LocalRateLimitConfig{
				TokensPerSecond: DefaultTokensPerSecond,
				BurstSize:       DefaultBurstSize,
				Enabled:         true,
			},
		},
		Cache: CacheConfig{
			TTL:       DefaultCacheTTL,
			RedisAddr: DefaultRedisAddr,
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: true,
			LogLevel:       "info",
			LogFormat:      "json",
			RedactPrompts:  true,
		},
		Temporal: TemporalConfig{
			HostPort:        DefaultTemporalHostPort,
			Namespace:       DefaultTemporalNamespace,
			TaskQueue:       DefaultTaskQueue,
			ActivityTimeout: DefaultActivityTimeout,
		},
	}
}
