package configuration

import (
	"errors"
	"fmt"
	"maps"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig indicates the configuration failed validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Load reads a YAML file over DefaultConfig, resolves secrets from the
// environment, and validates the result. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := Parse(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.ApplyEnv(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML into cfg. Fields absent from data keep their values.
// Lists are replaced wholesale; a provider entry is merged field by field
// over the entry already in cfg.
func Parse(data []byte, cfg *Config) error {
	prev := maps.Clone(cfg.Providers)
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return err
	}
	for name, p := range cfg.Providers {
		if base, ok := prev[name]; ok {
			cfg.Providers[name] = mergeProvider(base, p)
		}
	}
	return nil
}

// mergeProvider overlays the non-empty fields of override on base.
func mergeProvider(base, override ProviderConfig) ProviderConfig {
	if override.Endpoint != "" {
		base.Endpoint = override.Endpoint
	}
	if override.APIKeyEnv != "" {
		base.APIKeyEnv = override.APIKeyEnv
	}
	if override.APIKey != "" {
		base.APIKey = override.APIKey
	}
	if len(override.Headers) > 0 {
		headers := maps.Clone(base.Headers)
		if headers == nil {
			headers = make(map[string]string, len(override.Headers))
		}
		maps.Copy(headers, override.Headers)
		base.Headers = headers
	}
	return base
}

// ApplyEnv fills secrets that are never read from the config file.
func (c *Config) ApplyEnv(getenv func(string) string) {
	for name, p := range c.Providers {
		if p.APIKey == "" && p.APIKeyEnv != "" {
			p.APIKey = getenv(p.APIKeyEnv)
			c.Providers[name] = p
		}
	}
	if c.Cache.RedisPassword == "" {
		c.Cache.RedisPassword = getenv(EnvRedisPassword)
	}
}
