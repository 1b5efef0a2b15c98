package ratelimit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-triad/internal/llm/configuration"
	llmerrors "github.com/ahrav/go-triad/internal/llm/errors"
	"github.com/ahrav/go-triad/internal/llm/transport"
)

func TestNewLimiterValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     configuration.LocalRateLimitConfig
		wantErr bool
	}{
		{"disabled_zero_values", configuration.LocalRateLimitConfig{}, false},
		{"enabled_valid", configuration.LocalRateLimitConfig{Enabled: true, TokensPerSecond: 1, BurstSize: 1}, false},
		{"enabled_zero_rate", configuration.LocalRateLimitConfig{Enabled: true, BurstSize: 1}, true},
		{"enabled_zero_burst", configuration.LocalRateLimitConfig{Enabled: true, TokensPerSecond: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLimiter(tt.cfg, nil)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestLimiterAllow(t *testing.T) {
	l, err := NewLimiter(configuration.LocalRateLimitConfig{
		Enabled:         true,
		TokensPerSecond: 0.1,
		BurstSize:       2,
	}, nil)
	require.NoError(t, err)

	require.NoError(t, l.Allow("google", "gemini"))
	require.NoError(t, l.Allow("google", "gemini"))

	err = l.Allow("google", "gemini")
	var rle *llmerrors.RateLimitError
	require.ErrorAs(t, err, &rle)
	assert.True(t, rle.LocalLimit)
	assert.Equal(t, "google", rle.Provider)
	assert.GreaterOrEqual(t, rle.RetryAfter, 1)
	assert.ErrorIs(t, err, llmerrors.ErrRateLimitExceeded)

	// Buckets are independent per provider:model.
	require.NoError(t, l.Allow("google", "gemini-flash"))
	require.NoError(t, l.Allow("openai", "gemini"))
}

func TestLimiterDisabled(t *testing.T) {
	l, err := NewLimiter(configuration.LocalRateLimitConfig{}, nil)
	require.NoError(t, err)
	for range 100 {
		require.NoError(t, l.Allow("google", "gemini"))
	}
}

func TestMiddleware(t *testing.T) {
	mw, err := NewMiddleware(configuration.RateLimitConfig{
		Local: configuration.LocalRateLimitConfig{Enabled: true, TokensPerSecond: 0.1, BurstSize: 1},
	}, nil)
	require.NoError(t, err)

	calls := 0
	h := mw(transport.HandlerFunc(func(context.Context, *transport.Request) (*transport.Response, error) {
		calls++
		return &transport.Response{Content: "ok"}, nil
	}))

	req := &transport.Request{Provider: "google", Model: "gemini"}
	resp, err := h.Handle(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)

	_, err = h.Handle(context.Background(), req)
	require.True(t, errors.Is(err, llmerrors.ErrRateLimitExceeded))
	assert.Equal(t, 1, calls)
}
