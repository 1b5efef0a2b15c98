package errors

import (
	"context"
	"errors"
	"net"
	"strings"
)

// Classify maps an upstream failure onto an ErrorType.
// Typed errors are checked first, then sentinels, then the net package's
// error types, and finally message patterns for untyped errors.
func Classify(err error) ErrorType {
	if err == nil {
		return ""
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		if providerErr.Type == "" {
			return ErrorTypeUnknown
		}
		return providerErr.Type
	}

	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) || errors.Is(err, ErrRateLimitExceeded) {
		return ErrorTypeRateLimit
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorTypeTimeout
	case errors.Is(err, ErrUnknownProvider):
		return ErrorTypeValidation
	case errors.Is(err, ErrInvalidResponse):
		return ErrorTypeProvider
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrorTypeTimeout
		}
		return ErrorTypeNetwork
	}

	return classifyMessage(err.Error())
}

// classifyMessage falls back to substring matching on the error text.
func classifyMessage(msg string) ErrorType {
	msg = strings.ToLower(msg)
	switch {
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline"):
		return ErrorTypeTimeout
	case strings.Contains(msg, "rate limit"), strings.Contains(msg, "too many requests"):
		return ErrorTypeRateLimit
	case strings.Contains(msg, "connection refused"), strings.Contains(msg, "no such host"),
		strings.Contains(msg, "connection reset"):
		return ErrorTypeNetwork
	default:
		return ErrorTypeUnknown
	}
}

// RetryAfter returns the retry guidance in seconds carried by a typed
// provider or rate limit error, or 0.
func RetryAfter(err error) int {
	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.RetryAfter
	}
	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return rateLimitErr.RetryAfter
	}
	return 0
}
