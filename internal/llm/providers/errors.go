package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ahrav/go-triad/internal/llm/configuration"
	llmerrors "github.com/ahrav/go-triad/internal/llm/errors"
)

// classifyErrorType determines the ErrorType from the HTTP status and the
// provider's own error code. The code wins when it is recognizable.
func classifyErrorType(statusCode int, errorCode string) llmerrors.ErrorType {
	lowerCode := strings.ToLower(errorCode)
	switch {
	case strings.Contains(lowerCode, "rate"), strings.Contains(lowerCode, "limit"):
		return llmerrors.ErrorTypeRateLimit
	case strings.Contains(lowerCode, "timeout"), strings.Contains(lowerCode, "deadline"):
		return llmerrors.ErrorTypeTimeout
	case strings.Contains(lowerCode, "auth"), strings.Contains(lowerCode, "unauthenticated"):
		return llmerrors.ErrorTypeAuth
	case strings.Contains(lowerCode, "permission"), strings.Contains(lowerCode, "forbidden"):
		return llmerrors.ErrorTypePermission
	case strings.Contains(lowerCode, "quota"), strings.Contains(lowerCode, "exhausted"):
		return llmerrors.ErrorTypeQuota
	case strings.Contains(lowerCode, "overloaded"), strings.Contains(lowerCode, "unavailable"):
		return llmerrors.ErrorTypeProvider
	case strings.Contains(lowerCode, "content_policy"), strings.Contains(lowerCode, "safety"):
		return llmerrors.ErrorTypeContent
	}

	switch statusCode {
	case http.StatusTooManyRequests:
		return llmerrors.ErrorTypeRateLimit
	case http.StatusUnauthorized:
		return llmerrors.ErrorTypeAuth
	case http.StatusForbidden:
		return llmerrors.ErrorTypePermission
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return llmerrors.ErrorTypeTimeout
	case http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity:
		return llmerrors.ErrorTypeValidation
	default:
		if statusCode >= configuration.ServerErrorStatusThreshold {
			return llmerrors.ErrorTypeProvider
		}
		return llmerrors.ErrorTypeUnknown
	}
}

// newProviderError builds the ProviderError for a non-200 response. An empty
// message falls back to the raw body, then to the status text.
func newProviderError(
	provider string, statusCode int, header http.Header, message, code string, body []byte,
) *llmerrors.ProviderError {
	if message == "" {
		message = strings.TrimSpace(string(body))
	}
	if message == "" {
		message = http.StatusText(statusCode)
	}
	return &llmerrors.ProviderError{
		Provider:   provider,
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
		Type:       classifyErrorType(statusCode, code),
		RetryAfter: retryAfterSeconds(header, time.Now()),
	}
}

// retryAfterSeconds reads Retry-After as delta seconds or an HTTP date.
// Missing, malformed, or past values yield 0.
func retryAfterSeconds(header http.Header, now time.Time) int {
	v := strings.TrimSpace(header.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return max(secs, 0)
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := at.Sub(now); d > 0 {
			return int(math.Ceil(d.Seconds()))
		}
	}
	return 0
}

// newJSONRequest marshals body and builds a POST carrying it, with the
// configured extra headers applied last.
func newJSONRequest(
	ctx context.Context, endpoint string, body any, headers map[string]string,
) (*http.Request, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}
	return httpReq, nil
}

// requestIDs collects the first present header among names.
func requestIDs(h http.Header, names ...string) []string {
	for _, name := range names {
		if id := h.Get(name); id != "" {
			return []string{id}
		}
	}
	return nil
}
