// Package transport defines the normalized request/response types of the LLM
// client and the composable handler pipeline that carries them to a provider.
package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ahrav/go-triad/internal/domain"
)

// Request is a normalized generation request across all providers.
type Request struct {
	// Provider identifies which LLM service to use.
	Provider string `json:"provider"` // "openai"|"anthropic"|"google"

	// Model specifies the exact model version to use.
	Model string `json:"model"`

	// Prompt is the user text.
	Prompt string `json:"prompt"`

	// SystemPrompt carries the persona instruction.
	SystemPrompt string `json:"system_prompt,omitempty"`

	// Generation parameters. A zero MaxTokens is omitted from the wire.
	MaxTokens   int64   `json:"max_tokens"`
	Temperature float64 `json:"temperature"`

	// Control fields for caching and observability.
	Timeout        time.Duration `json:"timeout"`
	IdempotencyKey string        `json:"idempotency_key"`
	TraceID        string        `json:"trace_id"`
}

// Response is the normalized output of any provider.
type Response struct {
	Content            string              `json:"content"`
	FinishReason       domain.FinishReason `json:"finish_reason"`
	ProviderRequestIDs []string            `json:"provider_request_ids"`
	Usage              NormalizedUsage     `json:"usage"`

	// Headers preserves raw response headers for debugging.
	Headers http.Header `json:"-"`
}

// NormalizedUsage provides consistent usage metrics across all providers.
type NormalizedUsage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
	LatencyMs        int64 `json:"latency_ms"`
}

type traceIDKey struct{}

// WithTraceID attaches a trace identifier to ctx.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

// ExtractTraceID returns the trace identifier on ctx, or a fresh UUID.
func ExtractTraceID(ctx context.Context) string {
	if id, ok := ctx.Value(traceIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.New().String()
}

// FromGenerateInput converts a domain generation call into a transport request.
func FromGenerateInput(ctx context.Context, in domain.GenerateInput) *Request {
	return &Request{
		Provider:     in.Provider,
		Model:        in.Model,
		Prompt:       in.Prompt,
		SystemPrompt: in.SystemInstruction,
		MaxTokens:    in.MaxTokens,
		Temperature:  in.Temperature,
		Timeout:      in.Timeout,
		TraceID:      ExtractTraceID(ctx),
	}
}

// ToGenerateOutput converts a transport response into the domain answer.
func ToGenerateOutput(resp *Response) *domain.GenerateOutput {
	return &domain.GenerateOutput{
		Content:            resp.Content,
		FinishReason:       resp.FinishReason,
		PromptTokens:       resp.Usage.PromptTokens,
		CompletionTokens:   resp.Usage.CompletionTokens,
		TotalTokens:        resp.Usage.TotalTokens,
		LatencyMillis:      resp.Usage.LatencyMs,
		ProviderRequestIDs: resp.ProviderRequestIDs,
	}
}
