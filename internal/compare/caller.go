// Package compare runs one prompt against every configured persona in
// parallel and assembles the answers into an order-stable batch.
//
// The UpstreamCaller turns a single model call into a ModelResult and never
// fails; the Orchestrator fans out one call per persona, waits for all of
// them, and places each result at its persona's index.
package compare

import (
	"context"
	"log/slog"
	"time"

	"github.com/ahrav/go-triad/internal/domain"
	"github.com/ahrav/go-triad/internal/llm/configuration"
	llmerrors "github.com/ahrav/go-triad/internal/llm/errors"
	"github.com/ahrav/go-triad/internal/llm/observability"
)

// Generator produces a completion for a prompt under a system instruction.
// llm.Client satisfies it.
type Generator interface {
	Generate(ctx context.Context, in domain.GenerateInput) (*domain.GenerateOutput, error)
}

// Caller performs one persona's call. Implementations must not return
// without a result; failures are encoded in the ModelResult.
type Caller interface {
	Call(ctx context.Context, persona domain.Persona, prompt string) domain.ModelResult
}

// UpstreamCaller is the Caller backed by a Generator.
type UpstreamCaller struct {
	gen     Generator
	params  configuration.GenerationConfig
	logger  *slog.Logger
	metrics observability.Metrics
}

var _ Caller = (*UpstreamCaller)(nil)

// NewUpstreamCaller creates a caller that sends every persona call to gen
// with the shared generation parameters.
func NewUpstreamCaller(gen Generator, params configuration.GenerationConfig, opts ...Option) *UpstreamCaller {
	o := newOptions(opts)
	return &UpstreamCaller{
		gen:     gen,
		params:  params,
		logger:  o.logger.With("component", "upstream_caller"),
		metrics: o.metrics,
	}
}

// Call sends prompt with the persona's instruction and reports the outcome.
// Duration is measured around the generator call on both paths. An empty
// answer becomes the placeholder text; an error without text becomes the
// generic provider error.
func (c *UpstreamCaller) Call(ctx context.Context, persona domain.Persona, prompt string) domain.ModelResult {
	in := domain.GenerateInput{
		Provider:          persona.Provider,
		Model:             persona.Model,
		Prompt:            prompt,
		SystemInstruction: persona.SystemInstruction,
		MaxTokens:         c.params.MaxTokens,
		Temperature:       c.params.Temperature,
		Timeout:           c.params.Timeout,
	}

	start := time.Now()
	out, err := c.gen.Generate(ctx, in)
	elapsed := time.Since(start).Milliseconds()

	tags := map[string]string{"persona": string(persona.ID)}
	c.metrics.RecordHistogram("compare.call.duration_ms", tags, float64(elapsed))

	if err != nil {
		errorType := string(llmerrors.Classify(err))
		c.metrics.IncrementCounter("compare.calls.failed", map[string]string{
			"persona":    string(persona.ID),
			"error_type": errorType,
		}, 1)
		c.logger.WarnContext(ctx, "persona call failed",
			"persona", persona.ID,
			"provider", persona.Provider,
			"model", persona.Model,
			"duration_ms", elapsed,
			"error_type", errorType,
			"error", err)
		return domain.FailedResult(persona.ID, err.Error(), elapsed)
	}

	var content string
	if out != nil {
		content = out.Content
	}
	c.metrics.IncrementCounter("compare.calls.succeeded", tags, 1)
	c.logger.InfoContext(ctx, "persona call completed",
		"persona", persona.ID,
		"provider", persona.Provider,
		"model", persona.Model,
		"duration_ms", elapsed,
		"content_length", len(content))

	return domain.SucceededResult(persona.ID, content, elapsed)
}
