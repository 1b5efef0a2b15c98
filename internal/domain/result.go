package domain

import (
	"strings"
	"time"
)

// Placeholder texts used when the upstream gives nothing better.
const (
	// EmptyContentPlaceholder replaces an empty successful upstream answer.
	EmptyContentPlaceholder = "No response generated."

	// ProviderErrorFallback is used when an upstream error carries no text.
	ProviderErrorFallback = "Provider Error"

	// ExecutionErrorMessage marks a slot whose invocation faulted instead of
	// returning a result.
	ExecutionErrorMessage = "Unknown execution error"
)

// ModelResult is the outcome of one persona's call attempt.
// Error is empty on success; DurationMillis is wall-clock time around the call.
type ModelResult struct {
	PersonaID      PersonaID `json:"persona_id"`
	Content        string    `json:"content"`
	Succeeded      bool      `json:"succeeded"`
	Error          string    `json:"error,omitempty"`
	DurationMillis int64     `json:"duration_ms"`
}

// SucceededResult builds a successful result, substituting the placeholder
// for empty content.
func SucceededResult(id PersonaID, content string, durationMillis int64) ModelResult {
	if content == "" {
		content = EmptyContentPlaceholder
	}
	return ModelResult{
		PersonaID:      id,
		Content:        content,
		Succeeded:      true,
		DurationMillis: nonNegative(durationMillis),
	}
}

// FailedResult builds a failed result carrying msg as the error description.
func FailedResult(id PersonaID, msg string, durationMillis int64) ModelResult {
	if strings.TrimSpace(msg) == "" {
		msg = ProviderErrorFallback
	}
	return ModelResult{
		PersonaID:      id,
		Error:          msg,
		DurationMillis: nonNegative(durationMillis),
	}
}

// ExecutionFailure is the substitute for an invocation that faulted.
func ExecutionFailure(id PersonaID) ModelResult {
	return ModelResult{PersonaID: id, Error: ExecutionErrorMessage}
}

func nonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

// ComparisonBatch holds one result per configured persona, in persona order.
type ComparisonBatch []ModelResult

// Succeeded counts the successful entries.
func (b ComparisonBatch) Succeeded() int {
	n := 0
	for _, r := range b {
		if r.Succeeded {
			n++
		}
	}
	return n
}

// Failed counts the failed entries.
func (b ComparisonBatch) Failed() int { return len(b) - b.Succeeded() }

// ComparisonRequest is the input of a durable comparison run. It carries the
// persona table so the run does not depend on process configuration.
type ComparisonRequest struct {
	Prompt   string    `json:"prompt"`
	Personas []Persona `json:"personas"`

	// CallTimeout bounds each persona call. Zero uses the worker default.
	CallTimeout time.Duration `json:"call_timeout,omitempty"`
}

// Validate rejects blank prompts and malformed persona tables.
func (r *ComparisonRequest) Validate() error {
	if err := ValidatePrompt(r.Prompt); err != nil {
		return err
	}
	return ValidatePersonas(r.Personas)
}

// PersonaCall is the unit of work for a single persona invocation.
type PersonaCall struct {
	Persona Persona `json:"persona"`
	Prompt  string  `json:"prompt"`
}

// ValidatePrompt returns ErrInvalidPrompt for empty or whitespace-only prompts.
func ValidatePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return ErrInvalidPrompt
	}
	return nil
}
