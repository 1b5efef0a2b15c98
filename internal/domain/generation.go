package domain

import "time"

// FinishReason indicates why the model stopped generating.
type FinishReason string

// Normalized finish reasons.
const (
	FinishStop          FinishReason = "stop"
	FinishLength        FinishReason = "length"
	FinishContentFilter FinishReason = "content_filter"
)

// GenerateInput is a provider-neutral generation call: one prompt under one
// system instruction, routed to Provider/Model.
type GenerateInput struct {
	Provider          string        `json:"provider" validate:"required"`
	Model             string        `json:"model" validate:"required"`
	Prompt            string        `json:"prompt" validate:"required"`
	SystemInstruction string        `json:"system_instruction,omitempty"`
	MaxTokens         int64         `json:"max_tokens" validate:"gte=0"`
	Temperature       float64       `json:"temperature" validate:"gte=0,lte=2"`
	Timeout           time.Duration `json:"timeout" validate:"gte=0"`
}

// Validate checks the generation input.
func (in *GenerateInput) Validate() error { return validate.Struct(in) }

// GenerateOutput is the normalized answer to a GenerateInput.
type GenerateOutput struct {
	Content            string       `json:"content"`
	FinishReason       FinishReason `json:"finish_reason"`
	PromptTokens       int64        `json:"prompt_tokens"`
	CompletionTokens   int64        `json:"completion_tokens"`
	TotalTokens        int64        `json:"total_tokens"`
	LatencyMillis      int64        `json:"latency_ms"`
	ProviderRequestIDs []string     `json:"provider_request_ids,omitempty"`
}
