// Package domain defines the value types shared by every layer of the comparator:
// personas, per-persona results, the ordered comparison batch, and the
// provider-neutral generation contract the upstream caller depends on.
//
// All types are plain values. They are created once, passed by value across
// goroutine and workflow boundaries, and never mutated after construction.
package domain

import (
	"fmt"
	"slices"
)

// PersonaID identifies a persona. It doubles as the "provider" label the
// UI shows on each response card.
type PersonaID string

// Built-in persona identifiers.
const (
	PersonaGPT      PersonaID = "GPT"
	PersonaGemini   PersonaID = "GEMINI"
	PersonaDeepSeek PersonaID = "DEEPSEEK"
)

// Persona is a named system instruction applied to the same prompt to produce
// a distinct response style. Provider and Model select the upstream backend,
// which lets each persona route to a different service when configured to.
type Persona struct {
	ID                PersonaID `json:"id" yaml:"id" validate:"required,max=64"`
	Label             string    `json:"label" yaml:"label" validate:"required"`
	SystemInstruction string    `json:"system_instruction" yaml:"system_instruction" validate:"required"`
	Provider          string    `json:"provider" yaml:"provider" validate:"required,oneof=openai anthropic google"`
	Model             string    `json:"model" yaml:"model" validate:"required"`
}

// Validate checks the persona's required fields.
func (p *Persona) Validate() error { return validate.Struct(p) }

// DefaultModel is the backend model every built-in persona shares.
const DefaultModel = "gemini-3-pro-preview"

// DefaultPersonas returns the three built-in personas in display order.
// All of them run on the same Google model; only the instruction differs.
func DefaultPersonas() []Persona {
	return []Persona{
		{
			ID:    PersonaGPT,
			Label: "GPT-4o",
			SystemInstruction: "You are GPT-4o, a large language model trained by OpenAI. " +
				"Respond in a helpful, comprehensive, and professional tone. Be direct and authoritative.",
			Provider: "google",
			Model:    DefaultModel,
		},
		{
			ID:    PersonaGemini,
			Label: "Gemini 2.0 Pro",
			SystemInstruction: "You are Gemini 2.0 Pro, a multimodal AI model from Google. " +
				"Respond in a creative, insightful, and user-centric manner. Use formatting effectively.",
			Provider: "google",
			Model:    DefaultModel,
		},
		{
			ID:    PersonaDeepSeek,
			Label: "DeepSeek-R1",
			SystemInstruction: "You are DeepSeek-R1. You are a specialized reasoning model. " +
				"You MUST perform a chain-of-thought reasoning process before answering. " +
				"Enclose your thinking process in <think> tags, like this: <think> ... reasoning steps ... </think>. " +
				"Then provide the final answer. Your tone is extremely concise, technical, and logical.",
			Provider: "google",
			Model:    DefaultModel,
		},
	}
}

// ValidatePersonas checks every persona and rejects an empty table or
// duplicate identifiers, since batch positions are keyed by persona.
func ValidatePersonas(personas []Persona) error {
	if len(personas) == 0 {
		return ErrNoPersonas
	}
	seen := make([]PersonaID, 0, len(personas))
	for i := range personas {
		if err := personas[i].Validate(); err != nil {
			return fmt.Errorf("%w: persona %d: %w", ErrInvalidPersona, i, err)
		}
		if slices.Contains(seen, personas[i].ID) {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalidPersona, personas[i].ID)
		}
		seen = append(seen, personas[i].ID)
	}
	return nil
}
