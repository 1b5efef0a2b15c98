package domain

import "errors"

// ErrInvalidPrompt indicates a missing, empty, or whitespace-only prompt.
var ErrInvalidPrompt = errors.New("prompt is required")

// ErrNoPersonas indicates that no personas are configured for a comparison.
var ErrNoPersonas = errors.New("no personas configured")

// ErrInvalidPersona indicates a malformed persona definition.
var ErrInvalidPersona = errors.New("invalid persona")
