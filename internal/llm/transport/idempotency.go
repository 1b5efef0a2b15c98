package transport

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// CurrentCanonicalVersion defines the canonicalization format version.
// Bump it when canonicalization changes so stale cache entries stop matching.
const CurrentCanonicalVersion = "v1"

// CanonicalPayload is the normalized form of a logical request and the sole
// input to key hashing. Equivalent requests must produce identical payloads.
type CanonicalPayload struct {
	Provider    string  `json:"provider"`
	Model       string  `json:"model"`
	System      string  `json:"system,omitempty"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int64   `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	Version     string  `json:"version"`
}

// IdemKey is a SHA-256 hex digest of a canonical payload.
type IdemKey string

// String returns the string representation of the key.
func (k IdemKey) String() string { return string(k) }

// BuildCanonicalPayload normalizes a request into canonical form.
func BuildCanonicalPayload(req *Request) *CanonicalPayload {
	return &CanonicalPayload{
		Provider:    strings.ToLower(strings.TrimSpace(req.Provider)),
		Model:       strings.TrimSpace(req.Model),
		System:      normalizeText(req.SystemPrompt),
		Prompt:      normalizeText(req.Prompt),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Version:     CurrentCanonicalVersion,
	}
}

// GenerateIdemKey derives the deterministic key for req.
func GenerateIdemKey(req *Request) (IdemKey, error) {
	b, err := json.Marshal(BuildCanonicalPayload(req))
	if err != nil {
		return "", fmt.Errorf("failed to marshal canonical payload: %w", err)
	}
	sum := sha256.Sum256(b)
	return IdemKey(hex.EncodeToString(sum[:])), nil
}

// normalizeText trims, normalizes line endings, and collapses whitespace.
func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Join(strings.Fields(text), " ")
}
