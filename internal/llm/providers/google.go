package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ahrav/go-triad/internal/domain"
	"github.com/ahrav/go-triad/internal/llm/configuration"
	llmerrors "github.com/ahrav/go-triad/internal/llm/errors"
	"github.com/ahrav/go-triad/internal/llm/transport"
)

// DefaultGoogleEndpoint is the Generative Language API base URL.
const DefaultGoogleEndpoint = "https://generativelanguage.googleapis.com/v1beta"

// GoogleAdapter speaks the Gemini generateContent API. The persona
// instruction travels in systemInstruction, separate from the user turn.
type GoogleAdapter struct {
	config configuration.ProviderConfig
}

// NewGoogleAdapter creates a Gemini adapter, defaulting the endpoint.
func NewGoogleAdapter(cfg configuration.ProviderConfig) *GoogleAdapter {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultGoogleEndpoint
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	return &GoogleAdapter{config: cfg}
}

// Name returns the provider name.
func (a *GoogleAdapter) Name() string { return ProviderGoogle }

type googlePart struct {
	Text string `json:"text"`
}

type googleContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []googlePart `json:"parts"`
}

type googleGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int64   `json:"maxOutputTokens,omitempty"`
}

type googleRequest struct {
	Contents          []googleContent        `json:"contents"`
	SystemInstruction *googleContent         `json:"systemInstruction,omitempty"`
	GenerationConfig  googleGenerationConfig `json:"generationConfig"`
}

// Build constructs the generateContent call. The key is sent in the
// x-goog-api-key header so it never appears in URLs or access logs.
func (a *GoogleAdapter) Build(ctx context.Context, req *transport.Request) (*http.Request, error) {
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", a.config.Endpoint, req.Model)

	body := googleRequest{
		Contents: []googleContent{{Role: "user", Parts: []googlePart{{Text: req.Prompt}}}},
		GenerationConfig: googleGenerationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		},
	}
	if req.SystemPrompt != "" {
		body.SystemInstruction = &googleContent{Parts: []googlePart{{Text: req.SystemPrompt}}}
	}

	httpReq, err := newJSONRequest(ctx, endpoint, body, a.config.Headers)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("x-goog-api-key", a.config.APIKey)
	return httpReq, nil
}

// Parse extracts the first candidate's text. Multi-part candidates are
// concatenated in order.
func (a *GoogleAdapter) Parse(httpResp *http.Response) (*transport.Response, error) {
	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, parseGoogleError(httpResp.StatusCode, httpResp.Header, body)
	}

	var resp struct {
		Candidates []struct {
			Content struct {
				Parts []googlePart `json:"parts"`
			} `json:"content"`
			FinishReason string `json:"finishReason"`
		} `json:"candidates"`
		PromptFeedback struct {
			BlockReason string `json:"blockReason"`
		} `json:"promptFeedback"`
		UsageMetadata struct {
			PromptTokenCount     int64 `json:"promptTokenCount"`
			CandidatesTokenCount int64 `json:"candidatesTokenCount"`
			TotalTokenCount      int64 `json:"totalTokenCount"`
		} `json:"usageMetadata"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", llmerrors.ErrInvalidResponse, err)
	}

	// A blocked prompt or an empty candidate list is an empty answer, not a
	// failure.
	var sb strings.Builder
	finish := domain.FinishStop
	switch {
	case len(resp.Candidates) > 0:
		for _, part := range resp.Candidates[0].Content.Parts {
			sb.WriteString(part.Text)
		}
		finish = mapGoogleFinishReason(resp.Candidates[0].FinishReason)
	case resp.PromptFeedback.BlockReason != "":
		finish = domain.FinishContentFilter
	}

	return &transport.Response{
		Content:            sb.String(),
		FinishReason:       finish,
		ProviderRequestIDs: requestIDs(httpResp.Header, "x-goog-request-id", "x-request-id"),
		Usage: transport.NormalizedUsage{
			PromptTokens:     resp.UsageMetadata.PromptTokenCount,
			CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      resp.UsageMetadata.TotalTokenCount,
		},
		Headers: httpResp.Header,
	}, nil
}

func mapGoogleFinishReason(reason string) domain.FinishReason {
	switch strings.ToUpper(reason) {
	case "MAX_TOKENS":
		return domain.FinishLength
	case "SAFETY", "BLOCKLIST", "PROHIBITED_CONTENT", "RECITATION":
		return domain.FinishContentFilter
	default:
		return domain.FinishStop
	}
}

func parseGoogleError(statusCode int, header http.Header, body []byte) error {
	var errResp struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	_ = json.Unmarshal(body, &errResp)
	return newProviderError(ProviderGoogle, statusCode, header, errResp.Error.Message, errResp.Error.Status, body)
}
