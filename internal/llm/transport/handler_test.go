package transport_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-triad/internal/domain"
	"github.com/ahrav/go-triad/internal/llm/transport"
)

var errNoAdapter = errors.New("no adapter")

// echoAdapter posts the prompt as JSON and reads {"text": "..."} back.
type echoAdapter struct{ url string }

func (a *echoAdapter) Name() string { return "echo" }

func (a *echoAdapter) Build(ctx context.Context, req *transport.Request) (*http.Request, error) {
	body, _ := json.Marshal(map[string]string{"prompt": req.Prompt, "system": req.SystemPrompt})
	return http.NewRequestWithContext(ctx, http.MethodPost, a.url, strings.NewReader(string(body)))
}

func (a *echoAdapter) Parse(httpResp *http.Response) (*transport.Response, error) {
	var out struct {
		Text string `json:"text"`
	}
	b, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return &transport.Response{Content: out.Text, FinishReason: domain.FinishStop}, nil
}

type staticRouter struct{ adapter transport.ProviderAdapter }

func (r staticRouter) Pick(provider, _ string) (transport.ProviderAdapter, error) {
	if r.adapter == nil || provider != "echo" {
		return nil, errNoAdapter
	}
	return r.adapter, nil
}

func TestChainOrder(t *testing.T) {
	var calls []string
	mw := func(name string) transport.Middleware {
		return func(next transport.Handler) transport.Handler {
			return transport.HandlerFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
				calls = append(calls, name+":before")
				resp, err := next.Handle(ctx, req)
				calls = append(calls, name+":after")
				return resp, err
			})
		}
	}
	core := transport.HandlerFunc(func(context.Context, *transport.Request) (*transport.Response, error) {
		calls = append(calls, "core")
		return &transport.Response{Content: "ok"}, nil
	})

	h := transport.Chain(core, mw("outer"), mw("inner"))
	resp, err := h.Handle(context.Background(), &transport.Request{})

	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, []string{"outer:before", "inner:before", "core", "inner:after", "outer:after"}, calls)
}

func TestHTTPHandler(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		_ = json.NewEncoder(w).Encode(map[string]string{"text": in["system"] + "|" + in["prompt"]})
	}))
	defer srv.Close()

	h := transport.NewHTTPHandler(srv.Client(), staticRouter{adapter: &echoAdapter{url: srv.URL}})

	t.Run("round_trip", func(t *testing.T) {
		resp, err := h.Handle(context.Background(), &transport.Request{
			Provider:     "echo",
			Prompt:       "hello",
			SystemPrompt: "be brief",
		})
		require.NoError(t, err)
		assert.Equal(t, "be brief|hello", resp.Content)
		assert.GreaterOrEqual(t, resp.Usage.LatencyMs, int64(0))
	})

	t.Run("unknown_provider", func(t *testing.T) {
		_, err := h.Handle(context.Background(), &transport.Request{Provider: "nope"})
		require.ErrorIs(t, err, errNoAdapter)
	})
}

func TestHTTPHandlerTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	h := transport.NewHTTPHandler(srv.Client(), staticRouter{adapter: &echoAdapter{url: srv.URL}})

	start := time.Now()
	_, err := h.Handle(context.Background(), &transport.Request{Provider: "echo", Timeout: 50 * time.Millisecond})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestTraceID(t *testing.T) {
	ctx := transport.WithTraceID(context.Background(), "trace-1")
	assert.Equal(t, "trace-1", transport.ExtractTraceID(ctx))

	generated := transport.ExtractTraceID(context.Background())
	assert.Len(t, generated, 36)
}

func TestGenerateInputConversion(t *testing.T) {
	in := domain.GenerateInput{
		Provider:          "google",
		Model:             "gemini",
		Prompt:            "p",
		SystemInstruction: "s",
		MaxTokens:         10,
		Temperature:       0.5,
		Timeout:           time.Second,
	}
	req := transport.FromGenerateInput(transport.WithTraceID(context.Background(), "t"), in)
	assert.Equal(t, "google", req.Provider)
	assert.Equal(t, "s", req.SystemPrompt)
	assert.Equal(t, "t", req.TraceID)
	assert.Equal(t, time.Second, req.Timeout)

	out := transport.ToGenerateOutput(&transport.Response{
		Content:            "answer",
		FinishReason:       domain.FinishLength,
		ProviderRequestIDs: []string{"r1"},
		Usage:              transport.NormalizedUsage{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3, LatencyMs: 4},
	})
	assert.Equal(t, "answer", out.Content)
	assert.Equal(t, domain.FinishLength, out.FinishReason)
	assert.Equal(t, int64(3), out.TotalTokens)
	assert.Equal(t, int64(4), out.LatencyMillis)
	assert.Equal(t, []string{"r1"}, out.ProviderRequestIDs)
}
