package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-triad/internal/domain"
	"github.com/ahrav/go-triad/internal/llm/configuration"
)

type fakeComparer struct {
	batch    domain.ComparisonBatch
	err      error
	panics   bool
	prompts  []string
	personas []domain.Persona
}

func (f *fakeComparer) CompareAll(_ context.Context, prompt string) (domain.ComparisonBatch, error) {
	f.prompts = append(f.prompts, prompt)
	if f.panics {
		panic("orchestrator bug")
	}
	if err := domain.ValidatePrompt(prompt); err != nil {
		return nil, err
	}
	return f.batch, f.err
}

func (f *fakeComparer) Personas() []domain.Persona { return f.personas }

func newTestServer(c Comparer) http.Handler {
	return New(configuration.ServerConfig{}, c, WithGatherer(prometheus.NewRegistry())).Handler()
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAskSuccess(t *testing.T) {
	c := &fakeComparer{batch: domain.ComparisonBatch{
		domain.SucceededResult(domain.PersonaGPT, "a", 120),
		domain.FailedResult(domain.PersonaGemini, "Rate limit", 40),
		domain.SucceededResult(domain.PersonaDeepSeek, "<think>x</think>c", 300),
	}}

	rec := post(t, newTestServer(c), `{"question":"Explain quantum entanglement"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, []string{"Explain quantum entanglement"}, c.prompts)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 3)

	assert.Equal(t, "GPT", got[0]["provider"])
	assert.Equal(t, "a", got[0]["content"])
	assert.Equal(t, false, got[0]["loading"])
	assert.InDelta(t, 120.0, got[0]["duration"], 0.001)
	assert.NotContains(t, got[0], "error")

	assert.Equal(t, "GEMINI", got[1]["provider"])
	assert.Equal(t, "", got[1]["content"])
	assert.Equal(t, "Rate limit", got[1]["error"])

	assert.Equal(t, "DEEPSEEK", got[2]["provider"])
}

func TestAskValidation(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		msg    string
	}{
		{"missing_question", `{}`, http.StatusBadRequest, msgQuestionRequired},
		{"empty_question", `{"question":""}`, http.StatusBadRequest, msgQuestionRequired},
		{"whitespace_question", `{"question":"   "}`, http.StatusBadRequest, msgQuestionRequired},
		{"malformed_json", `{"question":`, http.StatusBadRequest, msgInvalidBody},
		{"wrong_type", `{"question":42}`, http.StatusBadRequest, msgInvalidBody},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, newTestServer(&fakeComparer{}), tt.body)
			assert.Equal(t, tt.status, rec.Code)

			var got errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.msg, got.Error)
		})
	}
}

func TestAskOrchestrationFault(t *testing.T) {
	rec := post(t, newTestServer(&fakeComparer{err: domain.ErrNoPersonas}), `{"question":"hi"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to process request"}`, rec.Body.String())

	rec = post(t, newTestServer(&fakeComparer{err: errors.New("boom")}), `{"question":"hi"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAskPanicBecomes500(t *testing.T) {
	rec := post(t, newTestServer(&fakeComparer{panics: true}), `{"question":"hi"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to process request"}`, rec.Body.String())
}

func TestAskMethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(&fakeComparer{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ask", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestPersonas(t *testing.T) {
	c := &fakeComparer{personas: domain.DefaultPersonas()}
	rec := httptest.NewRecorder()
	newTestServer(c).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/personas", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[
		{"id":"GPT","label":"GPT-4o"},
		{"id":"GEMINI","label":"Gemini 2.0 Pro"},
		{"id":"DEEPSEEK","label":"DeepSeek-R1"}
	]`, rec.Body.String())
}

func TestHealthAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "triad_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	h := New(configuration.ServerConfig{}, &fakeComparer{}, WithGatherer(reg)).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "triad_test_total 1")
}

func TestCORS(t *testing.T) {
	h := New(configuration.ServerConfig{AllowedOrigins: []string{"http://localhost:5173"}}, &fakeComparer{}).Handler()

	req := httptest.NewRequest(http.MethodOptions, "/api/ask", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestListenAndServeShutdown(t *testing.T) {
	s := New(configuration.ServerConfig{Addr: "127.0.0.1:0"}, &fakeComparer{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()

	cancel()
	require.NoError(t, <-done)
}
