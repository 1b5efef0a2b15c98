package compare

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-triad/internal/domain"
	"github.com/ahrav/go-triad/internal/llm"
	"github.com/ahrav/go-triad/internal/llm/configuration"
)

// geminiStub answers every generateContent call with a fixed 200 body.
func geminiStub(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func orchestratorOver(t *testing.T, endpoint string) *Orchestrator {
	t.Helper()
	cfg := configuration.DefaultConfig()
	cfg.Providers = map[string]configuration.ProviderConfig{
		configuration.ProviderGoogle: {Endpoint: endpoint, APIKey: "k"},
	}
	client, err := llm.NewClient(context.Background(), cfg)
	require.NoError(t, err)
	return NewOrchestrator(NewUpstreamCaller(client, cfg.Generation), personas())
}

func TestCompareAllThroughGemini(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		succeeded bool
		content   string
	}{
		{
			name:      "answer",
			body:      `{"candidates":[{"content":{"parts":[{"text":"hi"}]},"finishReason":"STOP"}]}`,
			succeeded: true,
			content:   "hi",
		},
		{
			name:      "blocked prompt is an empty answer",
			body:      `{"promptFeedback":{"blockReason":"SAFETY"}}`,
			succeeded: true,
			content:   domain.EmptyContentPlaceholder,
		},
		{
			name:      "no candidates is an empty answer",
			body:      `{"candidates":[]}`,
			succeeded: true,
			content:   domain.EmptyContentPlaceholder,
		},
		{
			name:      "unparseable body fails",
			body:      `{not json`,
			succeeded: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orch := orchestratorOver(t, geminiStub(t, tt.body).URL)

			batch, err := orch.CompareAll(context.Background(), "hello")
			require.NoError(t, err)
			require.Len(t, batch, 3)
			assert.Equal(t, order, ids(batch))

			for _, res := range batch {
				assert.Equal(t, tt.succeeded, res.Succeeded, res.PersonaID)
				if tt.succeeded {
					assert.Equal(t, tt.content, res.Content)
					assert.Empty(t, res.Error)
				} else {
					assert.Empty(t, res.Content)
					assert.Contains(t, res.Error, "invalid provider response")
				}
			}
		})
	}
}

type gaugeRecorder struct {
	mu     sync.Mutex
	values []float64
}

func (g *gaugeRecorder) IncrementCounter(string, map[string]string, float64) {}
func (g *gaugeRecorder) RecordHistogram(string, map[string]string, float64)  {}
func (g *gaugeRecorder) SetGauge(name string, _ map[string]string, value float64) {
	if name != "compare.calls.inflight" {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.values = append(g.values, value)
}

func TestCompareAllReportsInflightGauge(t *testing.T) {
	gauges := &gaugeRecorder{}
	caller := NewUpstreamCaller(&stubGenerator{}, configuration.GenerationConfig{})
	orch := NewOrchestrator(caller, personas(), WithMetrics(gauges))

	_, err := orch.CompareAll(context.Background(), "hello")
	require.NoError(t, err)

	gauges.mu.Lock()
	defer gauges.mu.Unlock()
	require.Len(t, gauges.values, 6)
	assert.Zero(t, gauges.values[len(gauges.values)-1])
	for _, v := range gauges.values {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 3.0)
	}
}
