package compare

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-triad/internal/domain"
	"github.com/ahrav/go-triad/internal/llm/configuration"
	llmerrors "github.com/ahrav/go-triad/internal/llm/errors"
)

// stubGenerator answers per system instruction. Behaviors are keyed by the
// instruction text so each persona can be steered independently.
type stubGenerator struct {
	mu       sync.Mutex
	inputs   []domain.GenerateInput
	calls    atomic.Int32
	delay    map[string]time.Duration
	errs     map[string]error
	content  map[string]string
	ctxErrs  []error
	panicFor string
}

func (s *stubGenerator) Generate(ctx context.Context, in domain.GenerateInput) (*domain.GenerateOutput, error) {
	s.calls.Add(1)
	s.mu.Lock()
	s.inputs = append(s.inputs, in)
	s.mu.Unlock()

	if d := s.delay[in.SystemInstruction]; d > 0 {
		time.Sleep(d)
	}

	s.mu.Lock()
	s.ctxErrs = append(s.ctxErrs, ctx.Err())
	s.mu.Unlock()

	if in.SystemInstruction == s.panicFor {
		panic("generator blew up")
	}
	if err := s.errs[in.SystemInstruction]; err != nil {
		return nil, err
	}
	if c, ok := s.content[in.SystemInstruction]; ok {
		return &domain.GenerateOutput{Content: c}, nil
	}
	return &domain.GenerateOutput{Content: "answer for " + in.SystemInstruction}, nil
}

func personas() []domain.Persona {
	ps := domain.DefaultPersonas()
	ps[0].SystemInstruction = "gpt"
	ps[1].SystemInstruction = "gemini"
	ps[2].SystemInstruction = "deepseek"
	return ps
}

func newTestOrchestrator(gen Generator) *Orchestrator {
	caller := NewUpstreamCaller(gen, configuration.GenerationConfig{Temperature: 1, MaxTokens: 64})
	return NewOrchestrator(caller, personas())
}

func ids(batch domain.ComparisonBatch) []domain.PersonaID {
	out := make([]domain.PersonaID, len(batch))
	for i, r := range batch {
		out[i] = r.PersonaID
	}
	return out
}

var order = []domain.PersonaID{domain.PersonaGPT, domain.PersonaGemini, domain.PersonaDeepSeek}

func TestCompareAllAllSucceed(t *testing.T) {
	gen := &stubGenerator{}
	batch, err := newTestOrchestrator(gen).CompareAll(context.Background(), "Explain quantum entanglement")
	require.NoError(t, err)

	require.Len(t, batch, 3)
	assert.Equal(t, order, ids(batch))
	for _, r := range batch {
		assert.True(t, r.Succeeded)
		assert.Empty(t, r.Error)
		assert.NotEmpty(t, r.Content)
		assert.GreaterOrEqual(t, r.DurationMillis, int64(0))
	}
	assert.Equal(t, "answer for gemini", batch[1].Content)
	assert.Equal(t, int32(3), gen.calls.Load())
}

func TestCompareAllPassesPersonaAndParams(t *testing.T) {
	gen := &stubGenerator{}
	_, err := newTestOrchestrator(gen).CompareAll(context.Background(), "hi")
	require.NoError(t, err)

	require.Len(t, gen.inputs, 3)
	for _, in := range gen.inputs {
		assert.Equal(t, "hi", in.Prompt)
		assert.Equal(t, "google", in.Provider)
		assert.Equal(t, domain.DefaultModel, in.Model)
		assert.Equal(t, int64(64), in.MaxTokens)
	}
}

func TestCompareAllOneFails(t *testing.T) {
	gen := &stubGenerator{
		errs: map[string]error{"gemini": &llmerrors.ProviderError{
			Provider: "google", StatusCode: 429, Message: "Rate limit", Type: llmerrors.ErrorTypeRateLimit,
		}},
	}
	batch, err := newTestOrchestrator(gen).CompareAll(context.Background(), "hi")
	require.NoError(t, err)

	assert.Equal(t, order, ids(batch))
	assert.True(t, batch[0].Succeeded)
	assert.True(t, batch[2].Succeeded)

	assert.False(t, batch[1].Succeeded)
	assert.Empty(t, batch[1].Content)
	assert.Contains(t, batch[1].Error, "Rate limit")
	assert.Equal(t, 2, batch.Succeeded())
	assert.Equal(t, 1, batch.Failed())
}

func TestCompareAllAllFail(t *testing.T) {
	boom := errors.New("connection refused")
	gen := &stubGenerator{errs: map[string]error{"gpt": boom, "gemini": boom, "deepseek": boom}}

	batch, err := newTestOrchestrator(gen).CompareAll(context.Background(), "hi")
	require.NoError(t, err)

	require.Len(t, batch, 3)
	assert.Equal(t, order, ids(batch))
	for _, r := range batch {
		assert.False(t, r.Succeeded)
		assert.Equal(t, "connection refused", r.Error)
	}
}

func TestCompareAllEmptyErrorText(t *testing.T) {
	gen := &stubGenerator{errs: map[string]error{"gpt": errors.New("")}}
	batch, err := newTestOrchestrator(gen).CompareAll(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderErrorFallback, batch[0].Error)
}

func TestCompareAllEmptyContentPlaceholder(t *testing.T) {
	gen := &stubGenerator{content: map[string]string{"deepseek": ""}}
	batch, err := newTestOrchestrator(gen).CompareAll(context.Background(), "hi")
	require.NoError(t, err)
	assert.True(t, batch[2].Succeeded)
	assert.Equal(t, domain.EmptyContentPlaceholder, batch[2].Content)
}

func TestCompareAllRejectsBlankPrompt(t *testing.T) {
	for _, prompt := range []string{"", "   ", "\n\t"} {
		gen := &stubGenerator{}
		batch, err := newTestOrchestrator(gen).CompareAll(context.Background(), prompt)
		require.ErrorIs(t, err, domain.ErrInvalidPrompt)
		assert.Nil(t, batch)
		assert.Zero(t, gen.calls.Load())
	}
}

func TestCompareAllNoPersonas(t *testing.T) {
	gen := &stubGenerator{}
	o := NewOrchestrator(NewUpstreamCaller(gen, configuration.GenerationConfig{}), nil)
	_, err := o.CompareAll(context.Background(), "hi")
	require.ErrorIs(t, err, domain.ErrNoPersonas)
	assert.Zero(t, gen.calls.Load())
}

func TestCompareAllRunsInParallel(t *testing.T) {
	const d = 150 * time.Millisecond
	gen := &stubGenerator{delay: map[string]time.Duration{"gpt": d, "gemini": d, "deepseek": d}}

	start := time.Now()
	batch, err := newTestOrchestrator(gen).CompareAll(context.Background(), "hi")
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Less(t, elapsed, 2*d, "calls should overlap")
	for _, r := range batch {
		assert.GreaterOrEqual(t, r.DurationMillis, d.Milliseconds())
	}
}

func TestCompareAllSlowestKeepsPosition(t *testing.T) {
	for _, slow := range []string{"gpt", "deepseek"} {
		t.Run(slow, func(t *testing.T) {
			gen := &stubGenerator{delay: map[string]time.Duration{slow: 100 * time.Millisecond}}
			batch, err := newTestOrchestrator(gen).CompareAll(context.Background(), "hi")
			require.NoError(t, err)
			assert.Equal(t, order, ids(batch))
			assert.Equal(t, "answer for gpt", batch[0].Content)
			assert.Equal(t, "answer for deepseek", batch[2].Content)
		})
	}
}

func TestCompareAllRecoversPanic(t *testing.T) {
	gen := &stubGenerator{panicFor: "gemini"}
	batch, err := newTestOrchestrator(gen).CompareAll(context.Background(), "hi")
	require.NoError(t, err)

	require.Len(t, batch, 3)
	assert.Equal(t, order, ids(batch))
	assert.True(t, batch[0].Succeeded)
	assert.True(t, batch[2].Succeeded)
	assert.Equal(t, domain.ExecutionFailure(domain.PersonaGemini), batch[1])
}

func TestCompareAllDetachesCancellation(t *testing.T) {
	gen := &stubGenerator{delay: map[string]time.Duration{"gpt": 50 * time.Millisecond}}
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	batch, err := newTestOrchestrator(gen).CompareAll(ctx, "hi")
	require.NoError(t, err)
	assert.True(t, batch[0].Succeeded)

	gen.mu.Lock()
	defer gen.mu.Unlock()
	for _, e := range gen.ctxErrs {
		assert.NoError(t, e)
	}
}

type wrongIDCaller struct{}

func (wrongIDCaller) Call(context.Context, domain.Persona, string) domain.ModelResult {
	return domain.SucceededResult("SOMEONE_ELSE", "x", 1)
}

func TestCompareAllRestampsPersonaID(t *testing.T) {
	o := NewOrchestrator(wrongIDCaller{}, personas())
	batch, err := o.CompareAll(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, order, ids(batch))
}

func TestPersonasReturnsCopy(t *testing.T) {
	o := NewOrchestrator(wrongIDCaller{}, personas())
	ps := o.Personas()
	ps[0].ID = "MUTATED"
	assert.Equal(t, domain.PersonaGPT, o.Personas()[0].ID)
}
