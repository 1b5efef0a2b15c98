package compare

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ahrav/go-triad/internal/domain"
	"github.com/ahrav/go-triad/internal/llm/observability"
	"github.com/ahrav/go-triad/internal/llm/transport"
)

// Orchestrator fans a prompt out to every persona and settles all calls.
// It is safe for concurrent use; its only mutable state is the in-flight
// call count reported as a gauge.
type Orchestrator struct {
	caller   Caller
	personas []domain.Persona
	logger   *slog.Logger
	metrics  observability.Metrics

	mu       sync.Mutex // guards inflight
	inflight int64
}

// NewOrchestrator creates an orchestrator over a fixed persona table. The
// table is copied; batch positions follow its order.
func NewOrchestrator(caller Caller, personas []domain.Persona, opts ...Option) *Orchestrator {
	o := newOptions(opts)
	return &Orchestrator{
		caller:   caller,
		personas: slices.Clone(personas),
		logger:   o.logger.With("component", "orchestrator"),
		metrics:  o.metrics,
	}
}

// Personas returns a copy of the persona table in batch order.
func (o *Orchestrator) Personas() []domain.Persona {
	return slices.Clone(o.personas)
}

// CompareAll runs prompt against every persona concurrently and returns one
// result per persona in table order.
//
// A blank prompt returns domain.ErrInvalidPrompt before any call is made, and
// an empty persona table returns domain.ErrNoPersonas. Otherwise the batch is
// always complete: failed calls are failed results, and a call that panics is
// replaced by domain.ExecutionFailure at its position. Calls are detached
// from ctx cancellation so each one runs to its own completion.
func (o *Orchestrator) CompareAll(ctx context.Context, prompt string) (domain.ComparisonBatch, error) {
	if err := domain.ValidatePrompt(prompt); err != nil {
		return nil, err
	}
	if len(o.personas) == 0 {
		return nil, domain.ErrNoPersonas
	}

	batchID := uuid.New().String()
	callCtx := transport.WithTraceID(context.WithoutCancel(ctx), batchID)
	start := time.Now()

	results := make(domain.ComparisonBatch, len(o.personas))

	var wg sync.WaitGroup
	wg.Add(len(o.personas))
	for i, persona := range o.personas {
		go func() {
			defer wg.Done()
			o.trackInflight(1)
			defer o.trackInflight(-1)
			defer func() {
				if r := recover(); r != nil {
					o.logger.ErrorContext(ctx, "persona call panicked",
						"batch_id", batchID,
						"persona", persona.ID,
						"panic", r)
					results[i] = domain.ExecutionFailure(persona.ID)
				}
			}()

			res := o.caller.Call(callCtx, persona, prompt)
			res.PersonaID = persona.ID
			results[i] = res
		}()
	}
	wg.Wait()

	elapsed := time.Since(start)
	o.metrics.IncrementCounter("compare.batches.total", nil, 1)
	o.metrics.RecordHistogram("compare.batch.duration_ms", nil, float64(elapsed.Milliseconds()))
	o.logger.InfoContext(ctx, "comparison completed",
		"batch_id", batchID,
		"personas", len(results),
		"succeeded", results.Succeeded(),
		"failed", results.Failed(),
		"duration_ms", elapsed.Milliseconds())

	return results, nil
}

func (o *Orchestrator) trackInflight(delta int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.inflight += delta
	o.metrics.SetGauge("compare.calls.inflight", nil, float64(o.inflight))
}
