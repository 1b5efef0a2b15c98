package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/log"
	sdkworker "go.temporal.io/sdk/worker"

	"github.com/ahrav/go-triad/internal/compare"
	"github.com/ahrav/go-triad/internal/domain"
	"github.com/ahrav/go-triad/internal/llm"
	"github.com/ahrav/go-triad/internal/llm/configuration"
	"github.com/ahrav/go-triad/internal/workflow"
)

// InitializeLLMClient creates the LLM client the persona calls go through.
// A nil cfg uses the defaults.
func InitializeLLMClient(ctx context.Context, cfg *configuration.Config, opts ...llm.Option) (llm.Client, error) {
	if cfg == nil {
		cfg = configuration.DefaultConfig()
	}

	c, err := llm.NewClient(ctx, cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}
	return c, nil
}

// Dial connects to the Temporal frontend described by cfg.
func Dial(cfg configuration.TemporalConfig, logger *slog.Logger) (client.Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c, err := client.Dial(client.Options{
		HostPort:  cfg.HostPort,
		Namespace: cfg.Namespace,
		Logger:    log.NewStructuredLogger(logger),
	})
	if err != nil {
		return nil, fmt.Errorf("dial temporal %s: %w", cfg.HostPort, err)
	}
	return c, nil
}

// Run hosts the comparison workflow on cfg.TaskQueue until ctx is done.
func Run(ctx context.Context, c client.Client, cfg configuration.TemporalConfig, caller compare.Caller, logger *slog.Logger) error {
	w := sdkworker.New(c, taskQueue(cfg), sdkworker.Options{})
	RegisterAll(w, caller, logger)

	stop := make(chan any)
	release := context.AfterFunc(ctx, func() { close(stop) })
	defer release()

	if err := w.Run(stop); err != nil {
		return fmt.Errorf("temporal worker: %w", err)
	}
	return nil
}

// Starter starts workflow executions. client.Client satisfies it.
type Starter interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow any, args ...any) (client.WorkflowRun, error)
}

// Compare runs one comparison through Temporal and waits for its batch.
func Compare(ctx context.Context, s Starter, cfg configuration.TemporalConfig, prompt string, personas []domain.Persona) (domain.ComparisonBatch, error) {
	req := domain.ComparisonRequest{
		Prompt:      prompt,
		Personas:    personas,
		CallTimeout: cfg.ActivityTimeout,
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	run, err := s.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        "comparison-" + uuid.NewString(),
		TaskQueue: taskQueue(cfg),
	}, workflow.ComparisonWorkflow, req)
	if err != nil {
		return nil, fmt.Errorf("start comparison workflow: %w", err)
	}

	var batch domain.ComparisonBatch
	if err := run.Get(ctx, &batch); err != nil {
		return nil, fmt.Errorf("comparison workflow %s: %w", run.GetID(), err)
	}
	return batch, nil
}

func taskQueue(cfg configuration.TemporalConfig) string {
	if cfg.TaskQueue == "" {
		return configuration.DefaultTaskQueue
	}
	return cfg.TaskQueue
}
