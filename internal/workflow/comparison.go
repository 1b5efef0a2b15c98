package workflow

import (
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/ahrav/go-triad/internal/domain"
	"github.com/ahrav/go-triad/internal/llm/configuration"
)

// CallPersonaActivity is the registered name of the per-persona activity.
const CallPersonaActivity = "CallPersona"

// ComparisonWorkflow fans req.Prompt out to every persona and settles all
// calls. Only an invalid request fails the workflow.
func ComparisonWorkflow(ctx workflow.Context, req domain.ComparisonRequest) (domain.ComparisonBatch, error) {
	const currentVersion = 1
	_ = workflow.GetVersion(ctx, "comparison.v", workflow.DefaultVersion, currentVersion)

	if err := req.Validate(); err != nil {
		return nil, temporal.NewNonRetryableApplicationError(
			"invalid comparison request",
			"Validation",
			err,
		)
	}

	timeout := req.CallTimeout
	if timeout <= 0 {
		timeout = configuration.DefaultActivityTimeout
	}
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: timeout,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	})

	logger := workflow.GetLogger(ctx)

	futures := make([]workflow.Future, len(req.Personas))
	for i, p := range req.Personas {
		futures[i] = workflow.ExecuteActivity(ctx, CallPersonaActivity, domain.PersonaCall{
			Persona: p,
			Prompt:  req.Prompt,
		})
	}

	batch := make(domain.ComparisonBatch, len(req.Personas))
	for i, f := range futures {
		id := req.Personas[i].ID
		var res domain.ModelResult
		if err := f.Get(ctx, &res); err != nil {
			logger.Warn("persona activity failed", "persona", id, "error", err)
			batch[i] = domain.ExecutionFailure(id)
			continue
		}
		res.PersonaID = id
		batch[i] = res
	}

	logger.Info("comparison finished",
		"personas", len(batch),
		"succeeded", batch.Succeeded(),
		"failed", batch.Failed())

	return batch, nil
}
