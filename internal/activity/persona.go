// Package activity implements the Temporal activities of the durable
// comparison workflow.
package activity

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ahrav/go-triad/internal/compare"
	"github.com/ahrav/go-triad/internal/domain"
	pkgactivity "github.com/ahrav/go-triad/pkg/activity"
)

// Activities hosts the comparison activities.
type Activities struct {
	pkgactivity.BaseActivities
	caller compare.Caller
}

// NewActivities creates activities that delegate persona calls to caller.
func NewActivities(caller compare.Caller, logger *slog.Logger) *Activities {
	return &Activities{
		BaseActivities: pkgactivity.NewBaseActivities(logger),
		caller:         caller,
	}
}

// CallPersona performs one persona's upstream call. Upstream failures are
// reported inside the result; a panicking caller yields the execution-error
// result. The returned error is always nil so Temporal never retries a call.
func (a *Activities) CallPersona(ctx context.Context, call domain.PersonaCall) (res domain.ModelResult, err error) {
	wfCtx := a.GetWorkflowContext(ctx)
	a.RecordHeartbeat(ctx, string(call.Persona.ID))

	defer func() {
		if r := recover(); r != nil {
			a.LogError(ctx, "persona call panicked",
				"workflow_id", wfCtx.WorkflowID,
				"persona", call.Persona.ID,
				"panic", fmt.Sprint(r))
			res, err = domain.ExecutionFailure(call.Persona.ID), nil
		}
	}()

	res = a.caller.Call(ctx, call.Persona, call.Prompt)
	res.PersonaID = call.Persona.ID

	a.Log(ctx, "persona call finished",
		"workflow_id", wfCtx.WorkflowID,
		"activity_id", wfCtx.ActivityID,
		"attempt", wfCtx.Attempt,
		"persona", call.Persona.ID,
		"succeeded", res.Succeeded,
		"duration_ms", res.DurationMillis)

	return res, nil
}
