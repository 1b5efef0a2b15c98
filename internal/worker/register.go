// Package worker wires the comparison workflow and its activities into a
// Temporal worker and starts comparison runs from a Temporal client.
package worker

import (
	"log/slog"

	sdkactivity "go.temporal.io/sdk/activity"

	"github.com/ahrav/go-triad/internal/activity"
	"github.com/ahrav/go-triad/internal/compare"
	"github.com/ahrav/go-triad/internal/workflow"
)

// Registry is the registration surface shared by sdk workers and the
// workflow test environment.
type Registry interface {
	RegisterWorkflow(w any)
	RegisterActivityWithOptions(a any, options sdkactivity.RegisterOptions)
}

// RegisterAll registers the comparison workflow and the persona activity.
// It must be called once, before the worker starts.
func RegisterAll(r Registry, caller compare.Caller, logger *slog.Logger) {
	acts := activity.NewActivities(caller, logger)

	r.RegisterWorkflow(workflow.ComparisonWorkflow)
	r.RegisterActivityWithOptions(acts.CallPersona, sdkactivity.RegisterOptions{
		Name: workflow.CallPersonaActivity,
	})
}
