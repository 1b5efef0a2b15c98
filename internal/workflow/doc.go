// Package workflow runs the persona comparison as a Temporal workflow.
//
// ComparisonWorkflow is the durable form of compare.Orchestrator.CompareAll:
// it starts one CallPersona activity per persona, waits for every one of
// them, and returns the results in persona order. Activities are never
// retried, and a failed or timed-out activity fills its slot with the
// execution-error result instead of failing the run.
//
// Workflow code must stay deterministic: it only uses workflow.* APIs, and
// activities are referenced by registered name so the workflow package does
// not import their implementation.
package workflow
