// Package activity provides the shared plumbing for Temporal activity
// implementations: execution metadata lookup and logging and heartbeat
// helpers that are safe to call outside a running activity.
package activity

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"
)

// WorkflowContext contains metadata extracted from the Temporal activity context.
type WorkflowContext struct {
	WorkflowID string
	RunID      string
	ActivityID string
	Attempt    int32
}

// BaseActivities carries the fallback logger used when an activity method
// runs outside a Temporal worker, such as in unit tests.
type BaseActivities struct {
	logger *slog.Logger
}

// NewBaseActivities creates a BaseActivities. A nil logger uses slog.Default.
func NewBaseActivities(logger *slog.Logger) BaseActivities {
	if logger == nil {
		logger = slog.Default()
	}
	return BaseActivities{logger: logger}
}

// GetWorkflowContext extracts execution details from ctx. Outside an activity
// context activity.GetInfo panics; the panic is absorbed and local IDs are
// generated instead.
func (b *BaseActivities) GetWorkflowContext(ctx context.Context) WorkflowContext {
	var wfCtx WorkflowContext

	func() {
		defer func() {
			if r := recover(); r != nil {
				wfCtx = WorkflowContext{
					WorkflowID: "local-" + uuid.NewString(),
					RunID:      "local",
					ActivityID: "local",
					Attempt:    1,
				}
			}
		}()

		info := activity.GetInfo(ctx)
		wfCtx.WorkflowID = info.WorkflowExecution.ID
		wfCtx.RunID = info.WorkflowExecution.RunID
		wfCtx.ActivityID = info.ActivityID
		wfCtx.Attempt = info.Attempt
	}()

	return wfCtx
}

// Log writes an info line through the activity logger, or through the
// fallback logger when ctx is not an activity context.
func (b *BaseActivities) Log(ctx context.Context, msg string, keyvals ...any) {
	if !SafeLog(ctx, msg, keyvals...) && b.logger != nil {
		b.logger.InfoContext(ctx, msg, keyvals...)
	}
}

// LogError is the error-level counterpart of Log.
func (b *BaseActivities) LogError(ctx context.Context, msg string, keyvals ...any) {
	if !SafeLogError(ctx, msg, keyvals...) && b.logger != nil {
		b.logger.ErrorContext(ctx, msg, keyvals...)
	}
}

// RecordHeartbeat safely records a heartbeat in the Temporal activity context.
func (b *BaseActivities) RecordHeartbeat(ctx context.Context, details ...any) {
	RecordHeartbeat(ctx, details...)
}

// SafeLog logs through the activity logger and reports whether ctx was an
// activity context.
func SafeLog(ctx context.Context, msg string, keyvals ...any) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	activity.GetLogger(ctx).Info(msg, keyvals...)
	return true
}

// SafeLogError logs at error level through the activity logger and reports
// whether ctx was an activity context.
func SafeLogError(ctx context.Context, msg string, keyvals ...any) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	activity.GetLogger(ctx).Error(msg, keyvals...)
	return true
}

// RecordHeartbeat records an activity heartbeat; it is a no-op outside an
// activity context.
func RecordHeartbeat(ctx context.Context, details ...any) {
	defer func() {
		_ = recover()
	}()
	activity.RecordHeartbeat(ctx, details...)
}
