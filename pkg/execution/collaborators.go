package execution

import (
	"context"
	"time"

	"github.com/ctc-oss/foreman/pkg/types"
)

// QueueSink is the late-bound reference back into the queue/scheduling
// subsystem (out of scope here). RunningExecution calls it at the two
// points where an execution's outcome affects recipe-level progress.
type QueueSink interface {
	HandleJobFailure(ctx context.Context, executionID string, when time.Time, cause *types.Error) error
	HandleJobCompletion(ctx context.Context, executionID string, when time.Time) error
}

// ErrorCatalog resolves the well-known error records RunningExecution
// attributes to infrastructure-level failures.
type ErrorCatalog interface {
	NodeLost() *types.Error
	Timeout() *types.Error
	Unknown() *types.Error
}

// BackPressure runs failure attribution (C8, §4.5) after a task failure
// has been committed. Implementations must be safe to call for every
// task_fail, including ones that will not end up pausing anything.
type BackPressure interface {
	Evaluate(ctx context.Context, exe *types.JobExecution, cause *types.Error) error
}
