package scheduler

import (
	"context"
	"time"

	"github.com/ctc-oss/foreman/pkg/types"
)

// FailureRecorder persists the system-failure row attribution counts
// against; pkg/storage.BoltStore.RecordSystemFailure implements it.
type FailureRecorder interface {
	RecordSystemFailure(ctx context.Context, nodeID, executionID string, when time.Time) error
}

// Attributor runs the back-pressure check once a failure is recorded;
// pkg/attribution.Attributor implements it.
type Attributor interface {
	Evaluate(ctx context.Context, exe *types.JobExecution, cause *types.Error) error
}

// BackPressureAdapter implements execution.BackPressure: it records
// every SYSTEM-category failure for the exe's node before delegating to
// the attribution check, so the count the attributor reads always
// includes the failure that triggered this very call.
type BackPressureAdapter struct {
	Store      FailureRecorder
	Attributor Attributor
	Now        func() time.Time
}

// NewBackPressureAdapter constructs a BackPressureAdapter with the real
// wall clock.
func NewBackPressureAdapter(store FailureRecorder, attributor Attributor) *BackPressureAdapter {
	return &BackPressureAdapter{Store: store, Attributor: attributor, Now: time.Now}
}

func (a *BackPressureAdapter) Evaluate(ctx context.Context, exe *types.JobExecution, cause *types.Error) error {
	if cause != nil && cause.Category == types.ErrorCategorySystem {
		now := time.Now
		if a.Now != nil {
			now = a.Now
		}
		if err := a.Store.RecordSystemFailure(ctx, exe.NodeID, exe.ID, now()); err != nil {
			return err
		}
	}
	return a.Attributor.Evaluate(ctx, exe, cause)
}
