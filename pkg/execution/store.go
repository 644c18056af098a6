package execution

import (
	"context"

	"github.com/ctc-oss/foreman/pkg/task"
	"github.com/ctc-oss/foreman/pkg/types"
)

// Tx is the set of writes a RunningExecution method may perform inside
// a single atomic transaction.
type Tx interface {
	SaveTask(t task.Task) error
	SaveExecution(exe *types.JobExecution) error
}

// Store runs a transaction atomically. Implementations (pkg/storage)
// back it with a single BoltDB update batch.
type Store interface {
	Atomic(ctx context.Context, fn func(Tx) error) error
}
