package execution

import (
	"context"
	"sync"
	"time"

	"github.com/ctc-oss/foreman/pkg/task"
	"github.com/ctc-oss/foreman/pkg/types"
)

// RunningExecution is the thread-safe state machine coordinating one
// job's task sequence. Every public method acquires the execution's
// lock for its full duration, including the enclosed storage
// transaction — this is what makes a stale callback (task ID mismatch)
// a trivially observable, silent no-op rather than a race.
type RunningExecution struct {
	mu sync.Mutex

	exe            *types.JobExecution
	store          Store
	queue          QueueSink
	errors         ErrorCatalog
	backPressure   BackPressure

	currentTask    task.Task
	remainingTasks []task.Task
}

// New constructs a RunningExecution from an execution snapshot and its
// factory-built task list. The list must be non-empty.
func New(exe *types.JobExecution, tasks []task.Task, store Store, queue QueueSink, errors ErrorCatalog, backPressure BackPressure) *RunningExecution {
	remaining := make([]task.Task, len(tasks))
	copy(remaining, tasks)

	return &RunningExecution{
		exe:            exe,
		store:          store,
		queue:          queue,
		errors:         errors,
		backPressure:   backPressure,
		remainingTasks: remaining,
	}
}

// ID returns the execution's ID.
func (r *RunningExecution) ID() string { return r.exe.ID }

// IsNextTaskReady reports whether no task is current and tasks remain.
func (r *RunningExecution) IsNextTaskReady() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.currentTask == nil && len(r.remainingTasks) > 0
}

// NextTaskResources returns the resources of the head of the remaining
// queue, or false if there is none.
func (r *RunningExecution) NextTaskResources() (types.ResourceVector, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.remainingTasks) == 0 {
		return types.ResourceVector{}, false
	}
	return r.remainingTasks[0].Resources(), true
}

// StartNextTask atomically pops the head of the remaining queue into
// the current task and returns it. It is a no-op — returning nil — if a
// task is already current or no tasks remain.
func (r *RunningExecution) StartNextTask() task.Task {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.currentTask != nil || len(r.remainingTasks) == 0 {
		return nil
	}

	r.currentTask = r.remainingTasks[0]
	r.remainingTasks = r.remainingTasks[1:]
	return r.currentTask
}

// TaskRunning records start metadata on the current task iff taskID
// matches. A stale callback is a silent no-op.
func (r *RunningExecution) TaskRunning(taskID string, when time.Time, stdoutURL, stderrURL string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.currentTask == nil || r.currentTask.ID() != taskID {
		return
	}
	r.currentTask.Running(when, stdoutURL, stderrURL)
}

// TaskComplete commits the current task's completion iff its ID matches
// results.TaskID. If no tasks remain afterward, it invokes the queue
// sink's job-completion handler for results.When before clearing the
// current task. A stale callback performs no storage writes and no
// state change.
func (r *RunningExecution) TaskComplete(ctx context.Context, results types.TaskResults) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.currentTask == nil || r.currentTask.ID() != results.TaskID {
		return nil
	}

	finishing := r.currentTask
	finishing.Complete(results)
	jobDone := len(r.remainingTasks) == 0

	err := r.store.Atomic(ctx, func(tx Tx) error {
		if err := tx.SaveTask(finishing); err != nil {
			return err
		}
		if jobDone {
			r.exe.Status = types.ExecutionCompleted
			r.exe.EndedAt = results.When
			if err := tx.SaveExecution(r.exe); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if jobDone {
		if err := r.queue.HandleJobCompletion(ctx, r.exe.ID, results.When); err != nil {
			return err
		}
	}

	r.currentTask = nil
	return nil
}

// TaskFail commits the current task's failure iff its ID matches
// results.TaskID, resolving cause to the catalog's unknown error when
// nil is given. It records job failure via the queue sink, runs failure
// attribution (C8), then clears both the current task and the
// remaining queue — terminating the execution.
func (r *RunningExecution) TaskFail(ctx context.Context, results types.TaskResults, cause *types.Error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.currentTask == nil || r.currentTask.ID() != results.TaskID {
		return nil
	}

	failing := r.currentTask
	resolved := failing.Fail(results, cause)
	if resolved == nil {
		resolved = r.errors.Unknown()
	}

	err := r.store.Atomic(ctx, func(tx Tx) error {
		if err := tx.SaveTask(failing); err != nil {
			return err
		}
		r.exe.Status = types.ExecutionFailed
		r.exe.EndedAt = results.When
		return tx.SaveExecution(r.exe)
	})
	if err != nil {
		return err
	}

	if err := r.queue.HandleJobFailure(ctx, r.exe.ID, results.When, resolved); err != nil {
		return err
	}

	if r.backPressure != nil {
		if err := r.backPressure.Evaluate(ctx, r.exe, resolved); err != nil {
			return err
		}
	}

	r.currentTask = nil
	r.remainingTasks = nil
	return nil
}

// ExecutionCanceled clears the execution's state and returns the
// previously current task so the caller can instruct the worker to kill
// it. Any subsequent task callback for this execution is ignored.
func (r *RunningExecution) ExecutionCanceled() task.Task {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.currentTask
	r.currentTask = nil
	r.remainingTasks = nil
	return t
}

// ExecutionLost records job failure with a node-lost error, clears
// state, and returns the previously current task.
func (r *RunningExecution) ExecutionLost(ctx context.Context, when time.Time) (task.Task, error) {
	return r.failInfrastructure(ctx, when, r.errors.NodeLost())
}

// ExecutionTimedOut records job failure with a timeout error, clears
// state, and returns the previously current task.
func (r *RunningExecution) ExecutionTimedOut(ctx context.Context, when time.Time) (task.Task, error) {
	return r.failInfrastructure(ctx, when, r.errors.Timeout())
}

func (r *RunningExecution) failInfrastructure(ctx context.Context, when time.Time, cause *types.Error) (task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.queue.HandleJobFailure(ctx, r.exe.ID, when, cause); err != nil {
		return nil, err
	}

	t := r.currentTask
	r.currentTask = nil
	r.remainingTasks = nil
	return t, nil
}

// IsFinished reports whether no task is current and no tasks remain.
func (r *RunningExecution) IsFinished() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.currentTask == nil && len(r.remainingTasks) == 0
}
