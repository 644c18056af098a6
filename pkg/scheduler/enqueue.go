package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/ctc-oss/foreman/pkg/execution"
	"github.com/ctc-oss/foreman/pkg/results"
	"github.com/ctc-oss/foreman/pkg/task"
	"github.com/ctc-oss/foreman/pkg/types"
	"github.com/rs/zerolog"
)

// ExecutionStore is the persistence surface EnqueuePending and
// ResultsQueueSink need: finding work to schedule and recording what a
// finished execution produced. pkg/storage.BoltStore implements it.
type ExecutionStore interface {
	GetExecution(ctx context.Context, executionID string) (*types.JobExecution, error)
	ListQueuedExecutions(ctx context.Context) ([]*types.JobExecution, error)
	SaveJobResults(ctx context.Context, executionID string, jobResults *types.JobResults) error
}

// EnqueuePending registers every queued execution not already tracked,
// building its task sequence through factory and wiring it with the
// given collaborators. This is the production entry point that feeds
// newly created JobExecution rows — both ingest-triggered jobs and
// purge's spawned delete-files jobs — into the scheduling loop; without
// it a row created by SpawnDeleteFilesExecution would sit QUEUED
// forever.
func (s *Scheduler) EnqueuePending(ctx context.Context, store ExecutionStore, execStore execution.Store, factory *task.Factory, queue execution.QueueSink, catalog execution.ErrorCatalog, backPressure execution.BackPressure) (int, error) {
	pending, err := store.ListQueuedExecutions(ctx)
	if err != nil {
		return 0, fmt.Errorf("scheduler: list queued executions: %w", err)
	}

	enqueued := 0
	for _, exe := range pending {
		if s.Active(exe.ID) {
			continue
		}
		tasks := factory.BuildTasks(exe)
		re := execution.New(exe, tasks, execStore, queue, catalog, backPressure)
		s.Register(re)
		enqueued++
	}
	return enqueued, nil
}

// ResultsQueueSink implements execution.QueueSink: on job completion it
// runs the results aggregator (C4) over the execution's declared output
// spec and persists what it captures; on job failure it logs, since
// recipe-level failure bookkeeping belongs to the ingest/job-data model
// this design injects rather than owns.
type ResultsQueueSink struct {
	Store      ExecutionStore
	Aggregator *results.Aggregator
	Logger     zerolog.Logger
}

func (q *ResultsQueueSink) HandleJobCompletion(ctx context.Context, executionID string, when time.Time) error {
	exe, err := q.Store.GetExecution(ctx, executionID)
	if err != nil {
		return fmt.Errorf("scheduler: load execution %s for results capture: %w", executionID, err)
	}
	if exe == nil {
		return nil
	}

	outputFiles := make([]results.OutputFileSpec, len(exe.OutputFiles))
	for i, f := range exe.OutputFiles {
		outputFiles[i] = results.OutputFileSpec{Name: f.Name, Pattern: f.Pattern, MediaType: f.MediaType}
	}
	outputJSON := make([]results.OutputJSONSpec, len(exe.OutputJSON))
	for i, j := range exe.OutputJSON {
		outputJSON[i] = results.OutputJSONSpec{Name: j.Name, Key: j.Key}
	}

	jobResults, err := q.Aggregator.PerformPostSteps(ctx, outputFiles, outputJSON, exe.OutputDir, exe.InputFileIDs)
	if err != nil {
		return fmt.Errorf("scheduler: capture results for execution %s: %w", executionID, err)
	}
	if err := q.Store.SaveJobResults(ctx, executionID, jobResults); err != nil {
		return fmt.Errorf("scheduler: save results for execution %s: %w", executionID, err)
	}

	q.Logger.Info().Str("execution_id", executionID).Msg("job results captured")
	return nil
}

func (q *ResultsQueueSink) HandleJobFailure(ctx context.Context, executionID string, when time.Time, cause *types.Error) error {
	event := q.Logger.Warn().Str("execution_id", executionID)
	if cause != nil {
		event = event.Str("error", cause.Name).Str("category", string(cause.Category))
	}
	event.Msg("job execution failed")
	return nil
}

// StaticErrorCatalog resolves the infrastructure-level errors
// RunningExecution attributes task failures to when it has no
// cluster-reported cause of its own, using the fixed error names the
// teacher's catalog shipped with rather than a per-deployment table.
type StaticErrorCatalog struct{}

// NewStaticErrorCatalog returns the default error catalog.
func NewStaticErrorCatalog() *StaticErrorCatalog { return &StaticErrorCatalog{} }

func (StaticErrorCatalog) NodeLost() *types.Error {
	return &types.Error{Name: "NODE_LOST", Category: types.ErrorCategorySystem, Description: "the node executing this task became unreachable"}
}

func (StaticErrorCatalog) Timeout() *types.Error {
	return &types.Error{Name: "TIMEOUT", Category: types.ErrorCategorySystem, Description: "the task exceeded its execution timeout"}
}

func (StaticErrorCatalog) Unknown() *types.Error {
	return &types.Error{Name: "UNKNOWN", Category: types.ErrorCategorySystem, Description: "the task failed for a reason the cluster did not report"}
}

var (
	_ execution.QueueSink    = (*ResultsQueueSink)(nil)
	_ execution.ErrorCatalog = StaticErrorCatalog{}
)
