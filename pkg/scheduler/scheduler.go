package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/ctc-oss/foreman/pkg/execution"
	"github.com/ctc-oss/foreman/pkg/log"
	"github.com/ctc-oss/foreman/pkg/metrics"
	"github.com/ctc-oss/foreman/pkg/task"
	"github.com/ctc-oss/foreman/pkg/types"
	"github.com/rs/zerolog"
)

// NodeSelector picks a ready node with enough capacity for resources.
// Node health, placement, and affinity are all out of scope here; a
// real cluster agent supplies the implementation.
type NodeSelector interface {
	SelectNode(ctx context.Context, resources types.ResourceVector) (*types.Node, error)
}

// TaskLauncher dispatches a task onto a node. It must not block past
// submission — the scheduler only records that dispatch was attempted,
// not that the task finished; outcome arrives later through
// HandleTaskRunning/HandleTaskComplete/HandleTaskFail.
type TaskLauncher interface {
	Launch(ctx context.Context, executionID string, t task.Task, node *types.Node) error
}

type tracked struct {
	re           *execution.RunningExecution
	dispatchedAt time.Time
	lastTaskKind types.TaskKind
	nodeID       string
}

// DefaultExecutionTimeout is how long a dispatched task may run before
// ReconcileTimeouts marks its execution timed out.
const DefaultExecutionTimeout = 30 * time.Minute

// Scheduler owns every in-flight RunningExecution and advances each one
// whose next task is ready, dispatching it through NodeSelector and
// TaskLauncher.
type Scheduler struct {
	mu       sync.Mutex
	active   map[string]*tracked
	selector NodeSelector
	launcher TaskLauncher
	logger   zerolog.Logger
	stopCh   chan struct{}
}

// New creates a Scheduler with no in-flight executions.
func New(selector NodeSelector, launcher TaskLauncher) *Scheduler {
	return &Scheduler{
		active:   make(map[string]*tracked),
		selector: selector,
		launcher: launcher,
		logger:   log.WithComponent("scheduler"),
		stopCh:   make(chan struct{}),
	}
}

// Register adds a newly queued execution to the scheduler's pool.
func (s *Scheduler) Register(re *execution.RunningExecution) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[re.ID()] = &tracked{re: re}
}

// Unregister drops an execution from the pool without altering its
// stored state, used once ExecutionCanceled/ExecutionLost/
// ExecutionTimedOut has already been applied elsewhere.
func (s *Scheduler) Unregister(executionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, executionID)
}

// Start begins the scheduling loop.
func (s *Scheduler) Start() {
	go s.run()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	close(s.stopCh)
}

func (s *Scheduler) run() {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	s.logger.Info().Msg("scheduler started")

	for {
		select {
		case <-ticker.C:
			s.scheduleCycle(context.Background())
		case <-s.stopCh:
			s.logger.Info().Msg("scheduler stopped")
			return
		}
	}
}

// scheduleCycle advances every tracked execution whose next task is
// ready, dispatching at most one task per execution per cycle.
func (s *Scheduler) scheduleCycle(ctx context.Context) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.SchedulingLatency)

	s.mu.Lock()
	candidates := make([]*tracked, 0, len(s.active))
	for _, t := range s.active {
		if t.re.IsNextTaskReady() {
			candidates = append(candidates, t)
		}
	}
	s.mu.Unlock()

	for _, t := range candidates {
		s.dispatchNext(ctx, t)
	}
}

func (s *Scheduler) dispatchNext(ctx context.Context, t *tracked) {
	resources, ok := t.re.NextTaskResources()
	if !ok {
		return
	}

	node, err := s.selector.SelectNode(ctx, resources)
	if err != nil {
		s.logger.Warn().Err(err).Str("execution_id", t.re.ID()).Msg("no node available for next task")
		return
	}

	next := t.re.StartNextTask()
	if next == nil {
		return
	}

	if err := s.launcher.Launch(ctx, t.re.ID(), next, node); err != nil {
		s.logger.Error().Err(err).Str("execution_id", t.re.ID()).Str("task_id", next.ID()).Str("node_id", node.ID).Msg("failed to launch task")
		return
	}

	s.mu.Lock()
	t.dispatchedAt = time.Now()
	t.lastTaskKind = next.Kind()
	t.nodeID = node.ID
	s.mu.Unlock()

	metrics.TasksRunningTotal.WithLabelValues(string(next.Kind())).Inc()
	s.logger.Info().Str("execution_id", t.re.ID()).Str("task_id", next.ID()).Str("node_id", node.ID).Msg("task dispatched")
}

func (s *Scheduler) lookup(executionID string) *tracked {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active[executionID]
}

// HandleTaskRunning forwards a running callback to the tracked
// execution, a no-op if executionID is not tracked.
func (s *Scheduler) HandleTaskRunning(executionID, taskID string, when time.Time, stdoutURL, stderrURL string) {
	t := s.lookup(executionID)
	if t == nil {
		return
	}
	t.re.TaskRunning(taskID, when, stdoutURL, stderrURL)
}

// HandleTaskComplete forwards a completion callback to the tracked
// execution, dropping it from the pool once the execution finishes.
func (s *Scheduler) HandleTaskComplete(ctx context.Context, executionID string, results types.TaskResults) error {
	t := s.lookup(executionID)
	if t == nil {
		return nil
	}
	kind := t.lastTaskKind
	if err := t.re.TaskComplete(ctx, results); err != nil {
		return err
	}
	if kind != "" {
		metrics.TasksRunningTotal.WithLabelValues(string(kind)).Dec()
	}
	if t.re.IsFinished() {
		metrics.ExecutionsCompletedTotal.Inc()
		s.Unregister(executionID)
	}
	return nil
}

// HandleTaskFail forwards a failure callback to the tracked execution.
// A task failure always terminates the execution (pkg/execution's
// contract), so the execution is dropped from the pool unconditionally.
func (s *Scheduler) HandleTaskFail(ctx context.Context, executionID string, results types.TaskResults, cause *types.Error) error {
	t := s.lookup(executionID)
	if t == nil {
		return nil
	}
	kind := t.lastTaskKind
	if err := t.re.TaskFail(ctx, results, cause); err != nil {
		return err
	}
	if kind != "" {
		metrics.TasksRunningTotal.WithLabelValues(string(kind)).Dec()
	}
	category := "unknown"
	if cause != nil {
		category = string(cause.Category)
	}
	metrics.ExecutionsFailedTotal.WithLabelValues(category).Inc()
	s.Unregister(executionID)
	return nil
}

// Active reports whether an execution is currently tracked.
func (s *Scheduler) Active(executionID string) bool {
	return s.lookup(executionID) != nil
}

// ReconcileTimeouts marks every tracked execution whose current task has
// been dispatched longer than timeout as timed out, for pkg/reconciler.
func (s *Scheduler) ReconcileTimeouts(ctx context.Context, timeout time.Duration, now time.Time) int {
	s.mu.Lock()
	var stale []*tracked
	for _, t := range s.active {
		if !t.dispatchedAt.IsZero() && now.Sub(t.dispatchedAt) > timeout {
			stale = append(stale, t)
		}
	}
	s.mu.Unlock()

	count := 0
	for _, t := range stale {
		if _, err := t.re.ExecutionTimedOut(ctx, now); err != nil {
			s.logger.Error().Err(err).Str("execution_id", t.re.ID()).Msg("failed to mark execution timed out")
			continue
		}
		metrics.ExecutionsTimedOutTotal.Inc()
		s.Unregister(t.re.ID())
		count++
	}
	return count
}

// ReconcileLostNodes marks every tracked execution whose current task is
// dispatched to one of downNodeIDs as lost, for pkg/reconciler.
func (s *Scheduler) ReconcileLostNodes(ctx context.Context, downNodeIDs map[string]bool, now time.Time) int {
	s.mu.Lock()
	var lost []*tracked
	for _, t := range s.active {
		if t.nodeID != "" && downNodeIDs[t.nodeID] {
			lost = append(lost, t)
		}
	}
	s.mu.Unlock()

	count := 0
	for _, t := range lost {
		if _, err := t.re.ExecutionLost(ctx, now); err != nil {
			s.logger.Error().Err(err).Str("execution_id", t.re.ID()).Msg("failed to mark execution lost")
			continue
		}
		metrics.ExecutionsLostTotal.Inc()
		s.Unregister(t.re.ID())
		count++
	}
	return count
}
