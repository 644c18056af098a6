package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ctc-oss/foreman/pkg/execution"
	"github.com/ctc-oss/foreman/pkg/scheduler"
	"github.com/ctc-oss/foreman/pkg/storage"
	"github.com/ctc-oss/foreman/pkg/task"
	"github.com/ctc-oss/foreman/pkg/types"
	"github.com/rs/zerolog"
)

// enqueuePollInterval is how often runEnqueueLoop looks for newly
// queued executions — frequent enough that a purge-spawned
// delete-files job starts promptly, infrequent enough to keep the scan
// cheap against a BoltDB file on every tick.
const enqueuePollInterval = 2 * time.Second

// runEnqueueLoop polls store for queued executions and hands each one
// to sched, until ctx is canceled. It is the daemon's sole producer
// feeding new work into the scheduler: without it, a JobExecution row
// created by purge.SpawnDeleteFilesExecution (or any future ingest
// path) would stay QUEUED forever.
func runEnqueueLoop(ctx context.Context, sched *scheduler.Scheduler, store scheduler.ExecutionStore, execStore execution.Store, factory *task.Factory, queue execution.QueueSink, catalog execution.ErrorCatalog, backPressure execution.BackPressure, logger zerolog.Logger) {
	ticker := time.NewTicker(enqueuePollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n, err := sched.EnqueuePending(ctx, store, execStore, factory, queue, catalog, backPressure)
			if err != nil {
				logger.Error().Err(err).Msg("failed to enqueue pending executions")
				continue
			}
			if n > 0 {
				logger.Info().Int("count", n).Msg("enqueued pending executions")
			}
		case <-ctx.Done():
			return
		}
	}
}

// storeNodeSelector picks the first ready, unpaused node known to
// storage. Real capacity-aware placement is a cluster-runtime concern
// (spec's worker/runtime boundary) that this binary does not implement.
type storeNodeSelector struct {
	store *storage.BoltStore
}

func (s *storeNodeSelector) SelectNode(ctx context.Context, _ types.ResourceVector) (*types.Node, error) {
	nodes, err := s.store.ListNodes(ctx)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if n.Status == types.NodeStatusReady && !n.IsPaused {
			return n, nil
		}
	}
	return nil, fmt.Errorf("no ready node available")
}

// logLauncher logs a task dispatch. Handing a task to a real worker over
// the network is, like node selection, out of scope for this binary.
type logLauncher struct {
	logger zerolog.Logger
}

func (l *logLauncher) Launch(_ context.Context, executionID string, t task.Task, node *types.Node) error {
	l.logger.Info().
		Str("execution_id", executionID).
		Str("task_id", t.ID()).
		Str("kind", string(t.Kind())).
		Str("node_id", node.ID).
		Msg("dispatching task (no cluster runtime wired into this binary)")
	return nil
}
