package reconciler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ctc-oss/foreman/pkg/log"
	"github.com/ctc-oss/foreman/pkg/metrics"
	"github.com/ctc-oss/foreman/pkg/types"
	"github.com/rs/zerolog"
)

// DefaultNodeHeartbeatTimeout is how long a node may go without a
// heartbeat before it is marked down.
const DefaultNodeHeartbeatTimeout = 30 * time.Second

// NodeStore is the node-liveness slice of pkg/storage consulted by the
// reconciler's heartbeat sweep.
type NodeStore interface {
	ListNodes(ctx context.Context) ([]*types.Node, error)
	SetNodeStatus(ctx context.Context, id string, status types.NodeStatus) error
}

// ExecutionReconciler is the engine-side hook the reconciler drives once
// it knows which nodes are down; pkg/scheduler.Scheduler implements it.
type ExecutionReconciler interface {
	ReconcileTimeouts(ctx context.Context, timeout time.Duration, now time.Time) int
	ReconcileLostNodes(ctx context.Context, downNodeIDs map[string]bool, now time.Time) int
}

// Reconciler detects nodes that stopped heartbeating and executions
// whose task has either run too long or was dispatched to a node that
// just went down, and drives both into their terminal state.
type Reconciler struct {
	nodes      NodeStore
	executions ExecutionReconciler

	nodeHeartbeatTimeout time.Duration
	executionTimeout     time.Duration

	logger zerolog.Logger
	mu     sync.RWMutex
	stopCh chan struct{}
}

// NewReconciler constructs a Reconciler with the default heartbeat and
// execution timeouts.
func NewReconciler(nodes NodeStore, executions ExecutionReconciler) *Reconciler {
	return &Reconciler{
		nodes:                nodes,
		executions:           executions,
		nodeHeartbeatTimeout: DefaultNodeHeartbeatTimeout,
		executionTimeout:     30 * time.Minute,
		logger:               log.WithComponent("reconciler"),
		stopCh:               make(chan struct{}),
	}
}

// Start begins the reconciliation loop.
func (r *Reconciler) Start() {
	go r.run()
}

// Stop stops the reconciler.
func (r *Reconciler) Stop() {
	close(r.stopCh)
}

func (r *Reconciler) run() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	r.logger.Info().Msg("reconciler started")

	for {
		select {
		case <-ticker.C:
			if err := r.reconcile(context.Background()); err != nil {
				r.logger.Error().Err(err).Msg("reconciliation cycle failed")
			}
		case <-r.stopCh:
			r.logger.Info().Msg("reconciler stopped")
			return
		}
	}
}

// reconcile performs one reconciliation cycle: sweep node heartbeats,
// then mark lost and timed-out executions.
func (r *Reconciler) reconcile(ctx context.Context) error {
	timer := metrics.NewTimer()
	defer func() {
		timer.ObserveDuration(metrics.ReconciliationDuration)
		metrics.ReconciliationCyclesTotal.Inc()
	}()

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()

	downNodeIDs, err := r.reconcileNodes(ctx, now)
	if err != nil {
		return fmt.Errorf("reconcile nodes: %w", err)
	}

	if lost := r.executions.ReconcileLostNodes(ctx, downNodeIDs, now); lost > 0 {
		r.logger.Warn().Int("count", lost).Msg("executions marked lost on down nodes")
	}

	if timedOut := r.executions.ReconcileTimeouts(ctx, r.executionTimeout, now); timedOut > 0 {
		r.logger.Warn().Int("count", timedOut).Msg("executions marked timed out")
	}

	return nil
}

// reconcileNodes marks nodes down past nodeHeartbeatTimeout, returns them
// to ready once heartbeats resume, and returns the set of node IDs
// currently down.
func (r *Reconciler) reconcileNodes(ctx context.Context, now time.Time) (map[string]bool, error) {
	nodes, err := r.nodes.ListNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}

	down := make(map[string]bool)
	for _, node := range nodes {
		silent := now.Sub(node.LastHeartbeat)
		switch {
		case silent > r.nodeHeartbeatTimeout:
			down[node.ID] = true
			if node.Status != types.NodeStatusDown {
				if err := r.nodes.SetNodeStatus(ctx, node.ID, types.NodeStatusDown); err != nil {
					r.logger.Error().Err(err).Str("node_id", node.ID).Msg("failed to mark node down")
					continue
				}
				r.logger.Warn().Str("node_id", node.ID).Dur("silent_for", silent).Msg("node marked down")
			}
		case node.Status == types.NodeStatusDown:
			if err := r.nodes.SetNodeStatus(ctx, node.ID, types.NodeStatusReady); err != nil {
				r.logger.Error().Err(err).Str("node_id", node.ID).Msg("failed to mark node ready")
				continue
			}
			r.logger.Info().Str("node_id", node.ID).Msg("node recovered")
		}
	}
	return down, nil
}
