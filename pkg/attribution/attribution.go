// Package attribution implements failure attribution and node
// back-pressure (C8): deciding, after a task fails, whether the node it
// ran on should be paused for an excessive SYSTEM-error rate.
package attribution

import (
	"context"
	"fmt"
	"time"

	"github.com/ctc-oss/foreman/pkg/log"
	"github.com/ctc-oss/foreman/pkg/types"
)

// NodeStore resolves and pauses nodes.
type NodeStore interface {
	GetNode(ctx context.Context, id string) (*types.Node, error)
	PauseNode(ctx context.Context, id, reason string) error
}

// FailureCounter counts distinct jobs that failed with a SYSTEM error on
// a node since a point in time.
type FailureCounter interface {
	CountSystemFailures(ctx context.Context, nodeID string, since time.Time) (int, error)
}

// ConfigProvider resolves the singleton scheduler configuration row.
type ConfigProvider interface {
	SchedulerConfig(ctx context.Context) (types.SchedulerConfig, error)
}

// Attributor runs §4.5's back-pressure check.
type Attributor struct {
	Nodes    NodeStore
	Failures FailureCounter
	Config   ConfigProvider
	Now      func() time.Time
}

// New constructs an Attributor with the real wall clock.
func New(nodes NodeStore, failures FailureCounter, config ConfigProvider) *Attributor {
	return &Attributor{Nodes: nodes, Failures: failures, Config: config, Now: time.Now}
}

// Evaluate implements §4.5: when the resolved error's category is
// SYSTEM, the job has exhausted its attempts, and the node is not
// already paused, count distinct jobs that failed on the node with a
// SYSTEM error within the configured window; pause the node once that
// count reaches the configured threshold.
//
// The scheduler config row is read exactly once per call (resolving the
// source system's Open Question about a double read within one
// transaction).
func (a *Attributor) Evaluate(ctx context.Context, exe *types.JobExecution, cause *types.Error) error {
	if cause == nil || cause.Category != types.ErrorCategorySystem {
		return nil
	}
	if !exe.ExhaustedAttempts() {
		return nil
	}

	node, err := a.Nodes.GetNode(ctx, exe.NodeID)
	if err != nil {
		return fmt.Errorf("attribution: resolve node %s: %w", exe.NodeID, err)
	}
	if node == nil || node.IsPaused {
		return nil
	}

	cfg, err := a.Config.SchedulerConfig(ctx)
	if err != nil {
		return fmt.Errorf("attribution: resolve scheduler config: %w", err)
	}
	if cfg.NodeErrorPeriod <= 0 {
		return nil
	}

	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	since := now().Add(-time.Duration(cfg.NodeErrorPeriod) * time.Minute)

	count, err := a.Failures.CountSystemFailures(ctx, node.ID, since)
	if err != nil {
		return fmt.Errorf("attribution: count system failures: %w", err)
	}

	if count < cfg.MaxNodeErrors {
		return nil
	}

	log.WithComponent("attribution").Warn().
		Str("node_id", node.ID).
		Str("hostname", node.Hostname).
		Int("num_node_errors", count).
		Int("node_error_period", cfg.NodeErrorPeriod).
		Msg("node failed too many jobs in the configured window, pausing")

	return a.Nodes.PauseNode(ctx, node.ID, "System Failure Rate Too High")
}
