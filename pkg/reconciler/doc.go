/*
Package reconciler detects infrastructure failures the engine's normal
task-outcome callbacks never report: a node that stopped heartbeating,
or a task dispatched so long ago it must be stuck.

It runs on a 10-second ticker, level-triggered like the teacher's
original reconciler — every cycle reads current node state from
NodeStore rather than reacting to an edge, so a missed cycle still
converges on the next one.

Each cycle:

 1. reconcileNodes sweeps every node; any node silent for longer than
    DefaultNodeHeartbeatTimeout is marked down, and any previously-down
    node whose heartbeat resumed is marked ready again.
 2. The resulting set of down node IDs is handed to
    ExecutionReconciler.ReconcileLostNodes, which marks every execution
    whose current task sits on one of those nodes as lost
    (pkg/execution.RunningExecution.ExecutionLost).
 3. ExecutionReconciler.ReconcileTimeouts marks every execution whose
    current task has been dispatched longer than executionTimeout as
    timed out (ExecutionTimedOut).

pkg/scheduler.Scheduler implements ExecutionReconciler: it already owns
every in-flight RunningExecution and the node each one's current task
was dispatched to, so the reconciler never needs its own execution
registry.
*/
package reconciler
