/*
Package scheduler drives the job execution engine: it owns every
in-flight pkg/execution.RunningExecution, periodically advances each
one whose next task is ready, and dispatches that task to an injected
TaskLauncher.

This follows the teacher's own scheduler in shape — a struct wrapping a
mutex, a zerolog.Logger, and a stop channel, run on a time.Ticker —
while replacing its container-placement body with task dispatch over
the engine's own RunningExecution state machine (pkg/execution).

Node selection and the actual launch of a task onto a node are out of
scope for this package (spec.md §1's worker/runtime boundary); both are
injected collaborators (NodeSelector, TaskLauncher) so a real cluster
agent can be wired in without touching the scheduling loop itself.
Task outcome callbacks (HandleTaskRunning/Complete/Fail) are the
re-entry point a worker-facing RPC layer would call.
*/
package scheduler
