/*
Package bus provides the at-least-once in-memory command bus that
drives pkg/message.Message dispatch.

Bus wraps a github.com/ygrebnov/workers pool: Dispatch submits a
message as a task, the pool runs its Execute on a free worker, and any
follow-on messages Execute returns are recursively dispatched. A
message whose Execute returns an error is redelivered up to a bounded
number of attempts before being logged as failed — consistent with
every Message.Execute being required to be idempotent with respect to
its observable effects (pkg/message's contract).

This mirrors the teacher's scheduler loop in shape (a long-running
goroutine draining a results/errors channel, logging at each outcome)
but swaps the teacher's direct container-launch dispatch for generic
message execution: Dispatch takes already-decoded pkg/message.Message
values and does not consult pkg/message.Registry.
*/
package bus
