/*
Package execution implements RunningExecution (C3), the heart of the
job-execution lifecycle engine: a thread-safe state machine that drives
one job through its ordered PRE/MAIN/POST task sequence.

# Concurrency model

A RunningExecution is accessed concurrently by the scheduler loop
(starting tasks), worker callbacks (reporting task events), and
timeout/lost-node watchers. Every public method holds the execution's
mutex for its full duration, including the enclosed storage transaction
— lock-holding time is bounded by one transaction, and nothing else may
block while held. This serializes concurrent callbacks and is what
makes a stale callback (a task ID that no longer matches the current
task) a trivially observable, silent no-op: cancellation races an
in-flight worker message, and the execution simply ignores the loser.

# Collaborators

RunningExecution never reaches for globals. QueueSink, ErrorCatalog, and
BackPressure are injected at construction so the recipe/queue layer and
the error taxonomy can evolve independently of this package.
*/
package execution
