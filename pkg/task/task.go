// Package task implements the per-execution task descriptors (C1) and
// the factory that orders them into an execution's task sequence (C2).
package task

import (
	"time"

	"github.com/ctc-oss/foreman/pkg/types"
)

// Task is the immutable-identity unit submitted to a worker node. Its
// lifecycle hooks mutate the task's own bookkeeping fields; they never
// reach into the owning execution.
type Task interface {
	ID() string
	Kind() types.TaskKind
	Resources() types.ResourceVector

	// Running records start metadata once the cluster reports the task
	// as running.
	Running(when time.Time, stdoutURL, stderrURL string)

	// Complete records a successful outcome.
	Complete(results types.TaskResults)

	// Fail records a failed outcome and returns the resolved error,
	// using cause when the caller already has an attributed error, or
	// nil to signal "unresolved" so the caller can substitute its own
	// unknown-error fallback.
	Fail(results types.TaskResults, cause *types.Error) *types.Error

	// StartedAt/EndedAt/ExitCode/StdoutURL/StderrURL expose the task's
	// recorded bookkeeping for storage and inspection.
	StartedAt() time.Time
	EndedAt() time.Time
	ExitCode() int
	StdoutURL() string
	StderrURL() string
}

type task struct {
	id        string
	kind      types.TaskKind
	resources types.ResourceVector

	startedAt time.Time
	endedAt   time.Time
	exitCode  int
	stdoutURL string
	stderrURL string
}

// NewTask constructs a task descriptor. Task IDs are deterministic given
// an execution ID and kind, per §4.1's "deterministic for a given
// execution snapshot" contract.
func NewTask(id string, kind types.TaskKind, resources types.ResourceVector) Task {
	return &task{id: id, kind: kind, resources: resources}
}

func (t *task) ID() string                     { return t.id }
func (t *task) Kind() types.TaskKind            { return t.kind }
func (t *task) Resources() types.ResourceVector { return t.resources }
func (t *task) StartedAt() time.Time            { return t.startedAt }
func (t *task) EndedAt() time.Time              { return t.endedAt }
func (t *task) ExitCode() int                   { return t.exitCode }
func (t *task) StdoutURL() string               { return t.stdoutURL }
func (t *task) StderrURL() string               { return t.stderrURL }

func (t *task) Running(when time.Time, stdoutURL, stderrURL string) {
	t.startedAt = when
	t.stdoutURL = stdoutURL
	t.stderrURL = stderrURL
}

func (t *task) Complete(results types.TaskResults) {
	t.endedAt = results.When
	t.exitCode = results.ExitCode
}

func (t *task) Fail(results types.TaskResults, cause *types.Error) *types.Error {
	t.endedAt = results.When
	t.exitCode = results.ExitCode
	return cause
}
