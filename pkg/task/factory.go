package task

import "github.com/ctc-oss/foreman/pkg/types"

// Factory builds the ordered task list for an execution: PRE (if not
// system), MAIN, POST (if not system).
type Factory struct {
	// Resources resolves the resource vector for a given execution and
	// task kind. NewFactory sets it to a flat default, which is what
	// cmd/foreman uses; tests may override it.
	Resources func(exe *types.JobExecution, kind types.TaskKind) types.ResourceVector
}

// NewFactory returns a Factory using a flat default resource vector for
// every task kind.
func NewFactory() *Factory {
	return &Factory{
		Resources: func(*types.JobExecution, types.TaskKind) types.ResourceVector {
			return types.ResourceVector{CPUs: 1, MemMB: 256, DiskMB: 1024}
		},
	}
}

// BuildTasks returns the ordered task sequence for exe. Task IDs are
// "<execution-id>-pre", "<execution-id>-main", "<execution-id>-post".
func (f *Factory) BuildTasks(exe *types.JobExecution) []Task {
	var tasks []Task

	if !exe.IsSystem {
		tasks = append(tasks, NewTask(exe.ID+"-pre", types.TaskKindPre, f.Resources(exe, types.TaskKindPre)))
	}
	tasks = append(tasks, NewTask(exe.ID+"-main", types.TaskKindMain, f.Resources(exe, types.TaskKindMain)))
	if !exe.IsSystem {
		tasks = append(tasks, NewTask(exe.ID+"-post", types.TaskKindPost, f.Resources(exe, types.TaskKindPost)))
	}

	return tasks
}
