package task

import (
	"testing"

	"github.com/ctc-oss/foreman/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestBuildTasks(t *testing.T) {
	tests := []struct {
		name     string
		isSystem bool
		wantKind []types.TaskKind
	}{
		{
			name:     "non-system execution gets pre, main, post",
			isSystem: false,
			wantKind: []types.TaskKind{types.TaskKindPre, types.TaskKindMain, types.TaskKindPost},
		},
		{
			name:     "system execution gets main only",
			isSystem: true,
			wantKind: []types.TaskKind{types.TaskKindMain},
		},
	}

	f := NewFactory()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exe := &types.JobExecution{ID: "exe-1", IsSystem: tt.isSystem}
			tasks := f.BuildTasks(exe)

			assert.Len(t, tasks, len(tt.wantKind))
			for i, kind := range tt.wantKind {
				assert.Equal(t, kind, tasks[i].Kind())
			}
		})
	}
}

func TestBuildTasksDeterministicIDs(t *testing.T) {
	f := NewFactory()
	exe := &types.JobExecution{ID: "exe-42", IsSystem: false}

	a := f.BuildTasks(exe)
	b := f.BuildTasks(exe)

	for i := range a {
		assert.Equal(t, a[i].ID(), b[i].ID())
	}
	assert.Equal(t, "exe-42-pre", a[0].ID())
	assert.Equal(t, "exe-42-main", a[1].ID())
	assert.Equal(t, "exe-42-post", a[2].ID())
}
