package storage

import (
	"context"
	"testing"
	"time"

	"github.com/ctc-oss/foreman/pkg/execution"
	"github.com/ctc-oss/foreman/pkg/message"
	"github.com/ctc-oss/foreman/pkg/purge"
	"github.com/ctc-oss/foreman/pkg/task"
	"github.com/ctc-oss/foreman/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
)

func newTestStore(t *testing.T) *BoltStore {
	t.Helper()
	dir := t.TempDir()
	s, err := NewBoltStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAtomicPersistsTaskAndExecution(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	exe := &types.JobExecution{ID: "exe-1", Status: types.ExecutionRunning}
	tk := task.NewTask("exe-1-main", types.TaskKindMain, types.ResourceVector{CPUs: 1})
	tk.Complete(types.TaskResults{TaskID: "exe-1-main", When: time.Now(), ExitCode: 0})
	exe.Status = types.ExecutionCompleted

	err := s.Atomic(ctx, func(tx execution.Tx) error {
		require.NoError(t, tx.SaveTask(tk))
		return tx.SaveExecution(exe)
	})
	require.NoError(t, err)

	var stored types.JobExecution
	require.NoError(t, s.db.View(func(tx *bolt.Tx) error {
		ok, err := get(tx, bucketExecutions, "exe-1", &stored)
		require.True(t, ok)
		return err
	}))
	assert.Equal(t, types.ExecutionCompleted, stored.Status)

	var storedTask taskRecord
	require.NoError(t, s.db.View(func(tx *bolt.Tx) error {
		ok, err := get(tx, bucketTasks, "exe-1-main", &storedTask)
		require.True(t, ok)
		return err
	}))
	assert.Equal(t, 0, storedTask.ExitCode)
}

func TestPauseNodeSetsReason(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateNode(ctx, &types.Node{ID: "node-1", Hostname: "host-1"}))
	require.NoError(t, s.PauseNode(ctx, "node-1", "System Failure Rate Too High"))

	node, err := s.GetNode(ctx, "node-1")
	require.NoError(t, err)
	assert.True(t, node.IsPaused)
	assert.Equal(t, "System Failure Rate Too High", node.PauseReason)
}

func TestGetNodeNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetNode(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListNodesReturnsAllCreated(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateNode(ctx, &types.Node{ID: "node-1"}))
	require.NoError(t, s.CreateNode(ctx, &types.Node{ID: "node-2"}))

	nodes, err := s.ListNodes(ctx)
	require.NoError(t, err)
	assert.Len(t, nodes, 2)
}

func TestSetNodeStatusUpdatesStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateNode(ctx, &types.Node{ID: "node-1", Status: types.NodeStatusReady}))
	require.NoError(t, s.SetNodeStatus(ctx, "node-1", types.NodeStatusDown))

	node, err := s.GetNode(ctx, "node-1")
	require.NoError(t, err)
	assert.Equal(t, types.NodeStatusDown, node.Status)
}

func TestSetNodeStatusNotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.SetNodeStatus(context.Background(), "missing", types.NodeStatusDown)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCountSystemFailuresWindowed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.RecordSystemFailure(ctx, "node-1", "exe-old", now.Add(-2*time.Hour)))
	require.NoError(t, s.RecordSystemFailure(ctx, "node-1", "exe-new", now))

	count, err := s.CountSystemFailures(ctx, "node-1", now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSchedulerConfigRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetSchedulerConfig(ctx, types.SchedulerConfig{NodeErrorPeriod: 5, MaxNodeErrors: 3}))

	cfg, err := s.SchedulerConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.NodeErrorPeriod)
	assert.Equal(t, 3, cfg.MaxNodeErrors)
}

func TestPurgeResultsPurgeCompletedSurvivesRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r, err := s.PurgeResults(ctx, "sf-1")
	require.NoError(t, err)
	assert.False(t, r.ForceStop)

	require.NoError(t, s.MarkPurgeCompleted(ctx, "sf-1", time.Now()))
	r2, err := s.PurgeResults(ctx, "sf-1")
	require.NoError(t, err)
	assert.False(t, r2.PurgeCompleted.IsZero())
}

func TestRecipeDeletionCascade(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateRecipe(ctx, &types.Recipe{ID: "r1"}))
	require.NoError(t, s.CreateRecipeNode(ctx, &types.RecipeNode{ID: "n1", RecipeID: "r1", JobID: "job-1"}))
	require.NoError(t, s.CreateRecipeNode(ctx, &types.RecipeNode{ID: "n2", RecipeID: "r1", JobID: "job-2"}))

	leaves, err := s.LeafJobIDs(ctx, "r1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"job-1", "job-2"}, leaves)

	require.NoError(t, s.DeleteRecipeNodes(ctx, "r1"))
	require.NoError(t, s.DeleteRecipe(ctx, "r1"))

	recipe, err := s.Recipe(ctx, "r1")
	require.NoError(t, err)
	assert.Nil(t, recipe)

	leaves, err = s.LeafJobIDs(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, leaves)
}

func TestVisitedRecipeCycleProtection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	visited, err := s.HasVisitedRecipe(ctx, "sf-1", "r1")
	require.NoError(t, err)
	assert.False(t, visited)

	require.NoError(t, s.MarkRecipeVisited(ctx, "sf-1", "r1"))

	visited, err = s.HasVisitedRecipe(ctx, "sf-1", "r1")
	require.NoError(t, err)
	assert.True(t, visited)
}

func TestParentRecipeID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateRecipeNode(ctx, &types.RecipeNode{ID: "n1", RecipeID: "parent", SubRecipeID: "child"}))

	parentID, ok, err := s.ParentRecipeID(ctx, "child")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "parent", parentID)

	_, ok, err = s.ParentRecipeID(ctx, "no-such-child")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCountExecutionsByStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Atomic(ctx, func(tx execution.Tx) error {
		return tx.SaveExecution(&types.JobExecution{ID: "exe-1", Status: types.ExecutionRunning})
	}))
	require.NoError(t, s.Atomic(ctx, func(tx execution.Tx) error {
		return tx.SaveExecution(&types.JobExecution{ID: "exe-2", Status: types.ExecutionCompleted})
	}))

	counts, err := s.CountExecutionsByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[types.ExecutionRunning])
	assert.Equal(t, 1, counts[types.ExecutionCompleted])
}

func TestCountPausedNodes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateNode(ctx, &types.Node{ID: "node-1"}))
	require.NoError(t, s.CreateNode(ctx, &types.Node{ID: "node-2"}))
	require.NoError(t, s.PauseNode(ctx, "node-1", "System Failure Rate Too High"))

	count, err := s.CountPausedNodes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRecordDeleteFilesJobIsIdempotentBookkeeping(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordDeleteFilesJob(ctx, "job-1", "sf-1", "trig-1", true))
	require.NoError(t, s.RecordDeleteFilesJob(ctx, "job-1", "sf-1", "trig-1", true))
}

func TestNonRecipeJobsConsumingFindsOnlyUnowned(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateJob(ctx, &types.Job{ID: "job-1", InputSourceFileIDs: []string{"sf-1"}}))
	require.NoError(t, s.CreateJob(ctx, &types.Job{ID: "job-2", RecipeID: "r1", InputSourceFileIDs: []string{"sf-1"}}))
	require.NoError(t, s.CreateJob(ctx, &types.Job{ID: "job-3", InputSourceFileIDs: []string{"sf-2"}}))

	ids, err := s.NonRecipeJobsConsuming(ctx, "sf-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"job-1"}, ids)
}

func TestNonSupersededRecipesConsumingSkipsSuperseded(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateRecipe(ctx, &types.Recipe{ID: "r1"}))
	require.NoError(t, s.CreateRecipe(ctx, &types.Recipe{ID: "r2", IsSuperseded: true}))
	require.NoError(t, s.CreateJob(ctx, &types.Job{ID: "job-1", RecipeID: "r1", InputSourceFileIDs: []string{"sf-1"}}))
	require.NoError(t, s.CreateJob(ctx, &types.Job{ID: "job-2", RecipeID: "r2", InputSourceFileIDs: []string{"sf-1"}}))

	ids, err := s.NonSupersededRecipesConsuming(ctx, "sf-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, ids)
}

// TestPurgeSourceFileCascadeAgainstRealStore proves the purge cascade
// finds its consuming job and recipe through a real BoltStore, not just
// the in-memory fake pkg/purge's own tests use, and that purging the
// recipe it finds actually deletes it.
func TestPurgeSourceFileCascadeAgainstRealStore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSourceFile(ctx, &types.SourceFile{ID: "sf-1"}))
	require.NoError(t, s.CreateJob(ctx, &types.Job{ID: "job-1", InputSourceFileIDs: []string{"sf-1"}}))
	require.NoError(t, s.CreateRecipe(ctx, &types.Recipe{ID: "recipe-1"}))
	require.NoError(t, s.CreateJob(ctx, &types.Job{ID: "job-2", RecipeID: "recipe-1", InputSourceFileIDs: []string{"sf-1"}}))

	msg := purge.NewPurgeSourceFile(s, "sf-1", "trig-1")
	ok, followOn, err := msg.Execute(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, followOn, 2)

	var recipeMsg, spawnMsg message.Message
	var sawSpawn bool
	for _, m := range followOn {
		switch m.Type() {
		case purge.SpawnDeleteFilesJobType:
			sawSpawn = true
			spawnMsg = m
		case purge.PurgeRecipeType:
			recipeMsg = m
		}
	}
	assert.True(t, sawSpawn, "job-1 consumes sf-1 outside any recipe and should spawn a delete-files job")
	require.NotNil(t, recipeMsg, "recipe-1 consumes sf-1 through job-2 and should be queued for purge")
	require.NotNil(t, spawnMsg)

	ok, spawnFollowOn, err := spawnMsg.Execute(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, spawnFollowOn)

	exe, err := s.GetExecution(ctx, "delete-files-job-1")
	require.NoError(t, err)
	require.NotNil(t, exe, "spawning the delete-files job should queue its execution")
	assert.Equal(t, types.ExecutionQueued, exe.Status)
	assert.True(t, exe.IsSystem)

	ok, recipeFollowOn, err := recipeMsg.Execute(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, recipeFollowOn, "recipe-1 has no tracked leaf jobs and should delete immediately")

	gotRecipe, err := s.Recipe(ctx, "recipe-1")
	require.NoError(t, err)
	assert.Nil(t, gotRecipe, "recipe consuming the purged source file should be deleted")

	results, err := s.PurgeResults(ctx, "sf-1")
	require.NoError(t, err)
	assert.Equal(t, 1, results.NumRecipesDeleted)
}

func TestExecutionQueueRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateExecution(ctx, &types.JobExecution{ID: "exe-1", Status: types.ExecutionQueued}))
	require.NoError(t, s.CreateExecution(ctx, &types.JobExecution{ID: "exe-2", Status: types.ExecutionRunning}))

	pending, err := s.ListQueuedExecutions(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "exe-1", pending[0].ID)

	got, err := s.GetExecution(ctx, "exe-1")
	require.NoError(t, err)
	assert.Equal(t, types.ExecutionQueued, got.Status)

	missing, err := s.GetExecution(ctx, "no-such-execution")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSaveJobResultsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	jr := types.NewJobResults()
	jr.Files["output"] = []string{"file-1"}

	require.NoError(t, s.SaveJobResults(ctx, "exe-1", jr))

	got, err := s.JobResults(ctx, "exe-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"file-1"}, got.Files["output"])
}

func TestSpawnDeleteFilesExecutionIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id1, err := s.SpawnDeleteFilesExecution(ctx, "job-1")
	require.NoError(t, err)

	exe, err := s.GetExecution(ctx, id1)
	require.NoError(t, err)
	require.NotNil(t, exe)
	queuedAt := exe.QueuedAt

	id2, err := s.SpawnDeleteFilesExecution(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	exe2, err := s.GetExecution(ctx, id2)
	require.NoError(t, err)
	assert.Equal(t, queuedAt, exe2.QueuedAt, "re-spawning must not overwrite the already-queued execution")
}
