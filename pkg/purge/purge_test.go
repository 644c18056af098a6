package purge

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ctc-oss/foreman/pkg/message"
	"github.com/ctc-oss/foreman/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory Store good enough to exercise every cascade
// shape the spec names, without a real database.
type fakeStore struct {
	mu sync.Mutex

	results map[string]*types.PurgeResults
	visited map[string]bool // "sourceFileID/recipeID"

	nonRecipeJobs    map[string][]string // sourceFileID -> job IDs
	nonSupersededRec map[string][]string // sourceFileID -> recipe IDs

	recipes        map[string]*types.Recipe
	leafJobs       map[string][]string // recipeID -> job IDs
	subRecipes     map[string][]string // recipeID -> child recipe IDs
	parentOf       map[string]string   // recipeID -> parent recipeID

	deletedRecipes     map[string]bool
	deletedRecipeNodes map[string]bool
	deletedIngests     map[string]bool
	deletedSourceFiles map[string]bool
	recordedJobs       []string
	spawnedExecutions  []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		results:            make(map[string]*types.PurgeResults),
		visited:            make(map[string]bool),
		nonRecipeJobs:      make(map[string][]string),
		nonSupersededRec:   make(map[string][]string),
		recipes:            make(map[string]*types.Recipe),
		leafJobs:           make(map[string][]string),
		subRecipes:         make(map[string][]string),
		parentOf:           make(map[string]string),
		deletedRecipes:     make(map[string]bool),
		deletedRecipeNodes: make(map[string]bool),
		deletedIngests:     make(map[string]bool),
		deletedSourceFiles: make(map[string]bool),
	}
}

func (s *fakeStore) PurgeResults(_ context.Context, sourceFileID string) (*types.PurgeResults, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.results[sourceFileID]; ok {
		return r, nil
	}
	r := &types.PurgeResults{SourceFileID: sourceFileID}
	s.results[sourceFileID] = r
	return r, nil
}

func (s *fakeStore) MarkPurgeCompleted(_ context.Context, sourceFileID string, when time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[sourceFileID].PurgeCompleted = when
	return nil
}

func (s *fakeStore) IncrementRecipesDeleted(_ context.Context, sourceFileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[sourceFileID].NumRecipesDeleted++
	return nil
}

func (s *fakeStore) HasVisitedRecipe(_ context.Context, sourceFileID, recipeID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visited[sourceFileID+"/"+recipeID], nil
}

func (s *fakeStore) MarkRecipeVisited(_ context.Context, sourceFileID, recipeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visited[sourceFileID+"/"+recipeID] = true
	return nil
}

func (s *fakeStore) NonRecipeJobsConsuming(_ context.Context, sourceFileID string) ([]string, error) {
	return s.nonRecipeJobs[sourceFileID], nil
}

func (s *fakeStore) NonSupersededRecipesConsuming(_ context.Context, sourceFileID string) ([]string, error) {
	return s.nonSupersededRec[sourceFileID], nil
}

func (s *fakeStore) DeleteIngestsForSourceFile(_ context.Context, sourceFileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletedIngests[sourceFileID] = true
	return nil
}

func (s *fakeStore) DeleteSourceFile(_ context.Context, sourceFileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletedSourceFiles[sourceFileID] = true
	return nil
}

func (s *fakeStore) Recipe(_ context.Context, recipeID string) (*types.Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deletedRecipes[recipeID] {
		return nil, nil
	}
	return s.recipes[recipeID], nil
}

func (s *fakeStore) LeafJobIDs(_ context.Context, recipeID string) ([]string, error) {
	return s.leafJobs[recipeID], nil
}

func (s *fakeStore) SubRecipeChildren(_ context.Context, recipeID string) ([]string, error) {
	return s.subRecipes[recipeID], nil
}

func (s *fakeStore) ParentRecipeID(_ context.Context, recipeID string) (string, bool, error) {
	parent, ok := s.parentOf[recipeID]
	return parent, ok, nil
}

func (s *fakeStore) DeleteRecipeNodes(_ context.Context, recipeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletedRecipeNodes[recipeID] = true
	return nil
}

func (s *fakeStore) DeleteRecipe(_ context.Context, recipeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletedRecipes[recipeID] = true
	return nil
}

func (s *fakeStore) RecordDeleteFilesJob(_ context.Context, jobID, sourceFileID, triggerID string, purge bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordedJobs = append(s.recordedJobs, jobID)
	return nil
}

func (s *fakeStore) SpawnDeleteFilesExecution(_ context.Context, jobID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.spawnedExecutions {
		if id == "exec-"+jobID {
			return id, nil
		}
	}
	executionID := "exec-" + jobID
	s.spawnedExecutions = append(s.spawnedExecutions, executionID)
	return executionID, nil
}

func typesOf(msgs []message.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Type()
	}
	return out
}

func TestPurgeSourceFileForceStopIsNoOp(t *testing.T) {
	store := newFakeStore()
	store.results["sf-1"] = &types.PurgeResults{SourceFileID: "sf-1", ForceStop: true}

	msg := NewPurgeSourceFile(store, "sf-1", "trig-1")
	ok, newMsgs, err := msg.Execute(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, newMsgs)
	assert.False(t, store.deletedSourceFiles["sf-1"])
}

func TestPurgeSourceFileSpawnsJobsAndRecipes(t *testing.T) {
	store := newFakeStore()
	store.nonRecipeJobs["sf-1"] = []string{"job-1"}
	store.nonSupersededRec["sf-1"] = []string{"recipe-1"}

	msg := NewPurgeSourceFile(store, "sf-1", "trig-1")
	ok, newMsgs, err := msg.Execute(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.ElementsMatch(t, []string{SpawnDeleteFilesJobType, PurgeRecipeType}, typesOf(newMsgs))
	assert.False(t, store.deletedSourceFiles["sf-1"], "source file stays until nothing references it")
}

func TestPurgeSourceFileDeletesWhenNothingReferencesIt(t *testing.T) {
	store := newFakeStore()
	msg := NewPurgeSourceFile(store, "sf-1", "trig-1")

	ok, newMsgs, err := msg.Execute(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, newMsgs)
	assert.True(t, store.deletedIngests["sf-1"])
	assert.True(t, store.deletedSourceFiles["sf-1"])
	assert.False(t, store.results["sf-1"].PurgeCompleted.IsZero())
}

func TestPurgeRecipeWithLeafJobsSpawnsDeleteFilesAndDefersDeletion(t *testing.T) {
	store := newFakeStore()
	store.recipes["recipe-1"] = &types.Recipe{ID: "recipe-1"}
	store.leafJobs["recipe-1"] = []string{"job-1", "job-2"}

	msg := NewPurgeRecipe(store, "recipe-1", "trig-1", "sf-1")
	ok, newMsgs, err := msg.Execute(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, newMsgs, 2)
	for _, m := range newMsgs {
		assert.Equal(t, SpawnDeleteFilesJobType, m.Type())
	}
	assert.False(t, store.deletedRecipes["recipe-1"], "recipe waits for its leaf jobs to clear")
}

func TestPurgeRecipeNoLeafJobsDeletesImmediately(t *testing.T) {
	store := newFakeStore()
	store.recipes["recipe-1"] = &types.Recipe{ID: "recipe-1"}

	msg := NewPurgeRecipe(store, "recipe-1", "trig-1", "sf-1")
	ok, newMsgs, err := msg.Execute(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, newMsgs)
	assert.True(t, store.deletedRecipes["recipe-1"])
	assert.True(t, store.deletedRecipeNodes["recipe-1"])
	assert.Equal(t, 1, store.results["sf-1"].NumRecipesDeleted)
}

func TestPurgeRecipeSupersededChainEmitsPredecessor(t *testing.T) {
	store := newFakeStore()
	store.recipes["recipe-2"] = &types.Recipe{ID: "recipe-2", Supersedes: "recipe-1"}
	store.recipes["recipe-1"] = &types.Recipe{ID: "recipe-1"}

	msg := NewPurgeRecipe(store, "recipe-2", "trig-1", "sf-1")
	ok, newMsgs, err := msg.Execute(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	require.Len(t, newMsgs, 1)
	predecessor, ok := newMsgs[0].(*PurgeRecipe)
	require.True(t, ok)
	assert.Equal(t, "recipe-1", predecessor.RecipeID)
}

func TestPurgeRecipeParentCascade(t *testing.T) {
	store := newFakeStore()
	store.recipes["recipe-1"] = &types.Recipe{ID: "recipe-1"}
	store.parentOf["recipe-1"] = "parent-recipe"

	msg := NewPurgeRecipe(store, "recipe-1", "trig-1", "sf-1")
	_, newMsgs, err := msg.Execute(context.Background())
	require.NoError(t, err)
	require.Len(t, newMsgs, 1)
	parent := newMsgs[0].(*PurgeRecipe)
	assert.Equal(t, "parent-recipe", parent.RecipeID)
}

func TestPurgeRecipeSubRecipeChildren(t *testing.T) {
	store := newFakeStore()
	store.recipes["recipe-1"] = &types.Recipe{ID: "recipe-1"}
	store.subRecipes["recipe-1"] = []string{"child-recipe"}

	msg := NewPurgeRecipe(store, "recipe-1", "trig-1", "sf-1")
	_, newMsgs, err := msg.Execute(context.Background())
	require.NoError(t, err)
	require.Len(t, newMsgs, 1)
	child := newMsgs[0].(*PurgeRecipe)
	assert.Equal(t, "child-recipe", child.RecipeID)
}

func TestPurgeRecipeAlreadyDeletedIsNoOp(t *testing.T) {
	store := newFakeStore()
	// recipe-1 absent from store.recipes and not marked deleted: Recipe() returns nil, nil.

	msg := NewPurgeRecipe(store, "recipe-1", "trig-1", "sf-1")
	ok, newMsgs, err := msg.Execute(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, newMsgs)
}

func TestPurgeRecipeForceStopBlocksMutation(t *testing.T) {
	store := newFakeStore()
	store.results["sf-1"] = &types.PurgeResults{SourceFileID: "sf-1", ForceStop: true}
	store.recipes["recipe-1"] = &types.Recipe{ID: "recipe-1"}

	msg := NewPurgeRecipe(store, "recipe-1", "trig-1", "sf-1")
	ok, newMsgs, err := msg.Execute(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, newMsgs)
	assert.False(t, store.deletedRecipes["recipe-1"])
}

func TestPurgeRecipeCycleProtectionSkipsRevisit(t *testing.T) {
	store := newFakeStore()
	store.recipes["recipe-1"] = &types.Recipe{ID: "recipe-1"}
	store.visited["sf-1/recipe-1"] = true

	msg := NewPurgeRecipe(store, "recipe-1", "trig-1", "sf-1")
	ok, newMsgs, err := msg.Execute(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, newMsgs)
	assert.False(t, store.deletedRecipes["recipe-1"], "a recipe already visited this cascade is not reprocessed")
}

func TestSpawnDeleteFilesJobRecordsAndSucceeds(t *testing.T) {
	store := newFakeStore()
	msg := NewSpawnDeleteFilesJob(store, "job-1", "trig-1", "sf-1", true)

	ok, newMsgs, err := msg.Execute(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, newMsgs)
	assert.Equal(t, []string{"job-1"}, store.recordedJobs)
	assert.Equal(t, []string{"exec-job-1"}, store.spawnedExecutions)

	// Re-delivery must not queue a second execution.
	ok, newMsgs, err = msg.Execute(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, newMsgs)
	assert.Equal(t, []string{"exec-job-1"}, store.spawnedExecutions)
}

func TestRegisterRoundTripsAllThreeTypes(t *testing.T) {
	store := newFakeStore()
	reg := message.NewRegistry()
	Register(reg, store)

	original := NewPurgeRecipe(store, "recipe-1", "trig-1", "sf-1")
	encoded, err := reg.Encode(original)
	require.NoError(t, err)

	decoded, err := reg.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, PurgeRecipeType, decoded.Type())

	asRecipe, ok := decoded.(*PurgeRecipe)
	require.True(t, ok)
	assert.Equal(t, "recipe-1", asRecipe.RecipeID)
	assert.NotNil(t, asRecipe.Store)
}
