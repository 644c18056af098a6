package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/ctc-oss/foreman/pkg/execution"
	"github.com/ctc-oss/foreman/pkg/purge"
	"github.com/ctc-oss/foreman/pkg/scheduler"
	"github.com/ctc-oss/foreman/pkg/task"
	"github.com/ctc-oss/foreman/pkg/types"
	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketSourceFiles     = []byte("source_files")
	bucketExecutions      = []byte("executions")
	bucketTasks           = []byte("tasks")
	bucketNodes           = []byte("nodes")
	bucketJobs            = []byte("jobs")
	bucketRecipes         = []byte("recipes")
	bucketRecipeNodes     = []byte("recipe_nodes")
	bucketPurgeResults    = []byte("purge_results")
	bucketPurgeVisited    = []byte("purge_visited")
	bucketDeleteFilesJobs = []byte("delete_files_jobs")
	bucketJobFailures     = []byte("job_failures")
	bucketSchedulerConfig = []byte("scheduler_config")
	bucketJobResults      = []byte("job_results")
)

var allBuckets = [][]byte{
	bucketSourceFiles,
	bucketExecutions,
	bucketTasks,
	bucketNodes,
	bucketJobs,
	bucketRecipes,
	bucketRecipeNodes,
	bucketPurgeResults,
	bucketPurgeVisited,
	bucketDeleteFilesJobs,
	bucketJobFailures,
	bucketSchedulerConfig,
	bucketJobResults,
}

const schedulerConfigKey = "singleton"

// BoltStore backs every store interface the core engine needs
// (pkg/execution.Store, pkg/purge.Store, pkg/attribution's NodeStore /
// FailureCounter / ConfigProvider) with a single BoltDB file, following
// the teacher's one-bucket-per-entity, JSON-serialized-value layout.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (creating if absent) a BoltDB file under dataDir.
func NewBoltStore(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "foreman.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("storage: open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("storage: create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

func get(tx *bolt.Tx, bucket []byte, key string, out interface{}) (bool, error) {
	data := tx.Bucket(bucket).Get([]byte(key))
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("storage: unmarshal %s/%s: %w", bucket, key, err)
	}
	return true, nil
}

func put(tx *bolt.Tx, bucket []byte, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("storage: marshal %s/%s: %w", bucket, key, err)
	}
	return tx.Bucket(bucket).Put([]byte(key), data)
}

// --- execution.Store -------------------------------------------------

// executionTx adapts a BoltDB write transaction to execution.Tx.
type executionTx struct {
	tx *bolt.Tx
}

func (t executionTx) SaveTask(tk task.Task) error {
	record := taskRecord{
		ID:        tk.ID(),
		Kind:      tk.Kind(),
		Resources: tk.Resources(),
		StartedAt: tk.StartedAt(),
		EndedAt:   tk.EndedAt(),
		ExitCode:  tk.ExitCode(),
		StdoutURL: tk.StdoutURL(),
		StderrURL: tk.StderrURL(),
	}
	return put(t.tx, bucketTasks, tk.ID(), record)
}

func (t executionTx) SaveExecution(exe *types.JobExecution) error {
	return put(t.tx, bucketExecutions, exe.ID, exe)
}

// taskRecord is the on-disk shape of a committed task, independent of
// the in-memory task.Task implementation.
type taskRecord struct {
	ID        string
	Kind      types.TaskKind
	Resources types.ResourceVector
	StartedAt time.Time
	EndedAt   time.Time
	ExitCode  int
	StdoutURL string
	StderrURL string
}

// Atomic implements execution.Store: it runs fn inside a single BoltDB
// write transaction, satisfying §4.2's "all DB updates within a single
// atomic transaction" contract.
func (s *BoltStore) Atomic(_ context.Context, fn func(execution.Tx) error) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return fn(executionTx{tx: tx})
	})
}

// jobFailureRecord is one SYSTEM-error failure attributed to a node,
// counted by CountSystemFailures for node back-pressure (§4.5).
type jobFailureRecord struct {
	ExecutionID string
	NodeID      string
	Category    types.ErrorCategory
	When        time.Time
}

// RecordSystemFailure persists a SYSTEM-error failure attributed to a
// node. It is the attribution subsystem's own write path, kept separate
// from execution.Tx.SaveExecution so that ALGORITHM/DATA failures (which
// never count toward back-pressure) never touch this bucket.
func (s *BoltStore) RecordSystemFailure(ctx context.Context, nodeID, executionID string, when time.Time) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		rec := jobFailureRecord{ExecutionID: executionID, NodeID: nodeID, Category: types.ErrorCategorySystem, When: when}
		return put(tx, bucketJobFailures, fmt.Sprintf("%s/%s", nodeID, executionID), rec)
	})
}

// --- attribution collaborators ---------------------------------------

// GetNode implements attribution.NodeStore.
func (s *BoltStore) GetNode(_ context.Context, id string) (*types.Node, error) {
	var node types.Node
	err := s.db.View(func(tx *bolt.Tx) error {
		ok, err := get(tx, bucketNodes, id, &node)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &node, nil
}

// PauseNode implements attribution.NodeStore.
func (s *BoltStore) PauseNode(_ context.Context, id, reason string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		var node types.Node
		ok, err := get(tx, bucketNodes, id, &node)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("storage: pause node %s: %w", id, ErrNotFound)
		}
		node.IsPaused = true
		node.IsPausedErrors = true
		node.PauseReason = reason
		return put(tx, bucketNodes, id, node)
	})
}

// CreateNode upserts a node row, used by tests and cluster bootstrap.
func (s *BoltStore) CreateNode(_ context.Context, node *types.Node) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return put(tx, bucketNodes, node.ID, node)
	})
}

// ListNodes returns every registered node, for pkg/reconciler's heartbeat
// sweep.
func (s *BoltStore) ListNodes(_ context.Context) ([]*types.Node, error) {
	var nodes []*types.Node
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketNodes).ForEach(func(k, v []byte) error {
			var node types.Node
			if err := json.Unmarshal(v, &node); err != nil {
				return err
			}
			nodes = append(nodes, &node)
			return nil
		})
	})
	return nodes, err
}

// SetNodeStatus updates a node's liveness status, for pkg/reconciler.
func (s *BoltStore) SetNodeStatus(_ context.Context, id string, status types.NodeStatus) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		var node types.Node
		ok, err := get(tx, bucketNodes, id, &node)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("storage: set node status %s: %w", id, ErrNotFound)
		}
		node.Status = status
		return put(tx, bucketNodes, id, node)
	})
}

// CountSystemFailures implements attribution.FailureCounter: the number
// of distinct executions that failed on nodeID with a SYSTEM error at or
// after since.
func (s *BoltStore) CountSystemFailures(_ context.Context, nodeID string, since time.Time) (int, error) {
	count := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		prefix := []byte(nodeID + "/")
		c := tx.Bucket(bucketJobFailures).Cursor()
		for k, v := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
			var rec jobFailureRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			if !rec.When.Before(since) {
				count++
			}
		}
		return nil
	})
	return count, err
}

func hasPrefix(b, prefix []byte) bool {
	if len(b) < len(prefix) {
		return false
	}
	for i := range prefix {
		if b[i] != prefix[i] {
			return false
		}
	}
	return true
}

// SchedulerConfig implements attribution.ConfigProvider: the singleton
// tuning row, read once per Evaluate call per spec.md §9's Open Question.
func (s *BoltStore) SchedulerConfig(_ context.Context) (types.SchedulerConfig, error) {
	var cfg types.SchedulerConfig
	err := s.db.View(func(tx *bolt.Tx) error {
		_, err := get(tx, bucketSchedulerConfig, schedulerConfigKey, &cfg)
		return err
	})
	return cfg, err
}

// SetSchedulerConfig installs the singleton scheduler configuration row.
func (s *BoltStore) SetSchedulerConfig(_ context.Context, cfg types.SchedulerConfig) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return put(tx, bucketSchedulerConfig, schedulerConfigKey, cfg)
	})
}

// --- purge.Store -------------------------------------------------------

// PurgeResults returns the coordination row for sourceFileID, creating
// one on first use.
func (s *BoltStore) PurgeResults(_ context.Context, sourceFileID string) (*types.PurgeResults, error) {
	var results *types.PurgeResults
	err := s.db.Update(func(tx *bolt.Tx) error {
		var r types.PurgeResults
		ok, err := get(tx, bucketPurgeResults, sourceFileID, &r)
		if err != nil {
			return err
		}
		if !ok {
			r = types.PurgeResults{SourceFileID: sourceFileID}
			if err := put(tx, bucketPurgeResults, sourceFileID, r); err != nil {
				return err
			}
		}
		results = &r
		return nil
	})
	return results, err
}

// MarkPurgeCompleted stamps PurgeResults.PurgeCompleted.
func (s *BoltStore) MarkPurgeCompleted(_ context.Context, sourceFileID string, when time.Time) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		var r types.PurgeResults
		if _, err := get(tx, bucketPurgeResults, sourceFileID, &r); err != nil {
			return err
		}
		r.SourceFileID = sourceFileID
		r.PurgeCompleted = when
		return put(tx, bucketPurgeResults, sourceFileID, r)
	})
}

// IncrementRecipesDeleted atomically bumps NumRecipesDeleted by one.
func (s *BoltStore) IncrementRecipesDeleted(_ context.Context, sourceFileID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		var r types.PurgeResults
		if _, err := get(tx, bucketPurgeResults, sourceFileID, &r); err != nil {
			return err
		}
		r.SourceFileID = sourceFileID
		r.NumRecipesDeleted++
		return put(tx, bucketPurgeResults, sourceFileID, r)
	})
}

// HasVisitedRecipe backs the cycle-protection fallback described in
// spec.md §9: a persisted visited set keyed on (source file, recipe).
func (s *BoltStore) HasVisitedRecipe(_ context.Context, sourceFileID, recipeID string) (bool, error) {
	var visited bool
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketPurgeVisited).Get(visitedKey(sourceFileID, recipeID))
		visited = data != nil
		return nil
	})
	return visited, err
}

// MarkRecipeVisited records that recipeID has been processed within
// sourceFileID's cascade.
func (s *BoltStore) MarkRecipeVisited(_ context.Context, sourceFileID, recipeID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPurgeVisited).Put(visitedKey(sourceFileID, recipeID), []byte{1})
	})
}

func visitedKey(sourceFileID, recipeID string) []byte {
	return []byte(sourceFileID + "/" + recipeID)
}

// CreateJob upserts a job row: the source-file consumption edge both
// NonRecipeJobsConsuming and NonSupersededRecipesConsuming walk.
func (s *BoltStore) CreateJob(_ context.Context, j *types.Job) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return put(tx, bucketJobs, j.ID, j)
	})
}

// NonRecipeJobsConsuming returns the IDs of jobs that take sourceFileID
// as input and do not belong to any recipe.
func (s *BoltStore) NonRecipeJobsConsuming(_ context.Context, sourceFileID string) ([]string, error) {
	var ids []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketJobs).ForEach(func(k, v []byte) error {
			var j types.Job
			if err := json.Unmarshal(v, &j); err != nil {
				return err
			}
			if j.RecipeID == "" && j.ConsumesSourceFile(sourceFileID) {
				ids = append(ids, j.ID)
			}
			return nil
		})
	})
	sort.Strings(ids)
	return ids, err
}

// NonSupersededRecipesConsuming returns the IDs of non-superseded
// recipes that take sourceFileID as input, found by walking the jobs
// that belong to a recipe and consume it.
func (s *BoltStore) NonSupersededRecipesConsuming(_ context.Context, sourceFileID string) ([]string, error) {
	var ids []string
	err := s.db.View(func(tx *bolt.Tx) error {
		seen := make(map[string]bool)
		return tx.Bucket(bucketJobs).ForEach(func(k, v []byte) error {
			var j types.Job
			if err := json.Unmarshal(v, &j); err != nil {
				return err
			}
			if j.RecipeID == "" || !j.ConsumesSourceFile(sourceFileID) || seen[j.RecipeID] {
				return nil
			}
			seen[j.RecipeID] = true

			var r types.Recipe
			ok, err := get(tx, bucketRecipes, j.RecipeID, &r)
			if err != nil {
				return err
			}
			if ok && !r.IsSuperseded {
				ids = append(ids, r.ID)
			}
			return nil
		})
	})
	sort.Strings(ids)
	return ids, err
}

// DeleteIngestsForSourceFile removes every ingest row referencing
// sourceFileID. Ingest itself is out of scope (§1); this is a no-op
// hook for the collaborator that would own it.
func (s *BoltStore) DeleteIngestsForSourceFile(context.Context, string) error { return nil }

// DeleteSourceFile removes the source file row itself.
func (s *BoltStore) DeleteSourceFile(_ context.Context, sourceFileID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSourceFiles).Delete([]byte(sourceFileID))
	})
}

// CreateSourceFile upserts a source file row.
func (s *BoltStore) CreateSourceFile(_ context.Context, sf *types.SourceFile) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return put(tx, bucketSourceFiles, sf.ID, sf)
	})
}

// Recipe returns recipeID's record, or nil if it has already been
// deleted.
func (s *BoltStore) Recipe(_ context.Context, recipeID string) (*types.Recipe, error) {
	var r types.Recipe
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		ok, err := get(tx, bucketRecipes, recipeID, &r)
		found = ok
		return err
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &r, nil
}

// CreateRecipe upserts a recipe row.
func (s *BoltStore) CreateRecipe(_ context.Context, r *types.Recipe) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return put(tx, bucketRecipes, r.ID, r)
	})
}

// CreateRecipeNode upserts a recipe-node edge row.
func (s *BoltStore) CreateRecipeNode(_ context.Context, n *types.RecipeNode) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return put(tx, bucketRecipeNodes, n.ID, n)
	})
}

// LeafJobIDs returns the IDs of job children of recipeID that have no
// further descendants.
func (s *BoltStore) LeafJobIDs(_ context.Context, recipeID string) ([]string, error) {
	var ids []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRecipeNodes).ForEach(func(k, v []byte) error {
			var n types.RecipeNode
			if err := json.Unmarshal(v, &n); err != nil {
				return err
			}
			if n.RecipeID == recipeID && n.IsJobNode() {
				ids = append(ids, n.JobID)
			}
			return nil
		})
	})
	return ids, err
}

// SubRecipeChildren returns the IDs of sub-recipe children of recipeID.
func (s *BoltStore) SubRecipeChildren(_ context.Context, recipeID string) ([]string, error) {
	var ids []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRecipeNodes).ForEach(func(k, v []byte) error {
			var n types.RecipeNode
			if err := json.Unmarshal(v, &n); err != nil {
				return err
			}
			if n.RecipeID == recipeID && n.IsSubRecipeNode() {
				ids = append(ids, n.SubRecipeID)
			}
			return nil
		})
	})
	return ids, err
}

// ParentRecipeID returns the recipe that names recipeID as a sub-recipe
// child, if any.
func (s *BoltStore) ParentRecipeID(_ context.Context, recipeID string) (string, bool, error) {
	var parentID string
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRecipeNodes).ForEach(func(k, v []byte) error {
			if found {
				return nil
			}
			var n types.RecipeNode
			if err := json.Unmarshal(v, &n); err != nil {
				return err
			}
			if n.IsSubRecipeNode() && n.SubRecipeID == recipeID {
				parentID = n.RecipeID
				found = true
			}
			return nil
		})
	})
	return parentID, found, err
}

// DeleteRecipeNodes removes every RecipeNode row belonging to recipeID.
func (s *BoltStore) DeleteRecipeNodes(_ context.Context, recipeID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRecipeNodes)
		var toDelete [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var n types.RecipeNode
			if err := json.Unmarshal(v, &n); err != nil {
				return err
			}
			if n.RecipeID == recipeID {
				toDelete = append(toDelete, append([]byte{}, k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range toDelete {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteRecipe removes the recipe row itself.
func (s *BoltStore) DeleteRecipe(_ context.Context, recipeID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRecipes).Delete([]byte(recipeID))
	})
}

// deleteFilesJobRecord is a persisted request to delete a job's output
// files, recorded by purge.SpawnDeleteFilesJob.
type deleteFilesJobRecord struct {
	ID           string
	JobID        string
	SourceFileID string
	TriggerID    string
	Purge        bool
	RecordedAt   time.Time
}

// RecordDeleteFilesJob persists a request to delete a job's output
// files; re-recording the same request is harmless bookkeeping.
func (s *BoltStore) RecordDeleteFilesJob(_ context.Context, jobID, sourceFileID, triggerID string, purgeFlag bool) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		rec := deleteFilesJobRecord{
			ID:           uuid.New().String(),
			JobID:        jobID,
			SourceFileID: sourceFileID,
			TriggerID:    triggerID,
			Purge:        purgeFlag,
			RecordedAt:   time.Now(),
		}
		return put(tx, bucketDeleteFilesJobs, rec.ID, rec)
	})
}

// SpawnDeleteFilesExecution queues the system JobExecution that deletes
// jobID's output files. The execution ID is deterministic in jobID, so
// a re-delivered SpawnDeleteFilesJob message finds the existing row and
// queues nothing a second time.
func (s *BoltStore) SpawnDeleteFilesExecution(_ context.Context, jobID string) (string, error) {
	executionID := "delete-files-" + jobID
	err := s.db.Update(func(tx *bolt.Tx) error {
		var existing types.JobExecution
		ok, err := get(tx, bucketExecutions, executionID, &existing)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		exe := &types.JobExecution{
			ID:          executionID,
			JobID:       jobID,
			JobTypeID:   "delete_files",
			IsSystem:    true,
			Status:      types.ExecutionQueued,
			MaxAttempts: 1,
			QueuedAt:    time.Now(),
		}
		return put(tx, bucketExecutions, executionID, exe)
	})
	return executionID, err
}

var _ purge.Store = (*BoltStore)(nil)

// --- scheduler.ExecutionStore -----------------------------------------

// CreateExecution upserts a job-execution row, used by tests and by
// SpawnDeleteFilesExecution to queue a system execution.
func (s *BoltStore) CreateExecution(_ context.Context, exe *types.JobExecution) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return put(tx, bucketExecutions, exe.ID, exe)
	})
}

// GetExecution returns executionID's record, or nil if it does not
// exist.
func (s *BoltStore) GetExecution(_ context.Context, executionID string) (*types.JobExecution, error) {
	var exe types.JobExecution
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		ok, err := get(tx, bucketExecutions, executionID, &exe)
		found = ok
		return err
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &exe, nil
}

// ListQueuedExecutions returns every execution still awaiting dispatch,
// for the scheduler's enqueue loop.
func (s *BoltStore) ListQueuedExecutions(_ context.Context) ([]*types.JobExecution, error) {
	var executions []*types.JobExecution
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketExecutions).ForEach(func(k, v []byte) error {
			var exe types.JobExecution
			if err := json.Unmarshal(v, &exe); err != nil {
				return err
			}
			if exe.Status == types.ExecutionQueued {
				executions = append(executions, &exe)
			}
			return nil
		})
	})
	return executions, err
}

// SaveJobResults persists the results document PerformPostSteps
// produced for a completed execution.
func (s *BoltStore) SaveJobResults(_ context.Context, executionID string, results *types.JobResults) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return put(tx, bucketJobResults, executionID, results)
	})
}

// JobResults returns the results document saved for executionID, or
// nil if none has been saved yet.
func (s *BoltStore) JobResults(_ context.Context, executionID string) (*types.JobResults, error) {
	var r types.JobResults
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		ok, err := get(tx, bucketJobResults, executionID, &r)
		found = ok
		return err
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &r, nil
}

var _ scheduler.ExecutionStore = (*BoltStore)(nil)

// --- metrics source ----------------------------------------------------

// CountExecutionsByStatus returns the number of executions currently in
// each ExecutionStatus, for pkg/metrics.Collector.
func (s *BoltStore) CountExecutionsByStatus(_ context.Context) (map[types.ExecutionStatus]int, error) {
	counts := make(map[types.ExecutionStatus]int)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketExecutions).ForEach(func(k, v []byte) error {
			var exe types.JobExecution
			if err := json.Unmarshal(v, &exe); err != nil {
				return err
			}
			counts[exe.Status]++
			return nil
		})
	})
	return counts, err
}

// CountPausedNodes returns the number of nodes currently paused, for
// pkg/metrics.Collector.
func (s *BoltStore) CountPausedNodes(_ context.Context) (int, error) {
	count := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketNodes).ForEach(func(k, v []byte) error {
			var node types.Node
			if err := json.Unmarshal(v, &node); err != nil {
				return err
			}
			if node.IsPaused {
				count++
			}
			return nil
		})
	})
	return count, err
}
