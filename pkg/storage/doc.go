/*
Package storage provides Foreman's BoltDB-backed persistence layer.

BoltStore is the single concrete implementation behind every store
interface the core engine defines: pkg/execution.Store (the atomic
transaction each RunningExecution method runs its commit inside),
pkg/purge.Store (the purge cascade's read/write surface), and
pkg/attribution's NodeStore / FailureCounter / ConfigProvider (node
lookups, the system-failure window count, and the scheduler config
singleton).

# Buckets

	source_files       SourceFile rows
	executions         JobExecution rows
	tasks              committed task records (outcome, not in-flight state)
	nodes              Node rows
	jobs               Job rows: each job's source-file inputs and owning recipe, if any
	recipes            Recipe rows
	recipe_nodes       RecipeNode edge rows
	purge_results      PurgeResults rows, one per source file
	purge_visited      cycle-protection visited set, keyed "sourceFileID/recipeID"
	delete_files_jobs  recorded SpawnDeleteFilesJob requests
	job_failures       SYSTEM-error failures, keyed "nodeID/executionID", windowed by CountSystemFailures
	scheduler_config   the singleton SchedulerConfig row
	job_results        JobResults documents, keyed by execution ID

Every bucket stores JSON-encoded values behind a string key, following
the teacher's db.View/db.Update plus json.Marshal/Unmarshal pattern
(pkg/storage/boltdb.go in the original tree). Writes inside a single
Atomic call share one bolt.Tx, giving RunningExecution's "single atomic
transaction" contract (spec.md §4.2) for free.

# Consumption queries

NonRecipeJobsConsuming and NonSupersededRecipesConsuming walk the jobs
bucket directly: a job's RecipeID and InputSourceFileIDs are the whole
of the consumption edge the purge cascade needs, so no separate
ingest/job-data store is required for purge to find real work. The
ingest pipeline that populates jobs (and the trigger evaluation that
decides when to purge in the first place) remains out of scope per §1;
this package only owns the rows once something else writes them, via
CreateJob.
*/
package storage
