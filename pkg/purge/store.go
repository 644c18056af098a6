package purge

import (
	"context"
	"time"

	"github.com/ctc-oss/foreman/pkg/types"
)

// Store is the persistence surface the purge cascade needs. Every
// method must be safe to call against state that a previous, partially
// completed delivery has already mutated.
type Store interface {
	// PurgeResults returns the coordination row for sourceFileID,
	// creating one on first use. ForceStop on the returned value halts
	// every purge message for that source file.
	PurgeResults(ctx context.Context, sourceFileID string) (*types.PurgeResults, error)

	// MarkPurgeCompleted stamps PurgeResults.PurgeCompleted once a
	// source file's last referencing row has been deleted.
	MarkPurgeCompleted(ctx context.Context, sourceFileID string, when time.Time) error

	// IncrementRecipesDeleted atomically bumps NumRecipesDeleted by one.
	IncrementRecipesDeleted(ctx context.Context, sourceFileID string) error

	// HasVisitedRecipe and MarkRecipeVisited back the cycle-protection
	// fallback: a persisted visited set keyed on (source file, recipe),
	// consulted when the store cannot otherwise guarantee the recipe
	// graph is acyclic.
	HasVisitedRecipe(ctx context.Context, sourceFileID, recipeID string) (bool, error)
	MarkRecipeVisited(ctx context.Context, sourceFileID, recipeID string) error

	// NonRecipeJobsConsuming returns the IDs of jobs that take
	// sourceFileID as input and do not belong to any recipe.
	NonRecipeJobsConsuming(ctx context.Context, sourceFileID string) ([]string, error)

	// NonSupersededRecipesConsuming returns the IDs of non-superseded
	// recipes that take sourceFileID as input.
	NonSupersededRecipesConsuming(ctx context.Context, sourceFileID string) ([]string, error)

	// DeleteIngestsForSourceFile removes every ingest row referencing
	// sourceFileID.
	DeleteIngestsForSourceFile(ctx context.Context, sourceFileID string) error

	// DeleteSourceFile removes the source file row itself.
	DeleteSourceFile(ctx context.Context, sourceFileID string) error

	// Recipe returns recipeID's record, or nil if it has already been
	// deleted (execute() on a message naming it is then a no-op).
	Recipe(ctx context.Context, recipeID string) (*types.Recipe, error)

	// LeafJobIDs returns the IDs of job children of recipeID that have
	// no further descendants: the jobs a purge of this recipe must
	// spawn delete-files work for.
	LeafJobIDs(ctx context.Context, recipeID string) ([]string, error)

	// SubRecipeChildren returns the IDs of sub-recipe children of
	// recipeID.
	SubRecipeChildren(ctx context.Context, recipeID string) ([]string, error)

	// ParentRecipeID returns the recipe that names recipeID as a
	// sub-recipe child, if any.
	ParentRecipeID(ctx context.Context, recipeID string) (parentID string, ok bool, err error)

	// DeleteRecipeNodes removes every RecipeNode row belonging to
	// recipeID.
	DeleteRecipeNodes(ctx context.Context, recipeID string) error

	// DeleteRecipe removes the recipe row itself.
	DeleteRecipe(ctx context.Context, recipeID string) error

	// RecordDeleteFilesJob persists a request to delete a job's output
	// files; the delete-files job itself runs out of process.
	RecordDeleteFilesJob(ctx context.Context, jobID, sourceFileID, triggerID string, purge bool) error

	// SpawnDeleteFilesExecution queues a system JobExecution that
	// actually performs the deletion, returning its execution ID.
	// Calling it twice for the same jobID must not queue a second
	// execution — the delete-files job itself is idempotent, so
	// re-delivery of SpawnDeleteFilesJob must not re-run it.
	SpawnDeleteFilesExecution(ctx context.Context, jobID string) (string, error)
}
