package purge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ctc-oss/foreman/pkg/log"
	"github.com/ctc-oss/foreman/pkg/message"
)

// PurgeRecipeType is this message's wire type tag.
const PurgeRecipeType = "purge_recipe"

// PurgeRecipe purges one recipe within a source file's cascade: it
// spawns delete-files work for the recipe's leaf jobs, propagates the
// cascade to any superseded predecessor, parent recipe, and sub-recipe
// children, and deletes the recipe's own rows once it has no leaf jobs
// left to wait on.
type PurgeRecipe struct {
	RecipeID     string `json:"recipe_id"`
	TriggerID    string `json:"trigger_id"`
	SourceFileID string `json:"source_file_id"`

	Store Store
}

// NewPurgeRecipe constructs the message.
func NewPurgeRecipe(store Store, recipeID, triggerID, sourceFileID string) *PurgeRecipe {
	return &PurgeRecipe{RecipeID: recipeID, TriggerID: triggerID, SourceFileID: sourceFileID, Store: store}
}

func (m *PurgeRecipe) Type() string { return PurgeRecipeType }

func (m *PurgeRecipe) ToJSON() ([]byte, error) { return json.Marshal(m) }

// Execute implements spec §4.7's PurgeRecipe steps.
func (m *PurgeRecipe) Execute(ctx context.Context) (bool, []message.Message, error) {
	results, err := m.Store.PurgeResults(ctx, m.SourceFileID)
	if err != nil {
		return false, nil, fmt.Errorf("purge: resolve purge results for %s: %w", m.SourceFileID, err)
	}
	if results.ForceStop {
		return true, nil, nil
	}

	visited, err := m.Store.HasVisitedRecipe(ctx, m.SourceFileID, m.RecipeID)
	if err != nil {
		return false, nil, fmt.Errorf("purge: check visited recipe %s: %w", m.RecipeID, err)
	}
	if visited {
		return true, nil, nil
	}

	recipe, err := m.Store.Recipe(ctx, m.RecipeID)
	if err != nil {
		return false, nil, fmt.Errorf("purge: resolve recipe %s: %w", m.RecipeID, err)
	}
	if recipe == nil {
		// Already purged by a previous, possibly concurrent delivery.
		return true, nil, nil
	}

	if err := m.Store.MarkRecipeVisited(ctx, m.SourceFileID, m.RecipeID); err != nil {
		return false, nil, fmt.Errorf("purge: mark recipe %s visited: %w", m.RecipeID, err)
	}

	leafJobIDs, err := m.Store.LeafJobIDs(ctx, m.RecipeID)
	if err != nil {
		return false, nil, fmt.Errorf("purge: resolve leaf jobs for recipe %s: %w", m.RecipeID, err)
	}

	var newMessages []message.Message
	for _, jobID := range leafJobIDs {
		newMessages = append(newMessages, NewSpawnDeleteFilesJob(m.Store, jobID, m.TriggerID, m.SourceFileID, true))
	}

	if recipe.Supersedes != "" {
		newMessages = append(newMessages, NewPurgeRecipe(m.Store, recipe.Supersedes, m.TriggerID, m.SourceFileID))
	}

	if parentID, ok, err := m.Store.ParentRecipeID(ctx, m.RecipeID); err != nil {
		return false, nil, fmt.Errorf("purge: resolve parent of recipe %s: %w", m.RecipeID, err)
	} else if ok {
		newMessages = append(newMessages, NewPurgeRecipe(m.Store, parentID, m.TriggerID, m.SourceFileID))
	}

	children, err := m.Store.SubRecipeChildren(ctx, m.RecipeID)
	if err != nil {
		return false, nil, fmt.Errorf("purge: resolve sub-recipe children of recipe %s: %w", m.RecipeID, err)
	}
	for _, childID := range children {
		newMessages = append(newMessages, NewPurgeRecipe(m.Store, childID, m.TriggerID, m.SourceFileID))
	}

	// The recipe's own rows are only removed once it has no leaf jobs
	// still pending deletion; a later re-delivery, after those jobs'
	// nodes are gone, finds an empty leaf set and completes the delete.
	if len(leafJobIDs) == 0 {
		if err := m.Store.DeleteRecipeNodes(ctx, m.RecipeID); err != nil {
			return false, nil, fmt.Errorf("purge: delete recipe nodes for %s: %w", m.RecipeID, err)
		}
		if err := m.Store.DeleteRecipe(ctx, m.RecipeID); err != nil {
			return false, nil, fmt.Errorf("purge: delete recipe %s: %w", m.RecipeID, err)
		}
		if err := m.Store.IncrementRecipesDeleted(ctx, m.SourceFileID); err != nil {
			return false, nil, fmt.Errorf("purge: increment recipes deleted for %s: %w", m.SourceFileID, err)
		}
		log.WithRecipeID(m.RecipeID).Info().Str("source_file_id", m.SourceFileID).Msg("recipe purged")
	}

	return true, newMessages, nil
}

func decodePurgeRecipe(payload []byte) (*PurgeRecipe, error) {
	var m PurgeRecipe
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
