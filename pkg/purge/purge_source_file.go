package purge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ctc-oss/foreman/pkg/log"
	"github.com/ctc-oss/foreman/pkg/message"
)

// PurgeSourceFileType is this message's wire type tag.
const PurgeSourceFileType = "purge_source_file"

// PurgeSourceFile starts a purge cascade for one source file: every job
// and recipe that consumes it is purged before the source file's own
// rows are removed.
type PurgeSourceFile struct {
	SourceFileID string `json:"source_file_id"`
	TriggerID    string `json:"trigger_id"`

	Store Store
}

// NewPurgeSourceFile constructs the message.
func NewPurgeSourceFile(store Store, sourceFileID, triggerID string) *PurgeSourceFile {
	return &PurgeSourceFile{SourceFileID: sourceFileID, TriggerID: triggerID, Store: store}
}

func (m *PurgeSourceFile) Type() string { return PurgeSourceFileType }

func (m *PurgeSourceFile) ToJSON() ([]byte, error) { return json.Marshal(m) }

// Execute implements spec §4.7's PurgeSourceFile steps.
func (m *PurgeSourceFile) Execute(ctx context.Context) (bool, []message.Message, error) {
	results, err := m.Store.PurgeResults(ctx, m.SourceFileID)
	if err != nil {
		return false, nil, fmt.Errorf("purge: resolve purge results for %s: %w", m.SourceFileID, err)
	}
	if results.ForceStop {
		return true, nil, nil
	}

	jobIDs, err := m.Store.NonRecipeJobsConsuming(ctx, m.SourceFileID)
	if err != nil {
		return false, nil, fmt.Errorf("purge: find non-recipe jobs consuming %s: %w", m.SourceFileID, err)
	}
	recipeIDs, err := m.Store.NonSupersededRecipesConsuming(ctx, m.SourceFileID)
	if err != nil {
		return false, nil, fmt.Errorf("purge: find non-superseded recipes consuming %s: %w", m.SourceFileID, err)
	}

	var newMessages []message.Message
	for _, jobID := range jobIDs {
		newMessages = append(newMessages, NewSpawnDeleteFilesJob(m.Store, jobID, m.TriggerID, m.SourceFileID, true))
	}
	for _, recipeID := range recipeIDs {
		newMessages = append(newMessages, NewPurgeRecipe(m.Store, recipeID, m.TriggerID, m.SourceFileID))
	}

	if len(jobIDs) == 0 && len(recipeIDs) == 0 {
		if err := m.Store.DeleteIngestsForSourceFile(ctx, m.SourceFileID); err != nil {
			return false, nil, fmt.Errorf("purge: delete ingests for %s: %w", m.SourceFileID, err)
		}
		if err := m.Store.DeleteSourceFile(ctx, m.SourceFileID); err != nil {
			return false, nil, fmt.Errorf("purge: delete source file %s: %w", m.SourceFileID, err)
		}
		if err := m.Store.MarkPurgeCompleted(ctx, m.SourceFileID, time.Now()); err != nil {
			return false, nil, fmt.Errorf("purge: mark purge completed for %s: %w", m.SourceFileID, err)
		}
		log.WithSourceFileID(m.SourceFileID).Info().Msg("source file purge completed")
	}

	return true, newMessages, nil
}

func decodePurgeSourceFile(payload []byte) (*PurgeSourceFile, error) {
	var m PurgeSourceFile
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
