package purge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ctc-oss/foreman/pkg/message"
)

// SpawnDeleteFilesJobType is this message's wire type tag.
const SpawnDeleteFilesJobType = "spawn_delete_files_job"

// SpawnDeleteFilesJob requests that a job's output files be deleted: it
// records the request against PurgeResults so the cascade can be
// accounted for, then queues the system JobExecution that actually
// performs the deletion through the normal job-execution engine
// (C1-C4), the same way any other job is run.
type SpawnDeleteFilesJob struct {
	JobID        string `json:"job_id"`
	TriggerID    string `json:"trigger_id"`
	SourceFileID string `json:"source_file_id"`
	Purge        bool   `json:"purge"`

	Store Store
}

// NewSpawnDeleteFilesJob constructs the message.
func NewSpawnDeleteFilesJob(store Store, jobID, triggerID, sourceFileID string, purge bool) *SpawnDeleteFilesJob {
	return &SpawnDeleteFilesJob{
		JobID:        jobID,
		TriggerID:    triggerID,
		SourceFileID: sourceFileID,
		Purge:        purge,
		Store:        store,
	}
}

func (m *SpawnDeleteFilesJob) Type() string { return SpawnDeleteFilesJobType }

func (m *SpawnDeleteFilesJob) ToJSON() ([]byte, error) { return json.Marshal(m) }

// Execute records the delete-files request and queues its execution. It
// is idempotent: recording the same request twice is harmless
// bookkeeping, and SpawnDeleteFilesExecution must not queue a second
// execution for a jobID it has already queued one for.
func (m *SpawnDeleteFilesJob) Execute(ctx context.Context) (bool, []message.Message, error) {
	if err := m.Store.RecordDeleteFilesJob(ctx, m.JobID, m.SourceFileID, m.TriggerID, m.Purge); err != nil {
		return false, nil, fmt.Errorf("purge: record delete-files job for job %s: %w", m.JobID, err)
	}
	if _, err := m.Store.SpawnDeleteFilesExecution(ctx, m.JobID); err != nil {
		return false, nil, fmt.Errorf("purge: queue delete-files execution for job %s: %w", m.JobID, err)
	}
	return true, nil, nil
}

// decodeSpawnDeleteFilesJob reconstructs a SpawnDeleteFilesJob from its
// JSON payload. The store is bound after decoding, by the registry
// wiring in Register.
func decodeSpawnDeleteFilesJob(payload []byte) (*SpawnDeleteFilesJob, error) {
	var m SpawnDeleteFilesJob
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
