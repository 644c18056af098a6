package results

import (
	"context"
	"errors"
	"sync"

	"github.com/ctc-oss/foreman/pkg/types"
)

// OutputFileSpec names one of a job's declared output file patterns: a
// glob evaluated against the task's output directory, a media type, and
// the output parameter name the matched files are captured under.
type OutputFileSpec struct {
	Name      string
	Pattern   string
	MediaType string
}

// OutputJSONSpec names one of a job's declared output JSON properties,
// captured from the seed.outputs.json file written to the output
// directory.
type OutputJSONSpec struct {
	Name string
	Key  string
}

// ProductFile pairs a locally captured output file with the metadata
// lifted from its side-car, ready to hand to a DataFileStore.
type ProductFile struct {
	LocalPath string
	Metadata  types.ProductFileMetadata
}

// DataFileStore persists captured output files into permanent storage,
// grouped by the workspace each was assigned to, and returns the
// permanent file ID each local path was stored as.
type DataFileStore interface {
	StoreFiles(ctx context.Context, byWorkspace map[string][]ProductFile, inputFileIDs []string) (map[string]string, error)
}

// WorkspaceResolver resolves which workspace an output parameter's files
// should be stored under.
type WorkspaceResolver interface {
	WorkspaceFor(paramName string) (string, error)
}

// JobDataSink receives an output threaded into a downstream job's input
// by AddOutputToData. The job-data model itself is out of scope here;
// this is the narrow slice of it C4 needs.
type JobDataSink interface {
	AddFileInput(inputName, fileID string)
	AddFileListInput(inputName string, fileIDs []string)
}

var (
	registryMu sync.RWMutex
	registry   DataFileStore
)

// RegisterDataFileStore installs the process-wide DataFileStore used by
// Aggregators constructed without one. This is the one sanctioned
// package-level registry the design calls for (the source system's
// DATA_FILE_STORE lookup); every other collaborator is injected.
func RegisterDataFileStore(store DataFileStore) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = store
}

// RegisteredDataFileStore returns the process-wide DataFileStore, or an
// error if none has been registered.
func RegisteredDataFileStore() (DataFileStore, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	if registry == nil {
		return nil, errors.New("results: no data file store found")
	}
	return registry, nil
}
