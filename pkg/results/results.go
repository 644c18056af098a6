package results

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/ctc-oss/foreman/pkg/log"
	"github.com/ctc-oss/foreman/pkg/types"
)

// MetadataSuffix names the side-car file captured alongside a matched
// output file, holding the geojson and provenance properties lifted
// onto its ProductFileMetadata.
const MetadataSuffix = ".metadata.json"

// OutputsJSONFile is the well-known file a task writes its output JSON
// properties to, relative to its output directory.
const OutputsJSONFile = "seed.outputs.json"

// Aggregator runs the three post-execution passes described in §4.3:
// capture output files, capture output JSON, store the captured files.
type Aggregator struct {
	Files      DataFileStore
	Workspaces WorkspaceResolver
}

// New constructs an Aggregator. Files may be nil, in which case the
// process-wide registry is consulted at store time.
func New(files DataFileStore, workspaces WorkspaceResolver) *Aggregator {
	return &Aggregator{Files: files, Workspaces: workspaces}
}

// PerformPostSteps captures a completed task's declared output files and
// JSON properties from outputDir, stores the files, and returns the
// resulting JobResults document.
func (a *Aggregator) PerformPostSteps(ctx context.Context, outputFiles []OutputFileSpec, outputJSON []OutputJSONSpec, outputDir string, inputFileIDs []string) (*types.JobResults, error) {
	captured, err := a.captureOutputFiles(outputFiles, outputDir)
	if err != nil {
		return nil, err
	}

	out := types.NewJobResults()
	a.captureOutputJSON(out, outputJSON, outputDir)

	if err := a.storeOutputDataFiles(ctx, out, captured, inputFileIDs); err != nil {
		return nil, err
	}
	return out, nil
}

// captureOutputFiles evaluates each spec's glob pattern against
// outputDir and builds a ProductFileMetadata per matched file, lifting
// any side-car metadata it finds alongside it. A malformed side-car is
// logged and skipped, never fatal to the capture.
func (a *Aggregator) captureOutputFiles(specs []OutputFileSpec, outputDir string) (map[string][]ProductFile, error) {
	captured := make(map[string][]ProductFile, len(specs))
	logger := log.WithComponent("results")

	for _, spec := range specs {
		matches, err := filepath.Glob(filepath.Join(outputDir, spec.Pattern))
		if err != nil {
			return nil, fmt.Errorf("results: evaluate pattern %q for %q: %w", spec.Pattern, spec.Name, err)
		}
		sort.Strings(matches)

		files := make([]ProductFile, 0, len(matches))
		for _, matched := range matches {
			logger.Info().Str("output_name", spec.Name).Str("path", matched).Msg("file detected for output capture")

			meta := types.ProductFileMetadata{
				ParameterName: spec.Name,
				LocalPath:     matched,
				MediaType:     spec.MediaType,
			}

			sidecar := matched + MetadataSuffix
			if body, err := os.ReadFile(sidecar); err == nil {
				logger.Info().Str("sidecar", sidecar).Msg("capturing metadata from detected side-car file")
				if err := applySidecarMetadata(&meta, body); err != nil {
					logger.Warn().Err(err).Str("sidecar", sidecar).Msg("discarding malformed side-car metadata")
				}
			} else if !os.IsNotExist(err) {
				logger.Warn().Err(err).Str("sidecar", sidecar).Msg("could not read side-car metadata")
			}

			files = append(files, ProductFile{LocalPath: matched, Metadata: meta})
		}
		captured[spec.Name] = files
	}

	return captured, nil
}

// sidecarDoc mirrors the subset of the Seed metadata schema the
// aggregator reads: a geojson document whose properties carry the
// provenance fields lifted onto ProductFileMetadata.
type sidecarDoc struct {
	Properties struct {
		DataStarted       *time.Time `json:"dataStarted"`
		DataEnded         *time.Time `json:"dataEnded"`
		SourceStarted     *time.Time `json:"sourceStarted"`
		SourceEnded       *time.Time `json:"sourceEnded"`
		SourceSensorClass string     `json:"sourceSensorClass"`
		SourceSensor      string     `json:"sourceSensor"`
		SourceCollection  string     `json:"sourceCollection"`
		SourceTask        string     `json:"sourceTask"`
	} `json:"properties"`
}

func applySidecarMetadata(meta *types.ProductFileMetadata, body []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return fmt.Errorf("parse side-car json: %w", err)
	}

	var doc sidecarDoc
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("parse side-car properties: %w", err)
	}

	meta.GeoJSON = raw
	meta.DataStart = doc.Properties.DataStarted
	meta.DataEnd = doc.Properties.DataEnded
	meta.SourceStart = doc.Properties.SourceStarted
	meta.SourceEnd = doc.Properties.SourceEnded
	meta.SourceSensor = doc.Properties.SourceSensor
	meta.SourceSensorClass = doc.Properties.SourceSensorClass
	meta.SourceCollection = doc.Properties.SourceCollection
	meta.SourceTask = doc.Properties.SourceTask
	return nil
}

// captureOutputJSON reads OutputsJSONFile from outputDir and lifts each
// declared key into the results document. A missing file is expected
// when a job declares no JSON outputs and is logged, not an error.
func (a *Aggregator) captureOutputJSON(out *types.JobResults, specs []OutputJSONSpec, outputDir string) {
	if len(specs) == 0 {
		return
	}

	path := filepath.Join(outputDir, OutputsJSONFile)
	body, err := os.ReadFile(path)
	if err != nil {
		log.WithComponent("results").Warn().Str("path", path).Msg("no seed.outputs.json file found to process")
		return
	}

	var values map[string]interface{}
	if err := json.Unmarshal(body, &values); err != nil {
		log.WithComponent("results").Warn().Err(err).Str("path", path).Msg("malformed seed.outputs.json, skipping")
		return
	}

	for _, spec := range specs {
		if v, ok := values[spec.Key]; ok {
			AddOutputJSON(out, spec.Name, v)
		}
	}
}

// storeOutputDataFiles groups captured files by workspace, hands them to
// the DataFileStore, and records the returned file IDs against each
// output parameter name.
func (a *Aggregator) storeOutputDataFiles(ctx context.Context, out *types.JobResults, captured map[string][]ProductFile, inputFileIDs []string) error {
	if len(captured) == 0 {
		return nil
	}

	byWorkspace := make(map[string][]ProductFile)
	paramByPath := make(map[string]string)

	for name, files := range captured {
		workspace, err := a.Workspaces.WorkspaceFor(name)
		if err != nil {
			return fmt.Errorf("results: resolve workspace for %q: %w", name, err)
		}
		for _, f := range files {
			if _, err := os.Stat(f.LocalPath); err != nil {
				return fmt.Errorf("results: %s is not a valid file: %w", f.LocalPath, err)
			}
			paramByPath[f.LocalPath] = name
			byWorkspace[workspace] = append(byWorkspace[workspace], f)
		}
	}

	store := a.Files
	if store == nil {
		var err error
		store, err = RegisteredDataFileStore()
		if err != nil {
			return fmt.Errorf("results: %w", err)
		}
	}

	stored, err := store.StoreFiles(ctx, byWorkspace, inputFileIDs)
	if err != nil {
		return fmt.Errorf("results: store output files: %w", err)
	}

	paramFileIDs := make(map[string][]string)
	for path, fileID := range stored {
		name := paramByPath[path]
		paramFileIDs[name] = append(paramFileIDs[name], fileID)
	}
	for name, ids := range paramFileIDs {
		sort.Strings(ids)
		AddFileListParameter(out, name, ids)
	}
	return nil
}

// AddFileParameter records a single file as an output parameter's value.
func AddFileParameter(r *types.JobResults, name, fileID string) {
	r.Files[name] = []string{fileID}
}

// AddFileListParameter records a list of files as an output parameter's
// value.
func AddFileListParameter(r *types.JobResults, name string, fileIDs []string) {
	r.Files[name] = append([]string{}, fileIDs...)
}

// AddOutputJSON records a captured JSON property under its output name.
func AddOutputJSON(r *types.JobResults, name string, value interface{}) {
	r.JSON[name] = value
}

// AddOutputToData threads a completed job's output into a downstream
// job's input: a single captured file becomes a scalar file input, more
// than one becomes a file-list input.
func AddOutputToData(r *types.JobResults, outputName string, sink JobDataSink, inputName string) error {
	output, ok := r.Files[outputName]
	if !ok {
		return fmt.Errorf("results: no output named %q in job results", outputName)
	}
	if len(output) == 1 {
		sink.AddFileInput(inputName, output[0])
	} else {
		sink.AddFileListInput(inputName, output)
	}
	return nil
}
