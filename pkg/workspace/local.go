package workspace

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ctc-oss/foreman/pkg/results"
	"github.com/google/uuid"
)

// DefaultBasePath is the base directory for locally stored product files.
const DefaultBasePath = "/var/lib/foreman/workspaces"

// LocalStore implements results.DataFileStore and results.WorkspaceResolver
// over a plain directory tree: one subdirectory per workspace, one file per
// stored product.
type LocalStore struct {
	basePath   string
	workspaces map[string]string
}

// NewLocalStore creates a local store rooted at basePath, using the given
// output-parameter-name to workspace-name mapping. An empty basePath
// defaults to DefaultBasePath.
func NewLocalStore(basePath string, workspaces map[string]string) (*LocalStore, error) {
	if basePath == "" {
		basePath = DefaultBasePath
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("workspace: create base directory: %w", err)
	}
	return &LocalStore{basePath: basePath, workspaces: workspaces}, nil
}

// WorkspaceFor resolves the workspace an output parameter's files should be
// stored under, defaulting to a workspace named after the parameter.
func (s *LocalStore) WorkspaceFor(paramName string) (string, error) {
	if ws, ok := s.workspaces[paramName]; ok {
		return ws, nil
	}
	return paramName, nil
}

// GetPath returns the host directory a workspace's files live under.
func (s *LocalStore) GetPath(workspace string) string {
	return filepath.Join(s.basePath, workspace)
}

// StoreFiles copies every captured product file into its workspace
// directory under a freshly generated file ID, and returns the file ID
// each local path was stored as. inputFileIDs is accepted for interface
// compatibility but unused: this store does not deduplicate against
// upstream inputs.
func (s *LocalStore) StoreFiles(_ context.Context, byWorkspace map[string][]results.ProductFile, _ []string) (map[string]string, error) {
	stored := make(map[string]string)

	for workspace, files := range byWorkspace {
		dir := s.GetPath(workspace)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("workspace: create workspace directory %q: %w", workspace, err)
		}

		for _, f := range files {
			fileID := uuid.New().String()
			dest := filepath.Join(dir, fileID)
			if err := copyFile(f.LocalPath, dest); err != nil {
				return nil, fmt.Errorf("workspace: store %s: %w", f.LocalPath, err)
			}
			stored[f.LocalPath] = fileID
		}
	}

	return stored, nil
}

// Delete removes every file stored for a workspace.
func (s *LocalStore) Delete(workspace string) error {
	path := s.GetPath(workspace)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return os.RemoveAll(path)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
