package archive

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/banshee-data/bev-grader/internal/fsutil"
	"github.com/banshee-data/bev-grader/internal/monitoring"
	"github.com/banshee-data/bev-grader/internal/security"
	"github.com/google/uuid"
)

// ErrWorkspaceExists is returned when a run ID's workspace is already on
// disk, either kept from an earlier run or held by a concurrent one.
var ErrWorkspaceExists = errors.New("workspace already exists")

// Workspace is a private directory tree for one evaluation run. The tree is
// claimed exclusively, so two runs never share or remove each other's files.
type Workspace struct {
	Root  string
	RunID string
	fs    fsutil.FileSystem
	keep  bool
}

// NewWorkspace creates <root>/grader-<runID> on the OS filesystem. An empty
// runID gets a fresh UUID.
func NewWorkspace(root, runID string) (*Workspace, error) {
	return NewWorkspaceFS(fsutil.OSFileSystem{}, root, runID)
}

// NewWorkspaceFS is NewWorkspace on an arbitrary filesystem.
func NewWorkspaceFS(fsys fsutil.FileSystem, root, runID string) (*Workspace, error) {
	if runID == "" {
		runID = uuid.New().String()
	}
	if err := fsys.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create work root: %w", err)
	}
	dir := filepath.Join(root, "grader-"+security.SanitizeFilename(runID))
	if err := fsys.Mkdir(dir, 0o700); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: %s (run ID %q reused)", ErrWorkspaceExists, dir, runID)
		}
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{Root: dir, RunID: runID, fs: fsys}, nil
}

// Dir returns (and creates) a named subdirectory such as "gt" or "submission".
func (w *Workspace) Dir(name string) (string, error) {
	d := filepath.Join(w.Root, security.SanitizeFilename(name))
	if err := w.fs.MkdirAll(d, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", d, err)
	}
	return d, nil
}

// Keep makes Close leave the tree in place for inspection.
func (w *Workspace) Keep() { w.keep = true }

// Close removes the workspace unless Keep was called. It is safe to call
// more than once.
func (w *Workspace) Close() error {
	if w.keep {
		monitoring.Infof("keeping workspace %s", w.Root)
		return nil
	}
	if err := w.fs.RemoveAll(w.Root); err != nil {
		return fmt.Errorf("remove workspace: %w", err)
	}
	return nil
}
