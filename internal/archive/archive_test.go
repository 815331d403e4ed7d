package archive

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/banshee-data/bev-grader/internal/fsutil"
	"github.com/banshee-data/bev-grader/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_Flat(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "sub.zip")
	testutil.WriteZip(t, zipPath, map[string][]byte{
		"submission/":           nil,
		"submission/000001.bin": []byte("one"),
		"000002.bin":            []byte("two"),
	})

	dest := filepath.Join(dir, "out")
	n, err := Extract(zipPath, dest)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	data, err := os.ReadFile(filepath.Join(dest, "000001.bin"))
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))
	assert.FileExists(t, filepath.Join(dest, "000002.bin"))
	assert.NoDirExists(t, filepath.Join(dest, "submission"))
}

func TestExtract_RejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "evil.zip")
	testutil.WriteZip(t, zipPath, map[string][]byte{"../../escape.bin": []byte("x")})

	_, err := Extract(zipPath, filepath.Join(dir, "out"))
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "escape.bin"))
}

func TestExtract_DuplicateAfterFlattening(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "dup.zip")
	testutil.WriteZip(t, zipPath, map[string][]byte{
		"a/000001.bin": []byte("a"),
		"b/000001.bin": []byte("b"),
	})

	_, err := Extract(zipPath, filepath.Join(dir, "out"))
	assert.True(t, errors.Is(err, ErrDuplicateEntry), "got %v", err)
}

func TestExtract_NotAZip(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "junk.zip")
	require.NoError(t, os.WriteFile(p, []byte("definitely not a zip"), 0o644))

	_, err := Extract(p, filepath.Join(dir, "out"))
	assert.Error(t, err)

	_, err = ExtractBytes([]byte("nope"), filepath.Join(dir, "out"))
	assert.Error(t, err)
}

func TestPackThenExtractBytes(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "frames")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "nested.bin"), 0o755))
	for _, name := range []string{"000002.bin", "000001.bin", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(src, name), []byte(name), 0o644))
	}

	zipPath := filepath.Join(dir, "frames.zip")
	require.NoError(t, Pack(src, zipPath, "*.bin"))

	data, err := os.ReadFile(zipPath)
	require.NoError(t, err)
	dest := filepath.Join(dir, "out")
	n, err := ExtractBytes(data, dest)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := os.ReadFile(filepath.Join(dest, "000002.bin"))
	require.NoError(t, err)
	assert.Equal(t, "000002.bin", string(got))
	assert.NoFileExists(t, filepath.Join(dest, "notes.txt"))
}

func TestWorkspace(t *testing.T) {
	root := t.TempDir()

	ws, err := NewWorkspace(root, "")
	require.NoError(t, err)
	assert.NotEmpty(t, ws.RunID)

	gt, err := ws.Dir("gt")
	require.NoError(t, err)
	assert.DirExists(t, gt)
	assert.Equal(t, ws.Root, filepath.Dir(gt))

	require.NoError(t, ws.Close())
	assert.NoDirExists(t, ws.Root)
	require.NoError(t, ws.Close())
}

func TestWorkspace_DistinctRuns(t *testing.T) {
	root := t.TempDir()
	a, err := NewWorkspace(root, "")
	require.NoError(t, err)
	b, err := NewWorkspace(root, "")
	require.NoError(t, err)
	defer a.Close()
	defer b.Close()

	assert.NotEqual(t, a.Root, b.Root)
}

func TestWorkspace_Keep(t *testing.T) {
	ws, err := NewWorkspace(t.TempDir(), "run/../1")
	require.NoError(t, err)
	assert.Equal(t, "run/../1", ws.RunID)
	assert.NotContains(t, filepath.Base(ws.Root), "/")

	ws.Keep()
	require.NoError(t, ws.Close())
	assert.DirExists(t, ws.Root)
}

func TestWorkspace_ReusedRunIDRejected(t *testing.T) {
	root := t.TempDir()
	first, err := NewWorkspace(root, "same")
	require.NoError(t, err)
	first.Keep()
	require.NoError(t, first.Close())

	_, err = NewWorkspace(root, "same")
	assert.True(t, errors.Is(err, ErrWorkspaceExists), "got %v", err)
	assert.DirExists(t, first.Root, "earlier workspace must be left alone")
}

func TestWorkspace_MemoryFS(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	ws, err := NewWorkspaceFS(fsys, "/work", "run-1")
	require.NoError(t, err)
	assert.Equal(t, "/work/grader-run-1", ws.Root)

	sub, err := ws.Dir("submission")
	require.NoError(t, err)
	require.NoError(t, fsys.WriteFile(filepath.Join(sub, "000001.bin"), []byte("x"), 0o644))

	_, err = NewWorkspaceFS(fsys, "/work", "run-1")
	assert.True(t, errors.Is(err, ErrWorkspaceExists), "got %v", err)

	require.NoError(t, ws.Close())
	assert.False(t, fsys.Exists(ws.Root))
	assert.False(t, fsys.Exists(filepath.Join(sub, "000001.bin")))
}
