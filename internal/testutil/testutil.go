// Package testutil provides shared test helpers for building frame files and
// submission archives.
package testutil

import (
	"archive/zip"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/banshee-data/bev-grader/internal/bev"
	"github.com/banshee-data/bev-grader/internal/bev/boxio"
	"github.com/banshee-data/bev-grader/internal/fsutil"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// Box is shorthand for a ground-plane box with unit height at z=0.
func Box(x, y, dx, dy, heading float32) bev.OrientedBox {
	return bev.OrientedBox{X: x, Y: y, DX: dx, DY: dy, DZ: 1, Heading: heading}
}

// WriteFrame encodes boxes to path on fs, failing the test on error.
func WriteFrame(t testing.TB, fs fsutil.FileSystem, path string, boxes ...bev.OrientedBox) {
	t.Helper()
	if err := boxio.WriteFile(fs, path, boxes); err != nil {
		t.Fatalf("write frame %s: %v", path, err)
	}
}

// Dataset maps frame file names to their boxes.
type Dataset map[string][]bev.OrientedBox

// Files encodes every frame of the dataset.
func (d Dataset) Files() map[string][]byte {
	out := make(map[string][]byte, len(d))
	for name, boxes := range d {
		out[name] = boxio.Encode(boxes)
	}
	return out
}

// WriteZip writes a zip archive at path containing files, in name order.
func WriteZip(t testing.TB, path string, files map[string][]byte) {
	t.Helper()

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip entry %s: %v", name, err)
		}
		if _, err := w.Write(files[name]); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip %s: %v", path, err)
	}
}
