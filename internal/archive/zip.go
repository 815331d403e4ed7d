// Package archive unpacks ground-truth and submission zips into a per-run
// workspace and packs frame directories back into zips.
package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/banshee-data/bev-grader/internal/monitoring"
	"github.com/banshee-data/bev-grader/internal/security"
)

// MaxEntrySize caps the uncompressed size of a single extracted file.
const MaxEntrySize = 512 << 20

// ErrDuplicateEntry is returned when two entries flatten to the same name.
var ErrDuplicateEntry = errors.New("duplicate archive entry")

// Extract unpacks the zip at zipPath into destDir and returns the number of
// files written. Entries are extracted flat: folders inside the archive are
// dropped, so a submission zipped with or without a top-level directory
// yields the same layout.
func Extract(zipPath, destDir string) (int, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", zipPath, err)
	}
	defer zr.Close()
	return extract(&zr.Reader, destDir)
}

// ExtractBytes is Extract for an in-memory archive, such as a decrypted
// ground-truth bundle.
func ExtractBytes(data []byte, destDir string) (int, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("read zip: %w", err)
	}
	return extract(zr, destDir)
}

func extract(zr *zip.Reader, destDir string) (int, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return 0, fmt.Errorf("create %s: %w", destDir, err)
	}

	seen := make(map[string]bool, len(zr.File))
	n := 0
	for _, f := range zr.File {
		name, err := security.FlatEntryName(f.Name)
		if err != nil {
			return n, err
		}
		if name == "" || f.FileInfo().IsDir() {
			continue
		}
		if f.Mode()&os.ModeSymlink != 0 {
			monitoring.Warnf("skipping symlink entry %q", f.Name)
			continue
		}
		if seen[name] {
			return n, fmt.Errorf("%w: %s", ErrDuplicateEntry, name)
		}
		seen[name] = true

		dest := filepath.Join(destDir, name)
		if err := security.ValidatePathWithinDirectory(dest, destDir); err != nil {
			return n, err
		}
		if err := writeEntry(f, dest); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func writeEntry(f *zip.File, dest string) error {
	if f.UncompressedSize64 > MaxEntrySize {
		return fmt.Errorf("entry %s too large: %d bytes", f.Name, f.UncompressedSize64)
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	written, err := io.Copy(out, io.LimitReader(rc, MaxEntrySize+1))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("extract %s: %w", f.Name, err)
	}
	if written > MaxEntrySize {
		return fmt.Errorf("entry %s exceeds %d bytes", f.Name, MaxEntrySize)
	}
	return nil
}

// Pack writes every regular file in srcDir matching pattern into a new zip
// at zipPath, at the archive root and in name order.
func Pack(srcDir, zipPath, pattern string) error {
	matches, err := filepath.Glob(filepath.Join(srcDir, pattern))
	if err != nil {
		return fmt.Errorf("match %s: %w", pattern, err)
	}
	sort.Strings(matches)

	out, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", zipPath, err)
	}
	zw := zip.NewWriter(out)

	for _, p := range matches {
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if err := addFile(zw, p, info); err != nil {
			zw.Close()
			out.Close()
			return err
		}
	}
	if err := zw.Close(); err != nil {
		out.Close()
		return fmt.Errorf("finish %s: %w", zipPath, err)
	}
	return out.Close()
}

func addFile(zw *zip.Writer, path string, info os.FileInfo) error {
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("header for %s: %w", path, err)
	}
	hdr.Name = filepath.Base(path)
	hdr.Method = zip.Deflate

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("add %s: %w", path, err)
	}
	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer in.Close()
	if _, err := io.Copy(w, in); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
