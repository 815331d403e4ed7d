// Package security guards the filesystem against untrusted archive contents
// and user-supplied identifiers.
package security

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// ErrUnsafeEntry is returned for archive entry names that could escape the
// extraction directory.
var ErrUnsafeEntry = errors.New("unsafe archive entry")

// ValidatePathWithinDirectory checks that filePath resolves inside dir once
// symlinks are followed. Paths that do not exist yet are checked against their
// nearest existing parent.
func ValidatePathWithinDirectory(filePath, dir string) error {
	absPath, err := filepath.Abs(filepath.Clean(filePath))
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve directory: %w", err)
	}

	canonicalPath := resolveExisting(absPath)
	canonicalDir, err := filepath.EvalSymlinks(absDir)
	if err != nil {
		return fmt.Errorf("resolve directory symlinks: %w", err)
	}

	rel, err := filepath.Rel(canonicalDir, canonicalPath)
	if err != nil {
		return fmt.Errorf("path is outside %s: %w", dir, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("path traversal detected: %s escapes %s", filePath, dir)
	}
	return nil
}

// resolveExisting follows symlinks in the longest existing prefix of p.
func resolveExisting(p string) string {
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		return resolved
	}
	for check := p; ; {
		parent := filepath.Dir(check)
		if parent == check {
			return p
		}
		if resolved, err := filepath.EvalSymlinks(parent); err == nil {
			rel, _ := filepath.Rel(parent, p)
			return filepath.Join(resolved, rel)
		}
		check = parent
	}
}

// FlatEntryName validates a zip entry name and returns the bare file name it
// should be extracted to. Archives are extracted flat, so directory entries
// return "" with no error and any leading folders are dropped.
//
// Absolute names, drive letters and any ".." component are rejected even
// though the result is flattened: an archive containing them is not one the
// grader produced or expects.
func FlatEntryName(name string) (string, error) {
	n := strings.ReplaceAll(name, `\`, "/")
	if n == "" {
		return "", fmt.Errorf("%w: empty name", ErrUnsafeEntry)
	}
	if strings.HasPrefix(n, "/") || (len(n) >= 2 && n[1] == ':') {
		return "", fmt.Errorf("%w: absolute name %q", ErrUnsafeEntry, name)
	}
	for _, part := range strings.Split(n, "/") {
		if part == ".." {
			return "", fmt.Errorf("%w: parent reference in %q", ErrUnsafeEntry, name)
		}
	}
	if strings.HasSuffix(n, "/") {
		return "", nil
	}
	base := path.Base(n)
	if base == "." || base == "/" {
		return "", nil
	}
	return base, nil
}

// SanitizeFilename makes a safe file name from an arbitrary string such as a
// team or method label. Characters other than ASCII letters, digits, dot,
// underscore and dash become a single underscore; the result is capped at 128
// bytes.
func SanitizeFilename(s string) string {
	if s == "" {
		return "unknown"
	}
	var b strings.Builder
	const maxLen = 128
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxLen {
			break
		}
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'),
			r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}
