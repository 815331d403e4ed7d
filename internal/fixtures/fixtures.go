// Package fixtures derives a synthetic submission from a ground-truth
// dataset. The perturbations exercise every scoring path at once: shrunken
// boxes give partial overlaps, dropped boxes give unmatched ground truth, the
// synthetic box is a false positive, and the omitted last frame is scored as
// missing.
package fixtures

import (
	"fmt"
	"path/filepath"

	"github.com/banshee-data/bev-grader/internal/bev"
	"github.com/banshee-data/bev-grader/internal/bev/boxio"
	"github.com/banshee-data/bev-grader/internal/config"
	"github.com/banshee-data/bev-grader/internal/fsutil"
	"github.com/banshee-data/bev-grader/internal/monitoring"
)

const (
	// LengthScale is applied to every box's DX.
	LengthScale = 0.8
	// DroppedBoxes is how many trailing boxes are removed per frame.
	DroppedBoxes = 2
)

// syntheticRecord is the raw field vector of the injected false positive.
var syntheticRecord = [boxio.FieldCount]float32{10, 500, 5, 8, 4, 2, 0, 0}

// SyntheticBox returns the false-positive box appended to each frame.
func SyntheticBox() bev.OrientedBox {
	return boxio.FromFields(syntheticRecord)
}

// Perturb returns a perturbed copy of boxes: DX scaled by LengthScale, the
// last DroppedBoxes boxes removed, SyntheticBox appended. The input is not
// modified.
func Perturb(boxes []bev.OrientedBox) []bev.OrientedBox {
	keep := len(boxes) - DroppedBoxes
	if keep < 0 {
		keep = 0
	}
	out := make([]bev.OrientedBox, 0, keep+1)
	for _, b := range boxes[:keep] {
		b.DX *= LengthScale
		out = append(out, b)
	}
	return append(out, SyntheticBox())
}

// GenerateDir perturbs every ground-truth frame in srcDir into dstDir, except
// the last one in name order, which is left out. It returns the number of
// frames written.
func GenerateDir(fs fsutil.FileSystem, srcDir, dstDir string) (int, error) {
	paths, err := fs.Glob(srcDir, config.DefaultFrameGlob)
	if err != nil {
		return 0, fmt.Errorf("list frames in %s: %w", srcDir, err)
	}
	if len(paths) == 0 {
		return 0, fmt.Errorf("no frames in %s", srcDir)
	}
	if err := fs.MkdirAll(dstDir, 0o755); err != nil {
		return 0, fmt.Errorf("create %s: %w", dstDir, err)
	}

	written := 0
	for _, p := range paths[:len(paths)-1] {
		boxes, err := boxio.ReadFile(fs, p)
		if err != nil {
			return written, err
		}
		out := filepath.Join(dstDir, filepath.Base(p))
		if err := boxio.WriteFile(fs, out, Perturb(boxes)); err != nil {
			return written, fmt.Errorf("write %s: %w", out, err)
		}
		written++
	}
	monitoring.Infof("generated %d perturbed frames in %s (omitted %s)", written, dstDir, filepath.Base(paths[len(paths)-1]))
	return written, nil
}
