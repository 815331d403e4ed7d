package scoring

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/banshee-data/bev-grader/internal/bev"
	"github.com/banshee-data/bev-grader/internal/bev/boxio"
	"github.com/banshee-data/bev-grader/internal/fsutil"
	"github.com/banshee-data/bev-grader/internal/monitoring"
	"gonum.org/v1/gonum/stat"
)

// FrameStatus records how the submission side of a frame was resolved.
type FrameStatus string

const (
	// FrameComplete: both frame files were read and matched.
	FrameComplete FrameStatus = "complete"
	// FrameMissing: the submission has no file with this name.
	FrameMissing FrameStatus = "missing"
	// FrameMalformed: the submission file exists but could not be parsed.
	FrameMalformed FrameStatus = "malformed"
)

// FramePair associates a ground-truth frame file with the same-named
// submission file. The submission file may not exist.
type FramePair struct {
	Name            string
	GroundTruthPath string
	SubmissionPath  string
}

// FrameScore holds the per-box best-match IOUs for one frame.
type FrameScore struct {
	Name             string      `json:"name"`
	Status           FrameStatus `json:"status"`
	GroundTruthCount int         `json:"gt_count"`
	DetectionCount   int         `json:"det_count"`
	GtToDet          []float64   `json:"gt_to_det"`
	DetToGt          []float64   `json:"det_to_gt"`
}

// MeanGtToDet is the frame-level mean of GtToDet, or 0 for an empty frame.
func (f FrameScore) MeanGtToDet() float64 { return meanOrZero(f.GtToDet) }

// MeanDetToGt is the frame-level mean of DetToGt, or 0 for an empty frame.
func (f FrameScore) MeanDetToGt() float64 { return meanOrZero(f.DetToGt) }

func meanOrZero(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return stat.Mean(x, nil)
}

// ScoreBoxes matches a frame in both directions.
func ScoreBoxes(name string, gt, det []bev.OrientedBox) FrameScore {
	return FrameScore{
		Name:             name,
		Status:           FrameComplete,
		GroundTruthCount: len(gt),
		DetectionCount:   len(det),
		GtToDet:          MatchBest(gt, det),
		DetToGt:          MatchBest(det, gt),
	}
}

// ZeroFrame is the score of a frame whose submission could not be used. Both
// directions get one zero per ground-truth box, so the penalty scales with
// the number of objects in the frame.
func ZeroFrame(name string, status FrameStatus, gtCount int) FrameScore {
	return FrameScore{
		Name:             name,
		Status:           status,
		GroundTruthCount: gtCount,
		GtToDet:          make([]float64, gtCount),
		DetToGt:          make([]float64, gtCount),
	}
}

// ScoreFrame loads one frame pair and scores it.
//
// Ground-truth problems are fatal and returned as a KindMalformedFrame
// EvalError. A missing or unparseable submission file is not an error: the
// frame is scored with ZeroFrame and a warning is logged.
func ScoreFrame(fs fsutil.FileSystem, pair FramePair) (FrameScore, error) {
	gt, err := boxio.ReadFile(fs, pair.GroundTruthPath)
	if err != nil {
		return FrameScore{}, NewError(KindMalformedFrame, pair.GroundTruthPath, err)
	}

	if !fs.Exists(pair.SubmissionPath) {
		monitoring.Warnf("submission frame missing: %s, scoring %d ground-truth boxes as 0", pair.Name, len(gt))
		return ZeroFrame(pair.Name, FrameMissing, len(gt)), nil
	}

	det, err := boxio.ReadFile(fs, pair.SubmissionPath)
	if err != nil {
		reason := "unreadable"
		if errors.Is(err, boxio.ErrRecordSize) {
			reason = "malformed"
		}
		monitoring.Warnf("submission frame %s: %s (%v), scoring %d ground-truth boxes as 0", reason, pair.Name, err, len(gt))
		return ZeroFrame(pair.Name, FrameMalformed, len(gt)), nil
	}

	return ScoreBoxes(pair.Name, gt, det), nil
}

// ListFramePairs enumerates ground-truth frames in gtDir matching pattern,
// sorted by file name, and pairs each with the same name in subDir.
func ListFramePairs(fs fsutil.FileSystem, gtDir, subDir, pattern string) ([]FramePair, error) {
	paths, err := fs.Glob(gtDir, pattern)
	if err != nil {
		return nil, fmt.Errorf("list ground-truth frames in %s: %w", gtDir, err)
	}

	pairs := make([]FramePair, 0, len(paths))
	for _, p := range paths {
		name := filepath.Base(p)
		pairs = append(pairs, FramePair{
			Name:            name,
			GroundTruthPath: p,
			SubmissionPath:  filepath.Join(subDir, name),
		})
	}
	return pairs, nil
}
