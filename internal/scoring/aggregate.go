package scoring

import (
	"context"

	"github.com/banshee-data/bev-grader/internal/fsutil"
	"github.com/banshee-data/bev-grader/internal/monitoring"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// Accumulator collects per-box scores across all frames of a run. It is
// append-only; Finalize consumes it once at the end of the run.
type Accumulator struct {
	gtToDet []float64
	detToGt []float64
	frames  []FrameScore
}

// Add appends one frame's scores to both pools.
func (a *Accumulator) Add(f FrameScore) {
	a.gtToDet = append(a.gtToDet, f.GtToDet...)
	a.detToGt = append(a.detToGt, f.DetToGt...)
	a.frames = append(a.frames, f)
}

// Len returns the number of values in each pool.
func (a *Accumulator) Len() (gtToDet, detToGt int) {
	return len(a.gtToDet), len(a.detToGt)
}

// FinalScore combines the two directional means with equal weight.
func FinalScore(avgGtToDet, avgDetToGt float64) float64 {
	return 0.5*avgGtToDet + 0.5*avgDetToGt
}

// Summary is the outcome of scoring a dataset.
type Summary struct {
	AvgGtToDet       float64      `json:"avg_gt_to_det"`
	AvgDetToGt       float64      `json:"avg_det_to_gt"`
	Score            float64      `json:"avg_xy_iou"`
	FrameCount       int          `json:"frame_count"`
	MissingFrames    int          `json:"missing_frames"`
	MalformedFrames  int          `json:"malformed_frames"`
	GroundTruthBoxes int          `json:"gt_boxes"`
	DetectionBoxes   int          `json:"det_boxes"`
	Frames           []FrameScore `json:"frames,omitempty"`
}

// GtToDetValues returns every per-box gt→det score in frame order.
func (s *Summary) GtToDetValues() []float64 {
	var out []float64
	for _, f := range s.Frames {
		out = append(out, f.GtToDet...)
	}
	return out
}

// DetToGtValues returns every per-box det→gt score in frame order.
func (s *Summary) DetToGtValues() []float64 {
	var out []float64
	for _, f := range s.Frames {
		out = append(out, f.DetToGt...)
	}
	return out
}

// Means returns the two directional means.
//
// With no frames, or no ground-truth boxes at all, the mean is undefined and
// a KindEmptyDataset error is returned. A submission that produced no boxes
// anywhere gets a det→gt mean of 0.
func (a *Accumulator) Means() (avgGtToDet, avgDetToGt float64, err error) {
	if len(a.frames) == 0 {
		return 0, 0, Errorf(KindEmptyDataset, "", "no ground-truth frames")
	}
	if len(a.gtToDet) == 0 {
		return 0, 0, Errorf(KindEmptyDataset, "", "no ground-truth boxes in %d frames", len(a.frames))
	}
	avgGtToDet = stat.Mean(a.gtToDet, nil)
	if len(a.detToGt) > 0 {
		avgDetToGt = stat.Mean(a.detToGt, nil)
	}
	return avgGtToDet, avgDetToGt, nil
}

// Finalize computes the means and the final score, and tallies frame
// statuses and box counts.
func (a *Accumulator) Finalize() (*Summary, error) {
	gtToDet, detToGt, err := a.Means()
	if err != nil {
		return nil, err
	}

	s := &Summary{
		AvgGtToDet: gtToDet,
		AvgDetToGt: detToGt,
		Score:      FinalScore(gtToDet, detToGt),
		FrameCount: len(a.frames),
		Frames:     a.frames,
	}
	for _, f := range a.frames {
		s.GroundTruthBoxes += f.GroundTruthCount
		s.DetectionBoxes += f.DetectionCount
		switch f.Status {
		case FrameMissing:
			s.MissingFrames++
		case FrameMalformed:
			s.MalformedFrames++
		}
	}
	return s, nil
}

// Aggregator scores every frame pair of a dataset.
type Aggregator struct {
	// FS is used to read frame files. Defaults to the OS filesystem.
	FS fsutil.FileSystem
	// Workers > 1 scores frames concurrently. Results are merged in frame
	// order, so the outcome is identical to a sequential run.
	Workers int
}

func (ag *Aggregator) fs() fsutil.FileSystem {
	if ag.FS == nil {
		return fsutil.OSFileSystem{}
	}
	return ag.FS
}

// Run scores all pairs and returns the dataset summary. Pairs are expected
// in file-name order (see ListFramePairs).
func (ag *Aggregator) Run(ctx context.Context, pairs []FramePair) (*Summary, error) {
	scores, err := ag.scoreAll(ctx, pairs)
	if err != nil {
		return nil, err
	}

	var acc Accumulator
	for _, f := range scores {
		acc.Add(f)
	}
	s, err := acc.Finalize()
	if err != nil {
		return nil, err
	}
	monitoring.Infof("scored %d frames (%d missing, %d malformed): gt→det %.6f det→gt %.6f AVG_XY_IOU %.6f",
		s.FrameCount, s.MissingFrames, s.MalformedFrames, s.AvgGtToDet, s.AvgDetToGt, s.Score)
	return s, nil
}

func (ag *Aggregator) scoreAll(ctx context.Context, pairs []FramePair) ([]FrameScore, error) {
	fs := ag.fs()
	scores := make([]FrameScore, len(pairs))

	if ag.Workers <= 1 {
		for i, p := range pairs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			f, err := ScoreFrame(fs, p)
			if err != nil {
				return nil, err
			}
			scores[i] = f
		}
		return scores, nil
	}

	// Each worker writes only its own slot; the ordered slice is the merge.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ag.Workers)
	for i, p := range pairs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f, err := ScoreFrame(fs, p)
			if err != nil {
				return err
			}
			scores[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scores, nil
}
