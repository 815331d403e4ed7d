// Package evaluation drives one grading run: it resolves the input archives,
// decrypts sealed ground truth, extracts both sides into a private
// workspace, scores every frame and builds the leaderboard result record.
package evaluation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/banshee-data/bev-grader/internal/archive"
	"github.com/banshee-data/bev-grader/internal/config"
	"github.com/banshee-data/bev-grader/internal/fsutil"
	"github.com/banshee-data/bev-grader/internal/monitoring"
	"github.com/banshee-data/bev-grader/internal/scoring"
	"github.com/banshee-data/bev-grader/internal/sealed"
	"github.com/banshee-data/bev-grader/internal/timeutil"
	"github.com/banshee-data/bev-grader/internal/version"
)

// Request describes one evaluation run.
type Request struct {
	// GroundTruthPath is a zip of frame files, or a Fernet-sealed zip
	// ending in .enc.
	GroundTruthPath string
	// SubmissionPath is a zip of frame files.
	SubmissionPath string
	// Phase names the leaderboard phase the result is reported under.
	Phase string
	// KeyPath is required when GroundTruthPath is sealed.
	KeyPath string

	// RunID keys the workspace. Empty means a fresh UUID.
	RunID  string
	Team   string
	Method string

	FrameGlob   string
	Workers     int
	KeepWorkdir bool
	// WorkRoot holds the run workspace. Empty means the system temp dir.
	WorkRoot string

	Clock timeutil.Clock
}

func (r Request) withDefaults() Request {
	if r.Phase == "" {
		r.Phase = config.DefaultPhase
	}
	if r.FrameGlob == "" {
		r.FrameGlob = config.DefaultFrameGlob
	}
	if r.Workers < 1 {
		r.Workers = config.DefaultWorkers
	}
	if r.WorkRoot == "" {
		r.WorkRoot = os.TempDir()
	}
	if r.Clock == nil {
		r.Clock = timeutil.RealClock{}
	}
	return r
}

// Result is the outcome of a successful run.
type Result struct {
	RunID     string
	Phase     string
	Team      string
	Method    string
	StartedAt time.Time
	Duration  time.Duration
	Summary   *scoring.Summary
	Build     version.Info
}

// Evaluate runs one evaluation. Fatal problems are returned as
// *scoring.EvalError; the workspace is removed on every return path unless
// KeepWorkdir is set.
func Evaluate(ctx context.Context, req Request) (*Result, error) {
	req = req.withDefaults()
	start := req.Clock.Now()
	monitoring.Infof("evaluating %s for phase %q", req.SubmissionPath, req.Phase)

	fs := fsutil.OSFileSystem{}
	for _, p := range []string{req.GroundTruthPath, req.SubmissionPath} {
		if p == "" {
			return nil, scoring.Errorf(scoring.KindMissingInput, "", "input path not set")
		}
		if _, err := fs.Stat(p); err != nil {
			return nil, scoring.NewError(scoring.KindMissingInput, p, err)
		}
	}

	ws, err := archive.NewWorkspaceFS(fs, req.WorkRoot, req.RunID)
	if err != nil {
		return nil, err
	}
	if req.KeepWorkdir {
		ws.Keep()
	}
	defer func() {
		if err := ws.Close(); err != nil {
			monitoring.Warnf("run %s: %v", ws.RunID, err)
		}
	}()

	gtDir, err := ws.Dir("gt")
	if err != nil {
		return nil, err
	}
	subDir, err := ws.Dir("submission")
	if err != nil {
		return nil, err
	}

	if err := extractGroundTruth(req, gtDir); err != nil {
		return nil, err
	}
	n, err := archive.Extract(req.SubmissionPath, subDir)
	if err != nil {
		return nil, scoring.NewError(scoring.KindArchive, req.SubmissionPath, err)
	}
	monitoring.Infof("extracted %d submission files", n)

	pairs, err := scoring.ListFramePairs(fs, gtDir, subDir, req.FrameGlob)
	if err != nil {
		return nil, err
	}

	agg := &scoring.Aggregator{FS: fs, Workers: req.Workers}
	summary, err := agg.Run(ctx, pairs)
	if err != nil {
		return nil, err
	}

	res := &Result{
		RunID:     ws.RunID,
		Phase:     req.Phase,
		Team:      req.Team,
		Method:    req.Method,
		StartedAt: start,
		Duration:  req.Clock.Since(start),
		Summary:   summary,
		Build:     version.Current(),
	}
	monitoring.Infof("completed evaluation for phase %q: AVG_XY_IOU %.6f", req.Phase, summary.Score)
	return res, nil
}

func extractGroundTruth(req Request, dir string) error {
	if !sealed.IsSealed(req.GroundTruthPath) {
		n, err := archive.Extract(req.GroundTruthPath, dir)
		if err != nil {
			return scoring.NewError(scoring.KindArchive, req.GroundTruthPath, err)
		}
		monitoring.Infof("extracted %d ground-truth files", n)
		return nil
	}

	if req.KeyPath == "" {
		return scoring.Errorf(scoring.KindDecryption, req.GroundTruthPath, "sealed ground truth needs a key file")
	}
	key, err := sealed.LoadKey(req.KeyPath)
	if err != nil {
		return scoring.NewError(scoring.KindDecryption, req.KeyPath, err)
	}
	token, err := os.ReadFile(req.GroundTruthPath)
	if err != nil {
		return scoring.NewError(scoring.KindMissingInput, req.GroundTruthPath, err)
	}
	plain, err := sealed.Open(token, key)
	if err != nil {
		return scoring.NewError(scoring.KindDecryption, req.GroundTruthPath, err)
	}

	n, err := archive.ExtractBytes(plain, dir)
	if err != nil {
		return scoring.NewError(scoring.KindArchive, req.GroundTruthPath, err)
	}
	monitoring.Infof("decrypted and extracted %d ground-truth files", n)
	return nil
}

// Describe returns the labelled one-line form of a fatal error for stderr.
// EvalErrors already carry their category; anything else is labelled
// UnknownError.
func Describe(err error) string {
	var ee *scoring.EvalError
	if errors.As(err, &ee) {
		return err.Error()
	}
	return fmt.Sprintf("%s: %v", scoring.KindUnknown, err)
}
