// Command grader scores one submission archive against the ground truth and
// prints the leaderboard result record as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/banshee-data/bev-grader/internal/config"
	"github.com/banshee-data/bev-grader/internal/db"
	"github.com/banshee-data/bev-grader/internal/evaluation"
	"github.com/banshee-data/bev-grader/internal/monitoring"
	"github.com/banshee-data/bev-grader/internal/report"
	"github.com/banshee-data/bev-grader/internal/security"
	"github.com/banshee-data/bev-grader/internal/version"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	gt, submission string
	configPath     string
	runID          string
	team, method   string
	showVersion    bool
	quiet          bool

	cfg *config.EvalConfig
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("grader", flag.ContinueOnError)
	fs.SetOutput(stderr)

	o := &options{}
	fs.StringVar(&o.gt, "gt", "", "Ground-truth zip, or Fernet-sealed zip ending in .enc (required)")
	fs.StringVar(&o.submission, "submission", "", "Submission zip (required)")
	fs.StringVar(&o.configPath, "config", "", "Evaluation config JSON file")
	fs.StringVar(&o.runID, "run-id", "", "Run identifier (default: random UUID)")
	fs.StringVar(&o.team, "team", "", "Team label stored with the result")
	fs.StringVar(&o.method, "method", "", "Method label stored with the result")
	fs.BoolVar(&o.showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&o.quiet, "quiet", false, "Suppress progress logging")

	phase := fs.String("phase", config.DefaultPhase, "Leaderboard phase name")
	key := fs.String("key", "", "Fernet key file for sealed ground truth")
	glob := fs.String("frame-glob", config.DefaultFrameGlob, "Frame file pattern")
	workers := fs.Int("workers", config.DefaultWorkers, "Frames scored concurrently")
	dbPath := fs.String("db", "", "Leaderboard SQLite database to record the result in")
	reportDir := fs.String("report-dir", "", "Directory for histogram and per-frame reports")
	bins := fs.Int("bins", config.DefaultHistogramBins, "Histogram bins")
	keep := fs.Bool("keep-workdir", false, "Keep the extracted workspace")
	workRoot := fs.String("work-root", "", "Parent directory for run workspaces (default: system temp)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	cfg := config.DefaultEvalConfig()
	if o.configPath != "" {
		loaded, err := config.LoadEvalConfig(o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	// Flags given on the command line override the config file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "phase":
			cfg.Phase = phase
		case "key":
			cfg.KeyFile = key
		case "frame-glob":
			cfg.FrameGlob = glob
		case "workers":
			cfg.Workers = workers
		case "db":
			cfg.DBPath = dbPath
		case "report-dir":
			cfg.ReportDir = reportDir
		case "bins":
			cfg.HistogramBins = bins
		case "keep-workdir":
			cfg.KeepWorkdir = keep
		case "work-root":
			cfg.WorkRoot = workRoot
		}
	})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o.cfg = cfg

	if !o.showVersion && (o.gt == "" || o.submission == "") {
		return nil, errors.New("-gt and -submission are required")
	}
	return o, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "grader: %v\n", err)
		return exitUsage
	}
	if o.showVersion {
		fmt.Fprintln(stdout, version.Current())
		return exitOK
	}
	if o.quiet {
		logf := monitoring.Logf
		monitoring.SetLogger(nil)
		defer monitoring.SetLogger(logf)
	}

	cfg := o.cfg
	res, err := evaluation.Evaluate(ctx, evaluation.Request{
		GroundTruthPath: o.gt,
		SubmissionPath:  o.submission,
		Phase:           cfg.GetPhase(),
		KeyPath:         cfg.GetKeyFile(),
		RunID:           o.runID,
		Team:            o.team,
		Method:          o.method,
		FrameGlob:       cfg.GetFrameGlob(),
		Workers:         cfg.GetWorkers(),
		KeepWorkdir:     cfg.GetKeepWorkdir(),
		WorkRoot:        cfg.GetWorkRoot(),
	})
	if err != nil {
		fmt.Fprintln(stderr, evaluation.Describe(err))
		return exitError
	}

	if dir := cfg.GetReportDir(); dir != "" {
		if err := writeReports(dir, res, cfg.GetHistogramBins()); err != nil {
			fmt.Fprintf(stderr, "grader: %v\n", err)
			return exitError
		}
	}
	if path := cfg.GetDBPath(); path != "" {
		if err := recordResult(path, res); err != nil {
			fmt.Fprintf(stderr, "grader: %v\n", err)
			return exitError
		}
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res.Record()); err != nil {
		fmt.Fprintf(stderr, "grader: write result: %v\n", err)
		return exitError
	}
	return exitOK
}

func writeReports(dir string, res *evaluation.Result, bins int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	base := security.SanitizeFilename(res.RunID)
	hist := filepath.Join(dir, base+"-histogram.png")
	if err := report.WriteHistogram(hist, res.Summary, bins); err != nil {
		return err
	}
	chart := filepath.Join(dir, base+"-frames.html")
	if err := report.WriteFrameChart(chart, res.Summary); err != nil {
		return err
	}
	monitoring.Infof("wrote reports %s and %s", hist, chart)
	return nil
}

func recordResult(path string, res *evaluation.Result) error {
	database, err := db.Open(path)
	if err != nil {
		return fmt.Errorf("open leaderboard db: %w", err)
	}
	defer database.Close()

	sub := toSubmission(res)
	if err := database.InsertSubmission(sub); err != nil {
		return err
	}
	monitoring.Infof("recorded submission %s in %s", sub.SubmissionID, path)
	return nil
}

func toSubmission(res *evaluation.Result) *db.Submission {
	s := res.Summary
	return &db.Submission{
		RunID:           res.RunID,
		Phase:           res.Phase,
		Team:            res.Team,
		Method:          res.Method,
		AvgXYIOU:        s.Score,
		AvgGtToDet:      s.AvgGtToDet,
		AvgDetToGt:      s.AvgDetToGt,
		FrameCount:      s.FrameCount,
		MissingFrames:   s.MissingFrames,
		MalformedFrames: s.MalformedFrames,
		GtBoxes:         s.GroundTruthBoxes,
		DetBoxes:        s.DetectionBoxes,
		GraderVersion:   res.Build.Version,
		CreatedAt:       res.StartedAt.UnixNano(),
	}
}
