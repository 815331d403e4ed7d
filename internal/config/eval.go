package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
)

// Defaults applied by the Get* accessors when a field is omitted.
const (
	DefaultPhase         = "test_split"
	DefaultFrameGlob     = "*.bin"
	DefaultWorkers       = 1
	DefaultHistogramBins = 20
)

const maxConfigSize = 1 * 1024 * 1024 // 1MB

// EvalConfig holds grader settings. Every field is optional; the Get*
// accessors supply defaults, so a partial file is valid.
type EvalConfig struct {
	Phase         *string `json:"phase,omitempty"`
	FrameGlob     *string `json:"frame_glob,omitempty"`
	Workers       *int    `json:"workers,omitempty"`
	KeyFile       *string `json:"key_file,omitempty"`
	DBPath        *string `json:"db_path,omitempty"`
	ReportDir     *string `json:"report_dir,omitempty"`
	KeepWorkdir   *bool   `json:"keep_workdir,omitempty"`
	HistogramBins *int    `json:"histogram_bins,omitempty"`
	WorkRoot      *string `json:"work_root,omitempty"`
}

func ptrString(v string) *string { return &v }
func ptrInt(v int) *int          { return &v }
func ptrBool(v bool) *bool       { return &v }

// DefaultEvalConfig returns a config with every defaulted field set.
func DefaultEvalConfig() *EvalConfig {
	return &EvalConfig{
		Phase:         ptrString(DefaultPhase),
		FrameGlob:     ptrString(DefaultFrameGlob),
		Workers:       ptrInt(DefaultWorkers),
		KeepWorkdir:   ptrBool(false),
		HistogramBins: ptrInt(DefaultHistogramBins),
	}
}

// LoadEvalConfig reads and validates a JSON config file. The file must have
// a .json extension and be at most 1MB.
func LoadEvalConfig(p string) (*EvalConfig, error) {
	cleanPath := filepath.Clean(p)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &EvalConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the values that are set.
func (c *EvalConfig) Validate() error {
	if c.Phase != nil && *c.Phase == "" {
		return fmt.Errorf("phase must not be empty")
	}
	if c.FrameGlob != nil {
		if *c.FrameGlob == "" {
			return fmt.Errorf("frame_glob must not be empty")
		}
		if _, err := path.Match(*c.FrameGlob, ""); err != nil {
			return fmt.Errorf("invalid frame_glob %q: %w", *c.FrameGlob, err)
		}
	}
	if c.Workers != nil && *c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", *c.Workers)
	}
	if c.HistogramBins != nil && (*c.HistogramBins < 1 || *c.HistogramBins > 1000) {
		return fmt.Errorf("histogram_bins must be between 1 and 1000, got %d", *c.HistogramBins)
	}
	return nil
}

// GetPhase returns the phase label or the default.
func (c *EvalConfig) GetPhase() string {
	if c.Phase == nil || *c.Phase == "" {
		return DefaultPhase
	}
	return *c.Phase
}

// GetFrameGlob returns the frame file pattern or the default.
func (c *EvalConfig) GetFrameGlob() string {
	if c.FrameGlob == nil || *c.FrameGlob == "" {
		return DefaultFrameGlob
	}
	return *c.FrameGlob
}

// GetWorkers returns the worker count or the default.
func (c *EvalConfig) GetWorkers() int {
	if c.Workers == nil || *c.Workers < 1 {
		return DefaultWorkers
	}
	return *c.Workers
}

// GetKeyFile returns the ground-truth key path, or "" if unset.
func (c *EvalConfig) GetKeyFile() string {
	if c.KeyFile == nil {
		return ""
	}
	return *c.KeyFile
}

// GetDBPath returns the leaderboard database path, or "" to skip persistence.
func (c *EvalConfig) GetDBPath() string {
	if c.DBPath == nil {
		return ""
	}
	return *c.DBPath
}

// GetReportDir returns the report output directory, or "" to skip reports.
func (c *EvalConfig) GetReportDir() string {
	if c.ReportDir == nil {
		return ""
	}
	return *c.ReportDir
}

// GetKeepWorkdir returns the keep_workdir value or the default.
func (c *EvalConfig) GetKeepWorkdir() bool {
	if c.KeepWorkdir == nil {
		return false
	}
	return *c.KeepWorkdir
}

// GetHistogramBins returns the histogram_bins value or the default.
func (c *EvalConfig) GetHistogramBins() int {
	if c.HistogramBins == nil || *c.HistogramBins < 1 {
		return DefaultHistogramBins
	}
	return *c.HistogramBins
}

// GetWorkRoot returns the directory that holds run workspaces, defaulting to
// the system temp directory.
func (c *EvalConfig) GetWorkRoot() string {
	if c.WorkRoot == nil || *c.WorkRoot == "" {
		return os.TempDir()
	}
	return *c.WorkRoot
}
