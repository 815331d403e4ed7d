package evaluation

import (
	"time"

	"github.com/banshee-data/bev-grader/internal/version"
)

// PhaseScores is the per-phase score block shown on the leaderboard.
type PhaseScores struct {
	AvgXYIOU   float64 `json:"AVG_XY_IOU"`
	AvgGtToDet float64 `json:"AVG_GT_TO_DET"`
	AvgDetToGt float64 `json:"AVG_DET_TO_GT"`
}

// RunMetadata describes how a score was produced.
type RunMetadata struct {
	RunID            string       `json:"run_id"`
	Phase            string       `json:"phase"`
	Team             string       `json:"team,omitempty"`
	Method           string       `json:"method,omitempty"`
	Frames           int          `json:"frames"`
	MissingFrames    int          `json:"missing_frames"`
	MalformedFrames  int          `json:"malformed_frames"`
	GroundTruthBoxes int          `json:"gt_boxes"`
	DetectionBoxes   int          `json:"det_boxes"`
	StartedAt        time.Time    `json:"started_at"`
	DurationMillis   int64        `json:"duration_ms"`
	Build            version.Info `json:"build"`
}

// Record is the result document handed back to the leaderboard host:
//
//	{"result":[{"<phase>":{"AVG_XY_IOU":...}}],"submission_result":{...},"metadata":{...}}
type Record struct {
	Result           []map[string]PhaseScores `json:"result"`
	SubmissionResult PhaseScores              `json:"submission_result"`
	Metadata         RunMetadata              `json:"metadata"`
}

// Scores returns the phase score block.
func (r *Result) Scores() PhaseScores {
	return PhaseScores{
		AvgXYIOU:   r.Summary.Score,
		AvgGtToDet: r.Summary.AvgGtToDet,
		AvgDetToGt: r.Summary.AvgDetToGt,
	}
}

// Record builds the result document.
func (r *Result) Record() Record {
	scores := r.Scores()
	s := r.Summary
	return Record{
		Result:           []map[string]PhaseScores{{r.Phase: scores}},
		SubmissionResult: scores,
		Metadata: RunMetadata{
			RunID:            r.RunID,
			Phase:            r.Phase,
			Team:             r.Team,
			Method:           r.Method,
			Frames:           s.FrameCount,
			MissingFrames:    s.MissingFrames,
			MalformedFrames:  s.MalformedFrames,
			GroundTruthBoxes: s.GroundTruthBoxes,
			DetectionBoxes:   s.DetectionBoxes,
			StartedAt:        r.StartedAt.UTC(),
			DurationMillis:   r.Duration.Milliseconds(),
			Build:            r.Build,
		},
	}
}
