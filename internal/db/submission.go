package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a submission ID does not exist.
var ErrNotFound = errors.New("submission not found")

// Submission is one graded run as shown on the leaderboard.
type Submission struct {
	SubmissionID    string  `json:"submission_id"`
	RunID           string  `json:"run_id"`
	Phase           string  `json:"phase"`
	Team            string  `json:"team,omitempty"`
	Method          string  `json:"method,omitempty"`
	AvgXYIOU        float64 `json:"avg_xy_iou"`
	AvgGtToDet      float64 `json:"avg_gt_to_det"`
	AvgDetToGt      float64 `json:"avg_det_to_gt"`
	FrameCount      int     `json:"frame_count"`
	MissingFrames   int     `json:"missing_frames"`
	MalformedFrames int     `json:"malformed_frames"`
	GtBoxes         int     `json:"gt_boxes"`
	DetBoxes        int     `json:"det_boxes"`
	GraderVersion   string  `json:"grader_version,omitempty"`
	CreatedAt       int64   `json:"created_at"`
}

const submissionColumns = `
	submission_id, run_id, phase, team, method,
	avg_xy_iou, avg_gt_to_det, avg_det_to_gt,
	frame_count, missing_frames, malformed_frames, gt_boxes, det_boxes,
	grader_version, created_at`

// InsertSubmission persists s. An empty SubmissionID gets a UUID and a zero
// CreatedAt gets the current time in Unix nanoseconds.
func (db *DB) InsertSubmission(s *Submission) error {
	if s.SubmissionID == "" {
		s.SubmissionID = uuid.New().String()
	}
	if s.CreatedAt == 0 {
		s.CreatedAt = db.clock.Now().UnixNano()
	}

	return retryOnBusy(db.clock, func() error {
		_, err := db.Exec(`
			INSERT INTO submissions (`+submissionColumns+`
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.SubmissionID, s.RunID, s.Phase, s.Team, s.Method,
			s.AvgXYIOU, s.AvgGtToDet, s.AvgDetToGt,
			s.FrameCount, s.MissingFrames, s.MalformedFrames, s.GtBoxes, s.DetBoxes,
			s.GraderVersion, s.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert submission: %w", err)
		}
		return nil
	})
}

// GetSubmission returns a single submission by ID.
func (db *DB) GetSubmission(id string) (*Submission, error) {
	row := db.QueryRow(`SELECT `+submissionColumns+` FROM submissions WHERE submission_id = ?`, id)
	s, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, err
}

// ListByPhase returns the leaderboard for phase: best score first, earlier
// submissions ahead on ties. limit <= 0 returns every row.
func (db *DB) ListByPhase(phase string, limit int) ([]*Submission, error) {
	query := `SELECT ` + submissionColumns + `
		FROM submissions
		WHERE phase = ?
		ORDER BY avg_xy_iou DESC, created_at ASC`
	args := []any{phase}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	var out []*Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Phases returns every phase with at least one submission, sorted.
func (db *DB) Phases() ([]string, error) {
	rows, err := db.Query(`SELECT DISTINCT phase FROM submissions ORDER BY phase`)
	if err != nil {
		return nil, fmt.Errorf("query phases: %w", err)
	}
	defer rows.Close()

	var phases []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan phase: %w", err)
		}
		phases = append(phases, p)
	}
	return phases, rows.Err()
}

// DeleteSubmission removes a submission by ID.
func (db *DB) DeleteSubmission(id string) error {
	return retryOnBusy(db.clock, func() error {
		result, err := db.Exec(`DELETE FROM submissions WHERE submission_id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete submission: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(r rowScanner) (*Submission, error) {
	var s Submission
	err := r.Scan(
		&s.SubmissionID, &s.RunID, &s.Phase, &s.Team, &s.Method,
		&s.AvgXYIOU, &s.AvgGtToDet, &s.AvgDetToGt,
		&s.FrameCount, &s.MissingFrames, &s.MalformedFrames, &s.GtBoxes, &s.DetBoxes,
		&s.GraderVersion, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan submission: %w", err)
	}
	return &s, nil
}
