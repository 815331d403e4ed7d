// Package api serves the leaderboard over HTTP.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/bev-grader/internal/db"
	"github.com/banshee-data/bev-grader/internal/httputil"
	"github.com/banshee-data/bev-grader/internal/monitoring"
	"github.com/banshee-data/bev-grader/internal/report"
	"github.com/banshee-data/bev-grader/internal/version"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// MaxLimit caps the number of rows a single leaderboard request returns.
const MaxLimit = 1000

type Server struct {
	db *db.DB
}

func NewServer(db *db.DB) *Server {
	return &Server{db: db}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/phases", s.listPhases)
	mux.HandleFunc("/api/leaderboard", s.showLeaderboard)
	mux.HandleFunc("/api/submissions/", s.handleSubmissionByID)
	mux.HandleFunc("/api/version", s.showVersion)
	mux.HandleFunc("/leaderboard", s.showLeaderboardChart)
	return mux
}

func (s *Server) listPhases(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	phases, err := s.db.Phases()
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to list phases: %v", err))
		return
	}
	if phases == nil {
		phases = []string{}
	}
	httputil.WriteJSONOK(w, phases)
}

// rankedQuery parses the phase and limit parameters shared by the JSON and
// chart views.
func (s *Server) rankedQuery(r *http.Request) (phase string, limit int, err error) {
	phase = r.URL.Query().Get("phase")
	if phase == "" {
		return "", 0, errors.New("'phase' parameter is required")
	}
	limit, err = httputil.QueryInt(r, "limit", 100, 1, MaxLimit)
	if err != nil {
		return "", 0, err
	}
	return phase, limit, nil
}

func (s *Server) showLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	phase, limit, err := s.rankedQuery(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	subs, err := s.db.ListByPhase(phase, limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to retrieve leaderboard: %v", err))
		return
	}
	if subs == nil {
		subs = []*db.Submission{}
	}
	httputil.WriteJSONOK(w, subs)
}

func (s *Server) showLeaderboardChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	phase, limit, err := s.rankedQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	subs, err := s.db.ListByPhase(phase, limit)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to retrieve leaderboard: %v", err), http.StatusInternalServerError)
		return
	}

	entries := make([]report.Entry, 0, len(subs))
	for _, sub := range subs {
		entries = append(entries, report.Entry{
			Label:   entryLabel(sub),
			Score:   sub.AvgXYIOU,
			GtToDet: sub.AvgGtToDet,
			DetToGt: sub.AvgDetToGt,
		})
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.RenderLeaderboard(w, phase, entries); err != nil {
		monitoring.Warnf("failed to render leaderboard: %v", err)
	}
}

func entryLabel(sub *db.Submission) string {
	switch {
	case sub.Team != "" && sub.Method != "":
		return sub.Team + "/" + sub.Method
	case sub.Team != "":
		return sub.Team
	case sub.Method != "":
		return sub.Method
	default:
		return sub.RunID
	}
}

// handleSubmissionByID serves GET on /api/submissions/{id}. Deletion is an
// admin action and lives under /debug/ (see db.AttachAdminRoutes).
func (s *Server) handleSubmissionByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	id := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, "/api/submissions/"))
	if id == "" {
		httputil.BadRequest(w, "submission_id is required")
		return
	}

	sub, err := s.db.GetSubmission(id)
	if errors.Is(err, db.ErrNotFound) {
		httputil.NotFound(w, "submission not found")
		return
	}
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("query failed: %v", err))
		return
	}
	httputil.WriteJSONOK(w, sub)
}

func (s *Server) showVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, version.Current())
}
