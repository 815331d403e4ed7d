package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/banshee-data/bev-grader/internal/db"
	"github.com/banshee-data/bev-grader/internal/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestServer(t *testing.T) (*Server, *db.DB) {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "leaderboard.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	for _, s := range []*db.Submission{
		{SubmissionID: "a", RunID: "run-a", Phase: "test_split", Team: "lidar-lab", Method: "pp", AvgXYIOU: 0.6, CreatedAt: 1},
		{SubmissionID: "b", RunID: "run-b", Phase: "test_split", AvgXYIOU: 0.9, CreatedAt: 2},
		{SubmissionID: "c", RunID: "run-c", Phase: "val_split", AvgXYIOU: 0.3, CreatedAt: 3},
	} {
		require.NoError(t, database.InsertSubmission(s))
	}
	return NewServer(database), database
}

func serve(s *Server, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.ServeMux().ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestListPhases(t *testing.T) {
	s, _ := setupTestServer(t)

	w := serve(s, http.MethodGet, "/api/phases")
	require.Equal(t, http.StatusOK, w.Code)

	var phases []string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&phases))
	assert.Equal(t, []string{"test_split", "val_split"}, phases)
}

func TestShowLeaderboard(t *testing.T) {
	s, _ := setupTestServer(t)

	w := serve(s, http.MethodGet, "/api/leaderboard?phase=test_split")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var subs []db.Submission
	require.NoError(t, json.NewDecoder(w.Body).Decode(&subs))
	require.Len(t, subs, 2)
	assert.Equal(t, "b", subs[0].SubmissionID)
	assert.Equal(t, "a", subs[1].SubmissionID)
}

func TestShowLeaderboard_EmptyPhaseIsEmptyList(t *testing.T) {
	s, _ := setupTestServer(t)

	w := serve(s, http.MethodGet, "/api/leaderboard?phase=unknown")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestShowLeaderboard_BadParams(t *testing.T) {
	s, _ := setupTestServer(t)

	tests := []struct {
		name   string
		method string
		target string
		want   int
	}{
		{"missing phase", http.MethodGet, "/api/leaderboard", http.StatusBadRequest},
		{"bad limit", http.MethodGet, "/api/leaderboard?phase=test_split&limit=abc", http.StatusBadRequest},
		{"zero limit", http.MethodGet, "/api/leaderboard?phase=test_split&limit=0", http.StatusBadRequest},
		{"limit too large", http.MethodGet, "/api/leaderboard?phase=test_split&limit=5000", http.StatusBadRequest},
		{"wrong method", http.MethodPost, "/api/leaderboard?phase=test_split", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, serve(s, tt.method, tt.target).Code)
		})
	}
}

func TestShowLeaderboard_Limit(t *testing.T) {
	s, _ := setupTestServer(t)

	w := serve(s, http.MethodGet, "/api/leaderboard?phase=test_split&limit=1")
	require.Equal(t, http.StatusOK, w.Code)

	var subs []db.Submission
	require.NoError(t, json.NewDecoder(w.Body).Decode(&subs))
	require.Len(t, subs, 1)
	assert.Equal(t, "b", subs[0].SubmissionID)
}

func TestSubmissionByID(t *testing.T) {
	s, _ := setupTestServer(t)

	w := serve(s, http.MethodGet, "/api/submissions/a")
	require.Equal(t, http.StatusOK, w.Code)
	var sub db.Submission
	require.NoError(t, json.NewDecoder(w.Body).Decode(&sub))
	assert.Equal(t, "lidar-lab", sub.Team)

	assert.Equal(t, http.StatusNotFound, serve(s, http.MethodGet, "/api/submissions/zzz").Code)
	assert.Equal(t, http.StatusBadRequest, serve(s, http.MethodGet, "/api/submissions/").Code)

	assert.Equal(t, http.StatusMethodNotAllowed, serve(s, http.MethodPut, "/api/submissions/b").Code)
}

func TestSubmissionByID_RemoteDeleteRefused(t *testing.T) {
	s, database := setupTestServer(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/submissions/b", nil)
	req.RemoteAddr = "203.0.113.7:4444"
	w := httptest.NewRecorder()
	s.ServeMux().ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	_, err := database.GetSubmission("b")
	assert.NoError(t, err, "submission must survive a public DELETE")
}

func TestShowVersion(t *testing.T) {
	s, _ := setupTestServer(t)

	w := serve(s, http.MethodGet, "/api/version")
	require.Equal(t, http.StatusOK, w.Code)

	var info version.Info
	require.NoError(t, json.NewDecoder(w.Body).Decode(&info))
	assert.Equal(t, version.Current(), info)
}

func TestShowLeaderboardChart(t *testing.T) {
	s, _ := setupTestServer(t)

	w := serve(s, http.MethodGet, "/leaderboard?phase=test_split")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "#1 run-b")
	assert.Contains(t, w.Body.String(), "#2 lidar-lab/pp")

	assert.Equal(t, http.StatusBadRequest, serve(s, http.MethodGet, "/leaderboard").Code)
}

func TestEntryLabel(t *testing.T) {
	tests := []struct {
		sub  db.Submission
		want string
	}{
		{db.Submission{RunID: "r", Team: "t", Method: "m"}, "t/m"},
		{db.Submission{RunID: "r", Team: "t"}, "t"},
		{db.Submission{RunID: "r", Method: "m"}, "m"},
		{db.Submission{RunID: "r"}, "r"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, entryLabel(&tt.sub))
	}
}

func TestLoggingMiddleware(t *testing.T) {
	var handled bool
	h := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handled = true
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.True(t, handled)
	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestStatusCodeColor(t *testing.T) {
	assert.Contains(t, statusCodeColor(200), "200")
	assert.Contains(t, statusCodeColor(302), colorYellow)
	assert.Contains(t, statusCodeColor(404), colorBoldRed)
	assert.Equal(t, "100", statusCodeColor(100))
}
