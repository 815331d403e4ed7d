package scoring

import (
	"errors"
	"testing"

	"github.com/banshee-data/bev-grader/internal/fsutil"
	"github.com/banshee-data/bev-grader/internal/testutil"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pair(name string) FramePair {
	return FramePair{Name: name, GroundTruthPath: "/gt/" + name, SubmissionPath: "/sub/" + name}
}

func TestScoreFrame_Complete(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	testutil.WriteFrame(t, mfs, "/gt/000001.bin", testutil.Box(0, 0, 2, 2, 0), testutil.Box(20, 0, 2, 2, 0))
	testutil.WriteFrame(t, mfs, "/sub/000001.bin", testutil.Box(1, 0, 2, 2, 0))

	f, err := ScoreFrame(mfs, pair("000001.bin"))
	require.NoError(t, err)

	assert.Equal(t, FrameComplete, f.Status)
	assert.Equal(t, 2, f.GroundTruthCount)
	assert.Equal(t, 1, f.DetectionCount)
	require.Len(t, f.GtToDet, 2)
	require.Len(t, f.DetToGt, 1)
	assert.InDelta(t, 1.0/3.0, f.GtToDet[0], 1e-9)
	assert.Zero(t, f.GtToDet[1])
	assert.InDelta(t, 1.0/3.0, f.DetToGt[0], 1e-9)
	assert.InDelta(t, 1.0/6.0, f.MeanGtToDet(), 1e-9)
}

func TestScoreFrame_MissingSubmission(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	testutil.WriteFrame(t, mfs, "/gt/000001.bin",
		testutil.Box(0, 0, 2, 2, 0), testutil.Box(5, 0, 2, 2, 0), testutil.Box(9, 0, 2, 2, 0))

	f, err := ScoreFrame(mfs, pair("000001.bin"))
	require.NoError(t, err)

	assert.Equal(t, FrameMissing, f.Status)
	assert.Equal(t, []float64{0, 0, 0}, f.GtToDet)
	// The det→gt side is padded to the ground-truth count, not left empty.
	assert.Equal(t, []float64{0, 0, 0}, f.DetToGt)
}

func TestScoreFrame_MalformedSubmission(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	testutil.WriteFrame(t, mfs, "/gt/000001.bin", testutil.Box(0, 0, 2, 2, 0))
	require.NoError(t, mfs.WriteFile("/sub/000001.bin", make([]byte, 31), 0o644))

	f, err := ScoreFrame(mfs, pair("000001.bin"))
	require.NoError(t, err)
	assert.Equal(t, FrameMalformed, f.Status)
	assert.Equal(t, []float64{0}, f.GtToDet)
	assert.Equal(t, []float64{0}, f.DetToGt)
}

func TestScoreFrame_EmptySubmissionFile(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	testutil.WriteFrame(t, mfs, "/gt/000001.bin", testutil.Box(0, 0, 2, 2, 0))
	testutil.WriteFrame(t, mfs, "/sub/000001.bin")

	f, err := ScoreFrame(mfs, pair("000001.bin"))
	require.NoError(t, err)
	assert.Equal(t, FrameComplete, f.Status)
	assert.Equal(t, []float64{0}, f.GtToDet)
	assert.Empty(t, f.DetToGt)
}

func TestScoreFrame_MalformedGroundTruth(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	require.NoError(t, mfs.WriteFile("/gt/000001.bin", make([]byte, 40), 0o644))
	testutil.WriteFrame(t, mfs, "/sub/000001.bin", testutil.Box(0, 0, 2, 2, 0))

	_, err := ScoreFrame(mfs, pair("000001.bin"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedFrame))
	assert.Equal(t, KindMalformedFrame, KindOf(err))
}

func TestListFramePairs(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	for _, name := range []string{"/gt/000010.bin", "/gt/000002.bin", "/gt/index.txt"} {
		require.NoError(t, mfs.WriteFile(name, nil, 0o644))
	}

	got, err := ListFramePairs(mfs, "/gt", "/sub", "*.bin")
	require.NoError(t, err)

	want := []FramePair{
		{Name: "000002.bin", GroundTruthPath: "/gt/000002.bin", SubmissionPath: "/sub/000002.bin"},
		{Name: "000010.bin", GroundTruthPath: "/gt/000010.bin", SubmissionPath: "/sub/000010.bin"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ListFramePairs mismatch (-want +got):\n%s", diff)
	}
}

func TestListFramePairs_MissingDir(t *testing.T) {
	_, err := ListFramePairs(fsutil.NewMemoryFileSystem(), "/gt", "/sub", "*.bin")
	assert.Error(t, err)
}

func TestFrameScore_Means(t *testing.T) {
	tests := []struct {
		name        string
		f           FrameScore
		wantGtToDet float64
		wantDetToGt float64
	}{
		{"empty frame", FrameScore{}, 0, 0},
		{"zero frame", ZeroFrame("a", FrameMissing, 3), 0, 0},
		{"mixed", FrameScore{GtToDet: []float64{1, 0.5}, DetToGt: []float64{0.25}}, 0.75, 0.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.wantGtToDet, tt.f.MeanGtToDet(), 1e-12)
			assert.InDelta(t, tt.wantDetToGt, tt.f.MeanDetToGt(), 1e-12)
		})
	}
}
