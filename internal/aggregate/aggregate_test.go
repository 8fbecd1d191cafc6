package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aveslab/perchview/internal/detection"
)

func testResultSet() *detection.ResultSet {
	return detection.FromDetections([]detection.Detection{
		{FilePath: "a.wav", Species: "Erithacus rubecula", Confidence: 0.8, StartTime: 0, EndTime: 5},
		{FilePath: "a.wav", Species: "Erithacus rubecula", Confidence: 0.6, StartTime: 65, EndTime: 70},
		{FilePath: "b.wav", Species: "Erithacus rubecula", Confidence: 0.9, StartTime: 10, EndTime: 15},
		{FilePath: "a.wav", Species: "Parus major", Confidence: 0.7, StartTime: 60, EndTime: 65},
		{FilePath: "b.wav", Species: "Turdus merula", Confidence: 0.95, StartTime: 120, EndTime: 125},
	})
}

func TestSummarize(t *testing.T) {
	summaries := Summarize(testResultSet())
	require.Len(t, summaries, 3)

	robin := summaries[0]
	assert.Equal(t, "Erithacus rubecula", robin.Species)
	assert.Equal(t, 3, robin.Count)
	assert.InDelta(t, (0.8+0.6+0.9)/3, robin.AvgConfidence, 1e-9)
	assert.InDelta(t, 0.9, robin.MaxConfidence, 1e-9)
	assert.InDelta(t, 0.0, robin.FirstOffset, 1e-9)
	assert.InDelta(t, 70.0, robin.LastOffset, 1e-9)
	assert.Equal(t, 2, robin.Files)

	// Equal counts break ties on species name
	assert.Equal(t, "Parus major", summaries[1].Species)
	assert.Equal(t, "Turdus merula", summaries[2].Species)
}

func TestSummarizeEmpty(t *testing.T) {
	assert.Empty(t, Summarize(detection.NewResultSet()))
}

func TestTopSpecies(t *testing.T) {
	top := TopSpecies(testResultSet(), 2)
	require.Len(t, top, 2)
	assert.Equal(t, "Erithacus rubecula", top[0].Species)

	// Asking for more than exists returns everything
	assert.Len(t, TopSpecies(testResultSet(), 20), 3)
}

func TestTimeline(t *testing.T) {
	buckets := Timeline(testResultSet())

	assert.Equal(t, []TimelineBucket{
		{Minute: 0, Species: "Erithacus rubecula", Count: 2},
		{Minute: 1, Species: "Erithacus rubecula", Count: 1},
		{Minute: 1, Species: "Parus major", Count: 1},
		{Minute: 2, Species: "Turdus merula", Count: 1},
	}, buckets)
}

func TestSummary(t *testing.T) {
	totals := Summary(testResultSet())

	assert.Equal(t, 5, totals.Detections)
	assert.Equal(t, 3, totals.UniqueSpecies)
	assert.Equal(t, 2, totals.Files)
	assert.InDelta(t, 5.0, totals.AvgDuration, 1e-9)
}

func TestSummaryEmpty(t *testing.T) {
	totals := Summary(detection.NewResultSet())
	assert.Equal(t, Totals{}, totals)
}
