package analysis

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aveslab/perchview/internal/cache"
	"github.com/aveslab/perchview/internal/conf"
	"github.com/aveslab/perchview/internal/detection"
	"github.com/aveslab/perchview/internal/errors"
	"github.com/aveslab/perchview/internal/perch"
)

// fakeClassifier returns a fixed result per chunk and counts invocations so
// tests can verify the cache short-circuits the classifier.
type fakeClassifier struct {
	results []perch.Result
	err     error
	calls   int
}

func (f *fakeClassifier) Predict(sample []float32) ([]perch.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

// writeWAV writes seconds of silence as a 32 kHz mono 16-bit WAV file.
func writeWAV(t *testing.T, path string, seconds float64) {
	t.Helper()

	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	enc := wav.NewEncoder(file, conf.SampleRate, conf.BitDepth, conf.NumChannels, 1)
	buf := &audio.IntBuffer{
		Data:   make([]int, int(seconds*conf.SampleRate)),
		Format: &audio.Format{SampleRate: conf.SampleRate, NumChannels: conf.NumChannels},
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
}

func testSettings(t *testing.T) *conf.Settings {
	t.Helper()
	settings := &conf.Settings{}
	settings.Perch.MinConfidence = 0.1
	settings.Cache.Enabled = true
	settings.Cache.Path = filepath.Join(t.TempDir(), "cache")
	return settings
}

func newTestAnalyzer(t *testing.T, settings *conf.Settings, classifier Classifier) *Analyzer {
	t.Helper()
	c, err := cache.New(settings.Cache.Path)
	require.NoError(t, err)
	return New(settings, classifier, c, nil, nil, nil)
}

func TestAnalyzeFileChunks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rec.wav")
	writeWAV(t, path, 10)

	classifier := &fakeClassifier{results: []perch.Result{
		{Species: "Erithacus rubecula", Confidence: 0.87},
	}}
	analyzer := newTestAnalyzer(t, testSettings(t), classifier)

	rs, err := analyzer.AnalyzeFile(path)
	require.NoError(t, err)

	// 10 seconds without overlap is two 5 second chunks
	assert.Equal(t, 2, classifier.calls)
	require.Equal(t, 2, rs.Len())

	first := rs.Detections()[0]
	assert.Equal(t, path, first.FilePath)
	assert.Equal(t, "Erithacus rubecula", first.Species)
	assert.InDelta(t, 0.87, first.Confidence, 1e-6)
	assert.InDelta(t, 0.0, first.StartTime, 1e-9)
	assert.InDelta(t, 5.0, first.EndTime, 1e-9)

	second := rs.Detections()[1]
	assert.InDelta(t, 5.0, second.StartTime, 1e-9)
	assert.InDelta(t, 10.0, second.EndTime, 1e-9)
}

func TestAnalyzeFileMissing(t *testing.T) {
	analyzer := newTestAnalyzer(t, testSettings(t), &fakeClassifier{})

	_, err := analyzer.AnalyzeFile(filepath.Join(t.TempDir(), "gone.wav"))
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestAnalyzeDirectorySecondRunServedFromCache(t *testing.T) {
	dir := t.TempDir()
	writeWAV(t, filepath.Join(dir, "a.wav"), 5)
	writeWAV(t, filepath.Join(dir, "b.wav"), 5)

	classifier := &fakeClassifier{results: []perch.Result{
		{Species: "Parus major", Confidence: 0.75},
	}}
	analyzer := newTestAnalyzer(t, testSettings(t), classifier)

	first, err := analyzer.AnalyzeDirectory(context.Background(), dir, false)
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Equal(t, 2, first.Scanned)
	assert.Equal(t, 2, first.Analyzed)
	callsAfterFirst := classifier.calls
	assert.Positive(t, callsAfterFirst)

	second, err := analyzer.AnalyzeDirectory(context.Background(), dir, false)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, 0, second.Analyzed, "a cached run analyzes nothing")
	assert.Equal(t, callsAfterFirst, classifier.calls, "cached run must not invoke the classifier")
	assert.True(t, first.Results.Equal(second.Results), "cached results must match the computed ones")
	assert.NotEqual(t, first.RunID, second.RunID, "every run gets its own identity")
}

func TestAnalyzeDirectoryRecursiveFlagPerCall(t *testing.T) {
	dir := t.TempDir()
	writeWAV(t, filepath.Join(dir, "a.wav"), 5)
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	writeWAV(t, filepath.Join(sub, "b.wav"), 5)

	settings := testSettings(t)
	settings.Cache.Enabled = false
	classifier := &fakeClassifier{results: []perch.Result{
		{Species: "Parus major", Confidence: 0.75},
	}}
	analyzer := New(settings, classifier, nil, nil, nil, nil)

	flat, err := analyzer.AnalyzeDirectory(context.Background(), dir, false)
	require.NoError(t, err)
	assert.Equal(t, 1, flat.Scanned)

	deep, err := analyzer.AnalyzeDirectory(context.Background(), dir, true)
	require.NoError(t, err)
	assert.Equal(t, 2, deep.Scanned)

	// The flag travels with the call, the shared settings stay untouched
	assert.False(t, settings.Input.Recursive)
}

func TestAnalyzeDirectoryChangedFolderInvalidatesCache(t *testing.T) {
	dir := t.TempDir()
	writeWAV(t, filepath.Join(dir, "a.wav"), 5)

	classifier := &fakeClassifier{results: []perch.Result{
		{Species: "Parus major", Confidence: 0.75},
	}}
	analyzer := newTestAnalyzer(t, testSettings(t), classifier)

	_, err := analyzer.AnalyzeDirectory(context.Background(), dir, false)
	require.NoError(t, err)
	callsAfterFirst := classifier.calls

	// A new recording changes the folder fingerprint
	writeWAV(t, filepath.Join(dir, "b.wav"), 5)

	run, err := analyzer.AnalyzeDirectory(context.Background(), dir, false)
	require.NoError(t, err)
	assert.False(t, run.FromCache)
	assert.Greater(t, classifier.calls, callsAfterFirst)
	assert.Equal(t, 2, run.Scanned)
}

func TestAnalyzeDirectoryCorruptCacheRecomputes(t *testing.T) {
	dir := t.TempDir()
	writeWAV(t, filepath.Join(dir, "a.wav"), 5)

	settings := testSettings(t)
	classifier := &fakeClassifier{results: []perch.Result{
		{Species: "Parus major", Confidence: 0.75},
	}}
	analyzer := newTestAnalyzer(t, settings, classifier)

	_, err := analyzer.AnalyzeDirectory(context.Background(), dir, false)
	require.NoError(t, err)
	callsAfterFirst := classifier.calls

	// Mangle the cached CSV so the entry no longer parses
	require.NoError(t, os.WriteFile(analyzer.Cache.CSVPath(dir), []byte("garbage"), 0o644))

	run, err := analyzer.AnalyzeDirectory(context.Background(), dir, false)
	require.NoError(t, err)
	assert.False(t, run.FromCache)
	assert.Greater(t, classifier.calls, callsAfterFirst)

	// The recompute rewrote the cache, the next run hits it again
	third, err := analyzer.AnalyzeDirectory(context.Background(), dir, false)
	require.NoError(t, err)
	assert.True(t, third.FromCache)
}

func TestAnalyzeDirectorySkipsBrokenFiles(t *testing.T) {
	dir := t.TempDir()
	writeWAV(t, filepath.Join(dir, "good.wav"), 5)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.wav"), []byte("not audio"), 0o644))

	classifier := &fakeClassifier{results: []perch.Result{
		{Species: "Parus major", Confidence: 0.75},
	}}
	analyzer := newTestAnalyzer(t, testSettings(t), classifier)

	run, err := analyzer.AnalyzeDirectory(context.Background(), dir, false)
	require.NoError(t, err, "a broken file must not fail the whole folder")
	assert.Equal(t, 2, run.Scanned)
	assert.Equal(t, 1, run.Analyzed)
	assert.Equal(t, []string{filepath.Join(dir, "broken.wav")}, run.Skipped)
	assert.Equal(t, 1, run.Results.Len())
}

func TestAnalyzeDirectoryMissingFolder(t *testing.T) {
	analyzer := newTestAnalyzer(t, testSettings(t), &fakeClassifier{})

	_, err := analyzer.AnalyzeDirectory(context.Background(), filepath.Join(t.TempDir(), "gone"), false)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestAnalyzeDirectoryCacheDisabled(t *testing.T) {
	dir := t.TempDir()
	writeWAV(t, filepath.Join(dir, "a.wav"), 5)

	settings := testSettings(t)
	settings.Cache.Enabled = false
	classifier := &fakeClassifier{results: []perch.Result{
		{Species: "Parus major", Confidence: 0.75},
	}}
	analyzer := New(settings, classifier, nil, nil, nil, nil)

	first, err := analyzer.AnalyzeDirectory(context.Background(), dir, false)
	require.NoError(t, err)
	second, err := analyzer.AnalyzeDirectory(context.Background(), dir, false)
	require.NoError(t, err)

	assert.False(t, first.FromCache)
	assert.False(t, second.FromCache)
	assert.Equal(t, 2, classifier.calls)
}

func TestAnalyzeDirectoryCanceledContext(t *testing.T) {
	dir := t.TempDir()
	writeWAV(t, filepath.Join(dir, "a.wav"), 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	analyzer := newTestAnalyzer(t, testSettings(t), &fakeClassifier{})
	_, err := analyzer.AnalyzeDirectory(ctx, dir, false)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeDirectoryDeduplicatesAcrossChunks(t *testing.T) {
	dir := t.TempDir()
	writeWAV(t, filepath.Join(dir, "a.wav"), 10)

	classifier := &fakeClassifier{results: []perch.Result{
		{Species: "Parus major", Confidence: 0.75},
		{Species: "Parus major", Confidence: 0.75},
	}}
	analyzer := newTestAnalyzer(t, testSettings(t), classifier)

	run, err := analyzer.AnalyzeDirectory(context.Background(), dir, false)
	require.NoError(t, err)

	// Duplicate species within one chunk collapses, chunks stay distinct
	assert.Equal(t, 2, run.Results.Len())
}

func TestWriteResultsCsvOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "results.csv")
	rs := detection.FromDetections([]detection.Detection{
		{FilePath: "a.wav", Species: "Parus major", Confidence: 0.75, StartTime: 0, EndTime: 5},
	})

	require.NoError(t, WriteResultsCsv(rs, out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), conf.CacheCSVHeader)
	assert.Contains(t, string(data), "Parus major")
}
