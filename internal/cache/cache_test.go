package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aveslab/perchview/internal/detection"
	"github.com/aveslab/perchview/internal/errors"
)

func testResultSet() *detection.ResultSet {
	return detection.FromDetections([]detection.Detection{
		{FilePath: "/data/morning/a.wav", Species: "Erithacus rubecula", Confidence: 0.87, StartTime: 2, EndTime: 7},
		{FilePath: "/data/morning/a.wav", Species: "Turdus merula", Confidence: 0.65, StartTime: 10, EndTime: 15},
		{FilePath: "/data/morning/b.wav", Species: "Parus major", Confidence: 0.91, StartTime: 0, EndTime: 5},
	})
}

func TestCacheSaveLoadRoundTrip(t *testing.T) {
	c, err := New(t.TempDir())
	require.NoError(t, err)

	folder := "/data/morning"
	rs := testResultSet()

	require.NoError(t, c.Save(folder, rs, &Metadata{Fingerprint: "f1", RunID: "r1"}))

	loaded, meta, err := c.Load(folder)
	require.NoError(t, err)
	assert.True(t, rs.Equal(loaded), "loaded detections must match saved ones in order")
	assert.Equal(t, "f1", meta.Fingerprint)
	assert.Equal(t, "r1", meta.RunID)
	assert.Equal(t, folder, meta.Folder)
	assert.Equal(t, rs.Len(), meta.Detections)
	assert.False(t, meta.CreatedAt.IsZero())
}

func TestCacheLoadMiss(t *testing.T) {
	c, err := New(t.TempDir())
	require.NoError(t, err)

	_, _, err = c.Load("/never/saved")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestCacheLoadCorruptCSV(t *testing.T) {
	c, err := New(t.TempDir())
	require.NoError(t, err)

	folder := "/data/morning"
	require.NoError(t, c.Save(folder, testResultSet(), &Metadata{Fingerprint: "f1"}))

	// Truncate a row so a field goes missing
	data, err := os.ReadFile(c.CSVPath(folder))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	lines[1] = "only,two"
	require.NoError(t, os.WriteFile(c.CSVPath(folder), []byte(strings.Join(lines, "\n")), 0o644))

	_, _, err = c.Load(folder)
	require.Error(t, err)
	assert.True(t, errors.IsCacheCorrupt(err), "malformed CSV must be reported as corrupt, got: %v", err)
}

func TestCacheLoadCorruptSidecar(t *testing.T) {
	c, err := New(t.TempDir())
	require.NoError(t, err)

	folder := "/data/morning"
	require.NoError(t, c.Save(folder, testResultSet(), &Metadata{Fingerprint: "f1"}))
	require.NoError(t, os.WriteFile(c.metaPath(folder), []byte("\t: not yaml"), 0o644))

	_, _, err = c.Load(folder)
	require.Error(t, err)
	assert.True(t, errors.IsCacheCorrupt(err))
}

func TestCacheInvalidate(t *testing.T) {
	c, err := New(t.TempDir())
	require.NoError(t, err)

	folder := "/data/morning"
	require.NoError(t, c.Save(folder, testResultSet(), &Metadata{Fingerprint: "f1"}))
	require.NoError(t, c.Invalidate(folder))

	_, _, err = c.Load(folder)
	assert.ErrorIs(t, err, ErrCacheMiss)

	// Invalidating an absent entry is not an error
	assert.NoError(t, c.Invalidate(folder))
}

func TestCacheSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, c.Save("/data/morning", testResultSet(), &Metadata{Fingerprint: "f1"}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp-", "temp file left behind: %s", e.Name())
	}
	assert.Len(t, entries, 2, "expected exactly the CSV and its sidecar")
}

func TestCacheEntryBaseDistinguishesFolders(t *testing.T) {
	c, err := New(t.TempDir())
	require.NoError(t, err)

	// Same base name under different parents must not collide
	p1 := c.CSVPath(filepath.Join("/data", "a", "recordings"))
	p2 := c.CSVPath(filepath.Join("/data", "b", "recordings"))
	assert.NotEqual(t, p1, p2)
}
