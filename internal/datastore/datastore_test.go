package datastore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aveslab/perchview/internal/conf"
	"github.com/aveslab/perchview/internal/detection"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = filepath.Join(t.TempDir(), "perchview.db")

	store, ok := New(settings).(*SQLiteStore)
	require.True(t, ok)
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testResultSet() *detection.ResultSet {
	return detection.FromDetections([]detection.Detection{
		{FilePath: "a.wav", Species: "Erithacus rubecula", Confidence: 0.87, StartTime: 0, EndTime: 5},
		{FilePath: "a.wav", Species: "Erithacus rubecula", Confidence: 0.71, StartTime: 5, EndTime: 10},
		{FilePath: "b.wav", Species: "Parus major", Confidence: 0.65, StartTime: 0, EndTime: 5},
	})
}

func TestNewDisabled(t *testing.T) {
	assert.Nil(t, New(&conf.Settings{}), "no store when the SQLite sink is off")
}

func TestSaveAndGetRun(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.SaveRun("run-1", "/data/morning", testResultSet()))

	records, err := store.GetRun("run-1")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Erithacus rubecula", records[0].Species)
	assert.Equal(t, "/data/morning", records[0].Folder)
	assert.InDelta(t, 0.87, records[0].Confidence, 1e-9)

	other, err := store.GetRun("run-2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestSaveRunEmpty(t *testing.T) {
	store := openTestStore(t)
	assert.NoError(t, store.SaveRun("run-1", "/data/morning", detection.NewResultSet()))
}

func TestGetLastDetections(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.SaveRun("run-1", "/data/morning", testResultSet()))

	records, err := store.GetLastDetections(2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	// Most recent rows first
	assert.Equal(t, "Parus major", records[0].Species)
}

func TestSpeciesCounts(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.SaveRun("run-1", "/data/morning", testResultSet()))

	counts, err := store.SpeciesCounts()
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, SpeciesCount{Species: "Erithacus rubecula", Count: 2}, counts[0])
	assert.Equal(t, SpeciesCount{Species: "Parus major", Count: 1}, counts[1])
}
