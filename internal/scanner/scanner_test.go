package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aveslab/perchview/internal/errors"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestIsAudioFile(t *testing.T) {
	assert.True(t, IsAudioFile("recording.wav"))
	assert.True(t, IsAudioFile("recording.WAV"))
	assert.True(t, IsAudioFile("recording.flac"))
	assert.False(t, IsAudioFile("recording.mp3"))
	assert.False(t, IsAudioFile("notes.txt"))
	assert.False(t, IsAudioFile("wav"))
}

func TestScanFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.wav"))
	touch(t, filepath.Join(dir, "a.flac"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, "c.mp3"))

	files, err := Scan(dir, false)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.flac"),
		filepath.Join(dir, "b.wav"),
	}, files)
}

func TestScanRecursive(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "top.wav"))
	touch(t, filepath.Join(dir, "sub", "nested.wav"))

	flat, err := Scan(dir, false)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "top.wav")}, flat)

	deep, err := Scan(dir, true)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "sub", "nested.wav"),
		filepath.Join(dir, "top.wav"),
	}, deep)
}

func TestScanEmptyDir(t *testing.T) {
	files, err := Scan(t.TempDir(), true)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestScanMissingPath(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "gone"), false)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestScanPathIsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.wav")
	touch(t, path)

	_, err := Scan(path, false)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}
