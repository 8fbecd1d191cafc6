package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorBuilder(t *testing.T) {
	base := NewStd("model file missing")

	err := New(base).
		Component("perch").
		Category(CategoryModelLoad).
		Context("path", "model/perch_v1.tflite").
		Build()

	assert.Equal(t, "model file missing", err.Error())
	assert.Equal(t, "perch", err.Component)
	assert.Equal(t, CategoryModelLoad, err.Category)
	assert.Equal(t, "model/perch_v1.tflite", err.Context["path"])
	assert.False(t, err.Timestamp.IsZero())
	assert.ErrorIs(t, err, base)
}

func TestErrorBuilderDefaults(t *testing.T) {
	err := Newf("plain failure %d", 42).Build()

	assert.Equal(t, "plain failure 42", err.Error())
	assert.Equal(t, ComponentUnknown, err.Component)
	assert.Equal(t, CategoryGeneric, err.Category)
	assert.Nil(t, err.GetContext())
}

func TestFileContext(t *testing.T) {
	err := Newf("bad file").FileContext("/data/a.wav", 1024).Build()
	assert.Equal(t, "/data/a.wav", err.Context["file_path"])
	assert.Equal(t, int64(1024), err.Context["file_size"])

	// Unknown size is omitted
	err = Newf("bad file").FileContext("/data/a.wav", 0).Build()
	assert.Equal(t, "/data/a.wav", err.Context["file_path"])
	_, hasSize := err.Context["file_size"]
	assert.False(t, hasSize)
}

func TestGetContextReturnsCopy(t *testing.T) {
	err := Newf("failure").Context("key", "value").Build()

	ctx := err.GetContext()
	require.NotNil(t, ctx)
	ctx["key"] = "mutated"

	assert.Equal(t, "value", err.Context["key"])
}

func TestCategoryMatching(t *testing.T) {
	notFound := Newf("no such folder").Category(CategoryNotFound).Build()
	corrupt := Newf("bad csv").Category(CategoryCacheCorrupt).Build()

	assert.True(t, IsNotFound(notFound))
	assert.False(t, IsNotFound(corrupt))
	assert.True(t, IsCacheCorrupt(corrupt))
	assert.False(t, IsCacheCorrupt(notFound))
	assert.False(t, IsNotFound(NewStd("plain")))
}

func TestCategorySurvivesWrapping(t *testing.T) {
	inner := Newf("no such folder").Category(CategoryNotFound).Build()
	wrapped := fmt.Errorf("scan failed: %w", inner)

	assert.True(t, IsNotFound(wrapped))
}

func TestEnhancedErrorIsMatchesCategory(t *testing.T) {
	a := Newf("one").Category(CategoryFileIO).Build()
	b := Newf("two").Category(CategoryFileIO).Build()
	c := Newf("three").Category(CategoryDatabase).Build()

	assert.True(t, Is(a, b), "same category matches")
	assert.False(t, Is(a, c), "different category does not")
}
