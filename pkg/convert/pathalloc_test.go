package convert

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputPathLayout(t *testing.T) {
	fs := afero.NewMemMapFs()
	alloc := NewPathAllocator(fs, "/media")

	now := time.Date(2026, time.August, 29, 10, 7, 3, 0, time.UTC)
	path, err := alloc.OutputPath(now, "sample")
	require.NoError(t, err)
	assert.Equal(t, "/media/2026/Aug/29/10/07/03/sample.mp3", path)

	isDir, err := afero.IsDir(fs, "/media/2026/Aug/29/10/07/03")
	require.NoError(t, err)
	assert.True(t, isDir)
}

func TestOutputPathIdempotentDirCreation(t *testing.T) {
	fs := afero.NewMemMapFs()
	alloc := NewPathAllocator(fs, "/media")
	now := time.Date(2026, time.January, 2, 3, 4, 5, 0, time.UTC)

	first, err := alloc.OutputPath(now, "a")
	require.NoError(t, err)
	second, err := alloc.OutputPath(now, "b")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestOutputPathSameSecondSameStemCollides(t *testing.T) {
	fs := afero.NewMemMapFs()
	alloc := NewPathAllocator(fs, "/media")
	now := time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC)

	// same second + same stem resolve to the same path; the later conversion
	// overwrites the earlier one
	first, err := alloc.OutputPath(now, "take")
	require.NoError(t, err)
	second, err := alloc.OutputPath(now, "take")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
