package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/loggerson/loggerson/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, lines []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lines.log")
	err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644)
	require.NoError(t, err)
	return path
}

func TestFileLineSourceYieldsSingleBlockUnderChunkSize(t *testing.T) {
	path := writeTestFile(t, []string{validLine, validLine, validLine})

	src, err := OpenFileSource(path, ChunkSize)
	require.NoError(t, err)
	defer src.Close()

	block, ok, err := src.NextBlock()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, block.Lines, 3)

	_, ok, err = src.NextBlock()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileLineSourceSkipsBlankLines(t *testing.T) {
	path := writeTestFile(t, []string{validLine, "", validLine})

	src, err := OpenFileSource(path, ChunkSize)
	require.NoError(t, err)
	defer src.Close()

	block, ok, err := src.NextBlock()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, block.Lines, 2)
}

// TestFileLineSourceChunksAcrossChunkSizeBoundary exercises a file
// large enough to span two blocks, using testutil's realistic
// multi-line fixture generator rather than a handful of literal lines.
func TestFileLineSourceChunksAcrossChunkSizeBoundary(t *testing.T) {
	path, cleanup := testutil.GenerateTestLogFile(t, ChunkSize+50_000)
	defer cleanup()

	src, err := OpenFileSource(path, ChunkSize)
	require.NoError(t, err)
	defer src.Close()

	first, ok, err := src.NextBlock()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, first.Lines, ChunkSize)

	second, ok, err := src.NextBlock()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, second.Lines, 50_000)

	_, ok, err = src.NextBlock()
	require.NoError(t, err)
	assert.False(t, ok)
}
