package textproc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugel-ilo/sgd-backend/internal/core"
)

func TestChunk_EmptyInput(t *testing.T) {
	chunks, err := Chunk("", 800, 100)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunk_ShortInputSingleChunk(t *testing.T) {
	text := strings.Repeat("a", 500)
	chunks, err := Chunk(text, 800, 100)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestChunk_ExactSizeSingleChunk(t *testing.T) {
	text := strings.Repeat("a", 800)
	chunks, err := Chunk(text, 800, 100)
	require.NoError(t, err)
	assert.Len(t, chunks, 1)
}

func TestChunk_TwoChunksWithOverlap(t *testing.T) {
	text := strings.Repeat("a", 1500)
	chunks, err := Chunk(text, 800, 100)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Len(t, chunks[0], 800)
	assert.Equal(t, chunks[0][700:], chunks[1][:100])
}

func TestChunk_InvalidConfiguration(t *testing.T) {
	_, err := Chunk("algo de texto", 100, 100)
	require.Error(t, err)
	assert.Equal(t, core.KindInput, core.KindOf(err))

	_, err = Chunk("algo de texto", 50, 100)
	require.Error(t, err)
	assert.Equal(t, core.KindInput, core.KindOf(err))
}

func TestChunk_OverlapInvariant(t *testing.T) {
	// Distinct characters so overlapping spans can only match by position.
	var b strings.Builder
	for i := 0; i < 3000; i++ {
		b.WriteRune(rune('a' + i%26))
	}
	chunks, err := Chunk(b.String(), 800, 100)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 2)

	for i := 0; i < len(chunks)-1; i++ {
		cur, next := chunks[i], chunks[i+1]
		assert.Equal(t, cur[len(cur)-100:], next[:100], "chunks %d/%d", i, i+1)
	}
}

func TestChunk_Reconstruction(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 2500; i++ {
		b.WriteRune(rune('A' + i%26))
	}
	text := b.String()

	chunks, err := Chunk(text, 800, 100)
	require.NoError(t, err)

	rebuilt := chunks[0]
	for _, c := range chunks[1:] {
		rebuilt += c[100:]
	}
	assert.Equal(t, text, rebuilt)
}
