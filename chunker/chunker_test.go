package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequence(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteByte(byte('a' + i%26))
	}
	return sb.String()
}

func TestNew_RejectsInvalidWindows(t *testing.T) {
	tests := []struct {
		name          string
		size, overlap int
	}{
		{"zero size", 0, 0},
		{"negative size", -5, 0},
		{"negative overlap", 10, -1},
		{"overlap equals size", 10, 10},
		{"overlap exceeds size", 10, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.size, tt.overlap)
			assert.ErrorIs(t, err, ErrInvalidWindow)

			_, err = Chunk("some text", tt.size, tt.overlap)
			assert.ErrorIs(t, err, ErrInvalidWindow)
		})
	}
}

func TestChunk_ShortTextIsSingleChunk(t *testing.T) {
	for _, text := range []string{"", "short", sequence(500)} {
		chunks, err := Chunk(text, 500, 50)
		require.NoError(t, err)
		assert.Equal(t, []string{text}, chunks)
	}
}

func TestChunk_EndToEndSizing(t *testing.T) {
	text := sequence(1200)

	chunks, err := Chunk(text, 500, 50)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 500)
	assert.Len(t, chunks[1], 500)
	assert.Len(t, chunks[2], 300)
	assert.Equal(t, text[900:], chunks[2])
}

func TestChunk_CountMatchesFormula(t *testing.T) {
	tests := []struct {
		length, size, overlap int
	}{
		{1200, 500, 50},
		{950, 500, 50},
		{951, 500, 50},
		{1000, 100, 0},
		{1001, 100, 0},
		{37, 10, 9},
		{10, 3, 1},
	}
	for _, tt := range tests {
		chunks, err := Chunk(sequence(tt.length), tt.size, tt.overlap)
		require.NoError(t, err)
		assert.Len(t, chunks, Count(tt.length, tt.size, tt.overlap),
			"length=%d size=%d overlap=%d", tt.length, tt.size, tt.overlap)
	}
}

func TestCount(t *testing.T) {
	assert.Equal(t, 1, Count(0, 500, 50))
	assert.Equal(t, 1, Count(500, 500, 50))
	assert.Equal(t, 3, Count(1200, 500, 50))
	assert.Equal(t, 2, Count(950, 500, 50))
	assert.Equal(t, 3, Count(951, 500, 50))
	assert.Equal(t, 10, Count(1000, 100, 0))
}

func TestChunk_AdjacentChunksShareOverlap(t *testing.T) {
	const size, overlap = 40, 7
	text := sequence(333)

	chunks, err := Chunk(text, size, overlap)
	require.NoError(t, err)
	for i := 0; i+1 < len(chunks); i++ {
		assert.Len(t, chunks[i], size)
		tail := chunks[i][size-overlap:]
		assert.Equal(t, tail, chunks[i+1][:overlap], "chunk %d", i)
	}
	last := chunks[len(chunks)-1]
	assert.True(t, strings.HasSuffix(text, last))
	assert.LessOrEqual(t, len(last), size)
}

func TestChunk_ReassemblesOriginal(t *testing.T) {
	const size, overlap = 64, 16
	text := sequence(1000)

	chunks, err := Chunk(text, size, overlap)
	require.NoError(t, err)

	var sb strings.Builder
	sb.WriteString(chunks[0])
	for _, c := range chunks[1:] {
		sb.WriteString(c[overlap:])
	}
	assert.Equal(t, text, sb.String())
}

func TestChunk_CountsRunes(t *testing.T) {
	text := strings.Repeat("é", 12)

	chunks, err := Chunk(text, 5, 1)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for _, c := range chunks[:2] {
		assert.Equal(t, 5, len([]rune(c)))
	}
	assert.Equal(t, "éééé", chunks[2])
}

func TestChunk_Deterministic(t *testing.T) {
	text := sequence(777)
	a, err := Chunk(text, 100, 25)
	require.NoError(t, err)
	b, err := Chunk(text, 100, 25)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestChunker_Split(t *testing.T) {
	c, err := New(500, 50)
	require.NoError(t, err)
	assert.Equal(t, 500, c.Size())
	assert.Equal(t, 50, c.Overlap())
	assert.Len(t, c.Split(sequence(1200)), 3)

	d := Default()
	assert.Equal(t, DefaultSize, d.Size())
	assert.Equal(t, DefaultOverlap, d.Overlap())
}
