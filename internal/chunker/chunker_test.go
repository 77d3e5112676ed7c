package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragcore/internal/domain"
)

func TestChunk_ShortText(t *testing.T) {
	chunks, err := Chunk("short text", Config{MaxChunkSize: 100, ChunkOverlap: 10})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "short text", chunks[0].Content)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, 0, chunks[0].StartOffset)
	assert.Equal(t, len("short text"), chunks[0].EndOffset)
}

func TestChunk_EmptyText(t *testing.T) {
	chunks, err := Chunk("   ", DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunk_ParagraphsRespectMaxSize(t *testing.T) {
	text := strings.Repeat("A", 500) + "\n\n" + strings.Repeat("B", 500)

	chunks, err := Chunk(text, Config{MaxChunkSize: 200, ChunkOverlap: 0})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.LessOrEqual(t, c.EndOffset-c.StartOffset, 200)
		assert.Equal(t, text[c.StartOffset:c.EndOffset], c.Content)
	}
}

func TestChunk_GreedyAccumulation(t *testing.T) {
	text := "aaaa bbbb cccc dddd eeee"

	chunks, err := Chunk(text, Config{MaxChunkSize: 10, ChunkOverlap: 0, Separators: []string{" "}})
	require.NoError(t, err)

	var contents []string
	for _, c := range chunks {
		contents = append(contents, c.Content)
	}
	assert.Equal(t, []string{"aaaa bbbb", "cccc dddd", "eeee"}, contents)
}

func TestChunk_OverlapKeepsRawOffsets(t *testing.T) {
	text := "aaaa bbbb cccc dddd eeee"

	chunks, err := Chunk(text, Config{MaxChunkSize: 10, ChunkOverlap: 3, Separators: []string{" "}})
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, "aaaa bbbb", chunks[0].Content)
	assert.Equal(t, "bbbcccc dddd", chunks[1].Content)
	assert.Equal(t, "dddeeee", chunks[2].Content)

	assert.Equal(t, 10, chunks[1].StartOffset)
	assert.Equal(t, 19, chunks[1].EndOffset)
	assert.Equal(t, "cccc dddd", text[chunks[1].StartOffset:chunks[1].EndOffset])
}

func TestChunk_HardSplitWithoutSeparators(t *testing.T) {
	text := strings.Repeat("x", 95)

	chunks, err := Chunk(text, Config{MaxChunkSize: 20, ChunkOverlap: 5, Separators: []string{}})
	require.NoError(t, err)
	require.Len(t, chunks, 7)

	for _, c := range chunks {
		assert.LessOrEqual(t, c.EndOffset-c.StartOffset, 15)
		assert.LessOrEqual(t, len(c.Content), 20)
	}
	assert.Equal(t, 0, chunks[0].StartOffset)
	assert.Equal(t, 95, chunks[len(chunks)-1].EndOffset)
}

func TestChunk_HardSplitKeepsRunesIntact(t *testing.T) {
	text := strings.Repeat("é", 30)

	chunks, err := Chunk(text, Config{MaxChunkSize: 7, ChunkOverlap: 0, Separators: []string{}})
	require.NoError(t, err)

	var rebuilt strings.Builder
	for _, c := range chunks {
		assert.True(t, strings.HasPrefix(c.Content, "é"))
		rebuilt.WriteString(c.Content)
	}
	assert.Equal(t, text, rebuilt.String())
}

func TestChunk_RecursesIntoFinerSeparators(t *testing.T) {
	para := "one two three four five six seven eight nine ten"
	text := para + "\n\n" + "short"

	chunks, err := Chunk(text, Config{MaxChunkSize: 20, ChunkOverlap: 0})
	require.NoError(t, err)

	last := chunks[len(chunks)-1]
	assert.Equal(t, "short", last.Content)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c.Content), 20)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"ZeroMax", Config{MaxChunkSize: 0}},
		{"NegativeMax", Config{MaxChunkSize: -1}},
		{"OverlapEqualsMax", Config{MaxChunkSize: 10, ChunkOverlap: 10}},
		{"OverlapAboveMax", Config{MaxChunkSize: 10, ChunkOverlap: 20}},
		{"NegativeOverlap", Config{MaxChunkSize: 10, ChunkOverlap: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Chunk("anything", tt.cfg)
			assert.ErrorIs(t, err, domain.ErrConfig)
		})
	}

	assert.NoError(t, DefaultConfig().Validate())
}

func TestChunkBySentences(t *testing.T) {
	text := "First one. Second one! Third?! Fourth without end"

	chunks := ChunkBySentences(text, 2)
	require.Len(t, chunks, 2)

	assert.Equal(t, "First one. Second one!", chunks[0].Content)
	assert.Equal(t, "Third?! Fourth without end", chunks[1].Content)
	assert.Equal(t, 0, chunks[0].StartOffset)
	assert.Equal(t, len(chunks[0].Content), chunks[0].EndOffset)
	assert.Equal(t, len(chunks[0].Content)+1, chunks[1].StartOffset)
	assert.Equal(t, 1, chunks[1].Index)
}

func TestChunkBySentences_DefaultCount(t *testing.T) {
	text := strings.Repeat("Sentence. ", 12)

	chunks := ChunkBySentences(text, 0)
	require.Len(t, chunks, 3)
	assert.Equal(t, strings.TrimSpace(strings.Repeat("Sentence. ", 5)), chunks[0].Content)
}

func TestMergeSmallChunks(t *testing.T) {
	chunks := []domain.TextChunk{
		{Content: strings.Repeat("a", 5), Index: 0, StartOffset: 0, EndOffset: 5},
		{Content: strings.Repeat("b", 10), Index: 1, StartOffset: 5, EndOffset: 15},
		{Content: strings.Repeat("c", 49), Index: 2, StartOffset: 15, EndOffset: 64},
	}

	merged := MergeSmallChunks(chunks, 30)
	require.Less(t, len(merged), len(chunks))
	require.Len(t, merged, 1)
	assert.Equal(t, 0, merged[0].StartOffset)
	assert.Equal(t, 64, merged[0].EndOffset)
	assert.True(t, strings.HasPrefix(merged[0].Content, "aaaaa\n\nbbbbbbbbbb\n\nccc"))
}

func TestMergeSmallChunks_Renumbers(t *testing.T) {
	chunks := []domain.TextChunk{
		{Content: strings.Repeat("a", 40), Index: 0},
		{Content: "b", Index: 1},
		{Content: "c", Index: 2},
	}

	merged := MergeSmallChunks(chunks, 30)
	require.Len(t, merged, 2)
	assert.Equal(t, 0, merged[0].Index)
	assert.Equal(t, 1, merged[1].Index)
	assert.Equal(t, "b\n\nc", merged[1].Content)
}

func TestMergeSmallChunks_Empty(t *testing.T) {
	assert.Nil(t, MergeSmallChunks(nil, 10))
}
