package tokens

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCount(t *testing.T) {
	e := New()
	tests := []struct {
		name     string
		text     string
		expected int
	}{
		{"Empty", "", 0},
		{"Words", "hello world", 2},
		{"Punctuation", "Hello, world!", 3},
		{"HalfTokenRoundsUp", "Hello.", 2},
		{"LongWord", "internationalization", 5},
		{"Whitespace", "  spaced \n\t out  ", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, e.Count(tt.text))
		})
	}
}

func TestForModel(t *testing.T) {
	text := "one two three four five six seven eight nine ten"

	assert.Equal(t, 10, New().Count(text))
	assert.Equal(t, 11, ForModel("claude-3-5-sonnet").Count(text))
	assert.Equal(t, 10, ForModel("gpt-4o").Count(text))
	assert.InDelta(t, GPTMultiplier, ForModel("gpt-4o").Multiplier(), 1e-9)
	assert.InDelta(t, DefaultMultiplier, ForModel("llama3").Multiplier(), 1e-9)
}

func TestTruncate_Short(t *testing.T) {
	e := New()
	assert.Equal(t, "fits easily", e.Truncate("fits easily", 10))
	assert.Equal(t, "", e.Truncate("does not fit", 0))
}

func TestTruncate_SentenceBoundary(t *testing.T) {
	e := New()
	text := "This is the first sentence. This is the second sentence. This is the third one here."

	got := e.Truncate(text, 12)
	assert.Equal(t, "This is the first sentence. This is the second sentence.", got)
	assert.LessOrEqual(t, e.Count(got), 12)
}

func TestTruncate_WordBoundary(t *testing.T) {
	e := New()
	text := strings.Repeat("word ", 40)

	got := e.Truncate(text, 10)
	assert.True(t, strings.HasPrefix(text, got))
	assert.False(t, strings.HasSuffix(got, " "))
	assert.Equal(t, 10, e.Count(got))
}

func TestTruncate_HardCut(t *testing.T) {
	e := New()
	text := strings.Repeat("x", 100)

	got := e.Truncate(text, 5)
	require.True(t, strings.HasSuffix(got, Ellipsis))
	assert.LessOrEqual(t, e.Count(got), 5)
	assert.True(t, strings.HasPrefix(text, strings.TrimSuffix(got, Ellipsis)))
}

func TestSplit(t *testing.T) {
	e := New()
	text := strings.Repeat("word ", 30) + "The end."

	parts := e.Split(text, 10)
	require.Greater(t, len(parts), 1)
	for _, p := range parts {
		assert.LessOrEqual(t, e.Count(p), 10)
		assert.NotEmpty(t, p)
	}
	assert.Equal(t, strings.Fields(text), strings.Fields(strings.Join(parts, " ")))
}

func TestSplit_Degenerate(t *testing.T) {
	e := New()
	assert.Nil(t, e.Split("anything", 0))
	assert.Empty(t, e.Split("   ", 5))
	assert.Equal(t, []string{"fits"}, e.Split("fits", 5))
}
