package hashed

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragcore/internal/similarity"
)

func norm(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x * x
	}
	return math.Sqrt(s)
}

func TestEmbed_Deterministic(t *testing.T) {
	e := NewEmbedder(64)
	ctx := context.Background()

	a, err := e.Embed(ctx, "Vector stores keep embeddings")
	require.NoError(t, err)
	b, err := NewEmbedder(64).Embed(ctx, "Vector stores keep embeddings")
	require.NoError(t, err)

	assert.Equal(t, a.Embedding, b.Embedding)
	assert.Equal(t, 64, a.Dimensions)
	assert.Len(t, a.Embedding, 64)
	assert.Equal(t, ModelName, a.Model)
	assert.InDelta(t, 1.0, norm(a.Embedding), 1e-9)
}

func TestEmbed_CaseAndPunctuationInsensitive(t *testing.T) {
	e := NewEmbedder(128)
	ctx := context.Background()

	a, err := e.Embed(ctx, "Hello, WORLD!")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "hello world")
	require.NoError(t, err)

	assert.Equal(t, a.Embedding, b.Embedding)
}

func TestEmbed_ShortWordsIgnored(t *testing.T) {
	e := NewEmbedder(32)

	res, err := e.Embed(context.Background(), "a an is to of")
	require.NoError(t, err)
	assert.Equal(t, make([]float64, 32), res.Embedding)
}

func TestEmbed_SimilarTextsScoreHigher(t *testing.T) {
	e := NewEmbedder(256)
	ctx := context.Background()

	res, err := e.EmbedBatch(ctx, []string{
		"golang channels and goroutines",
		"goroutines communicate over channels",
		"baking sourdough bread at home",
	})
	require.NoError(t, err)
	require.Len(t, res, 3)

	related, err := similarity.Cosine(res[0].Embedding, res[1].Embedding)
	require.NoError(t, err)
	unrelated, err := similarity.Cosine(res[0].Embedding, res[2].Embedding)
	require.NoError(t, err)
	assert.Greater(t, related, unrelated)
}

func TestEmbedBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEmbedder(8).EmbedBatch(ctx, []string{"text"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewEmbedder_DefaultDimensions(t *testing.T) {
	assert.Equal(t, DefaultDimensions, NewEmbedder(0).Dimensions())
}

func TestBucket(t *testing.T) {
	assert.Equal(t, bucket("vector", 97), bucket("vector", 97))
	for _, w := range []string{"alpha", "beta", "gamma", "δέλτα"} {
		b := bucket(w, 10)
		assert.GreaterOrEqual(t, b, 0)
		assert.Less(t, b, 10)
	}
}
