// Package hashed implements a deterministic local embedder. Each word is
// hashed into one of a fixed number of buckets and the term-frequency
// histogram is L2-normalized. It is often configured under the name "tfidf",
// but there is no inverse-document-frequency weighting.
package hashed

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"ragcore/internal/domain"
	"ragcore/internal/similarity"
)

// Default values
const (
	DefaultDimensions = 384
	ModelName         = "hashed-bow"
	minWordLength     = 3
)

// Embedder is a hashed bag-of-words embedder with no external dependencies.
type Embedder struct {
	dimensions   int
	tokenPattern *regexp.Regexp
}

// NewEmbedder creates an embedder producing vectors of the given dimension.
// A non-positive dimension selects DefaultDimensions.
func NewEmbedder(dimensions int) *Embedder {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &Embedder{
		dimensions:   dimensions,
		tokenPattern: regexp.MustCompile(`[\p{L}\p{N}]+`),
	}
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "local" }

// Model returns the model identifier reported in results.
func (e *Embedder) Model() string { return ModelName }

// Dimensions returns the dimensionality of the produced embedding vectors.
func (e *Embedder) Dimensions() int { return e.dimensions }

// Embed computes the embedding of a single text.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return res[0], nil
}

// EmbedBatch computes embeddings for texts in order.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([]domain.EmbeddingResult, error) {
	out := make([]domain.EmbeddingResult, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = domain.EmbeddingResult{
			Embedding:  e.vector(text),
			Text:       text,
			Model:      ModelName,
			Dimensions: e.dimensions,
		}
	}
	return out, nil
}

func (e *Embedder) vector(text string) []float64 {
	vec := make([]float64, e.dimensions)
	for _, tok := range e.tokenize(text) {
		vec[bucket(tok, e.dimensions)]++
	}
	similarity.Normalize(vec)
	return vec
}

func (e *Embedder) tokenize(text string) []string {
	raw := e.tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if utf8.RuneCountInString(t) >= minWordLength {
			out = append(out, t)
		}
	}
	return out
}

// bucket is a multiply-and-add rolling hash reduced modulo n.
func bucket(word string, n int) int {
	var h uint32
	for _, r := range word {
		h = h*31 + uint32(r)
	}
	return int(h % uint32(n))
}
