package domain

import "time"

// TextChunk is a bounded segment of a source text produced by a chunker.
// StartOffset and EndOffset delimit the raw span in the source; Content may
// additionally carry overlap copied from the preceding chunk.
type TextChunk struct {
	Content     string
	Index       int
	StartOffset int
	EndOffset   int
	Metadata    map[string]any
}

// EmbeddingResult is the vector produced for a single input text.
type EmbeddingResult struct {
	Embedding  []float64
	Text       string
	Model      string
	Dimensions int
}

// VectorDocument is a stored entry of a vector store.
type VectorDocument struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	Embedding []float64      `json:"embedding"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// SearchResult represents a matching document with a relevance score.
// Higher scores always mean more similar. Distance is set only for
// distance-based metrics.
type SearchResult struct {
	Document VectorDocument `json:"document"`
	Score    float64        `json:"score"`
	Distance *float64       `json:"distance,omitempty"`
}

// RetrievalResult is the assembled answer to a retrieval query.
type RetrievalResult struct {
	Query         string         `json:"query"`
	Documents     []SearchResult `json:"documents"`
	Context       string         `json:"context"`
	TokenEstimate int            `json:"tokenEstimate"`
}

// DocumentFilter reports whether a document may appear in search results.
type DocumentFilter func(doc VectorDocument) bool
