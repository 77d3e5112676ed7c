// Package service implements the indexing and retrieval pipelines on top of an
// embedding provider and a vector store.
package service

import (
	"context"
	"fmt"
	"maps"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"ragcore/internal/domain"
	"ragcore/internal/embedding"
	"ragcore/internal/vectorstore"
)

// Document is one input to IndexBatch.
type Document struct {
	Content  string
	Metadata map[string]any
}

// Indexer embeds text and stores the resulting vectors. It does not own the
// provider or the store.
type Indexer struct {
	embedder embedding.Provider
	store    vectorstore.Storage
	logger   hclog.Logger
	newID    func() string
}

// NewIndexer creates an Indexer. A nil logger discards output.
func NewIndexer(embedder embedding.Provider, store vectorstore.Storage, logger hclog.Logger) *Indexer {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Indexer{
		embedder: embedder,
		store:    store,
		logger:   logger,
		newID:    uuid.NewString,
	}
}

// Index embeds content, stores it under a fresh id and returns the id.
func (ix *Indexer) Index(ctx context.Context, content string, metadata map[string]any) (string, error) {
	res, err := ix.embedder.Embed(ctx, content)
	if err != nil {
		return "", fmt.Errorf("embed document: %w", err)
	}
	doc := domain.VectorDocument{
		ID:        ix.newID(),
		Content:   content,
		Embedding: res.Embedding,
		Metadata:  metadata,
	}
	if err := ix.store.Add(ctx, doc); err != nil {
		return "", fmt.Errorf("store document: %w", err)
	}
	ix.logger.Debug("indexed document", "id", doc.ID, "length", len(content))
	return doc.ID, nil
}

// IndexBatch embeds all documents with a single provider call and stores them
// in input order. The returned ids match the input order. When storing fails
// part way, the ids stored so far are returned with the error.
func (ix *Indexer) IndexBatch(ctx context.Context, docs []Document) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}
	results, err := ix.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed batch: %w", err)
	}
	if len(results) != len(docs) {
		return nil, fmt.Errorf("%w: %s returned %d embeddings for %d inputs",
			domain.ErrProvider, ix.embedder.Name(), len(results), len(docs))
	}

	ids := make([]string, 0, len(docs))
	for i, d := range docs {
		doc := domain.VectorDocument{
			ID:        ix.newID(),
			Content:   d.Content,
			Embedding: results[i].Embedding,
			Metadata:  d.Metadata,
		}
		if err := ix.store.Add(ctx, doc); err != nil {
			return ids, fmt.Errorf("store document %d: %w", i, err)
		}
		ids = append(ids, doc.ID)
	}
	ix.logger.Info("indexed batch", "documents", len(ids), "model", ix.embedder.Model())
	return ids, nil
}

// IndexChunks indexes chunks as one batch. Each document carries the shared
// metadata plus the chunk's own metadata and position.
func (ix *Indexer) IndexChunks(ctx context.Context, chunks []domain.TextChunk, metadata map[string]any) ([]string, error) {
	docs := make([]Document, len(chunks))
	for i, c := range chunks {
		md := make(map[string]any, len(metadata)+len(c.Metadata)+3)
		maps.Copy(md, metadata)
		maps.Copy(md, c.Metadata)
		md["chunkIndex"] = c.Index
		md["startOffset"] = c.StartOffset
		md["endOffset"] = c.EndOffset
		docs[i] = Document{Content: c.Content, Metadata: md}
	}
	return ix.IndexBatch(ctx, docs)
}

// Remove deletes the document stored under id and reports whether it existed.
func (ix *Indexer) Remove(ctx context.Context, id string) (bool, error) {
	return ix.store.Delete(ctx, id)
}

// Clear removes every document from the store.
func (ix *Indexer) Clear(ctx context.Context) error {
	return ix.store.Clear(ctx)
}
