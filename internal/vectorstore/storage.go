// Package vectorstore defines the vector store capability and builds the
// configured implementation.
package vectorstore

import (
	"context"

	"ragcore/internal/domain"
)

// Storage keeps vectors with their source content and supports similarity search.
type Storage interface {
	Dimensions() int
	Add(ctx context.Context, doc domain.VectorDocument) error
	AddBatch(ctx context.Context, docs []domain.VectorDocument) error
	Search(query []float64, topK int, filter domain.DocumentFilter) ([]domain.SearchResult, error)
	Get(id string) (domain.VectorDocument, bool)
	Delete(ctx context.Context, id string) (bool, error)
	Clear(ctx context.Context) error
	Size() int
	Export() []domain.VectorDocument
	Import(ctx context.Context, docs []domain.VectorDocument) error
}
