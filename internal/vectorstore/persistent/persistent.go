// Package persistent wraps an in-memory store and writes a full JSON snapshot
// to a key-value store after every successful mutation.
package persistent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"ragcore/internal/domain"
	"ragcore/internal/kv"
	"ragcore/internal/vectorstore/memory"
)

// DefaultKey is the key snapshots are stored under.
const DefaultKey = "rag-vector-store"

// Storage is a write-through persistent vector store.
type Storage struct {
	*memory.Storage
	kv     kv.Store
	key    string
	logger hclog.Logger
}

// New wraps inner and restores the snapshot stored under key, if any. A
// snapshot that cannot be decoded is logged and ignored; documents whose
// embedding length does not match the store are skipped.
func New(ctx context.Context, inner *memory.Storage, store kv.Store, key string, logger hclog.Logger) (*Storage, error) {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	s := &Storage{Storage: inner, kv: store, key: key, logger: logger}

	raw, err := store.Get(ctx, key)
	switch {
	case errors.Is(err, kv.ErrNotFound):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("load snapshot %q: %w", key, err)
	}

	docs, err := Decode(raw)
	if err != nil {
		logger.Warn("ignoring unreadable snapshot", "key", key, "error", err)
		return s, nil
	}
	valid := docs[:0]
	for _, d := range docs {
		if len(d.Embedding) != inner.Dimensions() {
			logger.Warn("skipping snapshot document", "id", d.ID, "error",
				&domain.DimensionMismatchError{Expected: inner.Dimensions(), Actual: len(d.Embedding)})
			continue
		}
		valid = append(valid, d)
	}
	if err := inner.Import(ctx, valid); err != nil {
		return nil, err
	}
	logger.Debug("restored snapshot", "key", key, "documents", len(valid))
	return s, nil
}

// Encode serializes documents in the snapshot format.
func Encode(docs []domain.VectorDocument) (string, error) {
	if docs == nil {
		docs = []domain.VectorDocument{}
	}
	data, err := json.Marshal(docs)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Decode parses a snapshot. Failures wrap domain.ErrDecode.
func Decode(raw string) ([]domain.VectorDocument, error) {
	var docs []domain.VectorDocument
	if err := json.Unmarshal([]byte(raw), &docs); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}
	return docs, nil
}

// Add inserts doc and persists the snapshot.
func (s *Storage) Add(ctx context.Context, doc domain.VectorDocument) error {
	if err := s.Storage.Add(ctx, doc); err != nil {
		return err
	}
	return s.save(ctx)
}

// AddBatch adds docs in order, persisting after each successful add.
func (s *Storage) AddBatch(ctx context.Context, docs []domain.VectorDocument) error {
	for i, doc := range docs {
		if err := s.Add(ctx, doc); err != nil {
			return fmt.Errorf("add document %d (%s): %w", i, doc.ID, err)
		}
	}
	return nil
}

// Delete removes id and persists the snapshot when something was removed.
func (s *Storage) Delete(ctx context.Context, id string) (bool, error) {
	removed, err := s.Storage.Delete(ctx, id)
	if err != nil || !removed {
		return removed, err
	}
	return true, s.save(ctx)
}

// Clear removes all documents and persists the empty snapshot.
func (s *Storage) Clear(ctx context.Context) error {
	if err := s.Storage.Clear(ctx); err != nil {
		return err
	}
	return s.save(ctx)
}

// Import inserts docs and persists the snapshot.
func (s *Storage) Import(ctx context.Context, docs []domain.VectorDocument) error {
	if err := s.Storage.Import(ctx, docs); err != nil {
		return err
	}
	return s.save(ctx)
}

func (s *Storage) save(ctx context.Context) error {
	raw, err := Encode(s.Export())
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, raw); err != nil {
		return fmt.Errorf("save snapshot %q: %w", s.key, err)
	}
	return nil
}
