package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"ragcore/internal/domain"
	"ragcore/internal/similarity"
)

// DefaultTopK is used when a search asks for a non-positive number of results.
const DefaultTopK = 5

// Config fixes the shape of a store at construction.
type Config struct {
	Dimensions int
	Metric     similarity.Metric
	// MaxDocuments bounds the store; zero means unbounded.
	MaxDocuments int
}

type entry struct {
	doc domain.VectorDocument
	seq uint64
}

// Storage is an in-memory vector store using an exhaustive scan.
// It is safe for concurrent use.
type Storage struct {
	mu      sync.RWMutex
	config  Config
	entries map[string]*entry
	seq     uint64
	now     func() time.Time
}

// NewStorage creates an empty store.
func NewStorage(cfg Config) (*Storage, error) {
	if cfg.Dimensions <= 0 {
		return nil, domain.ConfigErrorf("invalid dimension %d", cfg.Dimensions)
	}
	if cfg.MaxDocuments < 0 {
		return nil, domain.ConfigErrorf("invalid max documents %d", cfg.MaxDocuments)
	}
	return &Storage{
		config:  cfg,
		entries: make(map[string]*entry),
		now:     time.Now,
	}, nil
}

// Config returns the store configuration.
func (s *Storage) Config() Config { return s.config }

// Dimensions returns the vector length every document must have.
func (s *Storage) Dimensions() int { return s.config.Dimensions }

// Add inserts doc, replacing any document with the same id. When the store is
// full the document with the oldest creation time is evicted first.
func (s *Storage) Add(_ context.Context, doc domain.VectorDocument) error {
	if len(doc.Embedding) != s.config.Dimensions {
		return &domain.DimensionMismatchError{Expected: s.config.Dimensions, Actual: len(doc.Embedding)}
	}
	doc = clone(doc)

	s.mu.Lock()
	defer s.mu.Unlock()

	doc.CreatedAt = s.now()
	if e, ok := s.entries[doc.ID]; ok {
		s.seq++
		e.doc, e.seq = doc, s.seq
		return nil
	}
	if s.config.MaxDocuments > 0 {
		for len(s.entries) >= s.config.MaxDocuments {
			s.evictOldest()
		}
	}
	s.insert(doc)
	return nil
}

// AddBatch adds docs in order and stops at the first failure. Documents added
// before the failure stay in the store.
func (s *Storage) AddBatch(ctx context.Context, docs []domain.VectorDocument) error {
	for i, doc := range docs {
		if err := s.Add(ctx, doc); err != nil {
			return fmt.Errorf("add document %d (%s): %w", i, doc.ID, err)
		}
	}
	return nil
}

// Search returns up to topK documents ordered by descending score. Documents
// rejected by filter are skipped. Equal scores are ordered by id.
func (s *Storage) Search(query []float64, topK int, filter domain.DocumentFilter) ([]domain.SearchResult, error) {
	if len(query) != s.config.Dimensions {
		return nil, &domain.DimensionMismatchError{Expected: s.config.Dimensions, Actual: len(query)}
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]domain.SearchResult, 0, len(s.entries))
	for _, e := range s.entries {
		if filter != nil && !filter(e.doc) {
			continue
		}
		score, dist, err := similarity.Score(s.config.Metric, query, e.doc.Embedding)
		if err != nil {
			return nil, fmt.Errorf("score document %s: %w", e.doc.ID, err)
		}
		results = append(results, domain.SearchResult{Document: e.doc, Score: score, Distance: dist})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Document.ID < results[j].Document.ID
	})
	if len(results) > topK {
		results = results[:topK]
	}
	for i := range results {
		results[i].Document = clone(results[i].Document)
	}
	return results, nil
}

// Get returns a copy of the document stored under id.
func (s *Storage) Get(id string) (domain.VectorDocument, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return domain.VectorDocument{}, false
	}
	return clone(e.doc), true
}

// Delete removes the document stored under id and reports whether it existed.
func (s *Storage) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return false, nil
	}
	delete(s.entries, id)
	return true, nil
}

// Clear removes all documents.
func (s *Storage) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*entry)
	return nil
}

// Size returns the number of stored documents.
func (s *Storage) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Export returns a snapshot of all documents in insertion order.
func (s *Storage) Export() []domain.VectorDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ordered := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		ordered = append(ordered, e)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].seq < ordered[j].seq })

	docs := make([]domain.VectorDocument, len(ordered))
	for i, e := range ordered {
		docs[i] = clone(e.doc)
	}
	return docs
}

// Import inserts or overwrites docs by id. Dimensions are not checked and
// capacity is not enforced; a zero CreatedAt is set to the current time.
func (s *Storage) Import(_ context.Context, docs []domain.VectorDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range docs {
		doc = clone(doc)
		if doc.CreatedAt.IsZero() {
			doc.CreatedAt = s.now()
		}
		if e, ok := s.entries[doc.ID]; ok {
			s.seq++
			e.doc, e.seq = doc, s.seq
			continue
		}
		s.insert(doc)
	}
	return nil
}

func (s *Storage) insert(doc domain.VectorDocument) {
	s.seq++
	s.entries[doc.ID] = &entry{doc: doc, seq: s.seq}
}

// evictOldest removes the entry with the oldest creation time, using
// insertion order to break ties. Callers hold the write lock.
func (s *Storage) evictOldest() {
	var oldest *entry
	for _, e := range s.entries {
		if oldest == nil || older(e, oldest) {
			oldest = e
		}
	}
	if oldest != nil {
		delete(s.entries, oldest.doc.ID)
	}
}

func older(a, b *entry) bool {
	if !a.doc.CreatedAt.Equal(b.doc.CreatedAt) {
		return a.doc.CreatedAt.Before(b.doc.CreatedAt)
	}
	return a.seq < b.seq
}

func clone(doc domain.VectorDocument) domain.VectorDocument {
	doc.Embedding = slices.Clone(doc.Embedding)
	doc.Metadata = maps.Clone(doc.Metadata)
	return doc
}
