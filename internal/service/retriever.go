package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"

	"ragcore/internal/domain"
	"ragcore/internal/embedding"
	"ragcore/internal/vectorstore"
)

// ContextSeparator is placed between documents in an assembled context.
const ContextSeparator = "\n\n---\n\n"

// RetrieverConfig holds the retrieval defaults.
type RetrieverConfig struct {
	TopK             int
	MinScore         float64
	MaxContextLength int
}

// DefaultRetrieverConfig returns topK 5, minScore 0.5 and a 4000 character
// context budget.
func DefaultRetrieverConfig() RetrieverConfig {
	return RetrieverConfig{TopK: 5, MinScore: 0.5, MaxContextLength: 4000}
}

type retrieveOptions struct {
	RetrieverConfig
	metadata bool
	filter   domain.DocumentFilter
}

// Option overrides a retrieval setting for one call.
type Option func(*retrieveOptions)

// WithTopK sets the number of candidates fetched from the store.
func WithTopK(k int) Option {
	return func(o *retrieveOptions) { o.TopK = k }
}

// WithMinScore sets the lowest score a document may have to be kept.
func WithMinScore(score float64) Option {
	return func(o *retrieveOptions) { o.MinScore = score }
}

// WithMaxContextLength sets the character budget of the context.
func WithMaxContextLength(n int) Option {
	return func(o *retrieveOptions) { o.MaxContextLength = n }
}

// WithMetadata controls whether document metadata is rendered in the context.
func WithMetadata(include bool) Option {
	return func(o *retrieveOptions) { o.metadata = include }
}

// WithFilter restricts the search to documents accepted by filter.
func WithFilter(filter domain.DocumentFilter) Option {
	return func(o *retrieveOptions) { o.filter = filter }
}

// Retriever turns a query into ranked documents and a bounded context string.
type Retriever struct {
	embedder embedding.Provider
	store    vectorstore.Storage
	config   RetrieverConfig
	logger   hclog.Logger
}

// NewRetriever creates a Retriever. Non-positive TopK and MaxContextLength
// fall back to the defaults.
func NewRetriever(embedder embedding.Provider, store vectorstore.Storage, cfg RetrieverConfig, logger hclog.Logger) *Retriever {
	def := DefaultRetrieverConfig()
	if cfg.TopK <= 0 {
		cfg.TopK = def.TopK
	}
	if cfg.MaxContextLength <= 0 {
		cfg.MaxContextLength = def.MaxContextLength
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Retriever{embedder: embedder, store: store, config: cfg, logger: logger}
}

// Config returns the retriever defaults.
func (r *Retriever) Config() RetrieverConfig { return r.config }

// Retrieve embeds query, searches the store and assembles the context. No
// match is not an error: the result then has no documents and an empty context.
func (r *Retriever) Retrieve(ctx context.Context, query string, opts ...Option) (domain.RetrievalResult, error) {
	o := retrieveOptions{RetrieverConfig: r.config, metadata: true}
	for _, opt := range opts {
		opt(&o)
	}

	emb, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return domain.RetrievalResult{}, fmt.Errorf("embed query: %w", err)
	}
	candidates, err := r.store.Search(emb.Embedding, o.TopK, o.filter)
	if err != nil {
		return domain.RetrievalResult{}, fmt.Errorf("search: %w", err)
	}

	docs := make([]domain.SearchResult, 0, len(candidates))
	for _, c := range candidates {
		if c.Score < o.MinScore {
			continue
		}
		docs = append(docs, c)
	}

	contextText, used := BuildContext(docs, o.MaxContextLength, o.metadata)
	r.logger.Debug("retrieved", "candidates", len(candidates), "kept", len(docs), "in_context", used)

	return domain.RetrievalResult{
		Query:         query,
		Documents:     docs,
		Context:       contextText,
		TokenEstimate: EstimateTokens(contextText),
	}, nil
}

// BuildContext joins documents in ranked order and stops before the first
// document that would make the context longer than maxLength characters. It
// returns the context and how many documents it holds.
func BuildContext(docs []domain.SearchResult, maxLength int, withMetadata bool) (string, int) {
	var b strings.Builder
	used := 0
	for _, d := range docs {
		part := d.Document.Content
		if withMetadata && len(d.Document.Metadata) > 0 {
			part = FormatMetadata(d.Document.Metadata) + "\n" + part
		}
		next := len(part)
		if used > 0 {
			next += len(ContextSeparator)
		}
		if b.Len()+next > maxLength {
			break
		}
		if used > 0 {
			b.WriteString(ContextSeparator)
		}
		b.WriteString(part)
		used++
	}
	return b.String(), used
}

// FormatMetadata renders metadata as "[k1: v1, k2: v2]" with sorted keys.
func FormatMetadata(md map[string]any) string {
	keys := make([]string, 0, len(md))
	for k := range md {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = fmt.Sprintf("%s: %v", k, md[k])
	}
	return "[" + strings.Join(pairs, ", ") + "]"
}

// EstimateTokens is the four characters per token rule used for context
// budgeting.
func EstimateTokens(text string) int {
	return int(math.Ceil(float64(len(text)) / 4))
}
