// Package app assembles the RAG components from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"

	"ragcore/internal/chunker"
	"ragcore/internal/config"
	"ragcore/internal/domain"
	"ragcore/internal/embedding"
	"ragcore/internal/embedding/hashed"
	"ragcore/internal/embedding/openai"
	"ragcore/internal/kv"
	"ragcore/internal/service"
	"ragcore/internal/similarity"
	"ragcore/internal/tokens"
	"ragcore/internal/vectorstore"
)

// App holds the wired components of one configuration.
type App struct {
	Config    *config.AppConfig
	Logger    hclog.Logger
	Embedder  embedding.Provider
	Store     vectorstore.Storage
	Indexer   *service.Indexer
	Retriever *service.Retriever
	Tokens    *tokens.Estimator

	chunker *chunker.Chunker
	closers []func() error
}

// NewLogger builds the root logger from the logging section.
func NewLogger(cfg config.LoggingConfig, out io.Writer) hclog.Logger {
	if out == nil {
		out = os.Stderr
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:       "rag",
		Level:      hclog.LevelFromString(cfg.Level),
		Output:     out,
		JSONFormat: cfg.Format == "json",
	})
}

// NewRegistry returns a registry with the built-in embedders. "tfidf" is
// accepted as an alias of the local hashed embedder.
func NewRegistry() *embedding.Registry {
	r := embedding.NewRegistry()
	local := func(cfg embedding.Config) (embedding.Provider, error) {
		return hashed.NewEmbedder(cfg.Dimensions), nil
	}
	r.Register("local", local)
	r.Register("tfidf", local)
	r.Register("openai", func(cfg embedding.Config) (embedding.Provider, error) {
		oc, _ := cfg.Options.(openai.Config)
		oc.Dimensions = cfg.Dimensions
		if cfg.Model != "" {
			oc.Model = cfg.Model
		}
		return openai.NewClient(oc)
	})
	return r
}

// New wires every component described by cfg. A nil logger discards output.
func New(ctx context.Context, cfg *config.AppConfig, logger hclog.Logger) (*App, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return NewWithRegistry(ctx, cfg, NewRegistry(), logger)
}

// NewWithRegistry is New with a caller supplied embedder registry.
func NewWithRegistry(ctx context.Context, cfg *config.AppConfig, registry *embedding.Registry, logger hclog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Logger: logger, Tokens: tokens.ForModel(cfg.Tokens.Model)}

	emb, err := registry.Create(cfg.Embedder.Type, embeddingConfig(cfg.Embedder))
	if err != nil {
		return nil, err
	}
	a.Embedder = emb

	ch, err := chunker.New(chunker.Config{
		MaxChunkSize:      cfg.Chunker.MaxChunkSize,
		ChunkOverlap:      cfg.Chunker.ChunkOverlap,
		Separators:        cfg.Chunker.Separators,
		PreserveStructure: cfg.Chunker.PreserveStructure,
	})
	if err != nil {
		return nil, err
	}
	a.chunker = ch

	store, err := a.openStore(ctx, cfg, emb.Dimensions())
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Store = store

	a.Indexer = service.NewIndexer(emb, store, logger.Named("indexer"))
	a.Retriever = service.NewRetriever(emb, store, service.RetrieverConfig{
		TopK:             cfg.Retriever.TopK,
		MinScore:         cfg.Retriever.MinScore,
		MaxContextLength: cfg.Retriever.MaxContextLength,
	}, logger.Named("retriever"))

	logger.Debug("components ready",
		"embedder", emb.Name(), "model", emb.Model(), "dimensions", emb.Dimensions(),
		"store", cfg.VectorStore.Type, "documents", store.Size())
	return a, nil
}

func embeddingConfig(cfg config.EmbedderConfig) embedding.Config {
	ec := embedding.Config{Dimensions: cfg.Dimensions}
	if cfg.OpenAI != nil {
		ec.Model = cfg.OpenAI.Model
		ec.Options = openai.Config{
			BaseURL:           cfg.OpenAI.BaseURL,
			APIKeyEnv:         cfg.OpenAI.APIKeyEnv,
			Model:             cfg.OpenAI.Model,
			Timeout:           time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
			MaxRetries:        cfg.OpenAI.MaxRetries,
			RequestsPerSecond: cfg.OpenAI.RequestsPerSecond,
		}
	}
	return ec
}

func (a *App) openStore(ctx context.Context, cfg *config.AppConfig, dims int) (vectorstore.Storage, error) {
	metric, err := similarity.ParseMetric(cfg.VectorStore.Metric)
	if err != nil {
		return nil, err
	}
	vc := vectorstore.Config{
		Type:         cfg.VectorStore.Type,
		Dimensions:   dims,
		Metric:       metric,
		MaxDocuments: cfg.VectorStore.MaxDocuments,
		Key:          cfg.VectorStore.Persistence.Key,
	}
	if vc.Type != vectorstore.TypePersistent {
		return vectorstore.New(ctx, vc, nil, a.Logger.Named("store"))
	}

	snapshots, closeFn, err := kv.Open(ctx, kvConfig(cfg.VectorStore.Persistence))
	if err != nil {
		return nil, fmt.Errorf("open %s persistence: %w", cfg.VectorStore.Persistence.Backend, err)
	}
	a.closers = append(a.closers, closeFn)
	return vectorstore.New(ctx, vc, snapshots, a.Logger.Named("store"))
}

func kvConfig(p config.PersistenceConfig) kv.Config {
	kc := kv.Config{Backend: p.Backend, Path: p.Path}
	if p.MinIO != nil {
		kc.MinIO = kv.MinIOConfig{
			Endpoint:        p.MinIO.Endpoint,
			AccessKeyID:     os.Getenv(p.MinIO.AccessKeyEnv),
			SecretAccessKey: os.Getenv(p.MinIO.SecretKeyEnv),
			Bucket:          p.MinIO.Bucket,
			Prefix:          p.MinIO.Prefix,
			UseSSL:          p.MinIO.UseSSL,
		}
	}
	return kc
}

// Chunk splits text with the configured strategy and merges chunks below the
// configured minimum size.
func (a *App) Chunk(text string) []domain.TextChunk {
	var chunks []domain.TextChunk
	switch a.Config.Chunker.Strategy {
	case "sentence":
		chunks = chunker.ChunkBySentences(text, a.Config.Chunker.SentencesPerChunk)
	default:
		chunks = a.chunker.Chunk(text)
	}
	if a.Config.Chunker.MinChunkSize > 0 {
		chunks = chunker.MergeSmallChunks(chunks, a.Config.Chunker.MinChunkSize)
	}
	return chunks
}

// IndexText chunks text and indexes the chunks in one batch.
func (a *App) IndexText(ctx context.Context, text string, metadata map[string]any) ([]string, error) {
	chunks := a.Chunk(text)
	if len(chunks) == 0 {
		return nil, nil
	}
	return a.Indexer.IndexChunks(ctx, chunks, metadata)
}

// Close releases persistence resources.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	a.closers = nil
	return errors.Join(errs...)
}
