package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"ragcore/internal/domain"
)

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries"`
	// RequestsPerSecond throttles calls to the endpoint; zero means no limit.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type       string                `yaml:"type"`
	Dimensions int                   `yaml:"dimensions"`
	OpenAI     *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	Strategy          string   `yaml:"strategy"`
	MaxChunkSize      int      `yaml:"max_chunk_size"`
	ChunkOverlap      int      `yaml:"chunk_overlap"`
	Separators        []string `yaml:"separators,omitempty"`
	PreserveStructure bool     `yaml:"preserve_structure"`
	SentencesPerChunk int      `yaml:"sentences_per_chunk"`
	MinChunkSize      int      `yaml:"min_chunk_size"`
}

// MinIOConfig contains connection details for the object storage backend.
// Credentials are read from the named environment variables.
type MinIOConfig struct {
	Endpoint     string `yaml:"endpoint"`
	Bucket       string `yaml:"bucket"`
	Prefix       string `yaml:"prefix"`
	UseSSL       bool   `yaml:"use_ssl"`
	AccessKeyEnv string `yaml:"access_key_env"`
	SecretKeyEnv string `yaml:"secret_key_env"`
}

// PersistenceConfig selects where a persistent vector store keeps its snapshot.
type PersistenceConfig struct {
	Backend string       `yaml:"backend"`
	Key     string       `yaml:"key"`
	Path    string       `yaml:"path"`
	MinIO   *MinIOConfig `yaml:"minio,omitempty"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type         string            `yaml:"type"`
	Metric       string            `yaml:"metric"`
	MaxDocuments int               `yaml:"max_documents"`
	Persistence  PersistenceConfig `yaml:"persistence"`
}

// RetrieverConfig holds retrieval defaults.
type RetrieverConfig struct {
	TopK             int     `yaml:"top_k"`
	MinScore         float64 `yaml:"min_score"`
	MaxContextLength int     `yaml:"max_context_length"`
}

// TokensConfig selects the token estimator calibration.
type TokensConfig struct {
	Model string `yaml:"model"`
}

// LoggingConfig configures the root logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedder    EmbedderConfig    `yaml:"embedder"`
	Chunker     ChunkerConfig     `yaml:"chunker"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Retriever   RetrieverConfig   `yaml:"retriever"`
	Tokens      TokensConfig      `yaml:"tokens"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML and applies defaults to unset fields. The min_score
// default is set before decoding so an explicit zero is kept.
func Parse(data []byte) (*AppConfig, error) {
	cfg := AppConfig{Retriever: RetrieverConfig{MinScore: 0.5}}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, domain.ConfigErrorf("parse config: %v", err)
	}
	applyConfigDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/rag/config.yaml.
// If neither exists, it writes defaults to ~/.config/rag/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := DefaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// DefaultUserConfigPath returns ~/.config/rag/config.yaml.
func DefaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "rag", "config.yaml"), nil
}

// Default returns the configuration used when no file exists.
func Default() *AppConfig {
	cfg := &AppConfig{
		Embedder: EmbedderConfig{Type: "local"},
		Chunker:  ChunkerConfig{Strategy: "recursive"},
		VectorStore: VectorStoreConfig{
			Type:        "persistent",
			Persistence: PersistenceConfig{Backend: "file"},
		},
		Retriever: RetrieverConfig{MinScore: 0.5},
	}
	applyConfigDefaults(cfg)
	return cfg
}

// Validate checks cross-field constraints. Errors wrap domain.ErrConfig.
func (c *AppConfig) Validate() error {
	switch c.Embedder.Type {
	case "local", "tfidf", "openai":
	default:
		return domain.ConfigErrorf("unknown embedder type %q", c.Embedder.Type)
	}
	if c.Embedder.Dimensions <= 0 {
		return domain.ConfigErrorf("embedder dimensions must be positive, got %d", c.Embedder.Dimensions)
	}

	switch c.Chunker.Strategy {
	case "recursive", "sentence":
	default:
		return domain.ConfigErrorf("unknown chunker strategy %q", c.Chunker.Strategy)
	}
	if c.Chunker.MaxChunkSize <= 0 {
		return domain.ConfigErrorf("max_chunk_size must be positive, got %d", c.Chunker.MaxChunkSize)
	}
	if c.Chunker.ChunkOverlap < 0 || c.Chunker.ChunkOverlap >= c.Chunker.MaxChunkSize {
		return domain.ConfigErrorf("chunk_overlap must be in [0, %d), got %d", c.Chunker.MaxChunkSize, c.Chunker.ChunkOverlap)
	}

	switch c.VectorStore.Type {
	case "memory":
	case "persistent":
		switch c.VectorStore.Persistence.Backend {
		case "memory", "file", "sqlite", "minio":
		default:
			return domain.ConfigErrorf("unknown persistence backend %q", c.VectorStore.Persistence.Backend)
		}
		if c.VectorStore.Persistence.Backend == "minio" && c.VectorStore.Persistence.MinIO == nil {
			return domain.ConfigErrorf("persistence backend minio requires a minio section")
		}
	default:
		return domain.ConfigErrorf("unknown vector store type %q", c.VectorStore.Type)
	}
	if c.VectorStore.MaxDocuments < 0 {
		return domain.ConfigErrorf("max_documents must not be negative, got %d", c.VectorStore.MaxDocuments)
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return domain.ConfigErrorf("unknown logging format %q", c.Logging.Format)
	}
	return nil
}

func applyConfigDefaults(cfg *AppConfig) {
	cfg.Embedder.Type = strings.ToLower(cfg.Embedder.Type)
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "local"
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
		if cfg.Embedder.OpenAI.MaxRetries == 0 {
			cfg.Embedder.OpenAI.MaxRetries = 3
		}
	}
	if cfg.Embedder.Dimensions == 0 {
		if cfg.Embedder.Type == "openai" {
			cfg.Embedder.Dimensions = 1536
		} else {
			cfg.Embedder.Dimensions = 384
		}
	}

	if cfg.Chunker.Strategy == "" {
		cfg.Chunker.Strategy = "recursive"
	}
	if cfg.Chunker.MaxChunkSize == 0 {
		cfg.Chunker.MaxChunkSize = 1000
		if cfg.Chunker.ChunkOverlap == 0 {
			cfg.Chunker.ChunkOverlap = 200
		}
	}
	if cfg.Chunker.SentencesPerChunk == 0 {
		cfg.Chunker.SentencesPerChunk = 5
	}

	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "memory"
	}
	if cfg.VectorStore.Metric == "" {
		cfg.VectorStore.Metric = "cosine"
	}
	p := &cfg.VectorStore.Persistence
	if p.Backend == "" {
		p.Backend = "file"
	}
	if p.Key == "" {
		p.Key = "rag-vector-store"
	}
	if p.Path == "" {
		switch p.Backend {
		case "file":
			p.Path = defaultDataPath("snapshots")
		case "sqlite":
			p.Path = defaultDataPath("rag.db")
		}
	}
	if p.MinIO != nil {
		if p.MinIO.AccessKeyEnv == "" {
			p.MinIO.AccessKeyEnv = "MINIO_ACCESS_KEY"
		}
		if p.MinIO.SecretKeyEnv == "" {
			p.MinIO.SecretKeyEnv = "MINIO_SECRET_KEY"
		}
	}

	if cfg.Retriever.TopK == 0 {
		cfg.Retriever.TopK = 5
	}
	if cfg.Retriever.MaxContextLength == 0 {
		cfg.Retriever.MaxContextLength = 4000
	}

	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	cfg.Logging.Format = strings.ToLower(cfg.Logging.Format)
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

func defaultDataPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".rag", name)
	}
	return filepath.Join(home, ".local", "share", "rag", name)
}
