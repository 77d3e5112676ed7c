// Package openai implements the remote embedder against an OpenAI-compatible
// embeddings endpoint.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	goopenai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"ragcore/internal/domain"
)

// Default values
const (
	DefaultBaseURL    = "https://api.openai.com/v1"
	DefaultAPIKeyEnv  = "OPENAI_API_KEY"
	DefaultModel      = "text-embedding-3-small"
	DefaultDimensions = 1536
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 5
)

// Config configures the OpenAI-compatible embeddings client.
type Config struct {
	BaseURL    string
	APIKey     string // If empty, read from APIKeyEnv
	APIKeyEnv  string
	Model      string
	Dimensions int
	Timeout    time.Duration
	// MaxRetries bounds retries of rate-limited, 5xx and transport failures.
	// Zero disables retrying.
	MaxRetries int
	// RequestsPerSecond throttles requests, retries included. Zero means
	// no limit.
	RequestsPerSecond float64
}

// Client is an OpenAI-compatible embeddings client implementing embedding.Provider.
type Client struct {
	client     *goopenai.Client
	model      string
	dimensions int
	maxRetries int
	limiter    *rate.Limiter
}

// NewClient creates a new embeddings client. It fails when no API key is
// configured.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = DefaultAPIKeyEnv
	}
	key := cfg.APIKey
	if key == "" {
		key = os.Getenv(cfg.APIKeyEnv)
	}
	if key == "" {
		return nil, domain.ConfigErrorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultDimensions
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	clientConfig := goopenai.DefaultConfig(key)
	clientConfig.BaseURL = cfg.BaseURL
	clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	c := &Client{
		client:     goopenai.NewClientWithConfig(clientConfig),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		maxRetries: cfg.MaxRetries,
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return c, nil
}

// Name returns the identifier of this embedder implementation.
func (c *Client) Name() string { return "openai" }

// Model returns the requested embedding model.
func (c *Client) Model() string { return c.model }

// Dimensions returns the dimensionality requested from the endpoint.
func (c *Client) Dimensions() int { return c.dimensions }

// Embed returns the embedding for a single text.
func (c *Client) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return res[0], nil
}

// EmbedBatch embeds all texts with a single request.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([]domain.EmbeddingResult, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var resp goopenai.EmbeddingResponse
	operation := func() error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return backoff.Permanent(err)
			}
		}
		var err error
		resp, err = c.client.CreateEmbeddings(ctx, goopenai.EmbeddingRequest{
			Input:      texts,
			Model:      goopenai.EmbeddingModel(c.model),
			Dimensions: c.dimensions,
		})
		if err != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.maxRetries)), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		return nil, &domain.ProviderError{Provider: c.Name(), StatusCode: statusCode(err), Err: err}
	}

	if len(resp.Data) != len(texts) {
		return nil, &domain.ProviderError{
			Provider: c.Name(),
			Err:      fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data)),
		}
	}

	out := make([]domain.EmbeddingResult, len(texts))
	for i, data := range resp.Data {
		idx := data.Index
		if idx < 0 || idx >= len(texts) {
			idx = i
		}
		if len(data.Embedding) != c.dimensions {
			return nil, &domain.DimensionMismatchError{Expected: c.dimensions, Actual: len(data.Embedding)}
		}
		vec := make([]float64, len(data.Embedding))
		for j, v := range data.Embedding {
			vec[j] = float64(v)
		}
		out[idx] = domain.EmbeddingResult{
			Embedding:  vec,
			Text:       texts[idx],
			Model:      c.model,
			Dimensions: c.dimensions,
		}
	}
	return out, nil
}

func statusCode(err error) int {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

// retryable reports rate limits, server errors and transport failures.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	code := statusCode(err)
	return code == 0 || code == http.StatusTooManyRequests || code >= 500
}
