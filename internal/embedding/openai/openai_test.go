package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragcore/internal/domain"
)

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions"`
}

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func writeEmbeddings(w http.ResponseWriter, vectors [][]float32) {
	data := make([]map[string]any, len(vectors))
	for i, v := range vectors {
		data[i] = map[string]any{"object": "embedding", "index": i, "embedding": v}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"object": "list",
		"model":  "test-model",
		"data":   data,
	})
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	t.Setenv("RAG_TEST_MISSING_KEY", "")

	_, err := NewClient(Config{APIKeyEnv: "RAG_TEST_MISSING_KEY"})
	assert.ErrorIs(t, err, domain.ErrConfig)
}

func TestNewClient_ReadsKeyFromEnv(t *testing.T) {
	t.Setenv("RAG_TEST_KEY", "sk-test")

	c, err := NewClient(Config{APIKeyEnv: "RAG_TEST_KEY"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, c.Model())
	assert.Equal(t, DefaultDimensions, c.Dimensions())
	assert.Equal(t, "openai", c.Name())
}

func TestEmbedBatch_SingleRequest(t *testing.T) {
	var calls atomic.Int32
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req embeddingRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.Equal(t, []string{"first", "second"}, req.Input)
		assert.Equal(t, 3, req.Dimensions)

		writeEmbeddings(w, [][]float32{{1, 0, 0}, {0, 1, 0}})
	})

	c, err := NewClient(Config{BaseURL: srv.URL + "/v1", APIKey: "sk-test", Model: "test-model", Dimensions: 3})
	require.NoError(t, err)

	res, err := c.EmbedBatch(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, res, 2)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, []float64{1, 0, 0}, res[0].Embedding)
	assert.Equal(t, "second", res[1].Text)
	assert.Equal(t, 3, res[1].Dimensions)
	assert.Equal(t, "test-model", res[1].Model)
}

func TestEmbed_Single(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeEmbeddings(w, [][]float32{{0.5, 0.5}})
	})

	c, err := NewClient(Config{BaseURL: srv.URL, APIKey: "sk-test", Dimensions: 2})
	require.NoError(t, err)

	res, err := c.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", res.Text)
	assert.Equal(t, []float64{0.5, 0.5}, res.Embedding)
}

func TestEmbedBatch_ErrorStatus(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	})

	c, err := NewClient(Config{BaseURL: srv.URL, APIKey: "sk-test", Dimensions: 2, MaxRetries: 3})
	require.NoError(t, err)

	_, err = c.EmbedBatch(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProvider)

	var perr *domain.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, http.StatusUnauthorized, perr.StatusCode)
}

func TestEmbedBatch_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeEmbeddings(w, [][]float32{{1, 2}})
	})

	c, err := NewClient(Config{BaseURL: srv.URL, APIKey: "sk-test", Dimensions: 2, MaxRetries: 2})
	require.NoError(t, err)

	res, err := c.Embed(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, res.Embedding)
	assert.Equal(t, int32(2), calls.Load())
}

func TestEmbedBatch_WrongDimension(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeEmbeddings(w, [][]float32{{1, 2, 3}})
	})

	c, err := NewClient(Config{BaseURL: srv.URL, APIKey: "sk-test", Dimensions: 2})
	require.NoError(t, err)

	_, err = c.Embed(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestEmbedBatch_Empty(t *testing.T) {
	c, err := NewClient(Config{APIKey: "sk-test"})
	require.NoError(t, err)

	res, err := c.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestEmbedBatch_RateLimited(t *testing.T) {
	var calls atomic.Int32
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeEmbeddings(w, [][]float32{{1, 2}})
	})

	c, err := NewClient(Config{BaseURL: srv.URL, APIKey: "sk-test", Dimensions: 2, RequestsPerSecond: 0.5})
	require.NoError(t, err)

	_, err = c.Embed(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Embed(ctx, "second")
	assert.ErrorIs(t, err, domain.ErrProvider)
	assert.Equal(t, int32(1), calls.Load())
}
