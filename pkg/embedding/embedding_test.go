package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func norm(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func TestNormalizeVector(t *testing.T) {
	got := normalizeVector([]float32{3, 4})
	assert.InDelta(t, 0.6, got[0], 1e-6)
	assert.InDelta(t, 0.8, got[1], 1e-6)

	zero := []float32{0, 0, 0}
	assert.Equal(t, zero, normalizeVector(zero))
}

func TestHashingProvider(t *testing.T) {
	p := NewHashingProvider(256)
	ctx := context.Background()

	a, err := p.Generate(ctx, "The client identifier is required", TaskRetrievalDocument)
	require.NoError(t, err)
	b, err := p.Generate(ctx, "the CLIENT identifier is   required", TaskRetrievalQuery)
	require.NoError(t, err)
	c, err := p.Generate(ctx, "Webhook retries use exponential backoff", TaskRetrievalDocument)
	require.NoError(t, err)

	assert.Len(t, a.Embedding.Values, 256)
	assert.InDelta(t, 1.0, norm(a.Embedding.Values), 1e-5)
	assert.Equal(t, a.Embedding.Values, b.Embedding.Values)
	assert.Greater(t, dot(a.Embedding.Values, b.Embedding.Values), dot(a.Embedding.Values, c.Embedding.Values))

	empty, err := p.Generate(ctx, "", TaskRetrievalQuery)
	require.NoError(t, err)
	assert.Zero(t, norm(empty.Embedding.Values))
}

func TestOllamaProviderGenerate(t *testing.T) {
	var got ollamaEmbeddingRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"embedding": []float64{0, 3, 4}})
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "nomic-embed-text")
	res, err := p.Generate(context.Background(), "client code", TaskRetrievalQuery)
	require.NoError(t, err)

	assert.Equal(t, "search_query: client code", got.Prompt)
	assert.Equal(t, "nomic-embed-text", got.Model)
	assert.InDeltaSlice(t, []float32{0, 0.6, 0.8}, res.Embedding.Values, 1e-6)
}

func TestOllamaProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewOllamaProvider(srv.URL, "missing").Generate(context.Background(), "x", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not found")
}

func TestOpenAIProviderRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		if atomic.AddInt32(&calls, 1) < 3 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{{"embedding": []float64{1, 0}}},
		})
	}))
	defer srv.Close()

	p := NewOpenAIProvider(srv.URL+"/", "secret", "").(*OpenAIProvider)
	var waits []time.Duration
	p.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	res, err := p.Generate(context.Background(), "hello", TaskRetrievalQuery)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, res.Embedding.Values)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, []time.Duration{time.Second, time.Second}, waits)
}

func TestOpenAIProviderClientErrorIsFinal(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad model", http.StatusBadRequest)
	}))
	defer srv.Close()

	p := NewOpenAIProvider(srv.URL, "", "nope").(*OpenAIProvider)
	p.sleep = func(context.Context, time.Duration) error { return nil }

	_, err := p.Generate(context.Background(), "hello", "")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default is hashing", Config{}, false},
		{"ollama", Config{Provider: "ollama"}, false},
		{"openai", Config{Provider: "openai", APIKey: "k"}, false},
		{"gemini without key", Config{Provider: "gemini"}, true},
		{"unknown", Config{Provider: "word2vec"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, p)
		})
	}
}
