package embedding

import (
	"context"
	"fmt"
)

// Task types passed through to providers that distinguish query and document embeddings.
const (
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
)

type EmbeddingResponseEmbedding struct {
	Values []float32 `json:"values"`
}

type EmbeddingResponse struct {
	Embedding EmbeddingResponseEmbedding `json:"embedding"`
}

// EmbeddingProvider defines the interface for generating text embeddings
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error)
}

type Config struct {
	Provider  string
	Model     string
	BaseURL   string
	APIKey    string
	Dimension int
}

// NewProvider picks an embedding backend by name. "hashing" needs no network and
// is what the CLIs fall back to when nothing else is configured.
func NewProvider(cfg Config) (EmbeddingProvider, error) {
	switch cfg.Provider {
	case "ollama":
		return NewOllamaProvider(cfg.BaseURL, cfg.Model), nil
	case "openai":
		return NewOpenAIProvider(cfg.BaseURL, cfg.APIKey, cfg.Model), nil
	case "gemini":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("gemini embedding provider needs an api key")
		}
		return NewGeminiProvider(cfg.APIKey, cfg.Model), nil
	case "hashing", "":
		return NewHashingProvider(cfg.Dimension), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
