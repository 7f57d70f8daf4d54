package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// OpenAIProvider talks to any OpenAI-compatible /embeddings endpoint
// (OpenAI, vLLM, LM Studio, Ollama's /v1).
type OpenAIProvider struct {
	BaseURL    string
	APIKey     string
	Model      string
	MaxRetries int
	client     *http.Client
	sleep      func(context.Context, time.Duration) error
}

func NewOpenAIProvider(baseURL, apiKey, model string) EmbeddingProvider {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "text-embedding-3-small"
	}
	return &OpenAIProvider{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		Model:      model,
		MaxRetries: 5,
		client:     &http.Client{Timeout: 30 * time.Second},
		sleep:      sleepContext,
	}
}

type openAIEmbeddingRequest struct {
	Input string `json:"input"`
	Model string `json:"model"`
}

type openAIEmbeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

var errRetryable = errors.New("retryable embedding failure")

func (p *OpenAIProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	body, err := json.Marshal(openAIEmbeddingRequest{Input: text, Model: p.Model})
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		values, wait, err := p.do(ctx, body)
		if err == nil {
			return &EmbeddingResponse{Embedding: EmbeddingResponseEmbedding{Values: normalizeVector(values)}}, nil
		}
		lastErr = err
		if !errors.Is(err, errRetryable) || attempt == p.MaxRetries {
			break
		}
		if wait == 0 {
			wait = retryDelay(attempt)
		}
		if err := p.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("openai embeddings: %w", lastErr)
}

// do runs one request. A non-zero wait is the server's Retry-After hint.
func (p *OpenAIProvider) do(ctx context.Context, body []byte) ([]float32, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.APIKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		return nil, 0, fmt.Errorf("%w: %v", errRetryable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		var wait time.Duration
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			wait = time.Duration(secs) * time.Second
		}
		return nil, wait, fmt.Errorf("%w: %s", errRetryable, resp.Status)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", errRetryable, err)
	}
	if resp.StatusCode >= 300 {
		return nil, 0, fmt.Errorf("status %s: %s", resp.Status, string(payload))
	}

	var out openAIEmbeddingResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, 0, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
		return nil, 0, errors.New("no embedding returned")
	}

	values := make([]float32, len(out.Data[0].Embedding))
	for i, v := range out.Data[0].Embedding {
		values[i] = float32(v)
	}
	return values, 0, nil
}

// retryDelay is exponential from 200ms, capped at 5s.
func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := 200 * time.Millisecond << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
