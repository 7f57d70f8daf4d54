package search

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"screening-onboarding-be/internal/pkg/logger"
	"screening-onboarding-be/pkg/embedding"
	"screening-onboarding-be/pkg/rag/chunker"
	"screening-onboarding-be/pkg/rag/index"
)

// Index is the read side of index.Manager.
type Index interface {
	Nearest(ctx context.Context, corpus string, vec []float32, k int) ([]index.Entry, error)
}

type Config struct {
	FetchK          int
	Lambda          float64
	K               int
	MaxPassageRunes int
}

func DefaultConfig() Config {
	return Config{
		FetchK:          20,
		Lambda:          0.5,
		K:               5,
		MaxPassageRunes: 1200,
	}
}

// Passage is one search hit.
type Passage struct {
	Text     string  `json:"text"`
	SourceID string  `json:"source_id"`
	Score    float64 `json:"score"`
}

// Engine runs embedding search with MMR re-ranking over an Index.
type Engine struct {
	index    Index
	embedder embedding.EmbeddingProvider
	cfg      Config
	logger   logger.ILogger
}

func NewEngine(idx Index, embedder embedding.EmbeddingProvider, cfg Config, log logger.ILogger) *Engine {
	def := DefaultConfig()
	if cfg.FetchK <= 0 {
		cfg.FetchK = def.FetchK
	}
	if cfg.K <= 0 {
		cfg.K = def.K
	}
	if cfg.MaxPassageRunes <= 0 {
		cfg.MaxPassageRunes = def.MaxPassageRunes
	}
	if cfg.Lambda < 0 || cfg.Lambda > 1 {
		cfg.Lambda = def.Lambda
	}
	return &Engine{index: idx, embedder: embedder, cfg: cfg, logger: log}
}

// Search returns at most k passage texts. k <= 0 means the configured default.
func (e *Engine) Search(ctx context.Context, corpus, query string, k int) ([]string, error) {
	passages, err := e.SearchPassages(ctx, corpus, query, k)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(passages))
	for i, p := range passages {
		out[i] = p.Text
	}
	return out, nil
}

// SearchPassages is Search with source and score attached. A corpus that
// does not exist or holds nothing yields an empty result, not an error.
func (e *Engine) SearchPassages(ctx context.Context, corpus, query string, k int) ([]Passage, error) {
	if k <= 0 {
		k = e.cfg.K
	}
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	res, err := e.embedder.Generate(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	vec := res.Embedding.Values

	fetchK := e.cfg.FetchK
	if fetchK < k {
		fetchK = k
	}
	candidates, err := e.index.Nearest(ctx, corpus, vec, fetchK)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", corpus, err)
	}
	if len(candidates) == 0 {
		e.logger.Debug("SEARCH", "No candidates", map[string]interface{}{"corpus": corpus})
		return nil, nil
	}

	vectors := make([][]float32, len(candidates))
	for i, c := range candidates {
		vectors[i] = c.Vector
	}
	order := MMR(vec, vectors, k, e.cfg.Lambda)

	// Duplicates among the selected passages are dropped, not replaced.
	seen := make(map[string]struct{}, k)
	passages := make([]Passage, 0, k)
	for _, i := range order {
		text := truncateRunes(candidates[i].Text, e.cfg.MaxPassageRunes)
		h := chunker.Hash(text)
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		passages = append(passages, Passage{
			Text:     text,
			SourceID: candidates[i].SourceID,
			Score:    index.Cosine(vec, candidates[i].Vector),
		})
		if len(passages) == k {
			break
		}
	}

	e.logger.Debug("SEARCH", "Search complete", map[string]interface{}{
		"corpus": corpus, "candidates": len(candidates), "returned": len(passages),
	})
	return passages, nil
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
