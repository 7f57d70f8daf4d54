package search

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"strings"
	"testing"
	"unicode/utf8"

	"screening-onboarding-be/internal/pkg/logger"
	"screening-onboarding-be/pkg/embedding"
	"screening-onboarding-be/pkg/rag/chunker"
	"screening-onboarding-be/pkg/rag/index"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticEmbedder struct {
	vec []float32
	err error
}

func (s staticEmbedder) Generate(ctx context.Context, text, task string) (*embedding.EmbeddingResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &embedding.EmbeddingResponse{Embedding: embedding.EmbeddingResponseEmbedding{Values: s.vec}}, nil
}

type fakeIndex struct {
	entries []index.Entry
	asked   int
}

func (f *fakeIndex) Nearest(ctx context.Context, corpus string, vec []float32, k int) ([]index.Entry, error) {
	f.asked = k
	if k > len(f.entries) {
		k = len(f.entries)
	}
	return f.entries[:k], nil
}

func randomVectors(r *rand.Rand, n, dim int) [][]float32 {
	out := make([][]float32, n)
	for i := range out {
		out[i] = make([]float32, dim)
		for j := range out[i] {
			out[i][j] = float32(r.NormFloat64())
		}
	}
	return out
}

func similarityRanking(query []float32, candidates [][]float32, k int) []int {
	idx := make([]int, len(candidates))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return index.Cosine(query, candidates[idx[a]]) > index.Cosine(query, candidates[idx[b]])
	})
	if k > len(idx) {
		k = len(idx)
	}
	return idx[:k]
}

func TestMMRLambdaOneEqualsSimilarityRanking(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for trial := 0; trial < 25; trial++ {
		candidates := randomVectors(r, 20, 16)
		query := randomVectors(r, 1, 16)[0]
		for _, k := range []int{1, 5, 20, 30} {
			assert.Equal(t, similarityRanking(query, candidates, k), MMR(query, candidates, k, 1.0))
		}
	}
}

func TestMMRPrefersDiversity(t *testing.T) {
	query := []float32{1, 0.2}
	candidates := [][]float32{
		{1, 0},
		{0.99, 0.01},
		{0.7, 0.7},
	}

	assert.Equal(t, []int{1, 0, 2}, MMR(query, candidates, 3, 1.0))
	assert.Equal(t, []int{1, 2, 0}, MMR(query, candidates, 3, 0.5))
}

func TestMMRTiesResolveToEarlierCandidate(t *testing.T) {
	same := []float32{0.5, 0.5}
	assert.Equal(t, []int{0, 1, 2}, MMR([]float32{1, 1}, [][]float32{same, same, same}, 3, 0.5))
}

func TestMMREdgeCases(t *testing.T) {
	assert.Nil(t, MMR([]float32{1}, nil, 5, 0.5))
	assert.Nil(t, MMR([]float32{1}, [][]float32{{1}}, 0, 0.5))
	assert.Equal(t, []int{0}, MMR([]float32{1}, [][]float32{{1}}, 5, 0.5))
}

func TestSearchLambdaOneMatchesSimilarityRanking(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	vectors := randomVectors(r, 20, 8)
	query := randomVectors(r, 1, 8)[0]

	idx := &fakeIndex{}
	for i, v := range vectors {
		idx.entries = append(idx.entries, index.Entry{ID: string(rune('a' + i)), Text: "passage " + string(rune('a'+i)), Vector: v})
	}

	e := NewEngine(idx, staticEmbedder{vec: query}, Config{Lambda: 1}, logger.NewNop())
	got, err := e.Search(context.Background(), index.Documentation, "anything", 5)
	require.NoError(t, err)

	var want []string
	for _, i := range similarityRanking(query, vectors, 5) {
		want = append(want, idx.entries[i].Text)
	}
	assert.Equal(t, want, got)
	assert.Equal(t, 20, idx.asked)
}

func TestSearchClientIdentifierScenario(t *testing.T) {
	ctx := context.Background()
	embedder := embedding.NewHashingProvider(256)
	m := index.NewManager(index.NewMemoryBackend(),
		chunker.New(chunker.Config{PlainSize: 40, PlainOverlap: 0}), embedder, logger.NewNop())

	sentence := "The client identifier is required"
	_, err := m.Ingest(ctx, index.Documentation, []chunker.Document{
		{SourceID: "rules.txt", ContentType: chunker.Plain, Text: sentence + "\n\n" + sentence + "\n\n" + sentence + "   \n"},
		{SourceID: "webhooks.txt", ContentType: chunker.Plain, Text: "Webhooks deliver results later."},
	})
	require.NoError(t, err)

	e := NewEngine(m, embedder, DefaultConfig(), logger.NewNop())
	got, err := e.Search(ctx, index.Documentation, "client identifier", 5)
	require.NoError(t, err)
	assert.Equal(t, 1, countContaining(got, "client identifier is required"))
	assert.Len(t, got, 2)

	// the same sentence under another source id is a separate entry but
	// still one passage
	_, err = m.Ingest(ctx, index.Documentation, []chunker.Document{
		{SourceID: "faq.txt", ContentType: chunker.Plain, Text: "the client identifier is REQUIRED"},
	})
	require.NoError(t, err)
	got, err = e.Search(ctx, index.Documentation, "client identifier", 5)
	require.NoError(t, err)
	assert.Equal(t, 1, countContaining(got, "client identifier is required"))
}

func countContaining(passages []string, substr string) int {
	n := 0
	for _, p := range passages {
		if strings.Contains(strings.ToLower(p), substr) {
			n++
		}
	}
	return n
}

func TestSearchMissingCorpusReturnsEmpty(t *testing.T) {
	embedder := embedding.NewHashingProvider(64)
	m := index.NewManager(index.NewMemoryBackend(), chunker.New(chunker.DefaultConfig()), embedder, logger.NewNop())
	e := NewEngine(m, embedder, DefaultConfig(), logger.NewNop())

	got, err := e.Search(context.Background(), index.SessionCorpus("nobody"), "client code", 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearchTruncatesAndCaps(t *testing.T) {
	long := strings.Repeat("ä", 2000)
	idx := &fakeIndex{}
	for i := 0; i < 8; i++ {
		idx.entries = append(idx.entries, index.Entry{
			Text:   strings.Repeat(string(rune('a'+i)), 10) + long,
			Vector: []float32{1, float32(i)},
		})
	}

	e := NewEngine(idx, staticEmbedder{vec: []float32{1, 0}}, DefaultConfig(), logger.NewNop())
	got, err := e.Search(context.Background(), index.Documentation, "q", 0)
	require.NoError(t, err)
	require.Len(t, got, 5)
	for _, p := range got {
		assert.Equal(t, 1200, utf8.RuneCountInString(p))
	}
}

func TestSearchDedupsAfterTruncation(t *testing.T) {
	prefix := strings.Repeat("x", 1200)
	idx := &fakeIndex{entries: []index.Entry{
		{Text: prefix + " tail one", Vector: []float32{1, 0}},
		{Text: prefix + " tail two", Vector: []float32{1, 0.1}},
		{Text: "different", Vector: []float32{0, 1}},
	}}

	e := NewEngine(idx, staticEmbedder{vec: []float32{1, 0}}, DefaultConfig(), logger.NewNop())
	got, err := e.Search(context.Background(), index.Documentation, "q", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{prefix, "different"}, got)
}

func TestSearchDedupDoesNotRefill(t *testing.T) {
	prefix := strings.Repeat("x", 1200)
	idx := &fakeIndex{entries: []index.Entry{
		{Text: prefix + " tail one", Vector: []float32{1, 0}},
		{Text: prefix + " tail two", Vector: []float32{1, 0.1}},
		{Text: "different", Vector: []float32{0, 1}},
	}}

	cfg := DefaultConfig()
	cfg.Lambda = 1
	e := NewEngine(idx, staticEmbedder{vec: []float32{1, 0}}, cfg, logger.NewNop())
	got, err := e.Search(context.Background(), index.Documentation, "q", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{prefix}, got)
}

func TestSearchPropagatesEmbeddingFailure(t *testing.T) {
	e := NewEngine(&fakeIndex{}, staticEmbedder{err: errors.New("connection refused")}, DefaultConfig(), logger.NewNop())
	_, err := e.Search(context.Background(), index.Documentation, "q", 5)
	assert.ErrorContains(t, err, "connection refused")
}

func TestSearchBlankQuery(t *testing.T) {
	e := NewEngine(&fakeIndex{}, staticEmbedder{err: errors.New("must not be called")}, DefaultConfig(), logger.NewNop())
	got, err := e.Search(context.Background(), index.Documentation, "   ", 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}
