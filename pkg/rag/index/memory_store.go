package index

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps entries in insertion order. It backs the memory backend
// and is the ephemeral fallback when a persistent store fails.
type MemoryStore struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (s *MemoryStore) Upsert(ctx context.Context, entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		if _, ok := s.entries[e.ID]; !ok {
			s.order = append(s.order, e.ID)
		}
		e.Vector = append([]float32(nil), e.Vector...)
		s.entries[e.ID] = e
	}
	return nil
}

func (s *MemoryStore) Nearest(ctx context.Context, vec []float32, k int) ([]Entry, error) {
	all, _ := s.All(ctx)
	return rankNearest(all, vec, k), nil
}

// All returns every entry in insertion order.
func (s *MemoryStore) All(ctx context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]Entry, 0, len(s.order))
	for _, id := range s.order {
		all = append(all, s.entries[id])
	}
	return all, nil
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order), nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
	s.entries = make(map[string]Entry)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

// rankNearest orders by descending cosine; equal scores keep input order.
func rankNearest(entries []Entry, vec []float32, k int) []Entry {
	if k <= 0 || len(entries) == 0 {
		return nil
	}
	scores := make([]float64, len(entries))
	idx := make([]int, len(entries))
	for i, e := range entries {
		scores[i] = Cosine(vec, e.Vector)
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})
	if k > len(idx) {
		k = len(idx)
	}
	out := make([]Entry, k)
	for i := 0; i < k; i++ {
		out[i] = entries[idx[i]]
	}
	return out
}

// MemoryBackend keeps every corpus in process memory. Nothing survives a restart.
type MemoryBackend struct {
	mu     sync.Mutex
	stores map[string]*MemoryStore
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{stores: make(map[string]*MemoryStore)}
}

func (b *MemoryBackend) Name() string { return "memory" }

func (b *MemoryBackend) Exists(ctx context.Context, corpus string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.stores[corpus]
	return ok, nil
}

func (b *MemoryBackend) Open(ctx context.Context, corpus string) (Store, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.stores[corpus]
	if !ok {
		s = NewMemoryStore()
		b.stores[corpus] = s
	}
	return s, nil
}
