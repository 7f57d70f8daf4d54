package index

import (
	"context"
	"fmt"
	"sync"

	"screening-onboarding-be/internal/pkg/logger"
	"screening-onboarding-be/pkg/embedding"
	"screening-onboarding-be/pkg/rag/chunker"
)

// IngestReport summarises one ingest run.
type IngestReport struct {
	Documents int `json:"documents"`
	Skipped   int `json:"skipped"`
	Chunks    int `json:"chunks"`
}

type Status struct {
	Corpus    string `json:"corpus"`
	Backend   string `json:"backend"`
	Exists    bool   `json:"exists"`
	Ephemeral bool   `json:"ephemeral"`
	Entries   int    `json:"entries"`
}

type corpusState struct {
	// rw is held exclusively by builds and writes, shared by reads.
	rw sync.RWMutex

	mu        sync.Mutex
	store     Store
	ephemeral bool

	// journal holds what the running ingest has written so far. Guarded by rw.
	journal []Entry
}

// Manager opens corpus stores lazily on one backend and degrades to an
// in-memory store when the backend cannot be opened or written.
type Manager struct {
	backend  Backend
	chunker  *chunker.Chunker
	embedder embedding.EmbeddingProvider
	logger   logger.ILogger

	mu      sync.Mutex
	corpora map[string]*corpusState
}

func NewManager(backend Backend, ch *chunker.Chunker, embedder embedding.EmbeddingProvider, log logger.ILogger) *Manager {
	return &Manager{
		backend:  backend,
		chunker:  ch,
		embedder: embedder,
		logger:   log,
		corpora:  make(map[string]*corpusState),
	}
}

func (m *Manager) Backend() string {
	return m.backend.Name()
}

// Embedder is shared with the search engine so queries and entries live in
// the same vector space.
func (m *Manager) Embedder() embedding.EmbeddingProvider {
	return m.embedder
}

func (m *Manager) state(corpus string) (*corpusState, error) {
	if err := ValidateCorpus(corpus); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cs, ok := m.corpora[corpus]
	if !ok {
		cs = &corpusState{}
		m.corpora[corpus] = cs
	}
	return cs, nil
}

// Exists reports whether the corpus has a persisted artifact, or an
// ephemeral store built during this run. It never creates anything.
func (m *Manager) Exists(ctx context.Context, corpus string) (bool, error) {
	cs, err := m.state(corpus)
	if err != nil {
		return false, err
	}
	cs.rw.RLock()
	defer cs.rw.RUnlock()
	return m.exists(ctx, corpus, cs)
}

func (m *Manager) exists(ctx context.Context, corpus string, cs *corpusState) (bool, error) {
	cs.mu.Lock()
	ephemeral := cs.ephemeral
	cs.mu.Unlock()
	if ephemeral {
		return true, nil
	}
	return m.backend.Exists(ctx, corpus)
}

// EnsureBuilt ingests sourceDir only when the corpus does not exist yet.
// built reports whether a build ran.
func (m *Manager) EnsureBuilt(ctx context.Context, corpus, sourceDir string) (bool, error) {
	cs, err := m.state(corpus)
	if err != nil {
		return false, err
	}
	cs.rw.Lock()
	defer cs.rw.Unlock()

	exists, err := m.exists(ctx, corpus, cs)
	if err != nil {
		m.logger.Warn("INDEX", "Existence check failed, building", map[string]interface{}{
			"corpus": corpus, "backend": m.backend.Name(), "error": err.Error(),
		})
	}
	if exists {
		return false, nil
	}

	report, err := m.build(ctx, corpus, cs, sourceDir, false)
	if err != nil {
		return false, err
	}
	m.logger.Info("INDEX", "Corpus built", map[string]interface{}{
		"corpus": corpus, "documents": report.Documents, "chunks": report.Chunks, "skipped": report.Skipped,
	})
	return true, nil
}

// RebuildFresh re-ingests sourceDir, first dropping every entry of the
// corpus when clearExisting is set.
func (m *Manager) RebuildFresh(ctx context.Context, corpus, sourceDir string, clearExisting bool) (IngestReport, error) {
	cs, err := m.state(corpus)
	if err != nil {
		return IngestReport{}, err
	}
	cs.rw.Lock()
	defer cs.rw.Unlock()

	report, err := m.build(ctx, corpus, cs, sourceDir, clearExisting)
	if err != nil {
		return report, err
	}
	m.logger.Info("INDEX", "Corpus rebuilt", map[string]interface{}{
		"corpus": corpus, "cleared": clearExisting, "documents": report.Documents, "chunks": report.Chunks,
	})
	return report, nil
}

func (m *Manager) build(ctx context.Context, corpus string, cs *corpusState, sourceDir string, clear bool) (IngestReport, error) {
	store := m.writable(ctx, corpus, cs)
	if clear {
		if err := store.Clear(ctx); err != nil {
			if ctx.Err() != nil {
				return IngestReport{}, err
			}
			m.fallback(corpus, cs, "clear", err)
		}
	}

	docs, err := LoadDir(ctx, sourceDir, m.logger)
	if err != nil {
		return IngestReport{}, fmt.Errorf("load %s: %w", sourceDir, err)
	}
	return m.ingest(ctx, corpus, cs, docs)
}

// Add upserts entries as they are.
func (m *Manager) Add(ctx context.Context, corpus string, entries []Entry) error {
	cs, err := m.state(corpus)
	if err != nil {
		return err
	}
	cs.rw.Lock()
	defer cs.rw.Unlock()
	return m.upsert(ctx, corpus, cs, entries)
}

// Ingest chunks, embeds and adds docs. A document with any chunk that fails
// to embed is skipped whole.
func (m *Manager) Ingest(ctx context.Context, corpus string, docs []chunker.Document) (IngestReport, error) {
	cs, err := m.state(corpus)
	if err != nil {
		return IngestReport{}, err
	}
	cs.rw.Lock()
	defer cs.rw.Unlock()
	return m.ingest(ctx, corpus, cs, docs)
}

func (m *Manager) ingest(ctx context.Context, corpus string, cs *corpusState, docs []chunker.Document) (IngestReport, error) {
	var report IngestReport
	m.writable(ctx, corpus, cs)
	cs.journal = nil
	defer func() { cs.journal = nil }()

	for _, doc := range docs {
		chunks, err := m.chunker.Split(doc)
		if err != nil {
			m.logger.Warn("INDEX", "Skipping document that could not be chunked", map[string]interface{}{
				"corpus": corpus, "source": doc.SourceID, "error": err.Error(),
			})
			report.Skipped++
			continue
		}
		if len(chunks) == 0 {
			report.Skipped++
			continue
		}

		entries, err := m.embed(ctx, chunks)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			m.logger.Warn("INDEX", "Skipping document that failed to embed", map[string]interface{}{
				"corpus": corpus, "source": doc.SourceID, "error": err.Error(),
			})
			report.Skipped++
			continue
		}

		if err := m.upsert(ctx, corpus, cs, entries); err != nil {
			return report, fmt.Errorf("store %s: %w", doc.SourceID, err)
		}
		cs.journal = append(cs.journal, entries...)
		report.Documents++
		report.Chunks += len(entries)
	}
	return report, nil
}

func (m *Manager) embed(ctx context.Context, chunks []chunker.Chunk) ([]Entry, error) {
	entries := make([]Entry, 0, len(chunks))
	for _, c := range chunks {
		res, err := m.embedder.Generate(ctx, c.Text, embedding.TaskRetrievalDocument)
		if err != nil {
			return nil, err
		}
		entries = append(entries, NewEntry(c, res.Embedding.Values))
	}
	return entries, nil
}

// Nearest returns up to k entries closest to vec. A corpus that does not
// exist yields nothing.
func (m *Manager) Nearest(ctx context.Context, corpus string, vec []float32, k int) ([]Entry, error) {
	cs, err := m.state(corpus)
	if err != nil {
		return nil, err
	}
	cs.rw.RLock()
	defer cs.rw.RUnlock()

	store, err := m.readable(ctx, corpus, cs)
	if err != nil || store == nil {
		return nil, err
	}
	return store.Nearest(ctx, vec, k)
}

func (m *Manager) Status(ctx context.Context, corpus string) (Status, error) {
	st := Status{Corpus: corpus, Backend: m.backend.Name()}
	cs, err := m.state(corpus)
	if err != nil {
		return st, err
	}
	cs.rw.RLock()
	defer cs.rw.RUnlock()

	store, err := m.readable(ctx, corpus, cs)
	if err != nil || store == nil {
		return st, err
	}
	st.Exists = true
	cs.mu.Lock()
	st.Ephemeral = cs.ephemeral
	cs.mu.Unlock()
	if st.Ephemeral {
		st.Backend = "memory"
	}
	st.Entries, err = store.Count(ctx)
	return st, err
}

// readable returns the open store, opening an existing corpus on first
// read. It returns nil for corpora that do not exist.
func (m *Manager) readable(ctx context.Context, corpus string, cs *corpusState) (Store, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.store != nil {
		return cs.store, nil
	}

	exists, err := m.backend.Exists(ctx, corpus)
	if err != nil {
		return nil, fmt.Errorf("check corpus %s: %w", corpus, err)
	}
	if !exists {
		return nil, nil
	}
	store, err := m.backend.Open(ctx, corpus)
	if err != nil {
		return nil, fmt.Errorf("open corpus %s: %w", corpus, err)
	}
	cs.store = store
	return store, nil
}

// writable returns a store that accepts writes, opening (and so creating)
// the corpus or falling back to memory.
func (m *Manager) writable(ctx context.Context, corpus string, cs *corpusState) Store {
	cs.mu.Lock()
	store := cs.store
	cs.mu.Unlock()
	if store != nil {
		return store
	}

	store, err := m.backend.Open(ctx, corpus)
	if err != nil {
		m.fallback(corpus, cs, "open", err)
		cs.mu.Lock()
		defer cs.mu.Unlock()
		return cs.store
	}
	cs.mu.Lock()
	cs.store = store
	cs.mu.Unlock()
	return store
}

func (m *Manager) upsert(ctx context.Context, corpus string, cs *corpusState, entries []Entry) error {
	store := m.writable(ctx, corpus, cs)
	err := store.Upsert(ctx, entries)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return err
	}

	cs.mu.Lock()
	ephemeral := cs.ephemeral
	cs.mu.Unlock()
	if ephemeral {
		return err
	}
	carry := m.salvage(ctx, corpus, store)
	carry = append(carry, cs.journal...)
	m.fallback(corpus, cs, "write", err)

	mem := m.writable(ctx, corpus, cs)
	if err := mem.Upsert(ctx, carry); err != nil {
		return err
	}
	return mem.Upsert(ctx, entries)
}

// entryLister is implemented by stores that can return every entry.
type entryLister interface {
	All(ctx context.Context) ([]Entry, error)
}

// salvage reads back what a failing store still serves so the ephemeral
// store starts from the same content.
func (m *Manager) salvage(ctx context.Context, corpus string, store Store) []Entry {
	lister, ok := store.(entryLister)
	if !ok {
		return nil
	}
	entries, err := lister.All(ctx)
	if err != nil {
		m.logger.Warn("INDEX", "Could not read back entries from failing store", map[string]interface{}{
			"corpus": corpus, "error": err.Error(),
		})
		return nil
	}
	return entries
}

// fallback swaps in an empty in-memory store for the rest of the run.
// Callers carry over whatever content must survive.
func (m *Manager) fallback(corpus string, cs *corpusState, op string, cause error) {
	m.logger.Warn("INDEX", "Index backend unavailable, using ephemeral store", map[string]interface{}{
		"corpus": corpus, "backend": m.backend.Name(), "op": op, "error": cause.Error(),
	})

	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.store != nil && !cs.ephemeral {
		_ = cs.store.Close()
	}
	cs.store = NewMemoryStore()
	cs.ephemeral = true
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var firstErr error
	for _, cs := range m.corpora {
		cs.mu.Lock()
		if cs.store != nil {
			if err := cs.store.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
			cs.store = nil
		}
		cs.mu.Unlock()
	}
	return firstErr
}
