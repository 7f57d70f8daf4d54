package index

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"screening-onboarding-be/internal/pkg/logger"
	"screening-onboarding-be/pkg/embedding"
	"screening-onboarding-be/pkg/rag/chunker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	logger.ILogger
	mu    sync.Mutex
	warns []string
}

func newRecordingLogger() *recordingLogger {
	return &recordingLogger{ILogger: logger.NewNop()}
}

func (l *recordingLogger) Warn(module, message string, details map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, message)
}

func (l *recordingLogger) warned(substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, w := range l.warns {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

type poisonEmbedder struct {
	embedding.EmbeddingProvider
}

func (p poisonEmbedder) Generate(ctx context.Context, text, task string) (*embedding.EmbeddingResponse, error) {
	if strings.Contains(text, "poison") {
		return nil, errors.New("embedding service rejected input")
	}
	return p.EmbeddingProvider.Generate(ctx, text, task)
}

type failingBackend struct{}

func (failingBackend) Name() string { return "broken" }
func (failingBackend) Exists(context.Context, string) (bool, error) {
	return false, nil
}
func (failingBackend) Open(context.Context, string) (Store, error) {
	return nil, errors.New("disk on fire")
}

type readOnlyStore struct{ *MemoryStore }

func (readOnlyStore) Upsert(context.Context, []Entry) error { return errors.New("read-only file system") }

type readOnlyBackend struct{ *MemoryBackend }

func (b readOnlyBackend) Open(ctx context.Context, corpus string) (Store, error) {
	s, err := b.MemoryBackend.Open(ctx, corpus)
	if err != nil {
		return nil, err
	}
	return readOnlyStore{s.(*MemoryStore)}, nil
}

// flakyStore accepts its first write and fails every later one.
type flakyStore struct {
	*MemoryStore
	mu    sync.Mutex
	calls int
}

func (s *flakyStore) Upsert(ctx context.Context, entries []Entry) error {
	s.mu.Lock()
	s.calls++
	n := s.calls
	s.mu.Unlock()
	if n > 1 {
		return errors.New("no space left on device")
	}
	return s.MemoryStore.Upsert(ctx, entries)
}

// opaqueStore hides everything but the Store methods.
type opaqueStore struct{ Store }

type flakyBackend struct {
	*MemoryBackend
	wrap func(Store) Store
}

func (b flakyBackend) Open(ctx context.Context, corpus string) (Store, error) {
	s, err := b.MemoryBackend.Open(ctx, corpus)
	if err != nil {
		return nil, err
	}
	return b.wrap(&flakyStore{MemoryStore: s.(*MemoryStore)}), nil
}

func newTestManager(b Backend, log logger.ILogger) *Manager {
	return NewManager(b, chunker.New(chunker.DefaultConfig()), embedding.NewHashingProvider(128), log)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func queryVec(t *testing.T, text string) []float32 {
	t.Helper()
	res, err := embedding.NewHashingProvider(128).Generate(context.Background(), text, embedding.TaskRetrievalQuery)
	require.NoError(t, err)
	return res.Embedding.Values
}

func TestEntryIDIsStable(t *testing.T) {
	a := EntryID("guide.md", chunker.Hash("The client identifier is required"))
	b := EntryID("guide.md", chunker.Hash("the client identifier   is REQUIRED"))
	c := EntryID("other.md", chunker.Hash("The client identifier is required"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 40)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-3, 0}), 1e-9)
	assert.Zero(t, Cosine([]float32{0, 0}, []float32{1, 1}))
}

func TestValidateCorpus(t *testing.T) {
	tests := []struct {
		corpus string
		valid  bool
	}{
		{Documentation, true},
		{SessionCorpus("3f2a9c1e-0000-4000-8000-000000000001"), true},
		{"", false},
		{"../etc", false},
		{"a/b", false},
		{".hidden", false},
	}
	for _, tt := range tests {
		t.Run(tt.corpus, func(t *testing.T) {
			err := ValidateCorpus(tt.corpus)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidCorpus)
			}
		})
	}
}

func TestMemoryStoreUpsertAndNearest(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Upsert(ctx, []Entry{
		{ID: "a", Text: "alpha", Vector: []float32{1, 0}},
		{ID: "b", Text: "beta", Vector: []float32{0, 1}},
		{ID: "c", Text: "gamma", Vector: []float32{1, 0}},
	}))
	require.NoError(t, s.Upsert(ctx, []Entry{{ID: "b", Text: "beta v2", Vector: []float32{0.9, 0.1}}}))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := s.Nearest(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	// equal scores keep insertion order
	assert.Equal(t, []string{"a", "c", "b"}, []string{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, "beta v2", got[2].Text)

	require.NoError(t, s.Clear(ctx))
	got, err = s.Nearest(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEnsureBuiltSkipsExistingCorpus(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeFile(t, dir, "guide.md", "# Guide\n\nThe client identifier is required for every request.")

	m := newTestManager(NewMemoryBackend(), logger.NewNop())

	built, err := m.EnsureBuilt(ctx, Documentation, dir)
	require.NoError(t, err)
	assert.True(t, built)

	writeFile(t, dir, "later.md", "Added after the first build.")
	built, err = m.EnsureBuilt(ctx, Documentation, dir)
	require.NoError(t, err)
	assert.False(t, built)

	st, err := m.Status(ctx, Documentation)
	require.NoError(t, err)
	assert.True(t, st.Exists)
	assert.Equal(t, 1, st.Entries)
}

func TestExistsAfterEmptyBuild(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(NewMemoryBackend(), logger.NewNop())

	exists, err := m.Exists(ctx, Documentation)
	require.NoError(t, err)
	assert.False(t, exists)

	built, err := m.EnsureBuilt(ctx, Documentation, t.TempDir())
	require.NoError(t, err)
	assert.True(t, built)

	exists, err = m.Exists(ctx, Documentation)
	require.NoError(t, err)
	assert.True(t, exists, "an empty build still leaves the corpus in place")

	built, err = m.EnsureBuilt(ctx, Documentation, t.TempDir())
	require.NoError(t, err)
	assert.False(t, built)
}

func TestReadsDoNotCreateCorpus(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	m := newTestManager(NewSQLiteBackend(root), logger.NewNop())

	got, err := m.Nearest(ctx, "session-abc", queryVec(t, "anything"), 5)
	require.NoError(t, err)
	assert.Empty(t, got)

	st, err := m.Status(ctx, "session-abc")
	require.NoError(t, err)
	assert.False(t, st.Exists)

	_, statErr := os.Stat(filepath.Join(root, "session-abc"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestIngestDedupIdempotence(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(NewMemoryBackend(), logger.NewNop())
	doc := chunker.Document{SourceID: "faq.txt", ContentType: chunker.Plain, Text: "The client identifier is required."}

	for i := 0; i < 2; i++ {
		report, err := m.Ingest(ctx, Documentation, []chunker.Document{doc})
		require.NoError(t, err)
		assert.Equal(t, 1, report.Chunks)
	}

	got, err := m.Nearest(ctx, Documentation, queryVec(t, "client identifier"), 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, EntryID("faq.txt", chunker.Hash(doc.Text)), got[0].ID)
}

func TestRebuildFreshIsolation(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	corpus := SessionCorpus("t1")
	writeFile(t, dir, "old.json", `{"system": "legacy ERP", "process": "payroll export"}`)

	m := newTestManager(NewMemoryBackend(), logger.NewNop())
	_, err := m.RebuildFresh(ctx, corpus, dir, true)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, "old.json")))
	writeFile(t, dir, "new.json", `{"system": "SAP", "process": "supplier onboarding"}`)

	report, err := m.RebuildFresh(ctx, corpus, dir, true)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Documents)

	got, err := m.Nearest(ctx, corpus, queryVec(t, "legacy ERP payroll export"), 20)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	for _, e := range got {
		assert.Equal(t, "new.json", e.SourceID)
	}
}

func TestRebuildWithoutClearKeepsEntries(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "first document about endpoints")

	m := newTestManager(NewMemoryBackend(), logger.NewNop())
	_, err := m.RebuildFresh(ctx, Documentation, dir, true)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, "a.txt")))
	writeFile(t, dir, "b.txt", "second document about responses")
	_, err = m.RebuildFresh(ctx, Documentation, dir, false)
	require.NoError(t, err)

	st, err := m.Status(ctx, Documentation)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Entries)
}

func TestUnwritableIndexFallsBackToMemory(t *testing.T) {
	ctx := context.Background()
	tmp := t.TempDir()
	blocker := filepath.Join(tmp, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	docs := t.TempDir()
	writeFile(t, docs, "guide.md", "Screening responses contain a hit list.")

	log := newRecordingLogger()
	m := newTestManager(NewSQLiteBackend(blocker), log)

	built, err := m.EnsureBuilt(ctx, Documentation, docs)
	require.NoError(t, err)
	assert.True(t, built)
	assert.True(t, log.warned("ephemeral"))

	exists, err := m.Exists(ctx, Documentation)
	require.NoError(t, err)
	assert.True(t, exists)

	st, err := m.Status(ctx, Documentation)
	require.NoError(t, err)
	assert.True(t, st.Ephemeral)
	assert.Equal(t, 1, st.Entries)

	got, err := m.Nearest(ctx, Documentation, queryVec(t, "hit list"), 5)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestOpenFailureFallsBackToMemory(t *testing.T) {
	ctx := context.Background()
	log := newRecordingLogger()
	m := newTestManager(failingBackend{}, log)

	require.NoError(t, m.Add(ctx, Documentation, []Entry{{ID: "x", Text: "kept in memory", Vector: []float32{1}}}))
	assert.True(t, log.warned("ephemeral"))

	got, err := m.Nearest(ctx, Documentation, []float32{1}, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "kept in memory", got[0].Text)
}

func TestWriteFailureFallsBackToMemory(t *testing.T) {
	ctx := context.Background()
	log := newRecordingLogger()
	m := newTestManager(readOnlyBackend{NewMemoryBackend()}, log)

	report, err := m.Ingest(ctx, Documentation, []chunker.Document{
		{SourceID: "a.txt", ContentType: chunker.Plain, Text: "written after the fallback"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Chunks)
	assert.True(t, log.warned("ephemeral"))

	st, err := m.Status(ctx, Documentation)
	require.NoError(t, err)
	assert.True(t, st.Ephemeral)
	assert.Equal(t, 1, st.Entries)
}

func TestWriteFailureMidBuildKeepsEarlierDocuments(t *testing.T) {
	tests := []struct {
		name string
		wrap func(Store) Store
	}{
		{"failing store can be read back", func(s Store) Store { return s }},
		{"failing store cannot be read back", func(s Store) Store { return opaqueStore{s} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			log := newRecordingLogger()
			m := newTestManager(flakyBackend{MemoryBackend: NewMemoryBackend(), wrap: tt.wrap}, log)

			report, err := m.Ingest(ctx, Documentation, []chunker.Document{
				{SourceID: "a.txt", ContentType: chunker.Plain, Text: "alpha endpoints overview"},
				{SourceID: "b.txt", ContentType: chunker.Plain, Text: "beta client identifier"},
				{SourceID: "c.txt", ContentType: chunker.Plain, Text: "gamma screening responses"},
			})
			require.NoError(t, err)
			assert.Equal(t, 3, report.Chunks)
			assert.True(t, log.warned("ephemeral"))

			st, err := m.Status(ctx, Documentation)
			require.NoError(t, err)
			assert.True(t, st.Ephemeral)
			assert.Equal(t, report.Chunks, st.Entries)

			got, err := m.Nearest(ctx, Documentation, queryVec(t, "alpha endpoints overview"), 1)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, "a.txt", got[0].SourceID)
		})
	}
}

func TestIngestSkipsDocumentsThatFailToEmbed(t *testing.T) {
	ctx := context.Background()
	log := newRecordingLogger()
	m := NewManager(NewMemoryBackend(), chunker.New(chunker.DefaultConfig()),
		poisonEmbedder{embedding.NewHashingProvider(64)}, log)

	report, err := m.Ingest(ctx, Documentation, []chunker.Document{
		{SourceID: "good.txt", ContentType: chunker.Plain, Text: "useful text"},
		{SourceID: "bad.txt", ContentType: chunker.Plain, Text: "poison pill"},
		{SourceID: "blank.txt", ContentType: chunker.Plain, Text: "   "},
	})
	require.NoError(t, err)
	assert.Equal(t, IngestReport{Documents: 1, Skipped: 2, Chunks: 1}, report)
	assert.True(t, log.warned("failed to embed"))
}

func TestInvalidCorpusIsRejected(t *testing.T) {
	m := newTestManager(NewMemoryBackend(), logger.NewNop())
	_, err := m.EnsureBuilt(context.Background(), "../outside", t.TempDir())
	assert.ErrorIs(t, err, ErrInvalidCorpus)
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	b := NewSQLiteBackend(root)

	exists, err := b.Exists(ctx, Documentation)
	require.NoError(t, err)
	assert.False(t, exists)

	s, err := b.Open(ctx, Documentation)
	require.NoError(t, err)
	defer s.Close()

	assert.FileExists(t, filepath.Join(root, Documentation, sqliteFileName))
	exists, err = b.Exists(ctx, Documentation)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, s.Upsert(ctx, []Entry{
		{ID: "a", SourceID: "x.md", ContentHash: "h1", Text: "near", Vector: []float32{1, 0, 0}},
		{ID: "b", SourceID: "x.md", ContentHash: "h2", Text: "far", Vector: []float32{0, 1, 0}},
	}))
	require.NoError(t, s.Upsert(ctx, []Entry{
		{ID: "a", SourceID: "x.md", ContentHash: "h1", Text: "near", Vector: []float32{1, 0, 0}},
	}))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := s.Nearest(ctx, []float32{0.9, 0.1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "near", got[0].Text)
	assert.Equal(t, []float32{1, 0, 0}, got[0].Vector)

	require.NoError(t, s.Clear(ctx))
	n, err = s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.md", "# B")
	writeFile(t, dir, "a/nested.txt", "nested text")
	writeFile(t, dir, "empty.json", "  \n")
	writeFile(t, dir, "image.png", "not text")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "latin1.txt"), []byte{'S', 't', 'r', 'a', 0xDF, 'e'}, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bom.yaml"), append([]byte{0xEF, 0xBB, 0xBF}, []byte("key: value")...), 0o644))

	log := newRecordingLogger()
	docs, err := LoadDir(context.Background(), dir, log)
	require.NoError(t, err)

	var ids []string
	for _, d := range docs {
		ids = append(ids, d.SourceID)
	}
	assert.Equal(t, []string{"a/nested.txt", "b.md", "bom.yaml", "latin1.txt"}, ids)
	assert.Equal(t, chunker.YAML, docs[2].ContentType)
	assert.Equal(t, "key: value", docs[2].Text)
	assert.Equal(t, "Straße", docs[3].Text)
	assert.True(t, log.warned("empty"))
}

func TestLoadDirMissing(t *testing.T) {
	docs, err := LoadDir(context.Background(), filepath.Join(t.TempDir(), "nope"), logger.NewNop())
	require.NoError(t, err)
	assert.Empty(t, docs)
}
