package integration

import (
	"context"
	"net"
	"strconv"
	"testing"

	"screening-onboarding-be/internal/model"
	"screening-onboarding-be/pkg/database"
	"screening-onboarding-be/pkg/rag/index"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEntries() []index.Entry {
	return []index.Entry{
		{ID: "e1", SourceID: "auth.md", ContentHash: "h1", Text: "Authentication uses a client ident code", Vector: []float32{1, 0, 0, 0}},
		{ID: "e2", SourceID: "screening.md", ContentHash: "h2", Text: "screenAddresses checks parties", Vector: []float32{0, 1, 0, 0}},
		{ID: "e3", SourceID: "errors.md", ContentHash: "h3", Text: "Error codes and retries", Vector: []float32{0, 0, 1, 0}},
	}
}

func exerciseBackend(t *testing.T, backend index.Backend) {
	ctx := context.Background()
	corpus := "session-" + uuid.NewString()

	exists, err := backend.Exists(ctx, corpus)
	require.NoError(t, err)
	assert.False(t, exists)

	store, err := backend.Open(ctx, corpus)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Upsert(ctx, testEntries()))
	// Upserting the same ids does not duplicate.
	require.NoError(t, store.Upsert(ctx, testEntries()[:1]))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := store.Nearest(ctx, []float32{0.1, 0.9, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "e2", got[0].ID)
	assert.Equal(t, "screening.md", got[0].SourceID)
	assert.Len(t, got[0].Vector, 4)

	exists, err = backend.Exists(ctx, corpus)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, store.Clear(ctx))
	n, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPgVectorBackend(t *testing.T) {
	dsn := requireEnv(t, "DB_CONNECTION_STRING")

	db, err := database.NewGormDBFromDSN(dsn)
	require.NoError(t, err)
	require.NoError(t, db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error)
	require.NoError(t, db.AutoMigrate(&model.CorpusManifest{}, &model.CorpusEntry{}))

	exerciseBackend(t, index.NewPgVectorBackend(db))
}

func TestQdrantBackend(t *testing.T) {
	host, rawPort, err := net.SplitHostPort(requireEnv(t, "QDRANT_ADDR"))
	require.NoError(t, err)
	port, err := strconv.Atoi(rawPort)
	require.NoError(t, err)

	backend, err := index.NewQdrantBackend(index.QdrantConfig{
		Host:       host,
		Port:       port,
		Prefix:     "it_",
		VectorSize: 4,
	})
	require.NoError(t, err)
	defer backend.Close()

	exerciseBackend(t, backend)
}
