package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"plain", "customer.json", false},
		{"spaces", "partner export.csv", false},
		{"empty", "  ", true},
		{"dot", ".", true},
		{"parent", "..", true},
		{"traversal", "../secrets.txt", true},
		{"embedded parent", "a..b", true},
		{"slash", "dir/file.json", true},
		{"backslash", `dir\file.json`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidName)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLocalStoreRoundTrip(t *testing.T) {
	root := t.TempDir()
	s := NewLocalStore(root)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "thread-1", "schema.json", []byte(`{"name":"string"}`)))
	require.NoError(t, s.Write(ctx, "thread-1", "schema.json", []byte(`{"name":"text"}`)))

	got, err := s.Read(ctx, "thread-1", "schema.json")
	require.NoError(t, err)
	assert.Equal(t, `{"name":"text"}`, string(got))

	dir, err := s.Dir("thread-1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "thread-1"), dir)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files are left behind")
	assert.Equal(t, "schema.json", entries[0].Name())
}

func TestLocalStoreScopesAreIsolated(t *testing.T) {
	s := NewLocalStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "a", "data.txt", []byte("from a")))
	_, err := s.Read(ctx, "b", "data.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	root := t.TempDir()
	s := NewLocalStore(filepath.Join(root, "uploads"))
	ctx := context.Background()

	assert.ErrorIs(t, s.Write(ctx, "thread", "../escape.txt", []byte("x")), ErrInvalidName)
	assert.ErrorIs(t, s.Write(ctx, "..", "escape.txt", []byte("x")), ErrInvalidName)
	_, err := s.Read(ctx, "thread", "../../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidName)

	_, statErr := os.Stat(filepath.Join(root, "escape.txt"))
	assert.True(t, os.IsNotExist(statErr))
}
