package index

import "context"

// Store holds the entries of a single corpus.
type Store interface {
	// Upsert writes entries keyed by Entry.ID; re-upserting an id replaces it.
	Upsert(ctx context.Context, entries []Entry) error
	// Nearest returns up to k entries ordered by descending similarity to vec,
	// vectors included.
	Nearest(ctx context.Context, vec []float32, k int) ([]Entry, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
	Close() error
}

// Backend opens per-corpus stores on one kind of storage.
type Backend interface {
	Name() string
	// Exists reports whether any persisted artifact of the corpus is present.
	// It must not create one.
	Exists(ctx context.Context, corpus string) (bool, error)
	// Open returns the corpus store, creating its artifact when missing.
	Open(ctx context.Context, corpus string) (Store, error)
}
