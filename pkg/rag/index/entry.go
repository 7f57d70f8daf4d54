package index

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"regexp"

	"screening-onboarding-be/pkg/rag/chunker"
)

const (
	// Documentation is the shared, long-lived corpus.
	Documentation = "documentation"
	sessionPrefix = "session-"
)

var (
	ErrInvalidCorpus = errors.New("invalid corpus name")

	corpusPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_\-]{0,127}$`)
)

// SessionCorpus names the private corpus of one thread.
func SessionCorpus(threadID string) string {
	return sessionPrefix + threadID
}

// ValidateCorpus rejects names that could escape the index directory or
// collide with backend naming rules.
func ValidateCorpus(corpus string) error {
	if !corpusPattern.MatchString(corpus) {
		return fmt.Errorf("%w: %q", ErrInvalidCorpus, corpus)
	}
	return nil
}

// Entry is one embedded chunk.
type Entry struct {
	ID          string
	SourceID    string
	ContentHash string
	Text        string
	Vector      []float32
}

// EntryID is stable across ingests of unchanged content.
func EntryID(sourceID, contentHash string) string {
	sum := sha1.Sum([]byte(sourceID + " :: " + contentHash))
	return hex.EncodeToString(sum[:])
}

func NewEntry(c chunker.Chunk, vector []float32) Entry {
	return Entry{
		ID:          EntryID(c.SourceID, c.ContentHash),
		SourceID:    c.SourceID,
		ContentHash: c.ContentHash,
		Text:        c.Text,
		Vector:      vector,
	}
}

// Cosine similarity of a and b. Mismatched lengths compare over the shorter
// prefix and zero vectors score 0.
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
