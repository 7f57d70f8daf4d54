package chunker

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
)

// ContentType selects the splitting strategy.
type ContentType string

const (
	Markdown ContentType = "markdown"
	HTML     ContentType = "html"
	JSON     ContentType = "json"
	YAML     ContentType = "yaml"
	Plain    ContentType = "plain"
)

var extensions = map[string]ContentType{
	".md":       Markdown,
	".markdown": Markdown,
	".html":     HTML,
	".htm":      HTML,
	".json":     JSON,
	".yaml":     YAML,
	".yml":      YAML,
	".txt":      Plain,
}

// ContentTypeFor maps a file name to its content type. ok is false for
// extensions that are not ingested.
func ContentTypeFor(name string) (ContentType, bool) {
	ct, ok := extensions[strings.ToLower(filepath.Ext(name))]
	return ct, ok
}

// Document is raw ingested text.
type Document struct {
	SourceID    string
	ContentType ContentType
	Text        string
}

// Chunk is a retrievable fragment of a Document.
type Chunk struct {
	Text        string
	SourceID    string
	ContentHash string
}

// Normalize lower-cases text and collapses all whitespace runs to one space.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// Hash is the hex SHA-1 of the normalized text.
func Hash(text string) string {
	sum := sha1.Sum([]byte(Normalize(text)))
	return hex.EncodeToString(sum[:])
}

type Config struct {
	MarkdownSize    int
	MarkdownOverlap int
	PlainSize       int
	PlainOverlap    int
	StructuredMax   int
}

func DefaultConfig() Config {
	return Config{
		MarkdownSize:    1200,
		MarkdownOverlap: 100,
		PlainSize:       1000,
		PlainOverlap:    150,
		StructuredMax:   1000,
	}
}

type Chunker struct {
	markdown   recursiveSplitter
	plain      recursiveSplitter
	structured structuredSplitter
}

func New(cfg Config) *Chunker {
	def := DefaultConfig()
	if cfg.MarkdownSize <= 0 {
		cfg.MarkdownSize, cfg.MarkdownOverlap = def.MarkdownSize, def.MarkdownOverlap
	}
	if cfg.PlainSize <= 0 {
		cfg.PlainSize, cfg.PlainOverlap = def.PlainSize, def.PlainOverlap
	}
	if cfg.StructuredMax <= 0 {
		cfg.StructuredMax = def.StructuredMax
	}

	plain := newRecursiveSplitter(cfg.PlainSize, cfg.PlainOverlap, plainSeparators)
	return &Chunker{
		markdown:   newRecursiveSplitter(cfg.MarkdownSize, cfg.MarkdownOverlap, markdownSeparators),
		plain:      plain,
		structured: structuredSplitter{max: cfg.StructuredMax, fallback: plain},
	}
}

// Split turns doc into chunks, deduplicated by normalized hash. An empty
// document yields no chunks and no error.
func (c *Chunker) Split(doc Document) ([]Chunk, error) {
	if strings.TrimSpace(doc.Text) == "" {
		return nil, nil
	}

	var pieces []string
	switch doc.ContentType {
	case Markdown:
		pieces = c.markdown.split(doc.Text)
	case HTML:
		text, err := htmlToMarkdown(doc.Text)
		if err != nil {
			return nil, fmt.Errorf("extract html %s: %w", doc.SourceID, err)
		}
		pieces = c.markdown.split(text)
	case JSON:
		pieces = c.structured.splitJSON(doc.Text)
	case YAML:
		pieces = c.structured.splitYAML(doc.Text)
	case Plain, "":
		pieces = c.plain.split(doc.Text)
	default:
		return nil, fmt.Errorf("unsupported content type %q", doc.ContentType)
	}

	seen := make(map[string]struct{}, len(pieces))
	chunks := make([]Chunk, 0, len(pieces))
	for _, p := range pieces {
		if strings.TrimSpace(p) == "" {
			continue
		}
		h := Hash(p)
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		chunks = append(chunks, Chunk{Text: p, SourceID: doc.SourceID, ContentHash: h})
	}
	return chunks, nil
}
