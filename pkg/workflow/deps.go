package workflow

import (
	"context"
	"errors"

	"screening-onboarding-be/internal/pkg/logger"
	"screening-onboarding-be/pkg/filestore"
	"screening-onboarding-be/pkg/llm"
	"screening-onboarding-be/pkg/rag/index"
	"screening-onboarding-be/pkg/rag/response"
)

const DefaultInlineTokenLimit = 100_000

// Searcher is the read side of the retrieval engine.
type Searcher interface {
	Search(ctx context.Context, corpus, query string, k int) ([]string, error)
}

// Indexer builds corpora.
type Indexer interface {
	EnsureBuilt(ctx context.Context, corpus, sourceDir string) (bool, error)
	RebuildFresh(ctx context.Context, corpus, sourceDir string, clearExisting bool) (index.IngestReport, error)
}

// Deps are the collaborators every workflow step may use.
type Deps struct {
	LLM    llm.LLMProvider
	Search Searcher
	Index  Indexer
	Files  filestore.Store
	Logger logger.ILogger

	// DocsDir is the source directory of the documentation corpus.
	DocsDir          string
	InlineTokenLimit int
}

func (d Deps) Validate() error {
	switch {
	case d.LLM == nil:
		return errors.New("workflow deps: llm provider is required")
	case d.Search == nil:
		return errors.New("workflow deps: search engine is required")
	case d.Index == nil:
		return errors.New("workflow deps: index is required")
	case d.Files == nil:
		return errors.New("workflow deps: file store is required")
	case d.Logger == nil:
		return errors.New("workflow deps: logger is required")
	}
	return nil
}

func (d Deps) Generator() *response.Generator {
	return response.NewGenerator(d.LLM, d.Logger)
}

func (d Deps) TokenLimit() int {
	if d.InlineTokenLimit <= 0 {
		return DefaultInlineTokenLimit
	}
	return d.InlineTokenLimit
}

// SessionCorpus names the per-thread corpus built from uploads.
func SessionCorpus(threadID string) string {
	return index.SessionCorpus(threadID)
}
