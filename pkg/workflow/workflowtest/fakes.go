// Package workflowtest holds in-memory collaborators for workflow tests.
package workflowtest

import (
	"context"
	"strings"
	"sync"

	"screening-onboarding-be/pkg/llm"
	"screening-onboarding-be/pkg/rag/index"
)

// LLM answers through Respond, or with Reply when Respond is nil.
type LLM struct {
	Respond func(history []llm.Message) (string, error)
	Reply   string
	Err     error

	mu    sync.Mutex
	calls [][]llm.Message
}

func (l *LLM) Chat(_ context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	l.mu.Lock()
	l.calls = append(l.calls, append([]llm.Message(nil), history...))
	l.mu.Unlock()

	if l.Respond != nil {
		return l.Respond(history)
	}
	return l.Reply, l.Err
}

func (l *LLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return l.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

// Calls returns every history the model saw.
func (l *LLM) Calls() [][]llm.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([][]llm.Message(nil), l.calls...)
}

// LastPrompt is the content of the last message of the last call.
func (l *LLM) LastPrompt() string {
	calls := l.Calls()
	if len(calls) == 0 {
		return ""
	}
	last := calls[len(calls)-1]
	if len(last) == 0 {
		return ""
	}
	return last[len(last)-1].Content
}

// Query is one recorded search.
type Query struct {
	Corpus string
	Text   string
	K      int
}

// Search returns Results[corpus] for every query.
type Search struct {
	Results map[string][]string
	Err     error

	mu      sync.Mutex
	queries []Query
}

func (s *Search) Search(_ context.Context, corpus, query string, k int) ([]string, error) {
	s.mu.Lock()
	s.queries = append(s.queries, Query{Corpus: corpus, Text: query, K: k})
	s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Results[corpus], nil
}

func (s *Search) Queries() []Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Query(nil), s.queries...)
}

// Build is one recorded index call.
type Build struct {
	Corpus string
	Dir    string
	Fresh  bool
	Clear  bool
}

type Index struct {
	Report index.IngestReport
	Err    error

	mu     sync.Mutex
	builds []Build
}

func (i *Index) EnsureBuilt(_ context.Context, corpus, dir string) (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.builds = append(i.builds, Build{Corpus: corpus, Dir: dir})
	return false, i.Err
}

func (i *Index) RebuildFresh(_ context.Context, corpus, dir string, clearExisting bool) (index.IngestReport, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.builds = append(i.builds, Build{Corpus: corpus, Dir: dir, Fresh: true, Clear: clearExisting})
	return i.Report, i.Err
}

func (i *Index) Builds() []Build {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]Build(nil), i.builds...)
}

// Contains reports whether any message of history contains s.
func Contains(history []llm.Message, s string) bool {
	for _, m := range history {
		if strings.Contains(m.Content, s) {
			return true
		}
	}
	return false
}
