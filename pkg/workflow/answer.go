package workflow

import (
	"context"
	"strings"

	"screening-onboarding-be/pkg/llm"
	"screening-onboarding-be/pkg/rag/index"
	"screening-onboarding-be/pkg/rag/prompt"
)

// Question is one retrieval-grounded question.
type Question struct {
	Text          string
	Corpus        string
	QueryPrefix   string
	K             int
	System        string
	Configuration []string
	History       []llm.Message
	Instructions  []string
}

// Answer searches the corpus, builds a grounded prompt and asks the model.
// ok is false when the model failed and the text is an apology.
func (d Deps) Answer(ctx context.Context, loc Locale, q Question) (string, bool) {
	corpus := q.Corpus
	if corpus == "" {
		corpus = index.Documentation
	}
	passages := d.Passages(ctx, corpus, q.QueryPrefix+q.Text, q.K)

	url, _ := DocumentationURL(q.Text)
	b := prompt.NewGroundedBuilder(q.Text).
		WithConfiguration(q.Configuration).
		WithPassages(passages).
		WithFallbackURL(url)
	for _, line := range q.Instructions {
		b.WithInstruction(line)
	}
	b.WithInstruction(loc.Language())

	messages := make([]llm.Message, 0, len(q.History)+2)
	if strings.TrimSpace(q.System) != "" {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: q.System})
	}
	messages = append(messages, q.History...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: b.Build()})

	return d.Generator().Generate(ctx, string(loc), messages)
}

// Passages searches corpus, building the documentation corpus first when
// it is missing. Failures are logged and yield no passages.
func (d Deps) Passages(ctx context.Context, corpus, query string, k int) []string {
	if corpus == index.Documentation && d.DocsDir != "" {
		if _, err := d.Index.EnsureBuilt(ctx, corpus, d.DocsDir); err != nil {
			d.Logger.Warn("WORKFLOW", "Documentation corpus unavailable", map[string]interface{}{"error": err.Error()})
		}
	}

	passages, err := d.Search.Search(ctx, corpus, query, k)
	if err != nil {
		d.Logger.Warn("WORKFLOW", "Search failed, answering without excerpts", map[string]interface{}{
			"corpus": corpus,
			"error":  err.Error(),
		})
		return nil
	}
	return passages
}
