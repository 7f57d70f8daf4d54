package errorhelp

import (
	"context"
	"errors"
	"testing"

	"screening-onboarding-be/internal/pkg/logger"
	"screening-onboarding-be/pkg/dialogue"
	"screening-onboarding-be/pkg/filestore"
	"screening-onboarding-be/pkg/llm"
	"screening-onboarding-be/pkg/rag/index"
	"screening-onboarding-be/pkg/workflow"
	"screening-onboarding-be/pkg/workflow/workflowtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, model *workflowtest.LLM, search *workflowtest.Search) *dialogue.Engine {
	t.Helper()
	deps := workflow.Deps{
		LLM:    model,
		Search: search,
		Index:  &workflowtest.Index{},
		Files:  filestore.NewLocalStore(t.TempDir()),
		Logger: logger.NewNop(),
	}
	engine, err := dialogue.NewEngine(Definition(deps), logger.NewNop())
	require.NoError(t, err)
	return engine
}

func TestChat(t *testing.T) {
	model := &workflowtest.LLM{Reply: "A 401 means the technical user is missing."}
	search := &workflowtest.Search{Results: map[string][]string{
		index.Documentation: {"401 Unauthorized is returned when credentials are wrong."},
	}}
	engine := newEngine(t, model, search)
	ctx := context.Background()

	s, _, err := engine.Advance(ctx, engine.Start("t-1", "en"), dialogue.Input{})
	require.NoError(t, err)
	assert.Equal(t, StepChat, s.Control.CurrentStep)

	s, out, err := engine.Advance(ctx, s, dialogue.Input{Text: "I get a 401"})
	require.NoError(t, err)
	assert.Equal(t, dialogue.Continuing, out.Kind)
	assert.Equal(t, "A 401 means the technical user is missing.", s.Transcript[len(s.Transcript)-1].Text)

	assert.Equal(t, []workflowtest.Query{{Corpus: index.Documentation, Text: "API error help: I get a 401", K: 3}}, search.Queries())

	history := model.Calls()[0]
	require.Len(t, history, 3)
	assert.Equal(t, llm.RoleSystem, history[0].Role)
	assert.Contains(t, history[0].Content, "401 Unauthorized is returned when credentials are wrong.")
	assert.Contains(t, history[0].Content, "'clientId' instead of 'clientIdentCode'")
	assert.Contains(t, history[0].Content, "404 Not Found: wrong endpoint")
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "I get a 401"}, history[2])
}

func TestChatModelFailure(t *testing.T) {
	model := &workflowtest.LLM{Err: errors.New("timeout")}
	engine := newEngine(t, model, &workflowtest.Search{Err: errors.New("index offline")})
	ctx := context.Background()

	s, _, err := engine.Advance(ctx, engine.Start("t-1", "de"), dialogue.Input{})
	require.NoError(t, err)
	s, _, err = engine.Advance(ctx, s, dialogue.Input{Text: "Mein Request geht nicht"})
	require.NoError(t, err)

	assert.Equal(t, "Entschuldigung, beim Erstellen der Antwort ist ein Fehler aufgetreten.", s.Transcript[len(s.Transcript)-1].Text)
	assert.Contains(t, model.Calls()[0][0].Content, "No relevant documents found.")
}

func TestSystemPrompt(t *testing.T) {
	tests := []struct {
		name string
		loc  workflow.Locale
		docs []string
		want []string
	}{
		{"english without docs", workflow.English, nil, []string{"No relevant documents found.", "Answer in English."}},
		{"german with docs", workflow.German, []string{"a", "b"}, []string{"excerpts:\na\nb\n", "Answer in German."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := systemPrompt(tt.loc, tt.docs)
			for _, w := range tt.want {
				assert.Contains(t, got, w)
			}
			for _, e := range CommonErrors {
				assert.Contains(t, got, e)
			}
		})
	}
}
