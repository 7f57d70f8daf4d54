package docsqa

import (
	"context"
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
		LLM:     model,
		Search:  search,
		Index:   &workflowtest.Index{},
		Files:   filestore.NewLocalStore(t.TempDir()),
		Logger:  logger.NewNop(),
		DocsDir: "knowledge",
	}
	engine, err := dialogue.NewEngine(Definition(deps), logger.NewNop())
	require.NoError(t, err)
	return engine
}

func TestDocsQALoop(t *testing.T) {
	model := &workflowtest.LLM{Reply: "suppressLogging disables the audit log."}
	search := &workflowtest.Search{Results: map[string][]string{
		index.Documentation: {"suppressLogging: boolean, disables logging of the screening."},
	}}
	engine := newEngine(t, model, search)
	ctx := context.Background()

	s, out, err := engine.Advance(ctx, engine.Start("t-1", "en"), dialogue.Input{})
	require.NoError(t, err)
	assert.Equal(t, dialogue.Continuing, out.Kind)
	assert.Equal(t, StepAnswer, s.Control.CurrentStep)
	require.Len(t, s.Transcript, 1)
	assert.Equal(t, welcomeEnglish, s.Transcript[0].Text)

	for i, q := range []string{"What is suppressLogging?", "And addressType?"} {
		s, out, err = engine.Advance(ctx, s, dialogue.Input{Text: q})
		require.NoError(t, err)
		assert.Equal(t, dialogue.Continuing, out.Kind)
		assert.Equal(t, StepAnswer, s.Control.CurrentStep)
		assert.Len(t, s.Transcript, 3+2*i)
	}

	queries := search.Queries()
	require.Len(t, queries, 2)
	assert.Equal(t, workflowtest.Query{Corpus: index.Documentation, Text: "API documentation question: What is suppressLogging?", K: 5}, queries[0])

	calls := model.Calls()
	require.Len(t, calls, 2)
	second := calls[1]
	assert.Equal(t, llm.RoleSystem, second[0].Role)
	assert.Equal(t, "What is suppressLogging?", second[2].Content, "prior turns are passed as history")
	assert.Contains(t, second[len(second)-1].Content, "<user_question>\nAnd addressType?\n</user_question>")
	for _, m := range second[:len(second)-1] {
		assert.NotEqual(t, "And addressType?", m.Content, "the question is not repeated in the history")
	}
}

func TestDocsQAWithoutExcerptsPointsToDocumentation(t *testing.T) {
	model := &workflowtest.LLM{Reply: "See the documentation."}
	engine := newEngine(t, model, &workflowtest.Search{})
	ctx := context.Background()

	s, _, err := engine.Advance(ctx, engine.Start("t-1", "de"), dialogue.Input{})
	require.NoError(t, err)
	assert.Equal(t, welcomeGerman, s.Transcript[0].Text)

	_, _, err = engine.Advance(ctx, s, dialogue.Input{Text: "How does authentication work?"})
	require.NoError(t, err)

	prompt := model.LastPrompt()
	assert.Contains(t, prompt, "No documentation excerpts found.")
	url, ok := workflow.DocumentationURL("authentication")
	require.True(t, ok)
	assert.Contains(t, prompt, url)
	assert.Contains(t, prompt, "Answer in German.")
}

func TestDocsQAEmptyTurnWaits(t *testing.T) {
	model := &workflowtest.LLM{Reply: "x"}
	engine := newEngine(t, model, &workflowtest.Search{})
	ctx := context.Background()

	s, _, err := engine.Advance(ctx, engine.Start("t-1", "en"), dialogue.Input{})
	require.NoError(t, err)

	next, out, err := engine.Advance(ctx, s, dialogue.Input{Text: "  "})
	require.NoError(t, err)
	assert.Equal(t, dialogue.Continuing, out.Kind)
	assert.Equal(t, s, next)
	assert.Empty(t, model.Calls())
}

func TestRoute(t *testing.T) {
	for _, id := range []dialogue.StepID{StepWelcome, StepAnswer} {
		tr, err := Route(id, dialogue.State{})
		require.NoError(t, err)
		assert.Equal(t, StepAnswer, tr.To)
	}
	_, err := Route("other", dialogue.State{})
	assert.ErrorIs(t, err, dialogue.ErrUnknownStep)
}
