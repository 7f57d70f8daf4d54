// Package errorhelp is a support chat for failing API calls.
package errorhelp

import (
	"context"
	"fmt"
	"strings"

	"screening-onboarding-be/pkg/dialogue"
	"screening-onboarding-be/pkg/llm"
	"screening-onboarding-be/pkg/rag/index"
	"screening-onboarding-be/pkg/rag/response"
	"screening-onboarding-be/pkg/workflow"
)

const Name = "error_help"

const (
	StepWelcome dialogue.StepID = "welcome"
	StepChat    dialogue.StepID = "chat"
)

const (
	queryPrefix   = "API error help: "
	searchK       = 3
	historyWindow = 20
)

// CommonErrors and CommonTypos are part of every chat prompt.
var (
	CommonErrors = []string{
		"400 Bad Request: syntax or validation error",
		"401 Unauthorized: authentication is missing",
		"403 Forbidden: no permission",
		"404 Not Found: wrong endpoint",
		"500 Server Error: backend problem",
	}
	CommonTypos = []string{
		"'addresse' instead of 'addresses'",
		"'clientId' instead of 'clientIdentCode'",
		"'suppressLog' instead of 'suppressLogging'",
	}
)

const (
	welcomeEnglish = "# API error help\n\n" +
		"Hello! I help with problems with the TCM Screening API.\n\n" +
		"Just describe what happened, for example:\n" +
		"- \"I get a 400 error\"\n" +
		"- \"My request does not work\"\n" +
		"- \"What does this error code mean?\"\n\n" +
		"What is the problem?"
	welcomeGerman = "# API-Fehlerhilfe\n\n" +
		"Hallo! Ich helfe bei Problemen mit der TCM Screening API.\n\n" +
		"Beschreiben Sie einfach, was passiert ist, zum Beispiel:\n" +
		"- \"Ich bekomme einen 400-Fehler\"\n" +
		"- \"Mein Request funktioniert nicht\"\n" +
		"- \"Was bedeutet dieser Fehlercode?\"\n\n" +
		"Was ist das Problem?"
)

type flow struct {
	deps workflow.Deps
	gen  *response.Generator
}

func Definition(deps workflow.Deps) dialogue.Definition {
	f := &flow{deps: deps, gen: deps.Generator()}
	return dialogue.Definition{
		Name:  Name,
		Start: StepWelcome,
		Steps: []dialogue.Step{
			{ID: StepWelcome, Kind: dialogue.KindEager, Handler: welcome},
			{ID: StepChat, Kind: dialogue.KindTurn, Handler: f.chat},
		},
		Route: Route,
	}
}

func Route(from dialogue.StepID, _ dialogue.State) (dialogue.Transition, error) {
	switch from {
	case StepWelcome, StepChat:
		return dialogue.Go(StepChat), nil
	}
	return dialogue.Transition{}, fmt.Errorf("%w: %s", dialogue.ErrUnknownStep, from)
}

func welcome(_ context.Context, s dialogue.State, _ dialogue.Turn) (dialogue.Delta, error) {
	loc := workflow.ParseLocale(s.Locale)
	return dialogue.Delta{}.Say(loc.Pick(welcomeEnglish, welcomeGerman)), nil
}

func (f *flow) chat(ctx context.Context, s dialogue.State, turn dialogue.Turn) (dialogue.Delta, error) {
	loc := workflow.ParseLocale(s.Locale)
	docs := f.deps.Passages(ctx, index.Documentation, queryPrefix+turn.Text, searchK)

	history := []llm.Message{{Role: llm.RoleSystem, Content: systemPrompt(loc, docs)}}
	// The transcript already ends with turn.Text.
	history = append(history, workflow.History(s.Transcript, historyWindow)...)

	answer, _ := f.gen.Generate(ctx, string(loc), history)
	return dialogue.Delta{}.Say(answer), nil
}

func systemPrompt(loc workflow.Locale, docs []string) string {
	var b strings.Builder
	b.WriteString("You are a helpful API support for a trade compliance screening API. ")
	b.WriteString("Answer questions about API errors briefly and precisely. Be friendly. ")
	b.WriteString("When the user shows code or errors, analyze them. ")
	b.WriteString("Use the whole conversation to understand the context. ")
	b.WriteString("When no specific documentation is available, use your knowledge of common API problems.\n\n")

	b.WriteString("COMMON API ERRORS:\n")
	for _, e := range CommonErrors {
		b.WriteString("- " + e + "\n")
	}
	b.WriteString("\nCOMMON TYPOS:\n")
	for _, t := range CommonTypos {
		b.WriteString("- " + t + "\n")
	}
	b.WriteString("\nAnswer briefly and ask for details when you need more.\n\n")

	b.WriteString("Available documentation excerpts:\n")
	if len(docs) == 0 {
		b.WriteString("No relevant documents found.\n")
	} else {
		b.WriteString(strings.Join(docs, "\n"))
		b.WriteString("\n")
	}
	b.WriteString("\n" + loc.Language())
	return b.String()
}
