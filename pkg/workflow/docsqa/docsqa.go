// Package docsqa is a free-form question loop over the documentation corpus.
package docsqa

import (
	"context"
	"fmt"

	"screening-onboarding-be/pkg/dialogue"
	"screening-onboarding-be/pkg/workflow"
)

const Name = "docs_qa"

const (
	StepWelcome dialogue.StepID = "welcome"
	StepAnswer  dialogue.StepID = "answer"
)

const (
	queryPrefix   = "API documentation question: "
	searchK       = 5
	historyWindow = 10
)

const system = "You are an expert for the documentation of a trade compliance screening API. " +
	"Answer user questions precisely and helpfully based on the available documentation excerpts, " +
	"which are always your primary source. If no suitable information is found in the excerpts, " +
	"say so honestly and point the user to the official documentation link. " +
	"Provide concrete examples and code snippets when possible, structured with headings and lists."

const (
	welcomeEnglish = "# Screening API documentation Q&A\n\n" +
		"Welcome! I am your documentation assistant for the TCM Screening API.\n\n" +
		"**What I can do for you:**\n" +
		"- Answer questions about API structure and parameters\n" +
		"- Explain example calls and responses\n" +
		"- Support integration and troubleshooting\n\n" +
		"**Example questions:**\n" +
		"- How is the request for screenAddresses built?\n" +
		"- What does the suppressLogging parameter mean?\n" +
		"- Which response codes are there?\n\n" +
		"*Your question:*"
	welcomeGerman = "# Fragen zur Screening-API-Dokumentation\n\n" +
		"Willkommen! Ich bin Ihr Dokumentationsassistent für die TCM Screening API.\n\n" +
		"**Was ich für Sie tun kann:**\n" +
		"- Fragen zu API-Struktur und Parametern beantworten\n" +
		"- Beispielaufrufe und Antworten erklären\n" +
		"- Bei Integration und Fehlersuche unterstützen\n\n" +
		"**Beispielfragen:**\n" +
		"- Wie ist der Request für screenAddresses aufgebaut?\n" +
		"- Was bedeutet der Parameter suppressLogging?\n" +
		"- Welche Antwortcodes gibt es?\n\n" +
		"*Ihre Frage:*"
)

type flow struct {
	deps workflow.Deps
}

func Definition(deps workflow.Deps) dialogue.Definition {
	f := &flow{deps: deps}
	return dialogue.Definition{
		Name:  Name,
		Start: StepWelcome,
		Steps: []dialogue.Step{
			{ID: StepWelcome, Kind: dialogue.KindEager, Handler: welcome},
			{ID: StepAnswer, Kind: dialogue.KindTurn, Handler: f.answer},
		},
		Route: Route,
	}
}

func Route(from dialogue.StepID, _ dialogue.State) (dialogue.Transition, error) {
	switch from {
	case StepWelcome, StepAnswer:
		return dialogue.Go(StepAnswer), nil
	}
	return dialogue.Transition{}, fmt.Errorf("%w: %s", dialogue.ErrUnknownStep, from)
}

func welcome(_ context.Context, s dialogue.State, _ dialogue.Turn) (dialogue.Delta, error) {
	loc := workflow.ParseLocale(s.Locale)
	return dialogue.Delta{}.Say(loc.Pick(welcomeEnglish, welcomeGerman)), nil
}

func (f *flow) answer(ctx context.Context, s dialogue.State, turn dialogue.Turn) (dialogue.Delta, error) {
	loc := workflow.ParseLocale(s.Locale)
	// The engine already appended the question to the transcript.
	prior := s.Transcript
	if len(prior) > 0 {
		prior = prior[:len(prior)-1]
	}

	text, _ := f.deps.Answer(ctx, loc, workflow.Question{
		Text:        turn.Text,
		QueryPrefix: queryPrefix,
		K:           searchK,
		System:      system,
		History:     workflow.History(prior, historyWindow),
		Instructions: []string{
			"Answer the question based on the documentation excerpts.",
			"If they are not sufficient, include the documentation link in your answer.",
			"Use clear Markdown structure.",
		},
	})
	return dialogue.Delta{}.Say(text), nil
}
