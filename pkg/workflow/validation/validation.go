// Package validation reviews API requests pasted by the user: a local JSON
// syntax check followed by a model review, one request per round.
package validation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"screening-onboarding-be/pkg/dialogue"
	"screening-onboarding-be/pkg/llm"
	"screening-onboarding-be/pkg/rag/response"
	"screening-onboarding-be/pkg/workflow"
)

const Name = "request_validation"

const (
	StepWelcome  dialogue.StepID = "welcome"
	StepCollect  dialogue.StepID = "collect_request"
	StepValidate dialogue.StepID = "validate"
	StepResults  dialogue.StepID = "results"
)

// Collected keys.
const (
	KeyRequest        = "user_request"
	KeySyntaxValid    = "syntax_valid"
	KeyRequiredFields = "required_fields_present"
	KeyReviewed       = "reviewed"
)

const system = "You are an expert in trade compliance screening API validation. " +
	"Analyze API requests for syntax, completeness and data quality."

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
			{ID: StepCollect, Kind: dialogue.KindTurn, Handler: collect},
			{ID: StepValidate, Kind: dialogue.KindEager, Handler: f.validate},
			{ID: StepResults, Kind: dialogue.KindEager, Handler: results},
		},
		Route: Route,
	}
}

func Route(from dialogue.StepID, s dialogue.State) (dialogue.Transition, error) {
	switch from {
	case StepWelcome:
		return dialogue.Go(StepCollect), nil
	case StepCollect:
		if s.Has(KeyRequest) {
			return dialogue.Go(StepValidate), nil
		}
		return dialogue.Go(StepCollect), nil
	case StepValidate:
		return dialogue.Go(StepResults), nil
	case StepResults:
		return dialogue.Go(StepCollect), nil
	}
	return dialogue.Transition{}, fmt.Errorf("%w: %s", dialogue.ErrUnknownStep, from)
}

func welcome(_ context.Context, s dialogue.State, _ dialogue.Turn) (dialogue.Delta, error) {
	return dialogue.Delta{}.Say(textFor(s.Locale).Welcome), nil
}

func collect(_ context.Context, s dialogue.State, turn dialogue.Turn) (dialogue.Delta, error) {
	t := textFor(s.Locale)
	request := strings.TrimSpace(turn.Text)
	return dialogue.Delta{}.
		Set(KeyRequest, request).
		Say(fmt.Sprintf(t.Analyzing, request)), nil
}

// CheckSyntax reports whether request is a single well-formed JSON value
// and, if not, where it breaks.
func CheckSyntax(request string) (bool, string) {
	dec := json.NewDecoder(strings.NewReader(request))
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		if se, ok := err.(*json.SyntaxError); ok {
			return false, fmt.Sprintf("%s (offset %d)", se.Error(), se.Offset)
		}
		return false, err.Error()
	}
	if dec.More() {
		return false, "unexpected data after the JSON value"
	}
	return true, ""
}

func (f *flow) validate(ctx context.Context, s dialogue.State, _ dialogue.Turn) (dialogue.Delta, error) {
	loc := workflow.ParseLocale(s.Locale)
	request := s.Field(KeyRequest)

	valid, syntaxErr := CheckSyntax(request)
	d := dialogue.Delta{}.Set(KeySyntaxValid, fmt.Sprint(valid))

	review, ok := f.gen.Generate(ctx, string(loc), []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: reviewPrompt(request, valid, syntaxErr, loc)},
	})
	required := ok && mentionsRequiredFields(review)
	return d.Set(KeyRequiredFields, fmt.Sprint(required)).
		Set(KeyReviewed, fmt.Sprint(ok)).
		Say(review), nil
}

func reviewPrompt(request string, valid bool, syntaxErr string, loc workflow.Locale) string {
	var b strings.Builder
	b.WriteString("Please analyze the following API request for the screening API:\n\n")
	b.WriteString("```json\n" + request + "\n```\n\n")
	if valid {
		b.WriteString("A local check found the JSON syntax valid.\n\n")
	} else {
		b.WriteString("A local check found a JSON syntax error: " + syntaxErr + "\n\n")
	}
	b.WriteString(`Perform a complete validation:

1. **Syntax:** is the JSON technically correct, are all required fields present, does the API structure fit?
2. **Completeness:** are all screening relevant fields present and filled sensibly, does addressType match the data?
3. **Quality:** which data quality problems exist, which fields could improve match quality, are there inconsistencies?
4. **Improvements:** which additional fields should be filled, how can organisation units, ids and conditions be improved?

Answer in a structured way with ✅/❌ for every check, concrete suggestions and an optimized request example.
`)
	b.WriteString(loc.Language())
	return b.String()
}

// mentionsRequiredFields is a loose reading of the review: a passed check
// that talks about required fields.
func mentionsRequiredFields(review string) bool {
	lower := strings.ToLower(review)
	return strings.Contains(review, "✅") &&
		(strings.Contains(lower, "required field") || strings.Contains(lower, "pflichtfeld"))
}

func results(_ context.Context, s dialogue.State, _ dialogue.Turn) (dialogue.Delta, error) {
	t := textFor(s.Locale)
	var d dialogue.Delta
	if s.Field(KeyReviewed) != "true" {
		return d.Say(t.NoResults).Complete(), nil
	}
	summary := t.summary(s.Field(KeySyntaxValid) == "true", s.Field(KeyRequiredFields) == "true")
	return d.Say(summary).Complete(), nil
}
