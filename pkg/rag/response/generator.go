package response

import (
	"context"
	"strings"

	"screening-onboarding-be/internal/pkg/logger"
	"screening-onboarding-be/pkg/llm"
)

var apologies = map[string]string{
	"en": "Sorry, an error occurred while generating the answer.",
	"de": "Entschuldigung, beim Erstellen der Antwort ist ein Fehler aufgetreten.",
}

// Apology is the message shown instead of a failed completion.
func Apology(lang string) string {
	if msg, ok := apologies[lang]; ok {
		return msg
	}
	return apologies["en"]
}

// Generator wraps the completion call so a failing model becomes an
// apology instead of an error.
type Generator struct {
	llmProvider llm.LLMProvider
	logger      logger.ILogger
}

func NewGenerator(llmProvider llm.LLMProvider, log logger.ILogger) *Generator {
	return &Generator{
		llmProvider: llmProvider,
		logger:      log,
	}
}

// Generate returns the model answer and true, or the apology for lang and
// false when the model failed or returned nothing.
func (g *Generator) Generate(ctx context.Context, lang string, history []llm.Message) (string, bool) {
	answer, err := g.llmProvider.Chat(ctx, history)
	if err != nil {
		g.logger.Error("GENERATION", "LLM generation failed", map[string]interface{}{
			"error":    err.Error(),
			"messages": len(history),
		})
		return Apology(lang), false
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		g.logger.Warn("GENERATION", "LLM returned an empty answer", nil)
		return Apology(lang), false
	}
	return answer, true
}

// Classify asks the model for a single label and returns it lower-cased
// when it is one of allowed. Anything else, including errors, yields "".
func (g *Generator) Classify(ctx context.Context, system, input string, allowed ...string) string {
	answer, err := g.llmProvider.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: input},
	}, llm.WithTemperature(0))
	if err != nil {
		g.logger.Warn("GENERATION", "Classification failed", map[string]interface{}{"error": err.Error()})
		return ""
	}
	label := strings.ToLower(strings.Trim(strings.TrimSpace(answer), "'\".`"))
	if len(allowed) == 0 {
		return label
	}
	for _, a := range allowed {
		if label == a {
			return label
		}
	}
	return ""
}
