package response

import (
	"context"
	"fmt"

	"screening-onboarding-be/pkg/llm"
)

// Clarifier explains to the user why an answer could not be used.
type Clarifier struct {
	gen *Generator
}

func NewClarifier(gen *Generator) *Clarifier {
	return &Clarifier{gen: gen}
}

// Clarify returns a short explanation of what was wrong with answer.
// When the model fails, fallback is returned so the user still sees what
// is expected.
func (c *Clarifier) Clarify(ctx context.Context, lang, question, answer, fallback string) string {
	system := "You are a helpful assistant. The user did not answer a question correctly. " +
		"Look at the original question and the answer and kindly explain what was missing " +
		"and how to answer correctly. Keep it short."
	if lang == "de" {
		system += " Answer in German."
	}

	user := fmt.Sprintf("<question>\n%s\n</question>\n\n<user_answer>\n%s\n</user_answer>", question, answer)

	text, ok := c.gen.Generate(ctx, lang, []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: user},
	})
	if !ok {
		return fallback
	}
	return text
}
