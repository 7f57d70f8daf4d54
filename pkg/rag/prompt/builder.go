package prompt

import (
	"fmt"
	"strings"
)

// GroundedBuilder assembles the user message for answers that must be
// grounded on retrieved documentation.
type GroundedBuilder struct {
	question      string
	configuration []string
	passages      []string
	fallbackURL   string
	instructions  []string
}

func NewGroundedBuilder(question string) *GroundedBuilder {
	return &GroundedBuilder{question: strings.TrimSpace(question)}
}

// WithConfiguration adds "Label: value" lines describing what the user
// already told us.
func (b *GroundedBuilder) WithConfiguration(lines []string) *GroundedBuilder {
	b.configuration = append(b.configuration, lines...)
	return b
}

func (b *GroundedBuilder) WithPassages(passages []string) *GroundedBuilder {
	b.passages = append(b.passages, passages...)
	return b
}

// WithFallbackURL is cited when no passage was retrieved.
func (b *GroundedBuilder) WithFallbackURL(url string) *GroundedBuilder {
	b.fallbackURL = url
	return b
}

func (b *GroundedBuilder) WithInstruction(line string) *GroundedBuilder {
	b.instructions = append(b.instructions, line)
	return b
}

func (b *GroundedBuilder) Build() string {
	var prompt strings.Builder

	b.writeQuestion(&prompt)
	b.writeConfiguration(&prompt)
	b.writePassages(&prompt)
	b.writeTask(&prompt)

	return prompt.String()
}

func (b *GroundedBuilder) writeQuestion(prompt *strings.Builder) {
	prompt.WriteString("<user_question>\n")
	prompt.WriteString(b.question)
	prompt.WriteString("\n</user_question>\n\n")
}

func (b *GroundedBuilder) writeConfiguration(prompt *strings.Builder) {
	if len(b.configuration) == 0 {
		return
	}
	prompt.WriteString("<available_configuration>\n")
	for _, line := range b.configuration {
		prompt.WriteString(line)
		prompt.WriteString("\n")
	}
	prompt.WriteString("</available_configuration>\n\n")
}

func (b *GroundedBuilder) writePassages(prompt *strings.Builder) {
	prompt.WriteString("<documentation_excerpts>\n")
	if len(b.passages) == 0 {
		prompt.WriteString("No documentation excerpts found.\n")
		if b.fallbackURL != "" {
			prompt.WriteString(fmt.Sprintf("Point the user to the official documentation: %s\n", b.fallbackURL))
		}
	}
	for i, p := range b.passages {
		prompt.WriteString(fmt.Sprintf("\n--- EXCERPT %d ---\n", i+1))
		prompt.WriteString(p)
		prompt.WriteString("\n")
	}
	prompt.WriteString("</documentation_excerpts>\n\n")
}

func (b *GroundedBuilder) writeTask(prompt *strings.Builder) {
	prompt.WriteString("<task>\n")
	prompt.WriteString("Answer the question from the documentation excerpts and the configuration above.\n")
	prompt.WriteString("Prefer the excerpts over general knowledge and keep the API structure they describe.\n")
	for _, line := range b.instructions {
		prompt.WriteString(line)
		prompt.WriteString("\n")
	}
	prompt.WriteString("</task>")
}
