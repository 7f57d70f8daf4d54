package workflow

import (
	"screening-onboarding-be/pkg/dialogue"
	"screening-onboarding-be/pkg/llm"
)

// History converts the last max transcript messages into model messages.
// max <= 0 keeps everything.
func History(transcript []dialogue.Message, max int) []llm.Message {
	if max > 0 && len(transcript) > max {
		transcript = transcript[len(transcript)-max:]
	}
	out := make([]llm.Message, 0, len(transcript))
	for _, m := range transcript {
		role := llm.RoleUser
		switch m.Role {
		case dialogue.RoleAssistant:
			role = llm.RoleAssistant
		case dialogue.RoleSystem:
			role = llm.RoleSystem
		}
		out = append(out, llm.Message{Role: role, Content: m.Text})
	}
	return out
}
