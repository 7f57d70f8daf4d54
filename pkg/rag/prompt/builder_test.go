package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGroundedBuilder(t *testing.T) {
	tests := []struct {
		name        string
		builder     *GroundedBuilder
		contains    []string
		notContains []string
	}{
		{
			name: "passages and configuration",
			builder: NewGroundedBuilder("  What is suppressLogging?  ").
				WithConfiguration([]string{"Client (clientIdentCode): ACME"}).
				WithPassages([]string{"suppressLogging skips the audit log", "batch size is 100"}),
			contains: []string{
				"<user_question>\nWhat is suppressLogging?\n</user_question>",
				"Client (clientIdentCode): ACME",
				"--- EXCERPT 1 ---\nsuppressLogging skips the audit log",
				"--- EXCERPT 2 ---\nbatch size is 100",
			},
			notContains: []string{"No documentation excerpts found."},
		},
		{
			name:        "no passages points at the documentation",
			builder:     NewGroundedBuilder("q").WithFallbackURL("https://docs.example.com"),
			contains:    []string{"No documentation excerpts found.", "https://docs.example.com"},
			notContains: []string{"<available_configuration>"},
		},
		{
			name:     "extra instructions",
			builder:  NewGroundedBuilder("q").WithInstruction("Answer in German."),
			contains: []string{"Answer in German.\n</task>"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.builder.Build()
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.notContains {
				assert.NotContains(t, out, s)
			}
			assert.True(t, strings.HasPrefix(out, "<user_question>"))
		})
	}
}
