package validation

import (
	"fmt"

	"screening-onboarding-be/pkg/workflow"
)

type copyText struct {
	Welcome   string
	Analyzing string
	NoResults string

	Title, Results, Syntax, Fields    string
	Correct, Problems, Complete, Gaps string
	Next                              string
}

var english = copyText{
	Welcome: "# API request validation\n\n" +
		"I help you validate your call to the TCM Screening API.\n\n" +
		"**Please paste your API request:**\n" +
		"- as JSON\n" +
		"- with the complete request structure\n" +
		"- with real or test data\n\n" +
		"I will check syntax, completeness of the screening relevant fields, data quality " +
		"and suggest improvements for better match handling.",
	Analyzing: "Thanks! I am analyzing your API request:\n\n```json\n%s\n```",
	NoResults: "❌ No validation results available.",

	Title:    "## Validation complete",
	Results:  "**Results:**",
	Syntax:   "Syntax",
	Fields:   "Required fields",
	Correct:  "Correct",
	Problems: "Problems found",
	Complete: "Complete",
	Gaps:     "Incomplete",
	Next: "The detailed analysis is in the previous message.\n\n" +
		"*To validate another request, just paste it.*",
}

var german = copyText{
	Welcome: "# API-Request-Validierung\n\n" +
		"Ich helfe Ihnen dabei, Ihren Aufruf der TCM Screening API zu validieren.\n\n" +
		"**Bitte geben Sie Ihren API-Request ein:**\n" +
		"- als JSON\n" +
		"- mit vollständiger Request-Struktur\n" +
		"- mit echten oder Testdaten\n\n" +
		"Ich prüfe Syntax, Vollständigkeit der prüfrelevanten Felder und Datenqualität " +
		"und schlage Verbesserungen für eine bessere Trefferbearbeitung vor.",
	Analyzing: "Danke! Ich analysiere Ihren API-Request:\n\n```json\n%s\n```",
	NoResults: "❌ Keine Validierungsergebnisse verfügbar.",

	Title:    "## Validierung abgeschlossen",
	Results:  "**Ergebnisse:**",
	Syntax:   "Syntax",
	Fields:   "Pflichtfelder",
	Correct:  "Korrekt",
	Problems: "Probleme gefunden",
	Complete: "Vollständig",
	Gaps:     "Unvollständig",
	Next: "Die detaillierte Analyse finden Sie in der vorherigen Nachricht.\n\n" +
		"*Für eine neue Validierung geben Sie einfach einen neuen API-Request ein.*",
}

func textFor(locale string) copyText {
	if workflow.ParseLocale(locale) == workflow.German {
		return german
	}
	return english
}

func mark(ok bool) string {
	if ok {
		return "✅"
	}
	return "❌"
}

func (t copyText) summary(syntax, fields bool) string {
	syntaxText, fieldsText := t.Problems, t.Gaps
	if syntax {
		syntaxText = t.Correct
	}
	if fields {
		fieldsText = t.Complete
	}
	return fmt.Sprintf("%s\n\n%s\n- %s **%s**: %s\n- %s **%s**: %s\n\n%s",
		t.Title, t.Results,
		mark(syntax), t.Syntax, syntaxText,
		mark(fields), t.Fields, fieldsText,
		t.Next,
	)
}
