package workflow

import "strings"

type Locale string

const (
	English Locale = "en"
	German  Locale = "de"
)

// ParseLocale falls back to English for anything it does not know.
func ParseLocale(s string) Locale {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "de", "de-de", "german", "deutsch":
		return German
	}
	return English
}

// Language is the instruction appended to model prompts.
func (l Locale) Language() string {
	if l == German {
		return "Answer in German."
	}
	return "Answer in English."
}

// Pick returns de for German and en otherwise.
func (l Locale) Pick(en, de string) string {
	if l == German {
		return de
	}
	return en
}
