package onboarding

import (
	"regexp"
	"strings"
)

// DefaultClientIdentCode is used when the user has no client yet.
const DefaultClientIdentCode = "APITEST"

var (
	urlRE           = regexp.MustCompile(`(?i)https?://[^\s]+`)
	clientIdentRE   = regexp.MustCompile(`(?i)clientIdentCode\s*[:=]\s*([A-Za-z0-9_\-]+)`)
	mandantRE       = regexp.MustCompile(`(?i)mandant(?:enname)?\s*[:=]\s*([A-Za-z0-9_\-]+)`)
	clientLabelRE   = regexp.MustCompile(`(?i)\bclient\s*[:=]\s*([A-Za-z0-9_\-]+)`)
	codeTokenRE     = regexp.MustCompile(`\b[A-Z0-9_]{3,12}\b`)
	wordRE          = regexp.MustCompile(`[\p{L}\p{N}']+`)
	trailingPunctRE = regexp.MustCompile(`[.,;:)\]>"']+$`)
)

// Upper-case words that look like codes but are not.
var codeStopWords = map[string]bool{
	"API": true, "URL": true, "AEB": true, "TCM": true, "REST": true, "SOAP": true,
	"JSON": true, "XML": true, "CSV": true, "HTTP": true, "HTTPS": true, "WSM": true,
	"THE": true, "AND": true, "YES": true, "NEIN": true, "TEST": true, "PROD": true,
	"CODE": true, "MEIN": true, "OUR": true, "IST": true, "DAS": true, "DER": true,
}

var noCodePhrases = []string{
	"no code", "don't have", "dont have", "do not have", "not yet", "none", "no client",
	"keinen", "keine", "kein code", "habe ich nicht", "noch nicht",
}

var (
	yesWords = map[string]bool{
		"yes": true, "y": true, "yeah": true, "yep": true, "ok": true, "okay": true, "sure": true,
		"true": true, "1": true, "ja": true, "j": true, "klar": true, "gerne": true, "show": true,
	}
	noWords = map[string]bool{
		"no": true, "n": true, "nope": true, "false": true, "0": true, "nein": true,
		"not": true, "nicht": true, "skip": true, "überspringen": true, "later": true, "später": true,
	}
	configuredWords = map[string]bool{
		"configured": true, "done": true, "exists": true, "available": true, "set": true,
		"gesetzt": true, "vorhanden": true, "eingerichtet": true, "konfiguriert": true,
	}
	missingWords = map[string]bool{
		"missing": true, "fehlt": true, "none": true, "keinen": true, "kein": true,
	}
)

// Endpoints holds the parsed service URLs.
type Endpoints struct {
	Test string
	Prod string
}

func (e Endpoints) Empty() bool {
	return e.Test == "" && e.Prod == ""
}

func cleanURL(u string) string {
	return trailingPunctRE.ReplaceAllString(u, "")
}

// ParseEndpoints reads test and production URLs from free text. Two URLs
// are taken as test then prod. Otherwise each line is classified by its
// label. A single unlabeled URL counts as test when hasPrior is false.
func ParseEndpoints(text string, hasPrior bool) Endpoints {
	var out Endpoints
	urls := urlRE.FindAllString(text, -1)
	if len(urls) == 2 {
		return Endpoints{Test: cleanURL(urls[0]), Prod: cleanURL(urls[1])}
	}

	for _, line := range strings.Split(text, "\n") {
		u := urlRE.FindString(line)
		if u == "" {
			continue
		}
		low := strings.ToLower(urlRE.ReplaceAllString(line, ""))
		if strings.Contains(low, "test") {
			out.Test = cleanURL(u)
		}
		if strings.Contains(low, "prod") {
			out.Prod = cleanURL(u)
		}
	}

	if out.Empty() && len(urls) == 1 && !hasPrior {
		out.Test = cleanURL(urls[0])
	}
	return out
}

// ParseClientIdent extracts a client identifier. The first rule that
// matches wins: an explicit clientIdentCode, a German "Mandant" label, a
// "Client:" label, then the first code-like upper-case token.
func ParseClientIdent(text string) string {
	for _, re := range []*regexp.Regexp{clientIdentRE, mandantRE, clientLabelRE} {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.ToUpper(m[1])
		}
	}
	for _, tok := range codeTokenRE.FindAllString(text, -1) {
		if codeStopWords[tok] || isDigits(tok) {
			continue
		}
		return tok
	}
	return ""
}

// SaysNoClientCode reports phrases like "I don't have one".
func SaysNoClientCode(text string) bool {
	low := strings.ToLower(text)
	for _, p := range noCodePhrases {
		if strings.Contains(low, p) {
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Answer is a tri-state yes/no.
type Answer int

const (
	Unclear Answer = iota
	Yes
	No
)

func (a Answer) String() string {
	switch a {
	case Yes:
		return "yes"
	case No:
		return "no"
	}
	return "unclear"
}

// ParseYesNo understands English and German answers. Negation wins over
// affirmation so "not yet configured" is a no.
func ParseYesNo(text string) Answer {
	words := wordRE.FindAllString(strings.ToLower(text), -1)
	if len(words) == 0 {
		return Unclear
	}
	if strings.Contains(strings.ToLower(text), "not yet") || strings.Contains(strings.ToLower(text), "noch nicht") {
		return No
	}

	var yes, no bool
	for _, w := range words {
		switch {
		case noWords[w], missingWords[w]:
			no = true
		case yesWords[w], configuredWords[w]:
			yes = true
		}
	}
	switch {
	case no:
		return No
	case yes:
		return Yes
	}
	return Unclear
}
