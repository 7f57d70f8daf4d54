package workflow

import (
	"sort"
	"strings"
)

const DocumentationHome = "https://trade-compliance.docs.developers.aeb.com"

var documentationPages = map[string]string{
	"authentication":  DocumentationHome + "/docs/setting-up-your-environment-1",
	"endpoints":       DocumentationHome + "/docs/setting-up-your-environment-1",
	"screening":       DocumentationHome + "/reference/screenaddresses",
	"screenaddresses": DocumentationHome + "/reference/screenaddresses",
	"responses":       DocumentationHome + "/docs/compliance-screening-responses",
	"errors":          DocumentationHome + "/docs/error-handling",
	"deeplink":        DocumentationHome + "/reference/screeninglogentry",
}

// DocumentationURL maps a keyword to the matching documentation page.
// Unknown keywords get the documentation home page and ok=false.
func DocumentationURL(keyword string) (string, bool) {
	k := strings.ToLower(strings.Join(strings.Fields(keyword), ""))
	if url, ok := documentationPages[k]; ok {
		return url, true
	}
	keys := make([]string, 0, len(documentationPages))
	for key := range documentationPages {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if k != "" && strings.Contains(k, key) {
			return documentationPages[key], true
		}
	}
	return DocumentationHome, false
}
