package chunker

import (
	"strings"
	"unicode/utf8"
)

var (
	markdownSeparators = []string{"\n# ", "\n## ", "\n### ", "\n#### ", "\n\n", "\n", " ", ""}
	plainSeparators    = []string{"\n\n", "\n", " ", ""}
)

// recursiveSplitter cuts at the coarsest separator that keeps pieces under
// size, then greedily merges neighbours back up to size with overlap.
type recursiveSplitter struct {
	size       int
	overlap    int
	separators []string
}

func newRecursiveSplitter(size, overlap int, separators []string) recursiveSplitter {
	if overlap < 0 || overlap >= size {
		overlap = size / 10
	}
	return recursiveSplitter{size: size, overlap: overlap, separators: separators}
}

func (r recursiveSplitter) split(text string) []string {
	return r.splitWith(text, r.separators)
}

func (r recursiveSplitter) splitWith(text string, separators []string) []string {
	sep := ""
	var rest []string
	for i, s := range separators {
		if s == "" || strings.Contains(text, s) {
			sep = s
			rest = separators[i+1:]
			break
		}
	}
	if sep == "" {
		return r.window(text)
	}

	var out, good []string
	for _, piece := range splitKeepingSeparator(text, sep) {
		if utf8.RuneCountInString(piece) <= r.size {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			out = append(out, r.merge(good)...)
			good = nil
		}
		if len(rest) == 0 {
			out = append(out, r.window(piece)...)
		} else {
			out = append(out, r.splitWith(piece, rest)...)
		}
	}
	if len(good) > 0 {
		out = append(out, r.merge(good)...)
	}
	return out
}

func (r recursiveSplitter) merge(pieces []string) []string {
	var out, current []string
	total := 0
	for _, p := range pieces {
		n := utf8.RuneCountInString(p)
		if total+n > r.size && len(current) > 0 {
			out = appendTrimmed(out, strings.Join(current, ""))
			for len(current) > 0 && (total > r.overlap || total+n > r.size) {
				total -= utf8.RuneCountInString(current[0])
				current = current[1:]
			}
		}
		current = append(current, p)
		total += n
	}
	if len(current) > 0 {
		out = appendTrimmed(out, strings.Join(current, ""))
	}
	return out
}

// window is a plain rune sliding window, the last resort for text without
// any usable separator.
func (r recursiveSplitter) window(text string) []string {
	runes := []rune(text)
	if len(runes) <= r.size {
		return appendTrimmed(nil, text)
	}

	step := r.size - r.overlap
	if step <= 0 {
		step = r.size
	}

	var out []string
	for start := 0; start < len(runes); start += step {
		end := start + r.size
		if end > len(runes) {
			end = len(runes)
		}
		out = appendTrimmed(out, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return out
}

// splitKeepingSeparator splits on sep and glues the separator onto the
// front of the following piece so headings stay with their section.
func splitKeepingSeparator(text, sep string) []string {
	parts := strings.Split(text, sep)
	out := make([]string, 0, len(parts))
	for i, p := range parts {
		if i > 0 {
			p = sep + p
		}
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func appendTrimmed(out []string, s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return out
	}
	return append(out, s)
}
