package chunker

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// structuredSplitter keeps key/value subtrees together up to max serialized
// bytes. Anything it cannot parse goes through the fallback splitter.
type structuredSplitter struct {
	max      int
	fallback recursiveSplitter
}

func (s structuredSplitter) splitJSON(text string) []string {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var data interface{}
	if err := dec.Decode(&data); err != nil {
		return s.fallback.split(text)
	}
	chunks, ok := s.splitTree(data)
	if !ok {
		return s.fallback.split(text)
	}

	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		raw, err := json.Marshal(c)
		if err != nil {
			return s.fallback.split(text)
		}
		out = append(out, s.capped(string(raw))...)
	}
	return out
}

func (s structuredSplitter) splitYAML(text string) []string {
	var data interface{}
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return s.fallback.split(text)
	}
	chunks, ok := s.splitTree(normalizeYAML(data))
	if !ok {
		return s.fallback.split(text)
	}

	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		raw, err := yaml.Marshal(c)
		if err != nil {
			return s.fallback.split(text)
		}
		out = append(out, s.capped(string(raw))...)
	}
	return out
}

// capped re-splits an oversized leaf chunk.
func (s structuredSplitter) capped(chunk string) []string {
	if len(chunk) <= s.max*2 {
		return []string{chunk}
	}
	return s.fallback.split(chunk)
}

func (s structuredSplitter) splitTree(data interface{}) ([]map[string]interface{}, bool) {
	root, ok := asObject(data)
	if !ok {
		return nil, false
	}
	chunks := []map[string]interface{}{{}}
	s.walk(root, nil, &chunks)

	out := chunks[:0]
	for _, c := range chunks {
		if len(c) > 0 {
			out = append(out, c)
		}
	}
	return out, len(out) > 0
}

func (s structuredSplitter) walk(node map[string]interface{}, path []string, chunks *[]map[string]interface{}) {
	minSize := s.max - 200
	if minSize < 50 {
		minSize = 50
	}

	for _, key := range sortedObjectKeys(node) {
		value := node[key]
		next := append(append([]string(nil), path...), key)

		current := (*chunks)[len(*chunks)-1]
		currentSize := jsonSize(current)
		size := jsonSize(map[string]interface{}{key: value})

		if size < s.max-currentSize {
			setNested(current, next, value)
			continue
		}
		if currentSize >= minSize {
			*chunks = append(*chunks, map[string]interface{}{})
		}
		if child, ok := asObject(value); ok && len(child) > 0 {
			s.walk(child, next, chunks)
			continue
		}
		setNested((*chunks)[len(*chunks)-1], next, value)
	}
}

// asObject treats arrays as objects keyed by index so long lists can be
// split between chunks.
func asObject(v interface{}) (map[string]interface{}, bool) {
	switch t := v.(type) {
	case map[string]interface{}:
		return t, true
	case []interface{}:
		m := make(map[string]interface{}, len(t))
		for i, item := range t {
			m[strconv.Itoa(i)] = item
		}
		return m, true
	}
	return nil, false
}

func setNested(dst map[string]interface{}, path []string, value interface{}) {
	for _, key := range path[:len(path)-1] {
		child, ok := dst[key].(map[string]interface{})
		if !ok {
			child = map[string]interface{}{}
			dst[key] = child
		}
		dst = child
	}
	dst[path[len(path)-1]] = value
}

func jsonSize(v interface{}) int {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return 0
	}
	return buf.Len() - 1
}

// sortedObjectKeys orders numeric (array index) keys numerically and the
// rest lexically.
func sortedObjectKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return keys[i] < keys[j]
	})
	return keys
}

// normalizeYAML converts map[interface{}]interface{} nodes (non-string keys)
// into map[string]interface{} so the tree can be measured as JSON.
func normalizeYAML(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = normalizeYAML(val)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = normalizeYAML(val)
		}
		return out
	}
	return v
}
