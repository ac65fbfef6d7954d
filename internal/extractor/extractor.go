// Package extractor recovers a JSON object from free-form model output.
package extractor

import (
	"encoding/json"
	"strings"

	"github.com/titanous/json5"
)

// Extract locates the JSON object in raw and decodes it. Strict JSON is
// tried first, then JSON5 (trailing commas, unquoted keys, single-quoted
// strings). When the outermost braces do not hold a valid object, each
// balanced {...} candidate is tried left to right. Returns false when
// nothing decodes to an object.
func Extract(raw string) (map[string]any, bool) {
	text := stripFences(raw)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, false
	}

	if obj, ok := decode(text[start : end+1]); ok {
		return obj, true
	}

	for _, candidate := range candidates(text) {
		if obj, ok := decode(candidate); ok {
			return obj, true
		}
	}
	return nil, false
}

func decode(s string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err == nil && obj != nil {
		return obj, true
	}
	obj = nil
	if err := json5.Unmarshal([]byte(s), &obj); err == nil && obj != nil {
		return obj, true
	}
	return nil, false
}

func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```JSON", "")
	return strings.ReplaceAll(s, "```", "")
}

// candidates returns every balanced {...} span in s, in order of their
// opening brace. Braces inside quoted strings are ignored.
func candidates(s string) []string {
	var out []string
	for i := 0; i < len(s); i++ {
		if s[i] != '{' {
			continue
		}
		if j := matchBrace(s, i); j > 0 {
			out = append(out, s[i:j+1])
		}
	}
	return out
}

func matchBrace(s string, open int) int {
	depth := 0
	var quote byte
	escaped := false
	for i := open; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
