package normalize

import (
	"strings"
	"unicode"
)

// resolveText tries the content candidates in priority order and returns the
// first non-empty text the recursive picker finds.
func resolveText(m map[string]any) string {
	nested, _ := m["message"].(map[string]any)
	nestedContent, _ := mapField(nested, "content")

	candidates := []any{
		fieldOf(mapOrNil(m["content"]), "parts"),
		m["content"],
		m["parts"],
		m["text"],
		m["value"],
		fieldOf(mapOrNil(m["delta"]), "content"),
		m["delta"],
		fieldOf(nestedContent, "parts"),
		fieldOf(nested, "content"),
		fieldOf(nested, "parts"),
		fieldOf(nested, "text"),
		fieldOf(nested, "value"),
	}

	for _, candidate := range candidates {
		if text := pickText(candidate); text != "" {
			return text
		}
	}
	return ""
}

func mapOrNil(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func mapField(m map[string]any, key string) (map[string]any, bool) {
	if m == nil {
		return nil, false
	}
	nested, ok := m[key].(map[string]any)
	return nested, ok
}

func fieldOf(m map[string]any, key string) any {
	if m == nil {
		return nil
	}
	return m[key]
}

// pickText recursively digs a human-readable string out of an arbitrary
// content value: scalars directly, arrays by first non-empty element, and
// objects through the text-bearing keys the export dialects use.
func pickText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64, bool:
		return scalarString(t)
	case []any:
		for _, part := range t {
			if text := pickText(part); text != "" {
				return text
			}
		}
		return ""
	case map[string]any:
		return pickObjectText(t)
	default:
		return ""
	}
}

var directTextKeys = []string{
	"text", "value", "content", "message", "caption",
	"data", "arguments", "body", "delta",
}

func pickObjectText(obj map[string]any) string {
	for _, key := range directTextKeys {
		if s, ok := obj[key].(string); ok && s != "" {
			return s
		}
	}

	// One nesting level, e.g. {"text":{"value":...}} or {"message":{"content":...}}.
	nestedProbes := [][2]string{
		{"text", "value"}, {"content", "value"}, {"message", "value"},
		{"text", "content"}, {"message", "content"},
	}
	for _, p := range nestedProbes {
		if nested, ok := obj[p[0]].(map[string]any); ok {
			if s, ok := nested[p[1]].(string); ok && s != "" {
				return s
			}
		}
	}

	for _, key := range []string{"parts", "content", "messages", "values"} {
		if arr, ok := obj[key].([]any); ok {
			if text := pickText(arr); text != "" {
				return text
			}
		}
	}

	if delta, ok := obj["delta"].(map[string]any); ok {
		for _, key := range []string{"content", "parts", "text", "value"} {
			if v, ok := delta[key]; ok && v != nil {
				if text := pickText(v); text != "" {
					return text
				}
			}
		}
	}

	return ""
}

// CollapseWhitespace squeezes every whitespace run to a single space and
// trims the ends.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// strippedLen counts the runes left after removing all whitespace.
func strippedLen(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

// CountWords counts maximal runs of Unicode letters (combining marks extend
// a run). When no letter run matches at all, as with some CJK-free symbol
// text, it falls back to counting non-whitespace runes.
func CountWords(text string) int {
	if text == "" {
		return 0
	}

	words := 0
	inWord := false
	for _, r := range text {
		switch {
		case unicode.IsLetter(r):
			if !inWord {
				words++
				inWord = true
			}
		case unicode.IsMark(r) && inWord:
			// combining mark continues the current run
		default:
			inWord = false
		}
	}
	if words > 0 {
		return words
	}

	return strippedLen(text)
}
