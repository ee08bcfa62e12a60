package normalize

import (
	"math"
	"strconv"
	"strings"
)

// Field resolution follows the historical export dialects: each value is
// tried from an ordered chain of probes until one yields something.

type probe func(m map[string]any) (string, bool)

var roleProbes = []probe{
	func(m map[string]any) (string, bool) { return stringField(m, "role") },
	func(m map[string]any) (string, bool) { return nestedStringField(m, "author", "role") },
	func(m map[string]any) (string, bool) { return stringField(m, "author_role") },
	func(m map[string]any) (string, bool) { return stringField(m, "author") },
	func(m map[string]any) (string, bool) {
		nested, ok := m["message"].(map[string]any)
		if !ok {
			return "", false
		}
		return nestedStringField(nested, "author", "role")
	},
	func(m map[string]any) (string, bool) { return stringField(m, "participant") },
	func(m map[string]any) (string, bool) { return stringField(m, "sender") },
}

func resolveRole(m map[string]any) string {
	for _, p := range roleProbes {
		if v, ok := p(m); ok {
			return strings.ToLower(strings.TrimSpace(v))
		}
	}
	return ""
}

var modelProbes = []probe{
	func(m map[string]any) (string, bool) { return scalarStringField(m, "model") },
	func(m map[string]any) (string, bool) { return nestedScalarField(m, "metadata", "model") },
	func(m map[string]any) (string, bool) {
		nested, ok := m["message"].(map[string]any)
		if !ok {
			return "", false
		}
		return nestedScalarField(nested, "metadata", "model")
	},
}

func resolveModel(m map[string]any) string {
	for _, p := range modelProbes {
		if v, ok := p(m); ok {
			return v
		}
	}
	return "unknown"
}

func stringField(m map[string]any, key string) (string, bool) {
	s, ok := m[key].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

func nestedStringField(m map[string]any, outer, inner string) (string, bool) {
	nested, ok := m[outer].(map[string]any)
	if !ok {
		return "", false
	}
	return stringField(nested, inner)
}

func scalarStringField(m map[string]any, key string) (string, bool) {
	s := scalarString(m[key])
	return s, s != ""
}

func nestedScalarField(m map[string]any, outer, inner string) (string, bool) {
	nested, ok := m[outer].(map[string]any)
	if !ok {
		return "", false
	}
	return scalarStringField(nested, inner)
}

// scalarString renders a JSON scalar as a string, or "" for anything else.
func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
