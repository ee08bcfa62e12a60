package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Below this magnitude a numeric timestamp is taken as epoch seconds and
// scaled to milliseconds.
const millisThreshold = 1e12

var timestampProbes = []func(m map[string]any) (any, bool){
	func(m map[string]any) (any, bool) { return presentField(m, "create_time") },
	func(m map[string]any) (any, bool) { return presentField(m, "createTime") },
	func(m map[string]any) (any, bool) { return presentField(m, "timestamp") },
	func(m map[string]any) (any, bool) {
		nested, ok := m["message"].(map[string]any)
		if !ok {
			return nil, false
		}
		return presentField(nested, "create_time")
	},
	func(m map[string]any) (any, bool) {
		nested, ok := m["message"].(map[string]any)
		if !ok {
			return nil, false
		}
		return presentField(nested, "timestamp")
	},
}

// ResolveTimestamp finds the first present timestamp field and normalizes it
// to epoch milliseconds. Absence or unparseable values yield nil; that only
// disables time-based aggregation for the message, it is not an error.
func ResolveTimestamp(m map[string]any) *int64 {
	for _, p := range timestampProbes {
		if v, ok := p(m); ok {
			return NormalizeTimestampValue(v)
		}
	}
	return nil
}

// NormalizeTimestampValue converts a raw timestamp representation to epoch
// milliseconds. Numbers below 10^12 are treated as epoch seconds; strings
// are parsed first as a number, then as a calendar date.
func NormalizeTimestampValue(v any) *int64 {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil
		}
		if t < millisThreshold {
			t *= 1000
		}
		ms := int64(math.Round(t))
		return &ms
	case string:
		trimmed := strings.TrimSpace(t)
		if trimmed == "" {
			return nil
		}
		if n, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return NormalizeTimestampValue(n)
		}
		return parseDateString(trimmed)
	default:
		return nil
	}
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseDateString(s string) *int64 {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			ms := t.UnixMilli()
			return &ms
		}
	}
	return nil
}

func presentField(m map[string]any, key string) (any, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}
