package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chatlens/chatlens/internal/extract"
)

// Message is the canonical message record the aggregator consumes. Role is
// always "user" or "assistant"; everything else is rejected during
// normalization.
type Message struct {
	ID            string `json:"id"`
	Role          string `json:"role"`
	DisplayRole   string `json:"displayRole"`
	Text          string `json:"text"`
	Timestamp     *int64 `json:"timestamp"` // milliseconds since epoch, nil if unrecoverable
	Model         string `json:"model"`
	WordCount     int    `json:"wordCount"`
	DayKey        string `json:"dayKey,omitempty"`
	FormattedTime string `json:"formattedTime,omitempty"`
}

// Options is the per-request normalization configuration. Construct a fresh
// value per request; it is never mutated.
type Options struct {
	// Overrides maps a role to a user-chosen display name.
	Overrides map[string]string
}

var defaultRoleNames = map[string]string{
	"assistant": "Assistant",
	"user":      "User",
	"system":    "System",
	"tool":      "Tool",
}

// DisplayName resolves the display label for a role through the overrides,
// falling back to the built-in default names.
func DisplayName(role string, overrides map[string]string) string {
	key := strings.ToLower(strings.TrimSpace(role))
	if name, ok := overrides[key]; ok && name != "" {
		return name
	}
	if name, ok := defaultRoleNames[key]; ok {
		return name
	}
	if key != "" {
		return key
	}
	return "unknown"
}

// Normalize converts a candidate into a canonical Message. It returns nil
// when the candidate fails the validity filters: role not exactly user or
// assistant, or text shorter than two non-whitespace characters.
func Normalize(c extract.Candidate, opts Options) *Message {
	if c == nil {
		return nil
	}
	m := map[string]any(c)

	role := resolveRole(m)
	if role != "user" && role != "assistant" {
		return nil
	}

	text := CollapseWhitespace(resolveText(m))
	if strippedLen(text) < 2 {
		return nil
	}

	ts := ResolveTimestamp(m)
	model := resolveModel(m)
	wordCount := CountWords(text)

	msg := &Message{
		ID:          resolveID(m, role, ts),
		Role:        role,
		DisplayRole: DisplayName(role, opts.Overrides),
		Text:        text,
		Timestamp:   ts,
		Model:       model,
		WordCount:   wordCount,
	}
	if ts != nil {
		msg.DayKey = FormatDay(*ts)
		msg.FormattedTime = FormatDayTime(*ts)
	}
	return msg
}

// All normalizes a candidate batch, preserving the input order of survivors.
func All(cands []extract.Candidate, opts Options) []Message {
	out := make([]Message, 0, len(cands))
	for _, c := range cands {
		if msg := Normalize(c, opts); msg != nil {
			out = append(out, *msg)
		}
	}
	return out
}

func resolveID(m map[string]any, role string, ts *int64) string {
	for _, key := range []string{"id", "message_id", "uuid"} {
		if id := scalarString(m[key]); id != "" {
			return id
		}
	}
	if nested, ok := m["message"].(map[string]any); ok {
		for _, key := range []string{"id", "message_id", "uuid"} {
			if id := scalarString(nested[key]); id != "" {
				return id
			}
		}
	}

	at := time.Now().UnixMilli()
	if ts != nil {
		at = *ts
	}
	return fmt.Sprintf("%s-%d-%s", role, at, uuid.NewString()[:8])
}

// FormatDay renders a millisecond timestamp as a local YYYY-MM-DD key.
func FormatDay(ms int64) string {
	return time.UnixMilli(ms).Format("2006-01-02")
}

// FormatMonth renders a millisecond timestamp as a local YYYY-MM key.
func FormatMonth(ms int64) string {
	return time.UnixMilli(ms).Format("2006-01")
}

// FormatDayTime renders a millisecond timestamp with minute precision.
func FormatDayTime(ms int64) string {
	return time.UnixMilli(ms).Format("2006-01-02 15:04")
}
