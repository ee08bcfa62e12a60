package normalize

import (
	"strings"
	"testing"
	"time"

	"github.com/chatlens/chatlens/internal/extract"
)

func msTS(year int, month time.Month, day, hour, min int) int64 {
	return time.Date(year, month, day, hour, min, 0, 0, time.Local).UnixMilli()
}

func TestNormalize_BasicMessage(t *testing.T) {
	ts := msTS(2024, time.March, 5, 14, 30)
	c := extract.Candidate{
		"id":          "msg-1",
		"role":        "user",
		"content":     "hello world",
		"create_time": float64(ts),
		"model":       "gpt-4",
	}

	msg := Normalize(c, Options{})
	if msg == nil {
		t.Fatal("expected a message, got nil")
	}
	if msg.ID != "msg-1" {
		t.Errorf("ID = %q, want msg-1", msg.ID)
	}
	if msg.Role != "user" || msg.DisplayRole != "User" {
		t.Errorf("role = %q / %q, want user / User", msg.Role, msg.DisplayRole)
	}
	if msg.Text != "hello world" {
		t.Errorf("text = %q", msg.Text)
	}
	if msg.Timestamp == nil || *msg.Timestamp != ts {
		t.Errorf("timestamp = %v, want %d", msg.Timestamp, ts)
	}
	if msg.Model != "gpt-4" {
		t.Errorf("model = %q, want gpt-4", msg.Model)
	}
	if msg.WordCount != 2 {
		t.Errorf("wordCount = %d, want 2", msg.WordCount)
	}
	if msg.DayKey != "2024-03-05" {
		t.Errorf("dayKey = %q, want 2024-03-05", msg.DayKey)
	}
	if msg.FormattedTime != "2024-03-05 14:30" {
		t.Errorf("formattedTime = %q", msg.FormattedTime)
	}
}

func TestNormalize_RejectsNonConversationalRoles(t *testing.T) {
	for _, role := range []string{"system", "tool", "moderator", ""} {
		c := extract.Candidate{"role": role, "content": "plenty of text"}
		if msg := Normalize(c, Options{}); msg != nil {
			t.Errorf("role %q: expected rejection, got %+v", role, msg)
		}
	}
}

func TestNormalize_RoleCaseAndWhitespace(t *testing.T) {
	c := extract.Candidate{"role": "  Assistant ", "content": "fine text"}
	msg := Normalize(c, Options{})
	if msg == nil || msg.Role != "assistant" {
		t.Fatalf("expected normalized assistant role, got %+v", msg)
	}
}

func TestNormalize_RoleProbeChain(t *testing.T) {
	cases := []struct {
		name string
		c    extract.Candidate
		want string
	}{
		{"author.role", extract.Candidate{"author": map[string]any{"role": "assistant"}, "content": "some text"}, "assistant"},
		{"author_role", extract.Candidate{"author_role": "user", "content": "some text"}, "user"},
		{"author string", extract.Candidate{"author": "user", "content": "some text"}, "user"},
		{"message.author.role", extract.Candidate{"message": map[string]any{"author": map[string]any{"role": "assistant"}}, "content": "some text"}, "assistant"},
		{"participant", extract.Candidate{"participant": "user", "content": "some text"}, "user"},
		{"sender", extract.Candidate{"sender": "assistant", "content": "some text"}, "assistant"},
	}
	for _, tc := range cases {
		msg := Normalize(tc.c, Options{})
		if msg == nil {
			t.Errorf("%s: unexpected rejection", tc.name)
			continue
		}
		if msg.Role != tc.want {
			t.Errorf("%s: role = %q, want %q", tc.name, msg.Role, tc.want)
		}
	}
}

func TestNormalize_TextMinimum(t *testing.T) {
	for _, text := range []string{"", " ", "a", " a ", "a \t\n"} {
		c := extract.Candidate{"role": "user", "content": text}
		if msg := Normalize(c, Options{}); msg != nil {
			t.Errorf("text %q: expected rejection, got %+v", text, msg)
		}
	}

	// Exactly two stripped characters pass, even split by whitespace.
	c := extract.Candidate{"role": "user", "content": " a b "}
	msg := Normalize(c, Options{})
	if msg == nil {
		t.Fatal("two stripped characters should survive")
	}
	if msg.Text != "a b" {
		t.Errorf("text = %q, want collapsed form", msg.Text)
	}
}

func TestNormalize_WhitespaceCollapsed(t *testing.T) {
	c := extract.Candidate{"role": "user", "content": "  hello \n\t  world  "}
	msg := Normalize(c, Options{})
	if msg == nil {
		t.Fatal("unexpected rejection")
	}
	if msg.Text != "hello world" {
		t.Errorf("text = %q, want \"hello world\"", msg.Text)
	}
}

func TestNormalize_ContentPartsPriority(t *testing.T) {
	c := extract.Candidate{
		"role": "user",
		"content": map[string]any{
			"parts": []any{"", "from parts"},
		},
		"text": "lower priority",
	}
	msg := Normalize(c, Options{})
	if msg == nil || msg.Text != "from parts" {
		t.Fatalf("expected content.parts to win, got %+v", msg)
	}
}

func TestNormalize_StructuredContentBlocks(t *testing.T) {
	c := extract.Candidate{
		"role": "assistant",
		"content": []any{
			map[string]any{"type": "thinking"},
			map[string]any{"type": "text", "text": "visible answer"},
		},
	}
	msg := Normalize(c, Options{})
	if msg == nil || msg.Text != "visible answer" {
		t.Fatalf("expected first text-bearing block, got %+v", msg)
	}
}

func TestNormalize_NestedMessageContent(t *testing.T) {
	c := extract.Candidate{
		"role": "user",
		"message": map[string]any{
			"content": map[string]any{"parts": []any{"nested parts text"}},
		},
	}
	msg := Normalize(c, Options{})
	if msg == nil || msg.Text != "nested parts text" {
		t.Fatalf("expected message.content.parts text, got %+v", msg)
	}
}

func TestNormalize_MissingTimestampIsNotAnError(t *testing.T) {
	c := extract.Candidate{"role": "user", "content": "no clock here"}
	msg := Normalize(c, Options{})
	if msg == nil {
		t.Fatal("unexpected rejection")
	}
	if msg.Timestamp != nil {
		t.Errorf("timestamp = %v, want nil", msg.Timestamp)
	}
	if msg.DayKey != "" || msg.FormattedTime != "" {
		t.Errorf("derived time fields should be empty: %q %q", msg.DayKey, msg.FormattedTime)
	}
}

func TestNormalize_SynthesizedID(t *testing.T) {
	c := extract.Candidate{"role": "user", "content": "anonymous message"}
	msg := Normalize(c, Options{})
	if msg == nil {
		t.Fatal("unexpected rejection")
	}
	if !strings.HasPrefix(msg.ID, "user-") {
		t.Errorf("synthesized id = %q, want user- prefix", msg.ID)
	}

	other := Normalize(c, Options{})
	if other.ID == msg.ID {
		t.Error("synthesized ids should not collide")
	}
}

func TestNormalize_NestedMessageID(t *testing.T) {
	c := extract.Candidate{
		"role":    "user",
		"content": "id below",
		"message": map[string]any{"uuid": "deep-id"},
	}
	msg := Normalize(c, Options{})
	if msg == nil || msg.ID != "deep-id" {
		t.Fatalf("expected nested uuid, got %+v", msg)
	}
}

func TestNormalize_ModelFallsBackToUnknown(t *testing.T) {
	c := extract.Candidate{"role": "assistant", "content": "model-free reply"}
	msg := Normalize(c, Options{})
	if msg == nil || msg.Model != "unknown" {
		t.Fatalf("model = %+v, want unknown", msg)
	}

	c = extract.Candidate{
		"role":     "assistant",
		"content":  "tagged reply",
		"metadata": map[string]any{"model": "claude-3"},
	}
	msg = Normalize(c, Options{})
	if msg == nil || msg.Model != "claude-3" {
		t.Fatalf("model = %+v, want claude-3", msg)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	ts := msTS(2024, time.July, 1, 9, 0)
	c := extract.Candidate{
		"id":          "stable",
		"role":        "user",
		"content":     "   spaced    out   text ",
		"create_time": float64(ts),
	}

	first := Normalize(c, Options{})
	if first == nil {
		t.Fatal("unexpected rejection")
	}

	// Feed the normalized record back through as a candidate.
	again := Normalize(extract.Candidate{
		"id":        first.ID,
		"role":      first.Role,
		"text":      first.Text,
		"timestamp": float64(*first.Timestamp),
	}, Options{})
	if again == nil {
		t.Fatal("normalized output should itself normalize")
	}
	if again.Text != first.Text {
		t.Errorf("text changed on second pass: %q vs %q", again.Text, first.Text)
	}
	if *again.Timestamp != *first.Timestamp {
		t.Errorf("timestamp changed on second pass: %d vs %d", *again.Timestamp, *first.Timestamp)
	}
}

func TestDisplayName(t *testing.T) {
	overrides := map[string]string{"user": "Alice"}

	if got := DisplayName("user", overrides); got != "Alice" {
		t.Errorf("override: got %q", got)
	}
	if got := DisplayName("assistant", overrides); got != "Assistant" {
		t.Errorf("default: got %q", got)
	}
	if got := DisplayName("Narrator", nil); got != "narrator" {
		t.Errorf("unrecognized role should echo lowercased: got %q", got)
	}
	if got := DisplayName("", nil); got != "unknown" {
		t.Errorf("empty role: got %q", got)
	}
}

func TestAll_PreservesSurvivorOrder(t *testing.T) {
	cands := []extract.Candidate{
		{"role": "user", "content": "first"},
		{"role": "system", "content": "dropped"},
		{"role": "assistant", "content": "second"},
		{"role": "user", "content": "x"},
	}

	msgs := All(cands, Options{})
	if len(msgs) != 2 {
		t.Fatalf("expected 2 survivors, got %d", len(msgs))
	}
	if msgs[0].Text != "first" || msgs[1].Text != "second" {
		t.Errorf("order not preserved: %q, %q", msgs[0].Text, msgs[1].Text)
	}
}

func TestCountWords(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"hello world", 2},
		{"one", 1},
		{"don't stop", 3},
		{"100% sure thing", 2},
		{"...!!!", 6}, // no letter runs, falls back to rune count
		{"", 0},
	}
	for _, tc := range cases {
		if got := CountWords(tc.text); got != tc.want {
			t.Errorf("CountWords(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}
}
