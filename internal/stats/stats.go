// Package stats folds a normalized message batch into the aggregate views
// the dashboard renders. Each Compute call works on private accumulators;
// configuration arrives as an immutable Options value, so concurrent
// requests never share state.
package stats

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/chatlens/chatlens/internal/normalize"
)

// ErrNoMessages is returned when there is nothing to aggregate. Callers must
// treat this as a failure, not a zero-valued result.
var ErrNoMessages = errors.New("no usable messages to aggregate")

// Options is the per-request aggregation configuration.
type Options struct {
	// Overrides maps a role to a user-chosen display name.
	Overrides map[string]string
	// StopWords are unioned with the built-in list for keyword filtering.
	StopWords []string
	// Tokenize overrides the tokenizer; nil means tokenize.Tokens is
	// expected to be injected by the caller.
	Tokenize func(string) []string
}

// Histogram is a labelled bucket series. Rendering must tolerate empty
// labels/data.
type Histogram struct {
	Labels []string `json:"labels"`
	Data   []int    `json:"data"`
}

// RoleStat summarizes one role's share of the batch.
type RoleStat struct {
	Role         string `json:"role"`
	DisplayRole  string `json:"displayRole"`
	MessageCount int    `json:"messageCount"`
	WordCount    int    `json:"wordCount"`
}

// EarliestMessage identifies the oldest timestamped message.
type EarliestMessage struct {
	Timestamp int64  `json:"timestamp"`
	Formatted string `json:"formatted"`
	Role      string `json:"role"`
}

// StreakRange bounds a consecutive-day run by day keys.
type StreakRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Streak is the longest run of consecutive calendar days with activity.
type Streak struct {
	Longest int          `json:"longest"`
	Range   *StreakRange `json:"range"`
}

// PeakHour is the busiest hour-of-day bucket.
type PeakHour struct {
	Hour  int    `json:"hour"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Keyword is a ranked token with its weight relative to the top entry.
type Keyword struct {
	Word             string  `json:"word"`
	Weight           int     `json:"weight"`
	NormalizedWeight float64 `json:"normalizedWeight"`
}

// Analysis is the aggregate bundle, immutable once produced.
type Analysis struct {
	Messages          []normalize.Message            `json:"messages"`
	RoleMessages      map[string][]normalize.Message `json:"roleMessages"`
	RoleStats         []RoleStat                     `json:"roleStats"`
	MonthlyHistogram  Histogram                      `json:"monthlyHistogram"`
	HourlyHistogram   Histogram                      `json:"hourlyHistogram"`
	WeekdayHistogram  Histogram                      `json:"weekdayHistogram"`
	ModelDistribution Histogram                      `json:"modelDistribution"`
	DailyTrend        Histogram                      `json:"dailyTrend"`
	EarliestMessage   *EarliestMessage               `json:"earliestMessage"`
	Streak            Streak                         `json:"streak"`
	PeakHour          *PeakHour                      `json:"peakHour"`
	Keywords          []Keyword                      `json:"keywords"`
}

var weekdayNames = [7]string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

// Compute builds every aggregate view from the batch in one pass over the
// messages (plus the per-view sorts). The batch is never mutated.
func Compute(msgs []normalize.Message, opts Options) (*Analysis, error) {
	if len(msgs) == 0 {
		return nil, ErrNoMessages
	}

	a := &Analysis{
		Messages: msgs,
		RoleMessages: map[string][]normalize.Message{
			"user":      filterRole(msgs, "user"),
			"assistant": filterRole(msgs, "assistant"),
		},
	}

	a.RoleStats = computeRoleStats(msgs, opts.Overrides)
	a.MonthlyHistogram = computeKeyedHistogram(msgs, func(ms int64) string { return normalize.FormatMonth(ms) })
	a.HourlyHistogram = computeHourlyHistogram(msgs)
	a.WeekdayHistogram = computeWeekdayHistogram(msgs)
	a.ModelDistribution = computeModelDistribution(msgs)
	a.DailyTrend = computeKeyedHistogram(msgs, func(ms int64) string { return normalize.FormatDay(ms) })
	a.EarliestMessage = computeEarliest(msgs, opts.Overrides)
	a.Streak = computeStreak(msgs)
	a.PeakHour = computePeakHour(a.HourlyHistogram)

	a.Keywords = computeKeywords(msgs, opts)

	return a, nil
}

func filterRole(msgs []normalize.Message, role string) []normalize.Message {
	out := make([]normalize.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == role {
			out = append(out, m)
		}
	}
	return out
}

func computeRoleStats(msgs []normalize.Message, overrides map[string]string) []RoleStat {
	byRole := make(map[string]*RoleStat)
	order := make([]string, 0, 2)

	for _, m := range msgs {
		stat, ok := byRole[m.Role]
		if !ok {
			stat = &RoleStat{
				Role:        m.Role,
				DisplayRole: normalize.DisplayName(m.Role, overrides),
			}
			byRole[m.Role] = stat
			order = append(order, m.Role)
		}
		stat.MessageCount++
		stat.WordCount += m.WordCount
	}

	out := make([]RoleStat, 0, len(order))
	for _, role := range order {
		out = append(out, *byRole[role])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MessageCount > out[j].MessageCount
	})
	return out
}

// computeKeyedHistogram buckets timestamped messages by a derived key and
// returns the buckets sorted ascending by key. The key formats are
// zero-padded and fixed-width, so lexicographic order is chronological.
func computeKeyedHistogram(msgs []normalize.Message, key func(ms int64) string) Histogram {
	counts := make(map[string]int)
	for _, m := range msgs {
		if m.Timestamp == nil {
			continue
		}
		counts[key(*m.Timestamp)]++
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := Histogram{Labels: make([]string, 0, len(keys)), Data: make([]int, 0, len(keys))}
	for _, k := range keys {
		h.Labels = append(h.Labels, k)
		h.Data = append(h.Data, counts[k])
	}
	return h
}

func computeHourlyHistogram(msgs []normalize.Message) Histogram {
	h := Histogram{Labels: make([]string, 24), Data: make([]int, 24)}
	for i := range h.Labels {
		h.Labels[i] = fmt.Sprintf("%d:00", i)
	}
	for _, m := range msgs {
		if m.Timestamp == nil {
			continue
		}
		h.Data[localHour(*m.Timestamp)]++
	}
	return h
}

func computeWeekdayHistogram(msgs []normalize.Message) Histogram {
	h := Histogram{Labels: weekdayNames[:], Data: make([]int, 7)}
	for _, m := range msgs {
		if m.Timestamp == nil {
			continue
		}
		h.Data[localWeekday(*m.Timestamp)]++
	}
	return h
}

// computeModelDistribution counts per model, keying case-insensitively but
// keeping the first-seen casing as the label. A placeholder "unknown" label
// upgrades to the first real casing that appears.
func computeModelDistribution(msgs []normalize.Message) Histogram {
	type entry struct {
		label string
		count int
	}
	byKey := make(map[string]*entry)
	var order []string

	for _, m := range msgs {
		label := m.Model
		if label == "" {
			label = "unknown"
		}
		key := strings.ToLower(label)
		e, ok := byKey[key]
		if !ok {
			e = &entry{label: label}
			byKey[key] = e
			order = append(order, key)
		}
		e.count++
		if e.label == "unknown" && label != "unknown" {
			e.label = label
		}
	}

	entries := make([]entry, 0, len(order))
	for _, key := range order {
		entries = append(entries, *byKey[key])
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].count > entries[j].count
	})

	h := Histogram{Labels: make([]string, 0, len(entries)), Data: make([]int, 0, len(entries))}
	for _, e := range entries {
		h.Labels = append(h.Labels, e.label)
		h.Data = append(h.Data, e.count)
	}
	return h
}

// computeEarliest scans for the minimum timestamp; the first occurrence in
// input order wins ties.
func computeEarliest(msgs []normalize.Message, overrides map[string]string) *EarliestMessage {
	var best *normalize.Message
	for i := range msgs {
		m := &msgs[i]
		if m.Timestamp == nil {
			continue
		}
		if best == nil || *m.Timestamp < *best.Timestamp {
			best = m
		}
	}
	if best == nil {
		return nil
	}
	return &EarliestMessage{
		Timestamp: *best.Timestamp,
		Formatted: normalize.FormatDayTime(*best.Timestamp),
		Role:      normalize.DisplayName(best.Role, overrides),
	}
}

// computePeakHour picks the hour bucket with the maximum count; the lowest
// hour index wins ties.
func computePeakHour(hourly Histogram) *PeakHour {
	if len(hourly.Data) == 0 {
		return nil
	}
	maxIdx := 0
	for i, count := range hourly.Data {
		if count > hourly.Data[maxIdx] {
			maxIdx = i
		}
	}
	return &PeakHour{
		Hour:  maxIdx,
		Label: hourly.Labels[maxIdx],
		Count: hourly.Data[maxIdx],
	}
}
