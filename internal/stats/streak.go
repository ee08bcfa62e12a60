package stats

import (
	"sort"
	"time"

	"github.com/chatlens/chatlens/internal/normalize"
)

func localHour(ms int64) int {
	return time.UnixMilli(ms).Hour()
}

func localWeekday(ms int64) int {
	return int(time.UnixMilli(ms).Weekday())
}

// computeStreak finds the longest run of consecutive calendar days that
// contain at least one message, over the set of distinct days. The first
// qualifying range encountered while scanning ascending wins ties; a single
// distinct day is a streak of one.
func computeStreak(msgs []normalize.Message) Streak {
	daySet := make(map[string]bool)
	for _, m := range msgs {
		if m.Timestamp != nil {
			daySet[m.DayKey] = true
		}
	}
	if len(daySet) == 0 {
		return Streak{Longest: 0, Range: nil}
	}

	days := make([]string, 0, len(daySet))
	for d := range daySet {
		days = append(days, d)
	}
	sort.Strings(days)

	longest := 1
	current := 1
	best := StreakRange{Start: days[0], End: days[0]}
	runStart := days[0]

	for i := 1; i < len(days); i++ {
		if consecutiveDays(days[i-1], days[i]) {
			current++
			continue
		}
		if current > longest {
			longest = current
			best = StreakRange{Start: runStart, End: days[i-1]}
		}
		current = 1
		runStart = days[i]
	}
	if current > longest {
		longest = current
		best = StreakRange{Start: runStart, End: days[len(days)-1]}
	}

	return Streak{Longest: longest, Range: &best}
}

// consecutiveDays reports whether b is exactly one calendar day after a.
// Both are YYYY-MM-DD keys.
func consecutiveDays(a, b string) bool {
	ta, errA := time.Parse("2006-01-02", a)
	tb, errB := time.Parse("2006-01-02", b)
	if errA != nil || errB != nil {
		return false
	}
	return ta.AddDate(0, 0, 1).Equal(tb)
}
