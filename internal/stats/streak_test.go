package stats

import (
	"testing"
	"time"

	"github.com/chatlens/chatlens/internal/normalize"
)

func dayMsg(day string) normalize.Message {
	t, _ := time.ParseInLocation("2006-01-02", day, time.Local)
	ms := t.UnixMilli()
	return normalize.Message{
		Role:      "user",
		Text:      "on " + day,
		Timestamp: &ms,
		DayKey:    day,
		WordCount: 2,
	}
}

func TestComputeStreak_LongestRun(t *testing.T) {
	msgs := []normalize.Message{
		dayMsg("2024-01-01"),
		dayMsg("2024-01-02"),
		dayMsg("2024-01-03"),
		dayMsg("2024-01-05"),
	}

	streak := computeStreak(msgs)
	if streak.Longest != 3 {
		t.Fatalf("longest = %d, want 3", streak.Longest)
	}
	if streak.Range == nil || streak.Range.Start != "2024-01-01" || streak.Range.End != "2024-01-03" {
		t.Errorf("range = %+v, want 2024-01-01..2024-01-03", streak.Range)
	}
}

func TestComputeStreak_DuplicateDaysCollapse(t *testing.T) {
	msgs := []normalize.Message{
		dayMsg("2024-01-01"),
		dayMsg("2024-01-01"),
		dayMsg("2024-01-01"),
		dayMsg("2024-01-02"),
	}

	streak := computeStreak(msgs)
	if streak.Longest != 2 {
		t.Fatalf("longest = %d, want 2 (distinct days only)", streak.Longest)
	}
}

func TestComputeStreak_SingleDay(t *testing.T) {
	streak := computeStreak([]normalize.Message{dayMsg("2024-06-15")})
	if streak.Longest != 1 {
		t.Fatalf("longest = %d, want 1", streak.Longest)
	}
	if streak.Range == nil || streak.Range.Start != "2024-06-15" || streak.Range.End != "2024-06-15" {
		t.Errorf("range = %+v", streak.Range)
	}
}

func TestComputeStreak_FirstRangeWinsTies(t *testing.T) {
	msgs := []normalize.Message{
		dayMsg("2024-01-01"), dayMsg("2024-01-02"),
		dayMsg("2024-02-10"), dayMsg("2024-02-11"),
	}

	streak := computeStreak(msgs)
	if streak.Longest != 2 {
		t.Fatalf("longest = %d, want 2", streak.Longest)
	}
	if streak.Range.Start != "2024-01-01" {
		t.Errorf("tie should resolve to the earlier run, got %+v", streak.Range)
	}
}

func TestComputeStreak_MonthBoundary(t *testing.T) {
	msgs := []normalize.Message{
		dayMsg("2024-01-31"), dayMsg("2024-02-01"), dayMsg("2024-02-02"),
	}

	streak := computeStreak(msgs)
	if streak.Longest != 3 {
		t.Fatalf("longest = %d, want 3 across the month boundary", streak.Longest)
	}
}

func TestComputeStreak_NoTimestamps(t *testing.T) {
	streak := computeStreak([]normalize.Message{{Role: "user", Text: "timeless"}})
	if streak.Longest != 0 || streak.Range != nil {
		t.Fatalf("streak = %+v, want zero value", streak)
	}
}
