package core_test

import (
	"testing"
	"time"

	"settlement-engine/internal/core"
)

func TestWindowFor_MonthBoundaries(t *testing.T) {
	now := time.Date(2025, 4, 15, 13, 45, 0, 0, core.BusinessZone)
	w := core.WindowFor(core.PeriodMonth, now)

	firstInstant := time.Date(2025, 4, 1, 0, 0, 0, 0, core.BusinessZone)
	lastInstant := time.Date(2025, 4, 30, 23, 59, 59, 999_000_000, core.BusinessZone)
	justPast := lastInstant.Add(time.Millisecond)

	if !w.Contains(firstInstant) {
		t.Error("first millisecond of the month excluded")
	}
	if !w.Contains(lastInstant) {
		t.Error("last millisecond of the month excluded")
	}
	if w.Contains(justPast) {
		t.Error("instant one millisecond past the month included")
	}
}

func TestWindowFor_WeekIsMondayThroughSunday(t *testing.T) {
	// 2025-04-16 is a Wednesday.
	now := time.Date(2025, 4, 16, 9, 0, 0, 0, core.BusinessZone)
	w := core.WindowFor(core.PeriodWeek, now)

	monday := time.Date(2025, 4, 14, 0, 0, 0, 0, core.BusinessZone)
	sundayEnd := time.Date(2025, 4, 20, 23, 59, 59, 999_000_000, core.BusinessZone)

	if !w.Start.Equal(monday) {
		t.Errorf("week start = %s, want %s", w.Start, monday)
	}
	if !w.End.Equal(sundayEnd) {
		t.Errorf("week end = %s, want %s", w.End, sundayEnd)
	}

	// A Monday "now" must not slide into the previous week.
	w = core.WindowFor(core.PeriodWeek, monday.Add(2*time.Hour))
	if !w.Start.Equal(monday) {
		t.Errorf("monday week start = %s, want %s", w.Start, monday)
	}
}

func TestWindowFor_DayAndYear(t *testing.T) {
	now := time.Date(2025, 12, 31, 23, 30, 0, 0, core.BusinessZone)

	day := core.WindowFor(core.PeriodDay, now)
	if !day.Start.Equal(time.Date(2025, 12, 31, 0, 0, 0, 0, core.BusinessZone)) {
		t.Errorf("day start = %s", day.Start)
	}
	if !day.Contains(now) {
		t.Error("now excluded from its own day")
	}

	year := core.WindowFor(core.PeriodYear, now)
	if !year.Contains(time.Date(2025, 1, 1, 0, 0, 0, 0, core.BusinessZone)) {
		t.Error("Jan 1 excluded from year window")
	}
	if year.Contains(time.Date(2026, 1, 1, 0, 0, 0, 0, core.BusinessZone)) {
		t.Error("next Jan 1 included in year window")
	}
}

func TestWindowFor_AllIsUnbounded(t *testing.T) {
	w := core.WindowFor(core.PeriodAll, time.Now())
	if w.HasStart || w.HasEnd {
		t.Errorf("all period must be unbounded, got %+v", w)
	}
	if !w.Contains(time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("unbounded window excluded an instant")
	}
}

// The business zone is fixed UTC+3: a server running in another zone must
// compute identical window bounds.
func TestWindowFor_IgnoresServerZone(t *testing.T) {
	// 2025-04-30 22:30 UTC is already 2025-05-01 01:30 in Baghdad.
	now := time.Date(2025, 4, 30, 22, 30, 0, 0, time.UTC)
	w := core.WindowFor(core.PeriodMonth, now)

	mayFirst := time.Date(2025, 5, 1, 0, 0, 0, 0, core.BusinessZone)
	if !w.Start.Equal(mayFirst) {
		t.Errorf("month start = %s, want %s (business-zone May)", w.Start, mayFirst)
	}
}

func TestCustomWindow(t *testing.T) {
	w, err := core.CustomWindow("2025-03-01", "2025-03-15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Date-only "to" is widened to the end of that calendar day.
	endOfDay := time.Date(2025, 3, 15, 23, 59, 59, 999_000_000, core.BusinessZone)
	if !w.End.Equal(endOfDay) {
		t.Errorf("end = %s, want %s", w.End, endOfDay)
	}
	if !w.Contains(time.Date(2025, 3, 15, 20, 0, 0, 0, core.BusinessZone)) {
		t.Error("evening of the final day excluded")
	}

	if _, err := core.CustomWindow("2025-03-20", "2025-03-01"); err == nil {
		t.Error("inverted range accepted")
	}
	if _, err := core.CustomWindow("not-a-date", ""); err == nil {
		t.Error("garbage from date accepted")
	}

	// Open-ended ranges leave the missing side unbounded.
	w, err = core.CustomWindow("", "2025-03-15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.HasStart {
		t.Error("empty from produced a lower bound")
	}
	if !w.Contains(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("open lower bound excluded an old instant")
	}
}

func TestWindowContainsDate_NilExcluded(t *testing.T) {
	w := core.WindowFor(core.PeriodYear, time.Now())
	if w.ContainsDate(nil) {
		t.Error("nil date must never be treated as always-included")
	}
}
