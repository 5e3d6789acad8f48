package core

import (
	"fmt"
	"strings"
	"time"
)

// BusinessZone is the fixed business timezone (Asia/Baghdad, UTC+3, no DST).
// All canned periods and custom ranges are computed in this zone regardless
// of the server's local time.
var BusinessZone = time.FixedZone("Asia/Baghdad", 3*60*60)

// Period is a canned reporting window keyword.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
	PeriodAll   Period = "all"
)

// Window is an inclusive [Start, End] instant range. HasStart/HasEnd false
// means unbounded on that side (the "all" period has neither bound).
type Window struct {
	Start    time.Time
	End      time.Time
	HasStart bool
	HasEnd   bool
}

// Contains reports whether t falls inside the window, bounds inclusive.
func (w Window) Contains(t time.Time) bool {
	if w.HasStart && t.Before(w.Start) {
		return false
	}
	if w.HasEnd && t.After(w.End) {
		return false
	}
	return true
}

// ContainsDate applies Contains to a nullable record date. A nil date
// (an unparseable or absent settlement_date/created_at) is excluded,
// never treated as always-included.
func (w Window) ContainsDate(t *time.Time) bool {
	if t == nil {
		return false
	}
	return w.Contains(*t)
}

// endOfDay is 23:59:59.999 of the calendar day containing t (business zone).
func endOfDay(t time.Time) time.Time {
	y, m, d := t.In(BusinessZone).Date()
	next := time.Date(y, m, d+1, 0, 0, 0, 0, BusinessZone)
	return next.Add(-time.Millisecond)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.In(BusinessZone).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, BusinessZone)
}

// WindowFor computes the window for a canned period relative to now.
// day: the current calendar day; week: Monday through Sunday of the current
// week; month and year: the current calendar month/year. "all" or an
// unrecognized period yields an unbounded window.
func WindowFor(period Period, now time.Time) Window {
	now = now.In(BusinessZone)

	switch period {
	case PeriodDay:
		return Window{Start: startOfDay(now), End: endOfDay(now), HasStart: true, HasEnd: true}

	case PeriodWeek:
		// Monday-based week.
		sinceMonday := (int(now.Weekday()) + 6) % 7
		monday := startOfDay(now).AddDate(0, 0, -sinceMonday)
		sunday := monday.AddDate(0, 0, 6)
		return Window{Start: monday, End: endOfDay(sunday), HasStart: true, HasEnd: true}

	case PeriodMonth:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, BusinessZone)
		last := first.AddDate(0, 1, 0).Add(-time.Millisecond)
		return Window{Start: first, End: last, HasStart: true, HasEnd: true}

	case PeriodYear:
		first := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, BusinessZone)
		last := time.Date(now.Year(), time.December, 31, 0, 0, 0, 0, BusinessZone)
		return Window{Start: first, End: endOfDay(last), HasStart: true, HasEnd: true}
	}

	return Window{}
}

// CustomWindow builds a window from explicit from/to strings, each either a
// bare date (2006-01-02) or an RFC 3339 instant. Empty strings leave that
// side unbounded. A date-only "to" is widened to 23:59:59.999 of that
// calendar day so the whole day is included.
func CustomWindow(from, to string) (Window, error) {
	var w Window

	if from != "" {
		t, _, err := parseInstant(from)
		if err != nil {
			return Window{}, fmt.Errorf("invalid from date %q: %w", from, err)
		}
		w.Start = t
		w.HasStart = true
	}
	if to != "" {
		t, dateOnly, err := parseInstant(to)
		if err != nil {
			return Window{}, fmt.Errorf("invalid to date %q: %w", to, err)
		}
		if dateOnly {
			t = endOfDay(t)
		}
		w.End = t
		w.HasEnd = true
	}
	if w.HasStart && w.HasEnd && w.End.Before(w.Start) {
		return Window{}, fmt.Errorf("range end %s precedes start %s", to, from)
	}
	return w, nil
}

// ResolveWindow picks between a canned period and a custom range: explicit
// from/to win when either is present, otherwise the period keyword applies.
func ResolveWindow(period Period, from, to string, now time.Time) (Window, error) {
	if from != "" || to != "" {
		return CustomWindow(from, to)
	}
	return WindowFor(period, now), nil
}

// parseInstant accepts a bare date or an RFC 3339 timestamp. Bare dates are
// interpreted in the business zone; dateOnly tells the caller whether
// end-of-day widening applies.
func parseInstant(s string) (t time.Time, dateOnly bool, err error) {
	s = strings.TrimSpace(s)
	if t, err = time.ParseInLocation("2006-01-02", s, BusinessZone); err == nil {
		return t, true, nil
	}
	if t, err = time.Parse(time.RFC3339, s); err == nil {
		return t.In(BusinessZone), false, nil
	}
	return time.Time{}, false, fmt.Errorf("unrecognized date format")
}
