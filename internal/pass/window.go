package pass

import (
	"fmt"
	"time"
)

// DateWindow is an inclusive range of UTC calendar dates used to restrict
// aggregation. Single-day, rolling and arbitrary explicit windows are all
// expressed as the same range; the aggregation logic never distinguishes
// between them.
type DateWindow struct {
	Start time.Time // UTC midnight of the first day
	End   time.Time // UTC midnight of the last day
}

// DateOf truncates an instant to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Day is the window covering a single calendar date.
func Day(date time.Time) DateWindow {
	d := DateOf(date)
	return DateWindow{Start: d, End: d}
}

// Rolling is the window of `days` calendar dates ending at (and including)
// the given date. Rolling(d, 7) ending 2026-01-07 covers exactly
// 2026-01-01..2026-01-07.
func Rolling(end time.Time, days int) DateWindow {
	e := DateOf(end)
	return DateWindow{Start: e.AddDate(0, 0, -(days - 1)), End: e}
}

// Between is an arbitrary explicit window spanning both dates inclusively.
func Between(start, end time.Time) (DateWindow, error) {
	s, e := DateOf(start), DateOf(end)
	if e.Before(s) {
		return DateWindow{}, fmt.Errorf("window end %s before start %s",
			e.Format(time.DateOnly), s.Format(time.DateOnly))
	}
	return DateWindow{Start: s, End: e}, nil
}

// Contains reports whether an instant falls on one of the window's dates.
// The instant is normalized to UTC before comparison.
func (w DateWindow) Contains(t time.Time) bool {
	u := t.UTC()
	return !u.Before(w.Start) && u.Before(w.End.AddDate(0, 0, 1))
}

// Days returns the window length in calendar dates.
func (w DateWindow) Days() int {
	return int(w.End.Sub(w.Start)/(24*time.Hour)) + 1
}

func (w DateWindow) String() string {
	if w.Start.Equal(w.End) {
		return w.Start.Format(time.DateOnly)
	}
	return w.Start.Format(time.DateOnly) + ".." + w.End.Format(time.DateOnly)
}
