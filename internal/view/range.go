package view

import (
	"fmt"
	"time"

	"github.com/kjellrichard/bygolf-portal/internal/dateutil"
)

// Mode selects how wide a calendar window is derived from the anchor date.
type Mode string

const (
	ModeDay   Mode = "day"
	Mode3Days Mode = "3days"
	ModeWeek  Mode = "week"
)

// ParseMode validates a mode string coming from config or a request.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeDay, Mode3Days, ModeWeek:
		return Mode(s), nil
	}
	return "", fmt.Errorf("invalid view mode %q; expected day, 3days or week", s)
}

// Range is the concrete fetch and display window derived from a view
// mode and an anchor date.
type Range struct {
	FetchStart  time.Time
	FetchEnd    time.Time
	DisplayDays []time.Time
}

// ResolveRange computes the fetch window and the display days for the
// given mode and anchor date. A non-zero explicitEnd widens the window
// when it lies strictly after the computed end; it never narrows it.
// The week mode starts on Monday.
func ResolveRange(mode Mode, anchor time.Time, explicitEnd time.Time) Range {
	var fetchStart, fetchEnd time.Time

	switch mode {
	case Mode3Days:
		fetchStart = dateutil.StartOfDay(anchor)
		fetchEnd = dateutil.EndOfDay(dateutil.AddDays(anchor, 2))
	case ModeWeek:
		weekStart := dateutil.WeekStart(anchor)
		fetchStart = weekStart
		fetchEnd = dateutil.EndOfDay(dateutil.AddDays(weekStart, 6))
	default:
		fetchStart = dateutil.StartOfDay(anchor)
		fetchEnd = dateutil.EndOfDay(anchor)
	}

	if mode != ModeDay && !explicitEnd.IsZero() && explicitEnd.After(fetchEnd) {
		fetchEnd = dateutil.EndOfDay(explicitEnd)
	}

	return Range{
		FetchStart:  fetchStart,
		FetchEnd:    fetchEnd,
		DisplayDays: dateutil.DaysInRange(fetchStart, fetchEnd),
	}
}

// ComputedEnd returns the natural end date for a mode and anchor,
// before any explicit override. Used when switching modes to reset the
// end-date override the same way the calendar controls do.
func ComputedEnd(mode Mode, anchor time.Time) time.Time {
	switch mode {
	case Mode3Days:
		return dateutil.AddDays(anchor, 2)
	case ModeWeek:
		return dateutil.AddDays(dateutil.WeekStart(anchor), 6)
	default:
		return anchor
	}
}
