package dateutil

import "time"

// DayKeyFormat is the canonical YYYY-MM-DD key for a calendar day.
const DayKeyFormat = "2006-01-02"

// StartOfDay returns t at local midnight.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last representable instant of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// AddDays shifts t by the given number of calendar days.
func AddDays(t time.Time, days int) time.Time {
	return t.AddDate(0, 0, days)
}

// WeekStart returns local midnight of the Monday of t's ISO week.
// time.Weekday numbers Sunday as 0, hence the -6 adjustment.
func WeekStart(t time.Time) time.Time {
	weekday := int(t.Weekday())
	diff := 1 - weekday
	if weekday == 0 {
		diff = -6
	}
	return StartOfDay(t.AddDate(0, 0, diff))
}

// DaysInRange enumerates every calendar day from start to end
// inclusive, each at local midnight.
func DaysInRange(start, end time.Time) []time.Time {
	var days []time.Time
	for d := StartOfDay(start); !d.After(end); d = AddDays(d, 1) {
		days = append(days, d)
	}
	return days
}

// DayKey formats t as its YYYY-MM-DD bucket key.
func DayKey(t time.Time) string {
	return t.Format(DayKeyFormat)
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
