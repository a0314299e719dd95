package view

import (
	"testing"
	"time"

	"github.com/kjellrichard/bygolf-portal/internal/dateutil"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func TestResolveRangeDeterministic(t *testing.T) {
	anchor := date(2024, 5, 14)
	for _, mode := range []Mode{ModeDay, Mode3Days, ModeWeek} {
		a := ResolveRange(mode, anchor, time.Time{})
		b := ResolveRange(mode, anchor, time.Time{})
		if !a.FetchStart.Equal(b.FetchStart) || !a.FetchEnd.Equal(b.FetchEnd) || len(a.DisplayDays) != len(b.DisplayDays) {
			t.Errorf("mode %s: identical inputs produced different ranges", mode)
		}
	}
}

func TestResolveRangeModes(t *testing.T) {
	tests := []struct {
		name      string
		mode      Mode
		anchor    time.Time
		wantStart time.Time
		wantDays  int
	}{
		{"day", ModeDay, date(2024, 1, 10), date(2024, 1, 10), 1},
		{"3days", Mode3Days, date(2024, 1, 10), date(2024, 1, 10), 3},
		{"week from wednesday starts monday", ModeWeek, date(2024, 1, 3), date(2024, 1, 1), 7},
		{"week from sunday starts preceding monday", ModeWeek, date(2024, 1, 7), date(2024, 1, 1), 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := ResolveRange(tt.mode, tt.anchor, time.Time{})
			if !rng.FetchStart.Equal(tt.wantStart) {
				t.Errorf("FetchStart = %v, want %v", rng.FetchStart, tt.wantStart)
			}
			if len(rng.DisplayDays) != tt.wantDays {
				t.Errorf("DisplayDays = %d, want %d", len(rng.DisplayDays), tt.wantDays)
			}
			if !rng.DisplayDays[0].Equal(tt.wantStart) {
				t.Errorf("first display day = %v, want %v", rng.DisplayDays[0], tt.wantStart)
			}
			if tt.mode == ModeWeek && rng.DisplayDays[0].Weekday() != time.Monday {
				t.Errorf("week does not start on Monday: %v", rng.DisplayDays[0].Weekday())
			}
		})
	}
}

func TestResolveRangeExplicitEndWidensOnly(t *testing.T) {
	anchor := date(2024, 1, 1)

	widened := ResolveRange(Mode3Days, anchor, date(2024, 1, 10))
	if !dateutil.SameDay(widened.FetchEnd, date(2024, 1, 10)) {
		t.Errorf("explicit end did not widen: FetchEnd = %v", widened.FetchEnd)
	}
	if len(widened.DisplayDays) != 10 {
		t.Errorf("widened range has %d days, want 10", len(widened.DisplayDays))
	}

	narrowed := ResolveRange(Mode3Days, anchor, date(2023, 12, 31))
	if !dateutil.SameDay(narrowed.FetchEnd, date(2024, 1, 3)) {
		t.Errorf("earlier explicit end should be ignored: FetchEnd = %v", narrowed.FetchEnd)
	}

	// Day mode never honors an explicit end.
	day := ResolveRange(ModeDay, anchor, date(2024, 1, 10))
	if !dateutil.SameDay(day.FetchEnd, anchor) {
		t.Errorf("day mode honored explicit end: FetchEnd = %v", day.FetchEnd)
	}
}

func TestParseMode(t *testing.T) {
	for _, valid := range []string{"day", "3days", "week"} {
		if _, err := ParseMode(valid); err != nil {
			t.Errorf("ParseMode(%q) unexpected error: %v", valid, err)
		}
	}
	if _, err := ParseMode("month"); err == nil {
		t.Error("ParseMode accepted an unknown mode")
	}
}
