package grid

import (
	"time"

	"github.com/kjellrichard/bygolf-portal/internal/dateutil"
	"github.com/kjellrichard/bygolf-portal/internal/models"
)

// Visible hour window of the grid: 18 one-hour rows from 06:00 to 24:00.
const (
	FirstHour    = 6
	LastHour     = 23
	VisibleHours = LastHour - FirstHour + 1

	// MinHeightPercent keeps very short bookings visible and clickable.
	MinHeightPercent = 5.0

	// DefaultRowHeight is the reference row height in pixels used for
	// the current-time marker offset.
	DefaultRowHeight = 40.0
)

// Hours lists the visible hour rows in order.
func Hours() []int {
	hours := make([]int, 0, VisibleHours)
	for h := FirstHour; h <= LastHour; h++ {
		hours = append(hours, h)
	}
	return hours
}

// Block is the renderable geometry of one booking within its start
// hour row. Percentages are relative to a single hour row; a booking
// longer than an hour overflows past 100 and extends into the rows
// below, which stack contiguously.
type Block struct {
	Booking       models.Booking `json:"booking"`
	TopPercent    float64        `json:"topPercent"`
	HeightPercent float64        `json:"heightPercent"`
}

// LayoutCell returns the blocks for bookings that start within the
// given hour of the given day. Each booking is rendered exactly once,
// anchored to its start hour; duration comes from minute-of-day
// arithmetic, not from clamping to the hour window.
func LayoutCell(bayBookings []models.Booking, day time.Time, hour int) []Block {
	hourStart := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, day.Location())
	hourEnd := hourStart.Add(time.Hour)

	var blocks []Block
	for i := range bayBookings {
		b := bayBookings[i]
		if b.Start.Before(hourStart) || !b.Start.Before(hourEnd) {
			continue
		}

		top := float64(b.Start.Minute()) / 60 * 100
		height := float64(b.DurationMinutes()) / 60 * 100
		if height < MinHeightPercent {
			height = MinHeightPercent
		}

		blocks = append(blocks, Block{
			Booking:       b,
			TopPercent:    top,
			HeightPercent: height,
		})
	}
	return blocks
}

// CurrentMarkerOffset computes the vertical position of the "now"
// marker for a displayed day. It reports false unless day is now's
// calendar date and now's hour lies within the visible rows.
func CurrentMarkerOffset(day, now time.Time, rowHeight float64) (float64, bool) {
	if !dateutil.SameDay(day, now) {
		return 0, false
	}
	hour := now.Hour()
	if hour < FirstHour || hour > LastHour {
		return 0, false
	}
	offset := float64(hour-FirstHour)*rowHeight + float64(now.Minute())/60*rowHeight
	return offset, true
}
