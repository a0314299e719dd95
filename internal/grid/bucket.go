package grid

import (
	"math"
	"time"

	"github.com/kjellrichard/bygolf-portal/internal/dateutil"
	"github.com/kjellrichard/bygolf-portal/internal/models"
)

// DayBuckets maps day key -> bay ref -> bookings overlapping that day.
// A booking spanning N displayed days appears in N buckets; it is
// never split. The layout step renders only the hour it starts in.
type DayBuckets map[string]map[string][]models.Booking

// Stats aggregates the bookings of one displayed day.
type Stats struct {
	Count      int     `json:"count"`
	TotalHours float64 `json:"totalHours"`
}

// overlapsDay is the boundary-inclusive overlap test used throughout
// the grid: a booking touching a day boundary is counted on both days.
func overlapsDay(b *models.Booking, dayStart, dayEnd time.Time) bool {
	return !b.Start.After(dayEnd) && !b.End.Before(dayStart)
}

// Bucket assigns every booking to each (day, bay) bucket its interval
// overlaps. Both bays get a list for every display day, even when empty.
func Bucket(bookings []models.Booking, displayDays []time.Time) DayBuckets {
	buckets := make(DayBuckets, len(displayDays))
	for _, day := range displayDays {
		bays := make(map[string][]models.Booking, len(models.BayRefs))
		for _, bay := range models.BayRefs {
			bays[bay] = []models.Booking{}
		}
		buckets[dateutil.DayKey(day)] = bays
	}

	for i := range bookings {
		b := &bookings[i]
		bay := b.Bay()
		for _, day := range displayDays {
			dayStart := dateutil.StartOfDay(day)
			dayEnd := dateutil.EndOfDay(day)
			if !overlapsDay(b, dayStart, dayEnd) {
				continue
			}
			bays := buckets[dateutil.DayKey(day)]
			bays[bay] = append(bays[bay], *b)
		}
	}

	return buckets
}

// DayStats computes the booking count and the occupied hours for one
// day. Hours count only the portion of each booking overlapping the
// day and are rounded to one decimal, half away from zero.
func DayStats(bookings []models.Booking, day time.Time) Stats {
	dayStart := dateutil.StartOfDay(day)
	dayEnd := dateutil.EndOfDay(day)

	var stats Stats
	var totalHours float64
	for i := range bookings {
		b := &bookings[i]
		if !overlapsDay(b, dayStart, dayEnd) {
			continue
		}
		stats.Count++

		overlapStart := b.Start
		if overlapStart.Before(dayStart) {
			overlapStart = dayStart
		}
		overlapEnd := b.End
		if overlapEnd.After(dayEnd) {
			overlapEnd = dayEnd
		}
		totalHours += overlapEnd.Sub(overlapStart).Hours()
	}

	stats.TotalHours = math.Round(totalHours*10) / 10
	return stats
}

// DayStatsRange computes stats for every display day, keyed by day key.
func DayStatsRange(bookings []models.Booking, displayDays []time.Time) map[string]Stats {
	stats := make(map[string]Stats, len(displayDays))
	for _, day := range displayDays {
		stats[dateutil.DayKey(day)] = DayStats(bookings, day)
	}
	return stats
}
