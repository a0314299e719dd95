package grid

import (
	"math"
	"testing"
	"time"

	"github.com/kjellrichard/bygolf-portal/internal/models"
)

func TestHours(t *testing.T) {
	hours := Hours()
	if len(hours) != 18 {
		t.Fatalf("expected 18 hour rows, got %d", len(hours))
	}
	if hours[0] != 6 || hours[len(hours)-1] != 23 {
		t.Errorf("hour range = %d..%d, want 6..23", hours[0], hours[len(hours)-1])
	}
}

func TestLayoutCellGeometry(t *testing.T) {
	day := date(2024, 1, 1)
	tests := []struct {
		name       string
		start      time.Time
		dur        time.Duration
		hour       int
		wantBlocks int
		wantTop    float64
		wantHeight float64
	}{
		{"on the hour, one hour", time.Date(2024, 1, 1, 10, 0, 0, 0, time.Local), time.Hour, 10, 1, 0, 100},
		{"quarter past, ninety minutes", time.Date(2024, 1, 1, 10, 15, 0, 0, time.Local), 90 * time.Minute, 10, 1, 25, 150},
		{"half past, half hour", time.Date(2024, 1, 1, 10, 30, 0, 0, time.Local), 30 * time.Minute, 10, 1, 50, 50},
		{"one-minute booking clamps to minimum height", time.Date(2024, 1, 1, 10, 0, 0, 0, time.Local), time.Minute, 10, 1, 0, MinHeightPercent},
		{"not in this hour", time.Date(2024, 1, 1, 11, 0, 0, 0, time.Local), time.Hour, 10, 0, 0, 0},
		{"start of next hour excluded", time.Date(2024, 1, 1, 11, 0, 0, 0, time.Local), time.Hour, 11, 1, 0, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocks := LayoutCell([]models.Booking{booking(1, "1", tt.start, tt.dur)}, day, tt.hour)
			if len(blocks) != tt.wantBlocks {
				t.Fatalf("got %d blocks, want %d", len(blocks), tt.wantBlocks)
			}
			if tt.wantBlocks == 0 {
				return
			}
			if blocks[0].TopPercent != tt.wantTop {
				t.Errorf("TopPercent = %v, want %v", blocks[0].TopPercent, tt.wantTop)
			}
			if blocks[0].HeightPercent != tt.wantHeight {
				t.Errorf("HeightPercent = %v, want %v", blocks[0].HeightPercent, tt.wantHeight)
			}
		})
	}
}

func TestLayoutCellAnchorsBookingOnce(t *testing.T) {
	day := date(2024, 1, 1)
	long := booking(2, "1", time.Date(2024, 1, 1, 10, 0, 0, 0, time.Local), 3*time.Hour)

	seen := 0
	for _, hour := range Hours() {
		seen += len(LayoutCell([]models.Booking{long}, day, hour))
	}
	if seen != 1 {
		t.Errorf("booking rendered %d times across the grid, want exactly once", seen)
	}
}

func TestCurrentMarkerOffset(t *testing.T) {
	day := date(2024, 6, 1)
	tests := []struct {
		name       string
		now        time.Time
		wantOffset float64
		wantOK     bool
	}{
		{"before visible window", time.Date(2024, 6, 1, 5, 59, 0, 0, time.Local), 0, false},
		{"window opens", time.Date(2024, 6, 1, 6, 0, 0, 0, time.Local), 0, true},
		{"mid morning", time.Date(2024, 6, 1, 9, 30, 0, 0, time.Local), 3*DefaultRowHeight + 20, true},
		{"last visible minute", time.Date(2024, 6, 1, 23, 59, 0, 0, time.Local), 17*DefaultRowHeight + 59.0/60*DefaultRowHeight, true},
		{"different day", time.Date(2024, 6, 2, 12, 0, 0, 0, time.Local), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offset, ok := CurrentMarkerOffset(day, tt.now, DefaultRowHeight)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && math.Abs(offset-tt.wantOffset) > 1e-9 {
				t.Errorf("offset = %v, want %v", offset, tt.wantOffset)
			}
		})
	}
}
