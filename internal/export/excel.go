// Package export renders the visible calendar window to an XLSX
// report: one summary sheet of per-day statistics plus a sheet listing
// every booking in the window.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kjellrichard/bygolf-portal/internal/dateutil"
	"github.com/kjellrichard/bygolf-portal/internal/grid"
	"github.com/kjellrichard/bygolf-portal/internal/metrics"
	"github.com/kjellrichard/bygolf-portal/internal/models"
)

// Window bundles everything needed to export one display window.
type Window struct {
	Days       []time.Time
	Buckets    grid.DayBuckets
	Stats      map[string]grid.Stats
	BayOptions map[int64]string
}

// Write streams the XLSX workbook for the window.
func Write(w io.Writer, win Window) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeSummary(f, win); err != nil {
		return err
	}
	if err := writeBookings(f, win); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	metrics.IncExport()
	return nil
}

func writeSummary(f *excelize.File, win Window) error {
	const sheet = "Summary"
	f.SetSheetName("Sheet1", sheet)

	row := 1
	if err := writeRow(f, sheet, row, []interface{}{"Date", "Weekday", "Bookings", "Hours"}); err != nil {
		return err
	}
	if err := boldRow(f, sheet, row, 4); err != nil {
		return err
	}

	for _, day := range win.Days {
		row++
		key := dateutil.DayKey(day)
		stats := win.Stats[key]
		values := []interface{}{key, day.Weekday().String(), stats.Count, stats.TotalHours}
		if err := writeRow(f, sheet, row, values); err != nil {
			return err
		}
	}
	return nil
}

func writeBookings(f *excelize.File, win Window) error {
	const sheet = "Bookings"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	header := []interface{}{"Date", "Bay", "Start", "End", "User", "Players", "Status", "Payment", "Option", "Notes"}
	row := 1
	if err := writeRow(f, sheet, row, header); err != nil {
		return err
	}
	if err := boldRow(f, sheet, row, len(header)); err != nil {
		return err
	}

	for _, day := range win.Days {
		key := dateutil.DayKey(day)
		for _, bay := range models.BayRefs {
			for _, b := range win.Buckets[key][bay] {
				row++
				values := []interface{}{
					key,
					bay,
					b.Start.Format("15:04"),
					b.End.Format("15:04"),
					b.User.Name,
					b.Players,
					b.Status,
					b.PaymentStatus,
					win.BayOptions[b.BayOptionID],
					b.Notes,
				}
				if err := writeRow(f, sheet, row, values); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for i, val := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, val); err != nil {
			return err
		}
	}
	return nil
}

func boldRow(f *excelize.File, sheet string, row, cols int) error {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return err
	}
	startCell, _ := excelize.CoordinatesToCellName(1, row)
	endCell, _ := excelize.CoordinatesToCellName(cols, row)
	return f.SetCellStyle(sheet, startCell, endCell, style)
}
