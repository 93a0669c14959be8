// Package export renders attendance records as a spreadsheet.
package export

import (
	"fmt"
	"io"
	"time"

	"clockout.service/internal/core/model"
	"github.com/xuri/excelize/v2"
)

const (
	SheetName   = "Attendance"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	timeLayout  = time.DateTime
)

// Headers are the three fixed columns: date, clock-in, clock-out.
var Headers = []string{"日期", "上班打卡时间", "下班打卡时间"}

var columnWidths = map[string]float64{"A": 14, "B": 22, "C": 22}

// Filename names an export produced at now.
func Filename(now time.Time) string {
	return fmt.Sprintf("attendance-%s.xlsx", now.Format("20060102"))
}

// WriteXLSX writes one row per record, in the given order, below a header
// row. Missing times are left blank.
func WriteXLSX(w io.Writer, records []model.AttendanceRecord, loc *time.Location) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", "C1", bold); err != nil {
		return err
	}

	for col, width := range columnWidths {
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{rec.Date, formatTime(rec.ClockInTime, loc), formatTime(rec.ClockOutTime, loc)}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row for %s: %w", rec.Date, err)
		}
	}

	return f.Write(w)
}

func formatTime(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return t.In(loc).Format(timeLayout)
}
