package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/example/classroom-booking/internal/application"
)

const reportSheet = "Bookings"

var reportColumns = []struct {
	title string
	width float64
}{
	{"Booking ID", 38},
	{"User ID", 24},
	{"Classroom", 20},
	{"Location", 20},
	{"Date", 12},
	{"Start", 8},
	{"End", 8},
	{"Status", 12},
	{"Refunded", 10},
	{"Rejection reason", 30},
	{"Created at", 22},
}

// Report writes items as an XLSX workbook with a single sheet, one booking per row.
func Report(w io.Writer, items []application.BookingDetails) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	idx, err := f.NewSheet(reportSheet)
	if err != nil {
		return fmt.Errorf("export: create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("export: remove default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("export: header style: %w", err)
	}

	for i, column := range reportColumns {
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(reportSheet, name, name, column.width); err != nil {
			return fmt.Errorf("export: column width: %w", err)
		}
		if err := f.SetCellValue(reportSheet, cell(i+1, 1), column.title); err != nil {
			return fmt.Errorf("export: header: %w", err)
		}
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(reportColumns), 1)
	if err := f.SetCellStyle(reportSheet, "A1", lastHeader, headerStyle); err != nil {
		return fmt.Errorf("export: header style: %w", err)
	}

	for r, item := range items {
		row := r + 2
		reason := ""
		if item.RejectionReason != nil {
			reason = *item.RejectionReason
		}
		values := []any{
			item.ID,
			item.UserID,
			item.ClassroomName,
			item.ClassroomLocation,
			item.Date.String(),
			item.Window.Start.String(),
			item.Window.End.String(),
			string(item.Status),
			item.Refunded,
			reason,
			item.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		for c, value := range values {
			if err := f.SetCellValue(reportSheet, cell(c+1, row), value); err != nil {
				return fmt.Errorf("export: row %d: %w", row, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: write workbook: %w", err)
	}
	return nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
