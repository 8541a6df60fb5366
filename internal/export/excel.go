package export

import (
	"context"
	"fmt"
	"io"
	"sort"

	"dentalportal/internal/booking"
	"dentalportal/internal/models"

	"github.com/xuri/excelize/v2"
)

// TableExporter provides access to database tables for export.
type TableExporter interface {
	GetTableNames(ctx context.Context) ([]string, error)
	GetTableData(ctx context.Context, tableName string) ([]map[string]interface{}, []string, error)
}

// ExcelWriter writes rows into sheets of an xlsx workbook.
type ExcelWriter struct {
	file         *excelize.File
	currentSheet string
	currentRow   int
}

// NewExcelWriter creates a new Excel writer.
func NewExcelWriter() *ExcelWriter {
	return &ExcelWriter{
		file: excelize.NewFile(),
	}
}

// AddSheet adds a new sheet with the given name.
func (w *ExcelWriter) AddSheet(name string) error {
	// Excel limit
	if len(name) > 31 {
		name = name[:31]
	}

	if w.currentSheet == "" {
		if err := w.file.SetSheetName("Sheet1", name); err != nil {
			return fmt.Errorf("rename sheet %s: %w", name, err)
		}
	} else {
		if _, err := w.file.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	w.currentSheet = name
	w.currentRow = 1
	return nil
}

// WriteHeader writes bold column headers to the current sheet.
func (w *ExcelWriter) WriteHeader(columns []string) error {
	if w.currentSheet == "" {
		return fmt.Errorf("no active sheet")
	}

	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, w.currentRow)
		if err != nil {
			return err
		}
		if err := w.file.SetCellValue(w.currentSheet, cell, col); err != nil {
			return err
		}
	}

	style, err := w.file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err == nil && len(columns) > 0 {
		startCell, _ := excelize.CoordinatesToCellName(1, w.currentRow)
		endCell, _ := excelize.CoordinatesToCellName(len(columns), w.currentRow)
		_ = w.file.SetCellStyle(w.currentSheet, startCell, endCell, style)
	}

	w.currentRow++
	return nil
}

// WriteRow writes a data row to the current sheet.
func (w *ExcelWriter) WriteRow(row []interface{}) error {
	if w.currentSheet == "" {
		return fmt.Errorf("no active sheet")
	}

	for i, val := range row {
		cell, err := excelize.CoordinatesToCellName(i+1, w.currentRow)
		if err != nil {
			return err
		}
		if err := w.file.SetCellValue(w.currentSheet, cell, val); err != nil {
			return err
		}
	}

	w.currentRow++
	return nil
}

// Save writes the workbook to wr.
func (w *ExcelWriter) Save(wr io.Writer) error {
	return w.file.Write(wr)
}

// SaveToFile writes the workbook to disk.
func (w *ExcelWriter) SaveToFile(path string) error {
	return w.file.SaveAs(path)
}

// Close releases resources.
func (w *ExcelWriter) Close() error {
	return w.file.Close()
}

// BookingColumns are the headers of the bookings sheet.
var BookingColumns = []string{
	"ID", "Date", "Time", "Appointment type", "Duration", "Practitioner", "Status", "Reason", "Created at", "Updated at",
}

// BookingRow renders a booking with catalog names resolved.
func BookingRow(b models.Booking, c booking.Catalog) []interface{} {
	typeName, duration := b.AppointmentTypeID, ""
	if t, ok := c.TypeByID(b.AppointmentTypeID); ok {
		typeName = t.Name
		duration = fmt.Sprintf("%d min", t.DurationMinutes)
	}
	practitioner := b.PractitionerID
	if p, ok := c.PractitionerByID(b.PractitionerID); ok {
		practitioner = p.Name
	}
	return []interface{}{
		b.ID,
		b.DateString(),
		b.Time.String(),
		typeName,
		duration,
		practitioner,
		string(b.Status),
		b.Reason,
		b.CreatedAt.Format("2006-01-02 15:04:05"),
		b.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

// WriteBookings writes all bookings, sorted by appointment start, as an xlsx workbook.
func WriteBookings(wr io.Writer, bookings []models.Booking, c booking.Catalog) error {
	w := NewExcelWriter()
	defer w.Close()

	if err := w.AddSheet("Bookings"); err != nil {
		return err
	}
	if err := w.WriteHeader(BookingColumns); err != nil {
		return err
	}

	sorted := append([]models.Booking(nil), bookings...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartsAt().Before(sorted[j].StartsAt())
	})

	for _, b := range sorted {
		if err := w.WriteRow(BookingRow(b, c)); err != nil {
			return err
		}
	}
	return w.Save(wr)
}

// WriteTables dumps every exported table into its own sheet.
func WriteTables(ctx context.Context, src TableExporter, wr io.Writer) error {
	names, err := src.GetTableNames(ctx)
	if err != nil {
		return fmt.Errorf("list tables: %w", err)
	}

	w := NewExcelWriter()
	defer w.Close()

	for _, name := range names {
		rows, columns, err := src.GetTableData(ctx, name)
		if err != nil {
			return fmt.Errorf("read table %s: %w", name, err)
		}
		if err := w.AddSheet(name); err != nil {
			return err
		}
		if err := w.WriteHeader(columns); err != nil {
			return err
		}
		for _, row := range rows {
			values := make([]interface{}, len(columns))
			for i, col := range columns {
				values[i] = cellValue(row[col])
			}
			if err := w.WriteRow(values); err != nil {
				return err
			}
		}
	}
	return w.Save(wr)
}

func cellValue(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
