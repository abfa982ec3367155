// Package report renders pantry data as Excel workbooks.
package report

import (
	"bytes"
	"fmt"
	"time"

	"smartpantry/internal/models"
	"smartpantry/internal/pantry"

	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of the generated workbooks
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ShoppingList renders the shopping list as a single sheet workbook
func ShoppingList(items []models.InventoryItem) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := "Shopping List"
	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), sheet); err != nil {
		return nil, err
	}

	header := []interface{}{"Name", "Quantity", "Category", "Brand", "Barcode"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}

	for i, it := range items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{it.Name, it.Quantity, string(it.Category), deref(it.Brand), deref(it.Barcode)}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}
	_ = f.SetColWidth(sheet, "A", "A", 32)

	return write(f)
}

// Insights renders a summary sheet plus the top consumed and discarded items
func Insights(in *pantry.Insights) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	summary := "Summary"
	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), summary); err != nil {
		return nil, err
	}

	rows := [][]interface{}{
		{"From", period(in.From)},
		{"To", period(in.To)},
		{"Consumed", in.Consumed},
		{"Discarded", in.Discarded},
		{"Waste rate", in.WasteRate},
	}
	for i := range rows {
		if err := f.SetSheetRow(summary, fmt.Sprintf("A%d", i+1), &rows[i]); err != nil {
			return nil, err
		}
	}
	style, err := f.NewStyle(&excelize.Style{NumFmt: 10})
	if err != nil {
		return nil, err
	}
	_ = f.SetCellStyle(summary, "B5", "B5", style)

	if err := countsSheet(f, "Top Consumed", in.TopConsumed); err != nil {
		return nil, err
	}
	if err := countsSheet(f, "Top Discarded", in.TopDiscarded); err != nil {
		return nil, err
	}

	return write(f)
}

func countsSheet(f *excelize.File, name string, counts []pantry.NameCount) error {
	if _, err := f.NewSheet(name); err != nil {
		return err
	}
	_ = f.SetCellValue(name, "A1", "Name")
	_ = f.SetCellValue(name, "B1", "Count")
	for i, c := range counts {
		_ = f.SetCellValue(name, fmt.Sprintf("A%d", i+2), c.Name)
		_ = f.SetCellValue(name, fmt.Sprintf("B%d", i+2), c.Count)
	}
	return nil
}

func write(f *excelize.File) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func period(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
