package infra

import (
	"bytes"
	"fmt"

	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/dto"

	"github.com/xuri/excelize/v2"
)

const stockSheet = "Stock"

var stockHeadings = []string{"Product", "Category", "Unit", "Quantity", "Min quantity", "Location", "Low", "Updated"}

// StockWorkbook renders the stock listing as an .xlsx file.
func StockWorkbook(rows []dto.StockResponse) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", stockSheet); err != nil {
		return nil, fmt.Errorf("xlsx: %w", err)
	}
	for i, h := range stockHeadings {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(stockSheet, cell, h); err != nil {
			return nil, fmt.Errorf("xlsx: heading: %w", err)
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = f.SetRowStyle(stockSheet, 1, 1, bold)
	}

	for i, r := range rows {
		updated := ""
		if r.UpdatedAt != nil {
			updated = *r.UpdatedAt
		}
		values := []interface{}{r.ProductName, r.Category, r.PriceUnit, r.Quantity, r.MinQuantity, r.Location, r.IsLow, updated}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(stockSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("xlsx: row %d: %w", i+2, err)
		}
	}
	_ = f.SetColWidth(stockSheet, "A", "A", 32)
	_ = f.SetColWidth(stockSheet, "F", "F", 20)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("xlsx: write: %w", err)
	}
	return buf.Bytes(), nil
}
