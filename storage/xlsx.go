package storage

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"growth-scraper/models"
)

const xlsxSheet = "Produtos"

// WriteXLSX renders the clean table as a single-sheet workbook.
func WriteXLSX(w io.Writer, table models.CleanTable) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return fmt.Errorf("xlsx: rename sheet: %w", err)
	}

	header := make([]interface{}, len(table.Columns))
	for i, c := range table.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(xlsxSheet, "A1", &header); err != nil {
		return fmt.Errorf("xlsx: write header: %w", err)
	}

	withDiscount := len(table.Columns) > 2
	for i, r := range table.Records {
		row := []interface{}{r.Product, r.Price}
		if withDiscount {
			if r.HasDiscount {
				row = append(row, r.Discount)
			} else {
				row = append(row, nil)
			}
		}
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("xlsx: cell name: %w", err)
		}
		if err := f.SetSheetRow(xlsxSheet, cellRef, &row); err != nil {
			return fmt.Errorf("xlsx: write row %d: %w", i+1, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx: write workbook: %w", err)
	}
	return nil
}
