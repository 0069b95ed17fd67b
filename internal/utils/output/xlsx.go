package output

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/law-makers/bizcrawl/pkg/models"
)

const sheetName = "Businesses"

// SaveXLSX writes records to a single-sheet workbook
func SaveXLSX(records []models.BusinessRecord, filepath string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	if err := f.SetSheetRow(sheetName, "A1", toRow(Columns)); err != nil {
		return err
	}
	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, toRow(Row(rec))); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	return f.SaveAs(filepath)
}

func toRow(values []string) *[]interface{} {
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return &row
}
