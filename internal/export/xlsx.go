package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/mzurek/carledger/internal/domain"
)

const sheetName = "history"

// WriteXLSX writes rows to an Excel workbook at path with a single sheet.
// Numeric columns are written as numbers so spreadsheet tools can sort and
// aggregate them directly.
func WriteXLSX(path string, rows []domain.HistoryRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("export: create output dir: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("export: rename sheet: %w", err)
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("export: cell name: %w", err)
		}
		row := []any{
			r.ID, r.InternalID, r.Title, r.Price,
			optCell(r.Year), optCell(r.Mileage),
			r.URL, r.Model, r.Date, r.ScrapeTimestamp,
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("export: write row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("export: save %q: %w", path, err)
	}
	return nil
}

func optCell(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
