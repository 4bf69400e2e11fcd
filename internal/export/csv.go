package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mzurek/carledger/internal/domain"
)

// WriteCSV writes rows to a CSV file at path, creating intermediate
// directories and truncating any previous file.
func WriteCSV(path string, rows []domain.HistoryRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("export: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create file %q: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return fmt.Errorf("export: write header: %w", err)
	}
	for _, r := range rows {
		if err := w.Write(fields(r)); err != nil {
			_ = f.Close()
			return fmt.Errorf("export: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("export: flush %q: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("export: close %q: %w", path, err)
	}
	return nil
}
