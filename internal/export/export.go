// Package export renders the flattened historical view to files suitable
// for spreadsheet tools and downstream analysis.
package export

import (
	"fmt"
	"strconv"

	"github.com/mzurek/carledger/internal/domain"
)

// Supported output formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// header is the column order shared by all output formats.
var header = []string{
	"id", "internal_id", "title", "price", "year", "mileage",
	"url", "model", "date", "scrape_timestamp",
}

// Write renders rows to path in the given format.
func Write(path, format string, rows []domain.HistoryRow) error {
	switch format {
	case FormatCSV:
		return WriteCSV(path, rows)
	case FormatXLSX:
		return WriteXLSX(path, rows)
	default:
		return fmt.Errorf("export: unsupported format %q", format)
	}
}

// fields flattens a row into header-ordered string cells. Optional numeric
// columns render as empty strings when unset.
func fields(r domain.HistoryRow) []string {
	return []string{
		r.ID,
		r.InternalID,
		r.Title,
		strconv.Itoa(r.Price),
		optInt(r.Year),
		optInt(r.Mileage),
		r.URL,
		r.Model,
		r.Date,
		strconv.FormatInt(r.ScrapeTimestamp, 10),
	}
}

func optInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
