// Package export serializes the currently displayed table rows to CSV.
// Export always reads the displayed rows, not the underlying record set, so
// the file matches what the user sees.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/luokaci05/btctrack/service/explorer"
)

// Header is the fixed CSV header row.
var Header = []string{"Transaction Hash", "Date/Time", "Amount (BTC)"}

// Row is one displayed table row: truncated hash, formatted date string,
// formatted amount.
type Row struct {
	Hash   string
	Date   string
	Amount string
}

// RowFromTransaction builds the displayed row for a record, exactly as the
// table shows it.
func RowFromTransaction(t explorer.Transaction) Row {
	return Row{
		Hash:   t.HashDisplay(),
		Date:   t.TimeDisplay(),
		Amount: FormatAmount(t.Amount),
	}
}

// Rows converts a record subset into displayed rows, preserving order.
func Rows(records []explorer.Transaction) []Row {
	rows := make([]Row, len(records))
	for i, r := range records {
		rows[i] = RowFromTransaction(r)
	}
	return rows
}

// FormatAmount renders a BTC amount the way the table does: up to 8
// fractional digits with trailing zeros trimmed.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteCSV writes the header and rows to w in UTF-8.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write([]string{row.Hash, row.Date, row.Amount}); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// ExportFile writes the rows to a new file at path. On a write failure the
// partial file is removed so no half-written export is left behind.
func ExportFile(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}

	if err := WriteCSV(f, rows); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to close export file: %w", err)
	}
	return nil
}
