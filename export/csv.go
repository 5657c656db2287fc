package export

import (
	"encoding/csv"
	"fmt"
	"io"
)

// WriteCSV writes one header line and one line per projected month.
func WriteCSV(w io.Writer, r Report) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("error writing CSV header: %w", err)
	}
	for _, row := range r.rows() {
		if err := writer.Write(cells(row)); err != nil {
			return fmt.Errorf("error writing CSV row %s: %w", row.Month, err)
		}
	}
	writer.Flush()
	return writer.Error()
}
