/*
Package export renders a projection as a report file or terminal table.

PURPOSE:
  One Report value (plan name, period labels, projection) can be written
  as CSV, indented JSON, a landscape PDF table or a pterm table. The API
  uses the JSON document for its projection responses and the other
  writers for downloads; the CLI uses all of them.

AMOUNTS:
  Engine values stay decimal.Decimal until they reach this package. CSV,
  PDF and table cells print two fixed decimals; the JSON document carries
  float64 values rounded half-up to two places.

SEE ALSO:
  - longterm/types.go: Projection and MonthlyRow
  - cmd/financeflow: CLI that writes these reports
*/
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/financeflow/longterm"
)

// =============================================================================
// FORMATS
// =============================================================================

type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatPDF   Format = "pdf"
	FormatTable Format = "table"
)

// Formats lists every supported format.
var Formats = []Format{FormatTable, FormatCSV, FormatJSON, FormatPDF}

func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported export format %q (use table, csv, json or pdf)", s)
}

// ContentType is the HTTP media type of a rendered report.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatJSON:
		return "application/json"
	case FormatPDF:
		return "application/pdf"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Extension is the file extension used for f.
func (f Format) Extension() string {
	if f == FormatTable {
		return "txt"
	}
	return string(f)
}

// =============================================================================
// REPORT
// =============================================================================

// Report is everything a writer needs.
type Report struct {
	Title       string
	Description string
	Periods     []string // one label per period, see longterm.PeriodLabels
	Projection  *longterm.Projection
	GeneratedAt time.Time
}

// columns are shared by the CSV header, PDF table and terminal table.
var columns = []string{
	"Month", "Income", "Expense", "Saving", "Net",
	"Cash balance", "Saving account", "Invested", "Total wealth",
}

func (r Report) rows() []longterm.MonthlyRow {
	if r.Projection == nil {
		return nil
	}
	return r.Projection.Rows
}

func cells(row longterm.MonthlyRow) []string {
	return []string{
		row.Month.String(),
		money(row.Income),
		money(row.Expense),
		money(row.Saving),
		money(row.Net),
		money(row.CashBalance),
		money(row.SavingAccountTotal),
		money(row.InvestedBalance),
		money(row.TotalWealth),
	}
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }

// Write renders r in the given format.
func Write(w io.Writer, format Format, r Report) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, r)
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatPDF:
		return WritePDF(w, r)
	case FormatTable:
		_, err := io.WriteString(w, RenderTable(r))
		return err
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// ToFile writes r into dir as <base>_<timestamp>.<ext> and returns the
// absolute path. An empty dir means the working directory.
func ToFile(dir, base string, format Format, r Report) (string, error) {
	path, err := generateFilename(base, dir, format.Extension())
	if err != nil {
		return "", err
	}
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("error creating %s file: %w", format, err)
	}
	if err := Write(file, format, r); err != nil {
		file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("error closing %s file: %w", format, err)
	}
	return filepath.Abs(path)
}

func generateFilename(base, dir, ext string) (string, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("could not get current working directory: %w", err)
		}
		dir = cwd
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("error creating output directory '%s': %w", dir, err)
	}
	timestamp := time.Now().Format("20060102_150405")
	return filepath.Join(dir, fmt.Sprintf("%s_%s.%s", Slug(base), timestamp, ext)), nil
}

// Slug turns a plan name into a file-name friendly base.
func Slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if s == "" {
		return "projection"
	}
	return s
}
