// Package render turns normalized rows into downloadable documents. The CSV
// renderer works row-at-a-time so the streamed path never holds more than one
// page in memory; the PDF renderer is buffered-only.
package render

import (
	"fmt"
	"io"
	"strings"
)

// CSVField escapes one cell. Every field is double-quoted and embedded quotes
// are doubled, so commas, quotes and newlines in values never break the row
// structure.
func CSVField(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

// CSVLine renders one row of cells as a single line without a trailing
// newline.
func CSVLine(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = CSVField(v)
	}
	return strings.Join(quoted, ",")
}

// RenderCSV renders a complete document: header line followed by one line per
// row, LF-separated with a trailing newline. Used by the buffered path.
func RenderCSV(headers []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString(CSVLine(headers))
	b.WriteByte('\n')
	for _, row := range rows {
		b.WriteString(CSVLine(row))
		b.WriteByte('\n')
	}
	return b.String()
}

// CSVWriter writes a CSV document incrementally. The header line is emitted
// once, before the first row.
type CSVWriter struct {
	w             io.Writer
	headers       []string
	headerWritten bool
}

// NewCSVWriter wraps w; headers is the column list for the header line.
func NewCSVWriter(w io.Writer, headers []string) *CSVWriter {
	return &CSVWriter{w: w, headers: headers}
}

// WriteRow appends one data row, emitting the header line first if it has not
// been written yet.
func (c *CSVWriter) WriteRow(values []string) error {
	if !c.headerWritten {
		if _, err := io.WriteString(c.w, CSVLine(c.headers)+"\n"); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
		c.headerWritten = true
	}
	if _, err := io.WriteString(c.w, CSVLine(values)+"\n"); err != nil {
		return fmt.Errorf("write csv row: %w", err)
	}
	return nil
}

// Flush emits the header line even when no rows were written, so an empty
// export still downloads as a valid document.
func (c *CSVWriter) Flush() error {
	if c.headerWritten {
		return nil
	}
	if _, err := io.WriteString(c.w, CSVLine(c.headers)+"\n"); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	c.headerWritten = true
	return nil
}
