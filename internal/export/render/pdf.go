package render

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

const (
	pdfMarginMM    = 10.0
	pdfRowHeightMM = 7.0
	pdfMaxCellLen  = 40
)

// RenderPDF lays the rows out as a landscape A4 table: a title, a shaded
// header row redrawn on every page (with a "(cont.)" title suffix on
// overflow pages), evenly divided column widths, and an optional summary
// block after the table. Values past the per-cell character budget are
// truncated rather than wrapped.
func RenderPDF(title string, headers []string, rows [][]string, summary []string) ([]byte, error) {
	if len(headers) == 0 {
		return nil, fmt.Errorf("render pdf: no headers")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMarginMM, pdfMarginMM, pdfMarginMM)
	pdf.SetAutoPageBreak(false, pdfMarginMM)
	pdf.AddPage()

	pageW, pageH := pdf.GetPageSize()
	usableW := pageW - 2*pdfMarginMM
	colW := usableW / float64(len(headers))
	bottom := pageH - pdfMarginMM

	writeTitle := func(t string) {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.CellFormat(usableW, 10, t, "", 1, "L", false, 0, "")
		pdf.Ln(2)
	}
	writeHeader := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for _, h := range headers {
			pdf.CellFormat(colW, pdfRowHeightMM, truncateCell(h), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
	}

	writeTitle(title)
	writeHeader()

	ensureRoom := func(height float64) {
		if pdf.GetY()+height <= bottom {
			return
		}
		pdf.AddPage()
		writeTitle(title + " (cont.)")
		writeHeader()
	}

	for _, row := range rows {
		ensureRoom(pdfRowHeightMM)
		for i := 0; i < len(headers); i++ {
			var v string
			if i < len(row) {
				v = row[i]
			}
			pdf.CellFormat(colW, pdfRowHeightMM, truncateCell(v), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if len(summary) > 0 {
		pdf.Ln(4)
		for _, line := range summary {
			ensureRoom(pdfRowHeightMM)
			pdf.SetFont("Helvetica", "B", 10)
			pdf.CellFormat(usableW, pdfRowHeightMM, line, "", 1, "L", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func truncateCell(v string) string {
	runes := []rune(v)
	if len(runes) <= pdfMaxCellLen {
		return v
	}
	return string(runes[:pdfMaxCellLen-3]) + "..."
}
