package render

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPDF(t *testing.T) {
	headers := []string{"ID", "Number", "Total"}

	t.Run("produces a pdf document", func(t *testing.T) {
		rows := [][]string{{"1", "INV-0001", "$100.00"}}
		doc, err := RenderPDF("Invoices", headers, rows, nil)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(doc), "%PDF"))
	})

	t.Run("empty table is still a valid document", func(t *testing.T) {
		doc, err := RenderPDF("Invoices", headers, nil, nil)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(doc), "%PDF"))
	})

	t.Run("summary grows the document", func(t *testing.T) {
		rows := [][]string{{"1", "INV-0001", "$100.00"}}
		plain, err := RenderPDF("Invoices", headers, rows, nil)
		require.NoError(t, err)
		summarized, err := RenderPDF("Invoices", headers, rows, []string{"Invoices: 1", "Total: $100.00"})
		require.NoError(t, err)
		assert.Greater(t, len(summarized), len(plain))
	})

	t.Run("long summary spills onto extra pages", func(t *testing.T) {
		var summary []string
		for i := 0; i < 120; i++ {
			summary = append(summary, fmt.Sprintf("Subtotal group %d: $1.00", i))
		}
		doc, err := RenderPDF("Invoices", headers, nil, summary)
		require.NoError(t, err)
		// 120 lines at 7mm cannot fit a single landscape A4 page; each page
		// carries its own /Type /Page object.
		assert.Greater(t, strings.Count(string(doc), "/Type /Page"), 2)
	})

	t.Run("many rows overflow onto extra pages", func(t *testing.T) {
		var rows [][]string
		for i := 0; i < 200; i++ {
			rows = append(rows, []string{fmt.Sprint(i), "INV", "$1.00"})
		}
		small, err := RenderPDF("Invoices", headers, rows[:5], nil)
		require.NoError(t, err)
		large, err := RenderPDF("Invoices", headers, rows, nil)
		require.NoError(t, err)
		assert.Greater(t, len(large), len(small))
	})

	t.Run("no headers rejected", func(t *testing.T) {
		_, err := RenderPDF("Invoices", nil, nil, nil)
		require.Error(t, err)
	})
}

func TestTruncateCell(t *testing.T) {
	assert.Equal(t, "short", truncateCell("short"))

	long := strings.Repeat("x", 100)
	got := truncateCell(long)
	assert.Equal(t, pdfMaxCellLen, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "..."))
}
