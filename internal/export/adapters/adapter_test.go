package adapters

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldbook/internal/export/format"
	"fieldbook/internal/export/models"
)

func TestBuildConditions(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC)

	t.Run("no filters", func(t *testing.T) {
		where, args := buildConditions("id", "created_at", models.DateRange{}, 0)
		assert.Empty(t, where)
		assert.Empty(t, args)
	})

	t.Run("cursor only", func(t *testing.T) {
		where, args := buildConditions("s.id", "s.created_at", models.DateRange{}, 42)
		assert.Equal(t, "WHERE s.id > $1", where)
		assert.Equal(t, []any{int64(42)}, args)
	})

	t.Run("full range with cursor", func(t *testing.T) {
		dr := models.DateRange{Start: &start, End: &end}
		where, args := buildConditions("s.id", "s.created_at", dr, 10)
		assert.Equal(t, "WHERE s.id > $1 AND s.created_at >= $2 AND s.created_at <= $3", where)
		require.Len(t, args, 3)
		assert.Equal(t, int64(10), args[0])
		assert.Equal(t, start, args[1])
		assert.Equal(t, end, args[2])
	})

	t.Run("end only", func(t *testing.T) {
		dr := models.DateRange{End: &end}
		where, args := buildConditions("id", "ts", dr, 0)
		assert.Equal(t, "WHERE ts <= $1", where)
		assert.Equal(t, []any{end}, args)
	})
}

func TestRegistry(t *testing.T) {
	inv := &InvoicesAdapter{}
	pay := &PaymentsAdapter{}

	t.Run("lookup", func(t *testing.T) {
		reg, err := NewRegistry(inv, pay)
		require.NoError(t, err)

		got, ok := reg.Lookup(models.DomainInvoices)
		require.True(t, ok)
		assert.Same(t, Adapter(inv), got)

		_, ok = reg.Lookup(models.DomainVehicles)
		assert.False(t, ok)
	})

	t.Run("duplicate domain rejected", func(t *testing.T) {
		_, err := NewRegistry(inv, &InvoicesAdapter{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate adapter")
	})
}

func TestNormalize(t *testing.T) {
	fmtr := format.New("en", "USD")

	t.Run("service row with missing relations blanks out", func(t *testing.T) {
		a := &ServicesAdapter{}
		rec := &ServiceRecord{
			RecordID:  7,
			Reference: "SVC-0007",
			Status:    "scheduled",
		}
		row, err := a.Normalize(rec, fmtr)
		require.NoError(t, err)

		vals := row.Select(serviceHeaders)
		assert.Equal(t, []string{"7", "SVC-0007", "", "", "", "", "scheduled", ""}, vals)
	})

	t.Run("normalize is pure", func(t *testing.T) {
		a := &InvoicesAdapter{}
		rec := &InvoiceRecord{
			RecordID: 3,
			Number:   "INV-0003",
			Customer: sql.NullString{String: "Acme Plumbing", Valid: true},
			IssuedAt: sql.NullTime{Time: time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC), Valid: true},
			Status:   "paid",
			Total:    1234.5,
		}
		first, err := a.Normalize(rec, fmtr)
		require.NoError(t, err)
		second, err := a.Normalize(rec, fmtr)
		require.NoError(t, err)
		assert.Equal(t, first.Select(invoiceHeaders), second.Select(invoiceHeaders))
		assert.Contains(t, first.Select(invoiceHeaders)[6], "1,234.50")
	})

	t.Run("wrong record type rejected", func(t *testing.T) {
		a := &ServicesAdapter{}
		_, err := a.Normalize(&InvoiceRecord{RecordID: 1}, fmtr)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected record type")
	})
}

func TestSummarize(t *testing.T) {
	fmtr := format.New("en", "USD")

	t.Run("invoices total", func(t *testing.T) {
		a := &InvoicesAdapter{}
		recs := []Record{
			&InvoiceRecord{RecordID: 1, Total: 100},
			&InvoiceRecord{RecordID: 2, Total: 250.25},
		}
		lines := a.Summarize(recs, fmtr)
		require.Len(t, lines, 2)
		assert.Equal(t, "Invoices: 2", lines[0])
		assert.Contains(t, lines[1], "350.25")
	})

	t.Run("payments total", func(t *testing.T) {
		a := &PaymentsAdapter{}
		recs := []Record{
			&PaymentRecord{RecordID: 1, Amount: 40},
			&PaymentRecord{RecordID: 2, Amount: 60},
		}
		lines := a.Summarize(recs, fmtr)
		require.Len(t, lines, 2)
		assert.Equal(t, "Payments: 2", lines[0])
		assert.Contains(t, lines[1], "100.00")
	})
}
