package adapters

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"

	"fieldbook/internal/export/format"
	"fieldbook/internal/export/models"
)

// InvoiceRecord is one invoice with its customer display name joined in.
type InvoiceRecord struct {
	RecordID int64
	Number   string
	Customer sql.NullString
	IssuedAt sql.NullTime
	DueAt    sql.NullTime
	Status   string
	Total    float64
}

func (r *InvoiceRecord) ID() int64 { return r.RecordID }

var invoiceHeaders = []string{"ID", "Number", "Customer", "Issued", "Due", "Status", "Total"}

// InvoicesAdapter exports invoices. It also implements Summarizer so PDF
// exports close with a totals block.
type InvoicesAdapter struct {
	db *pgxpool.Pool
}

func NewInvoicesAdapter(db *pgxpool.Pool) *InvoicesAdapter {
	return &InvoicesAdapter{db: db}
}

func (a *InvoicesAdapter) Domain() models.Domain { return models.DomainInvoices }
func (a *InvoicesAdapter) Headers() []string     { return invoiceHeaders }

func (a *InvoicesAdapter) FetchBuffered(ctx context.Context, dateRange models.DateRange, limit int) ([]Record, error) {
	return a.fetch(ctx, dateRange, 0, limit)
}

func (a *InvoicesAdapter) FetchCursorPage(ctx context.Context, dateRange models.DateRange, cursor int64, pageSize int) ([]Record, error) {
	return a.fetch(ctx, dateRange, cursor, pageSize)
}

func (a *InvoicesAdapter) fetch(ctx context.Context, dateRange models.DateRange, cursor int64, limit int) ([]Record, error) {
	where, args := buildConditions("i.id", "i.created_at", dateRange, cursor)
	args = append(args, limit)
	query := fmt.Sprintf(`
		SELECT i.id, i.number, c.name, i.issued_at, i.due_at, i.status, i.total
		FROM invoices i
		LEFT JOIN customers c ON c.id = i.customer_id
		%s
		ORDER BY i.id ASC
		LIMIT $%d`, where, len(args))

	rows, err := a.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec InvoiceRecord
		if err := rows.Scan(&rec.RecordID, &rec.Number, &rec.Customer,
			&rec.IssuedAt, &rec.DueAt, &rec.Status, &rec.Total); err != nil {
			return nil, fmt.Errorf("scan invoice row: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invoices: %w", err)
	}
	return records, nil
}

func (a *InvoicesAdapter) Normalize(rec Record, fmtr *format.Formatter) (models.NormalizedRow, error) {
	r, ok := rec.(*InvoiceRecord)
	if !ok {
		return models.NormalizedRow{}, fmt.Errorf("unexpected record type %T", rec)
	}
	row := models.NewNormalizedRow(invoiceHeaders)
	row.Set("ID", strconv.FormatInt(r.RecordID, 10))
	row.Set("Number", r.Number)
	row.Set("Customer", r.Customer.String)
	row.Set("Issued", fmtr.Date(r.IssuedAt.Time))
	row.Set("Due", fmtr.Date(r.DueAt.Time))
	row.Set("Status", r.Status)
	row.Set("Total", fmtr.Money(r.Total))
	return row, nil
}

// Summarize produces the summary block for buffered PDF exports.
func (a *InvoicesAdapter) Summarize(recs []Record, fmtr *format.Formatter) []string {
	var total float64
	for _, rec := range recs {
		if r, ok := rec.(*InvoiceRecord); ok {
			total += r.Total
		}
	}
	return []string{
		fmt.Sprintf("Invoices: %d", len(recs)),
		"Total: " + fmtr.Money(total),
	}
}
