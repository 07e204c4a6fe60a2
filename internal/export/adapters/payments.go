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

// PaymentRecord is one received payment with invoice and customer joined in.
type PaymentRecord struct {
	RecordID int64
	Invoice  sql.NullString
	Customer sql.NullString
	Amount   float64
	Method   string
	PaidAt   sql.NullTime
}

func (r *PaymentRecord) ID() int64 { return r.RecordID }

var paymentHeaders = []string{"ID", "Invoice", "Customer", "Amount", "Method", "Paid"}

// PaymentsAdapter exports received payments. Implements Summarizer for the
// PDF totals block.
type PaymentsAdapter struct {
	db *pgxpool.Pool
}

func NewPaymentsAdapter(db *pgxpool.Pool) *PaymentsAdapter {
	return &PaymentsAdapter{db: db}
}

func (a *PaymentsAdapter) Domain() models.Domain { return models.DomainPayments }
func (a *PaymentsAdapter) Headers() []string     { return paymentHeaders }

func (a *PaymentsAdapter) FetchBuffered(ctx context.Context, dateRange models.DateRange, limit int) ([]Record, error) {
	return a.fetch(ctx, dateRange, 0, limit)
}

func (a *PaymentsAdapter) FetchCursorPage(ctx context.Context, dateRange models.DateRange, cursor int64, pageSize int) ([]Record, error) {
	return a.fetch(ctx, dateRange, cursor, pageSize)
}

func (a *PaymentsAdapter) fetch(ctx context.Context, dateRange models.DateRange, cursor int64, limit int) ([]Record, error) {
	where, args := buildConditions("p.id", "p.created_at", dateRange, cursor)
	args = append(args, limit)
	query := fmt.Sprintf(`
		SELECT p.id, i.number, c.name, p.amount, p.method, p.paid_at
		FROM payments p
		LEFT JOIN invoices i ON i.id = p.invoice_id
		LEFT JOIN customers c ON c.id = p.customer_id
		%s
		ORDER BY p.id ASC
		LIMIT $%d`, where, len(args))

	rows, err := a.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec PaymentRecord
		if err := rows.Scan(&rec.RecordID, &rec.Invoice, &rec.Customer,
			&rec.Amount, &rec.Method, &rec.PaidAt); err != nil {
			return nil, fmt.Errorf("scan payment row: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}
	return records, nil
}

func (a *PaymentsAdapter) Normalize(rec Record, fmtr *format.Formatter) (models.NormalizedRow, error) {
	r, ok := rec.(*PaymentRecord)
	if !ok {
		return models.NormalizedRow{}, fmt.Errorf("unexpected record type %T", rec)
	}
	row := models.NewNormalizedRow(paymentHeaders)
	row.Set("ID", strconv.FormatInt(r.RecordID, 10))
	row.Set("Invoice", r.Invoice.String)
	row.Set("Customer", r.Customer.String)
	row.Set("Amount", fmtr.Money(r.Amount))
	row.Set("Method", r.Method)
	row.Set("Paid", fmtr.DateTime(r.PaidAt.Time))
	return row, nil
}

// Summarize produces the summary block for buffered PDF exports.
func (a *PaymentsAdapter) Summarize(recs []Record, fmtr *format.Formatter) []string {
	var total float64
	for _, rec := range recs {
		if r, ok := rec.(*PaymentRecord); ok {
			total += r.Amount
		}
	}
	return []string{
		fmt.Sprintf("Payments: %d", len(recs)),
		"Total received: " + fmtr.Money(total),
	}
}
