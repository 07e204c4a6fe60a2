package adapters

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"fieldbook/internal/export/format"
	"fieldbook/internal/export/models"
)

// CustomerRecord is one customer account.
type CustomerRecord struct {
	RecordID  int64
	Name      string
	Email     sql.NullString
	Phone     sql.NullString
	Address   sql.NullString
	CreatedAt time.Time
}

func (r *CustomerRecord) ID() int64 { return r.RecordID }

var customerHeaders = []string{"ID", "Name", "Email", "Phone", "Address", "Since"}

// CustomersAdapter exports customer accounts.
type CustomersAdapter struct {
	db *pgxpool.Pool
}

func NewCustomersAdapter(db *pgxpool.Pool) *CustomersAdapter {
	return &CustomersAdapter{db: db}
}

func (a *CustomersAdapter) Domain() models.Domain { return models.DomainCustomers }
func (a *CustomersAdapter) Headers() []string     { return customerHeaders }

func (a *CustomersAdapter) FetchBuffered(ctx context.Context, dateRange models.DateRange, limit int) ([]Record, error) {
	return a.fetch(ctx, dateRange, 0, limit)
}

func (a *CustomersAdapter) FetchCursorPage(ctx context.Context, dateRange models.DateRange, cursor int64, pageSize int) ([]Record, error) {
	return a.fetch(ctx, dateRange, cursor, pageSize)
}

func (a *CustomersAdapter) fetch(ctx context.Context, dateRange models.DateRange, cursor int64, limit int) ([]Record, error) {
	where, args := buildConditions("id", "created_at", dateRange, cursor)
	args = append(args, limit)
	query := fmt.Sprintf(`
		SELECT id, name, email, phone, address, created_at
		FROM customers
		%s
		ORDER BY id ASC
		LIMIT $%d`, where, len(args))

	rows, err := a.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec CustomerRecord
		if err := rows.Scan(&rec.RecordID, &rec.Name, &rec.Email,
			&rec.Phone, &rec.Address, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan customer row: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}
	return records, nil
}

func (a *CustomersAdapter) Normalize(rec Record, fmtr *format.Formatter) (models.NormalizedRow, error) {
	r, ok := rec.(*CustomerRecord)
	if !ok {
		return models.NormalizedRow{}, fmt.Errorf("unexpected record type %T", rec)
	}
	row := models.NewNormalizedRow(customerHeaders)
	row.Set("ID", strconv.FormatInt(r.RecordID, 10))
	row.Set("Name", r.Name)
	row.Set("Email", r.Email.String)
	row.Set("Phone", r.Phone.String)
	row.Set("Address", r.Address.String)
	row.Set("Since", fmtr.Date(r.CreatedAt))
	return row, nil
}
