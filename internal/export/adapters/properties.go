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

// PropertyRecord is one serviced property with its owning customer joined in.
type PropertyRecord struct {
	RecordID  int64
	Address   string
	City      sql.NullString
	Postcode  sql.NullString
	Customer  sql.NullString
	Type      string
	CreatedAt time.Time
}

func (r *PropertyRecord) ID() int64 { return r.RecordID }

var propertyHeaders = []string{"ID", "Address", "City", "Postcode", "Customer", "Type", "Added"}

// PropertiesAdapter exports serviced properties.
type PropertiesAdapter struct {
	db *pgxpool.Pool
}

func NewPropertiesAdapter(db *pgxpool.Pool) *PropertiesAdapter {
	return &PropertiesAdapter{db: db}
}

func (a *PropertiesAdapter) Domain() models.Domain { return models.DomainProperties }
func (a *PropertiesAdapter) Headers() []string     { return propertyHeaders }

func (a *PropertiesAdapter) FetchBuffered(ctx context.Context, dateRange models.DateRange, limit int) ([]Record, error) {
	return a.fetch(ctx, dateRange, 0, limit)
}

func (a *PropertiesAdapter) FetchCursorPage(ctx context.Context, dateRange models.DateRange, cursor int64, pageSize int) ([]Record, error) {
	return a.fetch(ctx, dateRange, cursor, pageSize)
}

func (a *PropertiesAdapter) fetch(ctx context.Context, dateRange models.DateRange, cursor int64, limit int) ([]Record, error) {
	where, args := buildConditions("p.id", "p.created_at", dateRange, cursor)
	args = append(args, limit)
	query := fmt.Sprintf(`
		SELECT p.id, p.address, p.city, p.postcode, c.name, p.property_type, p.created_at
		FROM properties p
		LEFT JOIN customers c ON c.id = p.customer_id
		%s
		ORDER BY p.id ASC
		LIMIT $%d`, where, len(args))

	rows, err := a.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query properties: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec PropertyRecord
		if err := rows.Scan(&rec.RecordID, &rec.Address, &rec.City,
			&rec.Postcode, &rec.Customer, &rec.Type, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan property row: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate properties: %w", err)
	}
	return records, nil
}

func (a *PropertiesAdapter) Normalize(rec Record, fmtr *format.Formatter) (models.NormalizedRow, error) {
	r, ok := rec.(*PropertyRecord)
	if !ok {
		return models.NormalizedRow{}, fmt.Errorf("unexpected record type %T", rec)
	}
	row := models.NewNormalizedRow(propertyHeaders)
	row.Set("ID", strconv.FormatInt(r.RecordID, 10))
	row.Set("Address", r.Address)
	row.Set("City", r.City.String)
	row.Set("Postcode", r.Postcode.String)
	row.Set("Customer", r.Customer.String)
	row.Set("Type", r.Type)
	row.Set("Added", fmtr.Date(r.CreatedAt))
	return row, nil
}
