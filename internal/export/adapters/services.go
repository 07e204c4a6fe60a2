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

// ServiceRecord is one scheduled service job with its joined display fields.
// Joined fields are nullable: a job whose customer or property was deleted
// still exports, with blanks.
type ServiceRecord struct {
	RecordID    int64
	Reference   string
	Customer    sql.NullString
	Property    sql.NullString
	AssignedTo  sql.NullString
	ScheduledAt sql.NullTime
	Status      string
	Description sql.NullString
}

func (r *ServiceRecord) ID() int64 { return r.RecordID }

var serviceHeaders = []string{"ID", "Reference", "Customer", "Property", "Assigned To", "Scheduled", "Status", "Description"}

// ServicesAdapter exports scheduled service jobs.
type ServicesAdapter struct {
	db *pgxpool.Pool
}

func NewServicesAdapter(db *pgxpool.Pool) *ServicesAdapter {
	return &ServicesAdapter{db: db}
}

func (a *ServicesAdapter) Domain() models.Domain { return models.DomainServices }
func (a *ServicesAdapter) Headers() []string     { return serviceHeaders }

func (a *ServicesAdapter) FetchBuffered(ctx context.Context, dateRange models.DateRange, limit int) ([]Record, error) {
	return a.fetch(ctx, dateRange, 0, limit)
}

func (a *ServicesAdapter) FetchCursorPage(ctx context.Context, dateRange models.DateRange, cursor int64, pageSize int) ([]Record, error) {
	return a.fetch(ctx, dateRange, cursor, pageSize)
}

func (a *ServicesAdapter) fetch(ctx context.Context, dateRange models.DateRange, cursor int64, limit int) ([]Record, error) {
	where, args := buildConditions("s.id", "s.created_at", dateRange, cursor)
	args = append(args, limit)
	query := fmt.Sprintf(`
		SELECT s.id, s.reference, c.name, p.address, st.name, s.scheduled_at, s.status, s.description
		FROM services s
		LEFT JOIN customers c ON c.id = s.customer_id
		LEFT JOIN properties p ON p.id = s.property_id
		LEFT JOIN staff st ON st.id = s.assigned_staff_id
		%s
		ORDER BY s.id ASC
		LIMIT $%d`, where, len(args))

	rows, err := a.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query services: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec ServiceRecord
		if err := rows.Scan(&rec.RecordID, &rec.Reference, &rec.Customer, &rec.Property,
			&rec.AssignedTo, &rec.ScheduledAt, &rec.Status, &rec.Description); err != nil {
			return nil, fmt.Errorf("scan service row: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate services: %w", err)
	}
	return records, nil
}

func (a *ServicesAdapter) Normalize(rec Record, fmtr *format.Formatter) (models.NormalizedRow, error) {
	r, ok := rec.(*ServiceRecord)
	if !ok {
		return models.NormalizedRow{}, fmt.Errorf("unexpected record type %T", rec)
	}
	row := models.NewNormalizedRow(serviceHeaders)
	row.Set("ID", strconv.FormatInt(r.RecordID, 10))
	row.Set("Reference", r.Reference)
	row.Set("Customer", r.Customer.String)
	row.Set("Property", r.Property.String)
	row.Set("Assigned To", r.AssignedTo.String)
	row.Set("Scheduled", fmtr.DateTime(r.ScheduledAt.Time))
	row.Set("Status", r.Status)
	row.Set("Description", r.Description.String)
	return row, nil
}
