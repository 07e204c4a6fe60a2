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

// VehicleRecord is one fleet vehicle with its assigned staff member joined in.
type VehicleRecord struct {
	RecordID     int64
	Registration string
	Make         string
	Model        string
	AssignedTo   sql.NullString
	Status       string
	CreatedAt    time.Time
}

func (r *VehicleRecord) ID() int64 { return r.RecordID }

var vehicleHeaders = []string{"ID", "Registration", "Make", "Model", "Assigned To", "Status", "Added"}

// VehiclesAdapter exports fleet vehicles.
type VehiclesAdapter struct {
	db *pgxpool.Pool
}

func NewVehiclesAdapter(db *pgxpool.Pool) *VehiclesAdapter {
	return &VehiclesAdapter{db: db}
}

func (a *VehiclesAdapter) Domain() models.Domain { return models.DomainVehicles }
func (a *VehiclesAdapter) Headers() []string     { return vehicleHeaders }

func (a *VehiclesAdapter) FetchBuffered(ctx context.Context, dateRange models.DateRange, limit int) ([]Record, error) {
	return a.fetch(ctx, dateRange, 0, limit)
}

func (a *VehiclesAdapter) FetchCursorPage(ctx context.Context, dateRange models.DateRange, cursor int64, pageSize int) ([]Record, error) {
	return a.fetch(ctx, dateRange, cursor, pageSize)
}

func (a *VehiclesAdapter) fetch(ctx context.Context, dateRange models.DateRange, cursor int64, limit int) ([]Record, error) {
	where, args := buildConditions("v.id", "v.created_at", dateRange, cursor)
	args = append(args, limit)
	query := fmt.Sprintf(`
		SELECT v.id, v.registration, v.make, v.model, st.name, v.status, v.created_at
		FROM vehicles v
		LEFT JOIN staff st ON st.id = v.assigned_staff_id
		%s
		ORDER BY v.id ASC
		LIMIT $%d`, where, len(args))

	rows, err := a.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query vehicles: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec VehicleRecord
		if err := rows.Scan(&rec.RecordID, &rec.Registration, &rec.Make,
			&rec.Model, &rec.AssignedTo, &rec.Status, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan vehicle row: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vehicles: %w", err)
	}
	return records, nil
}

func (a *VehiclesAdapter) Normalize(rec Record, fmtr *format.Formatter) (models.NormalizedRow, error) {
	r, ok := rec.(*VehicleRecord)
	if !ok {
		return models.NormalizedRow{}, fmt.Errorf("unexpected record type %T", rec)
	}
	row := models.NewNormalizedRow(vehicleHeaders)
	row.Set("ID", strconv.FormatInt(r.RecordID, 10))
	row.Set("Registration", r.Registration)
	row.Set("Make", r.Make)
	row.Set("Model", r.Model)
	row.Set("Assigned To", r.AssignedTo.String)
	row.Set("Status", r.Status)
	row.Set("Added", fmtr.Date(r.CreatedAt))
	return row, nil
}
