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

// EmergencyRecord is one emergency callout with its property joined in.
type EmergencyRecord struct {
	RecordID   int64
	Reference  string
	Property   sql.NullString
	Priority   string
	ReportedAt time.Time
	ResolvedAt sql.NullTime
	Status     string
}

func (r *EmergencyRecord) ID() int64 { return r.RecordID }

var emergencyHeaders = []string{"ID", "Reference", "Property", "Priority", "Reported", "Resolved", "Status"}

// EmergenciesAdapter exports emergency callouts.
type EmergenciesAdapter struct {
	db *pgxpool.Pool
}

func NewEmergenciesAdapter(db *pgxpool.Pool) *EmergenciesAdapter {
	return &EmergenciesAdapter{db: db}
}

func (a *EmergenciesAdapter) Domain() models.Domain { return models.DomainEmergencies }
func (a *EmergenciesAdapter) Headers() []string     { return emergencyHeaders }

func (a *EmergenciesAdapter) FetchBuffered(ctx context.Context, dateRange models.DateRange, limit int) ([]Record, error) {
	return a.fetch(ctx, dateRange, 0, limit)
}

func (a *EmergenciesAdapter) FetchCursorPage(ctx context.Context, dateRange models.DateRange, cursor int64, pageSize int) ([]Record, error) {
	return a.fetch(ctx, dateRange, cursor, pageSize)
}

func (a *EmergenciesAdapter) fetch(ctx context.Context, dateRange models.DateRange, cursor int64, limit int) ([]Record, error) {
	where, args := buildConditions("e.id", "e.reported_at", dateRange, cursor)
	args = append(args, limit)
	query := fmt.Sprintf(`
		SELECT e.id, e.reference, p.address, e.priority, e.reported_at, e.resolved_at, e.status
		FROM emergencies e
		LEFT JOIN properties p ON p.id = e.property_id
		%s
		ORDER BY e.id ASC
		LIMIT $%d`, where, len(args))

	rows, err := a.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query emergencies: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec EmergencyRecord
		if err := rows.Scan(&rec.RecordID, &rec.Reference, &rec.Property,
			&rec.Priority, &rec.ReportedAt, &rec.ResolvedAt, &rec.Status); err != nil {
			return nil, fmt.Errorf("scan emergency row: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate emergencies: %w", err)
	}
	return records, nil
}

func (a *EmergenciesAdapter) Normalize(rec Record, fmtr *format.Formatter) (models.NormalizedRow, error) {
	r, ok := rec.(*EmergencyRecord)
	if !ok {
		return models.NormalizedRow{}, fmt.Errorf("unexpected record type %T", rec)
	}
	row := models.NewNormalizedRow(emergencyHeaders)
	row.Set("ID", strconv.FormatInt(r.RecordID, 10))
	row.Set("Reference", r.Reference)
	row.Set("Property", r.Property.String)
	row.Set("Priority", r.Priority)
	row.Set("Reported", fmtr.DateTime(r.ReportedAt))
	row.Set("Resolved", fmtr.DateTime(r.ResolvedAt.Time))
	row.Set("Status", r.Status)
	return row, nil
}
