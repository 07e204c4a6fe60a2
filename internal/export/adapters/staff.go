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

// StaffRecord is one staff member.
type StaffRecord struct {
	RecordID int64
	Name     string
	Email    string
	Role     string
	Phone    sql.NullString
	HiredAt  sql.NullTime
	Active   bool
}

func (r *StaffRecord) ID() int64 { return r.RecordID }

var staffHeaders = []string{"ID", "Name", "Email", "Role", "Phone", "Hired", "Active"}

// StaffAdapter exports staff members.
type StaffAdapter struct {
	db *pgxpool.Pool
}

func NewStaffAdapter(db *pgxpool.Pool) *StaffAdapter {
	return &StaffAdapter{db: db}
}

func (a *StaffAdapter) Domain() models.Domain { return models.DomainStaff }
func (a *StaffAdapter) Headers() []string     { return staffHeaders }

func (a *StaffAdapter) FetchBuffered(ctx context.Context, dateRange models.DateRange, limit int) ([]Record, error) {
	return a.fetch(ctx, dateRange, 0, limit)
}

func (a *StaffAdapter) FetchCursorPage(ctx context.Context, dateRange models.DateRange, cursor int64, pageSize int) ([]Record, error) {
	return a.fetch(ctx, dateRange, cursor, pageSize)
}

func (a *StaffAdapter) fetch(ctx context.Context, dateRange models.DateRange, cursor int64, limit int) ([]Record, error) {
	where, args := buildConditions("id", "created_at", dateRange, cursor)
	args = append(args, limit)
	query := fmt.Sprintf(`
		SELECT id, name, email, role, phone, hired_at, active
		FROM staff
		%s
		ORDER BY id ASC
		LIMIT $%d`, where, len(args))

	rows, err := a.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query staff: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec StaffRecord
		if err := rows.Scan(&rec.RecordID, &rec.Name, &rec.Email,
			&rec.Role, &rec.Phone, &rec.HiredAt, &rec.Active); err != nil {
			return nil, fmt.Errorf("scan staff row: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate staff: %w", err)
	}
	return records, nil
}

func (a *StaffAdapter) Normalize(rec Record, fmtr *format.Formatter) (models.NormalizedRow, error) {
	r, ok := rec.(*StaffRecord)
	if !ok {
		return models.NormalizedRow{}, fmt.Errorf("unexpected record type %T", rec)
	}
	active := "no"
	if r.Active {
		active = "yes"
	}
	row := models.NewNormalizedRow(staffHeaders)
	row.Set("ID", strconv.FormatInt(r.RecordID, 10))
	row.Set("Name", r.Name)
	row.Set("Email", r.Email)
	row.Set("Role", r.Role)
	row.Set("Phone", r.Phone.String)
	row.Set("Hired", fmtr.Date(r.HiredAt.Time))
	row.Set("Active", active)
	return row, nil
}
