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

// InquiryRecord is one inbound customer inquiry.
type InquiryRecord struct {
	RecordID   int64
	Subject    string
	Name       sql.NullString
	Email      sql.NullString
	Channel    string
	Status     string
	ReceivedAt time.Time
}

func (r *InquiryRecord) ID() int64 { return r.RecordID }

var inquiryHeaders = []string{"ID", "Subject", "Name", "Email", "Channel", "Status", "Received"}

// InquiriesAdapter exports inbound inquiries.
type InquiriesAdapter struct {
	db *pgxpool.Pool
}

func NewInquiriesAdapter(db *pgxpool.Pool) *InquiriesAdapter {
	return &InquiriesAdapter{db: db}
}

func (a *InquiriesAdapter) Domain() models.Domain { return models.DomainInquiries }
func (a *InquiriesAdapter) Headers() []string     { return inquiryHeaders }

func (a *InquiriesAdapter) FetchBuffered(ctx context.Context, dateRange models.DateRange, limit int) ([]Record, error) {
	return a.fetch(ctx, dateRange, 0, limit)
}

func (a *InquiriesAdapter) FetchCursorPage(ctx context.Context, dateRange models.DateRange, cursor int64, pageSize int) ([]Record, error) {
	return a.fetch(ctx, dateRange, cursor, pageSize)
}

func (a *InquiriesAdapter) fetch(ctx context.Context, dateRange models.DateRange, cursor int64, limit int) ([]Record, error) {
	where, args := buildConditions("id", "received_at", dateRange, cursor)
	args = append(args, limit)
	query := fmt.Sprintf(`
		SELECT id, subject, contact_name, contact_email, channel, status, received_at
		FROM inquiries
		%s
		ORDER BY id ASC
		LIMIT $%d`, where, len(args))

	rows, err := a.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query inquiries: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec InquiryRecord
		if err := rows.Scan(&rec.RecordID, &rec.Subject, &rec.Name,
			&rec.Email, &rec.Channel, &rec.Status, &rec.ReceivedAt); err != nil {
			return nil, fmt.Errorf("scan inquiry row: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inquiries: %w", err)
	}
	return records, nil
}

func (a *InquiriesAdapter) Normalize(rec Record, fmtr *format.Formatter) (models.NormalizedRow, error) {
	r, ok := rec.(*InquiryRecord)
	if !ok {
		return models.NormalizedRow{}, fmt.Errorf("unexpected record type %T", rec)
	}
	row := models.NewNormalizedRow(inquiryHeaders)
	row.Set("ID", strconv.FormatInt(r.RecordID, 10))
	row.Set("Subject", r.Subject)
	row.Set("Name", r.Name.String)
	row.Set("Email", r.Email.String)
	row.Set("Channel", r.Channel)
	row.Set("Status", r.Status)
	row.Set("Received", fmtr.DateTime(r.ReceivedAt))
	return row, nil
}
