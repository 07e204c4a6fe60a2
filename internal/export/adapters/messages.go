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

// MessageRecord is one dispatch message between staff members.
type MessageRecord struct {
	RecordID int64
	From     sql.NullString
	To       sql.NullString
	Subject  string
	SentAt   time.Time
}

func (r *MessageRecord) ID() int64 { return r.RecordID }

var messageHeaders = []string{"ID", "From", "To", "Subject", "Sent"}

// MessagesAdapter exports dispatch messages.
type MessagesAdapter struct {
	db *pgxpool.Pool
}

func NewMessagesAdapter(db *pgxpool.Pool) *MessagesAdapter {
	return &MessagesAdapter{db: db}
}

func (a *MessagesAdapter) Domain() models.Domain { return models.DomainMessages }
func (a *MessagesAdapter) Headers() []string     { return messageHeaders }

func (a *MessagesAdapter) FetchBuffered(ctx context.Context, dateRange models.DateRange, limit int) ([]Record, error) {
	return a.fetch(ctx, dateRange, 0, limit)
}

func (a *MessagesAdapter) FetchCursorPage(ctx context.Context, dateRange models.DateRange, cursor int64, pageSize int) ([]Record, error) {
	return a.fetch(ctx, dateRange, cursor, pageSize)
}

func (a *MessagesAdapter) fetch(ctx context.Context, dateRange models.DateRange, cursor int64, limit int) ([]Record, error) {
	where, args := buildConditions("m.id", "m.sent_at", dateRange, cursor)
	args = append(args, limit)
	query := fmt.Sprintf(`
		SELECT m.id, sf.name, st.name, m.subject, m.sent_at
		FROM messages m
		LEFT JOIN staff sf ON sf.id = m.sender_id
		LEFT JOIN staff st ON st.id = m.recipient_id
		%s
		ORDER BY m.id ASC
		LIMIT $%d`, where, len(args))

	rows, err := a.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec MessageRecord
		if err := rows.Scan(&rec.RecordID, &rec.From, &rec.To,
			&rec.Subject, &rec.SentAt); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return records, nil
}

func (a *MessagesAdapter) Normalize(rec Record, fmtr *format.Formatter) (models.NormalizedRow, error) {
	r, ok := rec.(*MessageRecord)
	if !ok {
		return models.NormalizedRow{}, fmt.Errorf("unexpected record type %T", rec)
	}
	row := models.NewNormalizedRow(messageHeaders)
	row.Set("ID", strconv.FormatInt(r.RecordID, 10))
	row.Set("From", r.From.String)
	row.Set("To", r.To.String)
	row.Set("Subject", r.Subject)
	row.Set("Sent", fmtr.DateTime(r.SentAt))
	return row, nil
}
