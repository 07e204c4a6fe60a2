// Package postgres persists audit entries to the export_audit table.
package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"fieldbook/internal/audit"
)

type Store struct {
	db *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, entry audit.Entry) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO export_audit (id, identity, domain, format, filters, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.NewString(), entry.Identity, entry.Domain, entry.Format,
		entry.FiltersJSON, entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}
