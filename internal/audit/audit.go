// Package audit records who exported what. Recording is best-effort: an
// export never fails or blocks because the audit sink is slow or down.
package audit

import (
	"context"
	"time"
)

// Entry is one export audit record.
type Entry struct {
	Identity    string
	Domain      string
	Format      string
	FiltersJSON string
	Timestamp   time.Time
}

// Store persists audit entries.
type Store interface {
	Append(ctx context.Context, entry Entry) error
}
