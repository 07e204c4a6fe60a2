// Package adapters holds one query adapter per exportable domain. An adapter
// knows how to fetch its records (bounded, or page-by-cursor) and how to
// normalize a record into the domain's canonical header list. The transport
// and service layers look adapters up in the Registry and never branch on
// domain names themselves.
package adapters

import (
	"context"
	"fmt"
	"strings"

	"fieldbook/internal/export/format"
	"fieldbook/internal/export/models"
)

// Record is a raw domain record. The identifier is the domain's primary key
// and doubles as the pagination cursor under ascending-id ordering.
type Record interface {
	ID() int64
}

// Adapter is the two-operation fetch contract plus pure normalization.
//
// FetchBuffered returns at most limit records for non-streamed requests.
// FetchCursorPage returns records ordered ascending by id, starting strictly
// after cursor (0 means first page); an empty page means no more data.
// Normalize maps one record onto the canonical header list; it must be pure
// so a record renders identically on either fetch path.
type Adapter interface {
	Domain() models.Domain
	Headers() []string
	FetchBuffered(ctx context.Context, dateRange models.DateRange, limit int) ([]Record, error)
	FetchCursorPage(ctx context.Context, dateRange models.DateRange, cursor int64, pageSize int) ([]Record, error)
	Normalize(rec Record, fmtr *format.Formatter) (models.NormalizedRow, error)
}

// Summarizer is implemented by adapters whose PDF exports carry a summary
// block (money domains).
type Summarizer interface {
	Summarize(recs []Record, fmtr *format.Formatter) []string
}

// Registry indexes adapters by domain.
type Registry struct {
	adapters map[models.Domain]Adapter
}

// NewRegistry builds a registry; duplicate domains are a programming error.
func NewRegistry(adapters ...Adapter) (*Registry, error) {
	r := &Registry{adapters: make(map[models.Domain]Adapter, len(adapters))}
	for _, a := range adapters {
		if _, exists := r.adapters[a.Domain()]; exists {
			return nil, fmt.Errorf("duplicate adapter for domain %s", a.Domain())
		}
		r.adapters[a.Domain()] = a
	}
	return r, nil
}

// Lookup returns the adapter for domain.
func (r *Registry) Lookup(domain models.Domain) (Adapter, bool) {
	a, ok := r.adapters[domain]
	return a, ok
}

// buildConditions assembles WHERE conditions and positional args for the
// shared cursor + date-range filter. idCol and tsCol are qualified column
// names; cursor 0 means no cursor condition.
func buildConditions(idCol, tsCol string, dateRange models.DateRange, cursor int64) (string, []any) {
	var conds []string
	var args []any

	if cursor > 0 {
		args = append(args, cursor)
		conds = append(conds, fmt.Sprintf("%s > $%d", idCol, len(args)))
	}
	if dateRange.Start != nil {
		args = append(args, *dateRange.Start)
		conds = append(conds, fmt.Sprintf("%s >= $%d", tsCol, len(args)))
	}
	if dateRange.End != nil {
		args = append(args, *dateRange.End)
		conds = append(conds, fmt.Sprintf("%s <= $%d", tsCol, len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}
