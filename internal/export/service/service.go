// Package service orchestrates an export: it resolves the domain's query
// adapter, normalizes records through the shared formatter, and produces
// either a bounded in-memory document or an unbounded row stream.
package service

import (
	"context"
	"io"
	"log/slog"

	"fieldbook/internal/export/adapters"
	"fieldbook/internal/export/format"
	"fieldbook/internal/export/metrics"
	"fieldbook/internal/export/models"
	"fieldbook/internal/export/render"
	dErrors "fieldbook/pkg/domain-errors"
)

// Service runs exports against the adapter registry. Buffered exports are
// capped; streamed exports hold at most one page of records at a time.
type Service struct {
	registry    *adapters.Registry
	bufferedCap int
	pageSize    int
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(registry *adapters.Registry, bufferedCap, pageSize int, opts ...Option) (*Service, error) {
	if registry == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "adapter registry is required")
	}
	if bufferedCap <= 0 {
		bufferedCap = 5000
	}
	if pageSize <= 0 {
		pageSize = 500
	}

	svc := &Service{
		registry:    registry,
		bufferedCap: bufferedCap,
		pageSize:    pageSize,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

// BufferedResult is a fully materialized export.
type BufferedResult struct {
	Headers []string
	Rows    [][]string
	Summary []string
	Skipped int
}

// StreamResult reports what a streamed export emitted.
type StreamResult struct {
	Rows    int
	Skipped int
}

// ExportBuffered fetches at most the buffered cap of records and normalizes
// them in memory. A record that fails normalization becomes a blank row and
// counts as skipped; it never aborts the export.
func (s *Service) ExportBuffered(ctx context.Context, req *models.ExportRequest) (*BufferedResult, error) {
	adapter, ok := s.registry.Lookup(req.Domain)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInternal, "no adapter registered for domain")
	}

	fmtr := format.New(req.Locale, req.CurrencyCode)
	columns := models.SelectColumns(adapter.Headers(), req.Columns)

	recs, err := adapter.FetchBuffered(ctx, req.DateRange, s.bufferedCap)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "fetch records")
	}

	result := &BufferedResult{
		Headers: columns,
		Rows:    make([][]string, 0, len(recs)),
	}
	for _, rec := range recs {
		row, err := adapter.Normalize(rec, fmtr)
		if err != nil {
			s.logger.WarnContext(ctx, "record failed normalization, emitting blank row",
				"domain", req.Domain,
				"record_id", rec.ID(),
				"error", err,
			)
			result.Skipped++
			result.Rows = append(result.Rows, make([]string, len(columns)))
			continue
		}
		result.Rows = append(result.Rows, row.Select(columns))
	}

	if sum, ok := adapter.(adapters.Summarizer); ok {
		result.Summary = sum.Summarize(recs, fmtr)
	}

	s.record(req, len(result.Rows), result.Skipped)
	return result, nil
}

// StreamCSV pulls cursor pages and writes CSV rows to w as they are
// normalized. The cursor advances to the last id of each page; a short or
// empty page proves the result set is exhausted and ends the stream. Context
// cancellation stops before the next fetch.
func (s *Service) StreamCSV(ctx context.Context, req *models.ExportRequest, w io.Writer) (*StreamResult, error) {
	adapter, ok := s.registry.Lookup(req.Domain)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInternal, "no adapter registered for domain")
	}

	fmtr := format.New(req.Locale, req.CurrencyCode)
	columns := models.SelectColumns(adapter.Headers(), req.Columns)
	writer := render.NewCSVWriter(w, columns)

	result := &StreamResult{}
	var cursor int64
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		recs, err := adapter.FetchCursorPage(ctx, req.DateRange, cursor, s.pageSize)
		if err != nil {
			return result, dErrors.Wrap(err, dErrors.CodeInternal, "fetch page")
		}
		if len(recs) == 0 {
			break
		}

		for _, rec := range recs {
			row, err := adapter.Normalize(rec, fmtr)
			if err != nil {
				s.logger.WarnContext(ctx, "record failed normalization, emitting blank row",
					"domain", req.Domain,
					"record_id", rec.ID(),
					"error", err,
				)
				result.Skipped++
				if werr := writer.WriteRow(make([]string, len(columns))); werr != nil {
					return result, werr
				}
				result.Rows++
				continue
			}
			if err := writer.WriteRow(row.Select(columns)); err != nil {
				return result, err
			}
			result.Rows++
		}

		// A short page means the adapter ran out of rows; skip the extra
		// empty fetch.
		if len(recs) < s.pageSize {
			break
		}
		cursor = recs[len(recs)-1].ID()
	}

	if err := writer.Flush(); err != nil {
		return result, err
	}

	s.record(req, result.Rows, result.Skipped)
	return result, nil
}

func (s *Service) record(req *models.ExportRequest, rows, skipped int) {
	if s.metrics == nil {
		return
	}
	s.metrics.ExportsTotal.WithLabelValues(string(req.Domain), string(req.Format)).Inc()
	s.metrics.RowsTotal.WithLabelValues(string(req.Domain)).Add(float64(rows))
	if skipped > 0 {
		s.metrics.SkippedTotal.WithLabelValues(string(req.Domain)).Add(float64(skipped))
	}
}
