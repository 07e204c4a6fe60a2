package models

import (
	"net/url"
	"strings"
	"time"

	dErrors "fieldbook/pkg/domain-errors"
	pstrings "fieldbook/pkg/platform/strings"
)

// Domain is one of the fixed entity categories the pipeline can export.
type Domain string

const (
	DomainServices    Domain = "services"
	DomainInvoices    Domain = "invoices"
	DomainCustomers   Domain = "customers"
	DomainVehicles    Domain = "vehicles"
	DomainProperties  Domain = "properties"
	DomainInquiries   Domain = "inquiries"
	DomainEmergencies Domain = "emergencies"
	DomainPayments    Domain = "payments"
	DomainStaff       Domain = "staff"
	DomainMessages    Domain = "messages"
)

// Domains lists every exportable domain.
func Domains() []Domain {
	return []Domain{
		DomainServices, DomainInvoices, DomainCustomers, DomainVehicles,
		DomainProperties, DomainInquiries, DomainEmergencies, DomainPayments,
		DomainStaff, DomainMessages,
	}
}

// IsValid checks if the domain is one of the supported enum values.
func (d Domain) IsValid() bool {
	switch d {
	case DomainServices, DomainInvoices, DomainCustomers, DomainVehicles,
		DomainProperties, DomainInquiries, DomainEmergencies, DomainPayments,
		DomainStaff, DomainMessages:
		return true
	}
	return false
}

// Format is the requested output format.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// IsValid checks if the format is one of the supported enum values.
func (f Format) IsValid() bool {
	return f == FormatCSV || f == FormatPDF
}

// Extension returns the download file extension for the format.
func (f Format) Extension() string {
	return string(f)
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "text/csv"
}

// DateRange is an optional inclusive filter on record timestamps. End is
// normalized to the last representable instant of its day at parse time.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// IsZero reports whether no bound is set.
func (r DateRange) IsZero() bool {
	return r.Start == nil && r.End == nil
}

// Contains reports whether t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	if r.Start != nil && t.Before(*r.Start) {
		return false
	}
	if r.End != nil && t.After(*r.End) {
		return false
	}
	return true
}

// ExportRequest is the parsed, validated export invocation. Immutable once
// parsed; handlers and services only read it.
type ExportRequest struct {
	Domain       Domain
	Format       Format
	DateRange    DateRange
	Columns      []string // optional ordered subset of the domain's headers
	Locale       string
	CurrencyCode string
	Streamed     bool
	Compress     bool // only meaningful when Streamed and the caller accepts gzip
}

// ParseTarget validates only the domain and format parameters. It runs before
// the domain policy check so authorization can be decided without touching
// any other input.
func ParseTarget(q url.Values) (Domain, Format, error) {
	domain := Domain(q.Get("type"))
	if !domain.IsValid() {
		return "", "", dErrors.New(dErrors.CodeBadRequest, "unsupported export type")
	}

	format := Format(q.Get("format"))
	if format == "" {
		format = FormatCSV
	}
	if !format.IsValid() {
		return "", "", dErrors.New(dErrors.CodeBadRequest, "unsupported export format")
	}

	return domain, format, nil
}

// ParseRequest builds the full ExportRequest from query parameters. Domain
// and format must already have been validated via ParseTarget.
func ParseRequest(q url.Values, domain Domain, format Format) (*ExportRequest, error) {
	dateRange, err := parseDateRange(q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		return nil, err
	}

	req := &ExportRequest{
		Domain:       domain,
		Format:       format,
		DateRange:    dateRange,
		Locale:       q.Get("locale"),
		CurrencyCode: q.Get("currency"),
		Streamed:     q.Get("stream") == "true",
	}

	if raw := q.Get("columns"); raw != "" {
		req.Columns = pstrings.DedupeAndTrim(strings.Split(raw, ","))
	}

	// PDF has no streaming implementation; it always takes the buffered path.
	if req.Format == FormatPDF {
		req.Streamed = false
	}

	return req, nil
}

func parseDateRange(startRaw, endRaw string) (DateRange, error) {
	var r DateRange
	if startRaw != "" {
		start, err := time.ParseInLocation("2006-01-02", startRaw, time.Local)
		if err != nil {
			return r, dErrors.New(dErrors.CodeBadRequest, "malformed startDate")
		}
		r.Start = &start
	}
	if endRaw != "" {
		end, err := time.ParseInLocation("2006-01-02", endRaw, time.Local)
		if err != nil {
			return r, dErrors.New(dErrors.CodeBadRequest, "malformed endDate")
		}
		// Inclusive end of day: D 23:59:59.999 is in, D+1 00:00:00.000 is out.
		end = end.Add(24*time.Hour - time.Millisecond)
		r.End = &end
	}
	return r, nil
}

// NormalizedRow pairs a domain's canonical header list with one string value
// per header. The key set always equals the full header list; column
// selection happens afterwards via Select.
type NormalizedRow struct {
	Headers []string
	Values  map[string]string
}

// NewNormalizedRow creates a row with every header mapped to "".
func NewNormalizedRow(headers []string) NormalizedRow {
	values := make(map[string]string, len(headers))
	for _, h := range headers {
		values[h] = ""
	}
	return NormalizedRow{Headers: headers, Values: values}
}

// Set assigns a value; headers outside the canonical list are ignored.
func (r NormalizedRow) Set(header, value string) {
	if _, ok := r.Values[header]; ok {
		r.Values[header] = value
	}
}

// Select returns the values for the requested columns in the requested
// order. An empty selection means all canonical headers.
func (r NormalizedRow) Select(columns []string) []string {
	if len(columns) == 0 {
		columns = r.Headers
	}
	out := make([]string, len(columns))
	for i, col := range columns {
		out[i] = r.Values[col]
	}
	return out
}

// SelectColumns narrows a header list to the requested subset, dropping
// unknown names while preserving the caller's order. An empty subset yields
// the canonical list.
func SelectColumns(headers, requested []string) []string {
	if len(requested) == 0 {
		return headers
	}
	known := make(map[string]bool, len(headers))
	for _, h := range headers {
		known[h] = true
	}
	var out []string
	for _, col := range requested {
		if known[col] {
			out = append(out, col)
		}
	}
	if len(out) == 0 {
		return headers
	}
	return out
}
