package handler_test

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldbook/internal/audit"
	"fieldbook/internal/auth/capability"
	"fieldbook/internal/auth/session"
	"fieldbook/internal/export/adapters"
	"fieldbook/internal/export/format"
	"fieldbook/internal/export/handler"
	"fieldbook/internal/export/models"
	"fieldbook/internal/export/policy"
	exportsvc "fieldbook/internal/export/service"
	"fieldbook/internal/platform/config"
	rlservice "fieldbook/internal/ratelimit/service"
	"fieldbook/internal/ratelimit/store/counter"
	"fieldbook/pkg/testutil"
)

const (
	testSigningKey   = "test-signing-key"
	testExportSecret = "test-export-secret"
)

type stubRecord struct {
	id   int64
	name string
}

func (r *stubRecord) ID() int64 { return r.id }

type stubAdapter struct {
	domain  models.Domain
	records []*stubRecord
}

var stubHeaders = []string{"ID", "Name"}

func (a *stubAdapter) Domain() models.Domain { return a.domain }
func (a *stubAdapter) Headers() []string     { return stubHeaders }

func (a *stubAdapter) FetchBuffered(_ context.Context, _ models.DateRange, limit int) ([]adapters.Record, error) {
	var out []adapters.Record
	for _, r := range a.records {
		if len(out) == limit {
			break
		}
		out = append(out, r)
	}
	return out, nil
}

func (a *stubAdapter) FetchCursorPage(_ context.Context, _ models.DateRange, cursor int64, pageSize int) ([]adapters.Record, error) {
	var out []adapters.Record
	for _, r := range a.records {
		if r.id <= cursor {
			continue
		}
		out = append(out, r)
		if len(out) == pageSize {
			break
		}
	}
	return out, nil
}

func (a *stubAdapter) Normalize(rec adapters.Record, _ *format.Formatter) (models.NormalizedRow, error) {
	r := rec.(*stubRecord)
	row := models.NewNormalizedRow(stubHeaders)
	row.Set("ID", strconv.FormatInt(r.id, 10))
	row.Set("Name", r.name)
	return row, nil
}

type recordingSink struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (s *recordingSink) Record(entry audit.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
}

func (s *recordingSink) Entries() []audit.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]audit.Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

type fixture struct {
	router   chi.Router
	sessions *session.Service
	verifier *capability.Verifier
	sink     *recordingSink
}

func newFixture(t *testing.T, records int) *fixture {
	t.Helper()

	invoices := &stubAdapter{domain: models.DomainInvoices}
	staff := &stubAdapter{domain: models.DomainStaff}
	for i := 1; i <= records; i++ {
		invoices.records = append(invoices.records, &stubRecord{id: int64(i), name: fmt.Sprintf("inv-%d", i)})
		staff.records = append(staff.records, &stubRecord{id: int64(i), name: fmt.Sprintf("staff-%d", i)})
	}

	reg, err := adapters.NewRegistry(invoices, staff)
	require.NoError(t, err)
	svc, err := exportsvc.New(reg, 5000, 3)
	require.NoError(t, err)

	limiter, err := rlservice.New(counter.NewInMemoryCounterStore(), config.RateLimits{
		Export: config.Limit{Requests: 20, Window: time.Minute},
	})
	require.NoError(t, err)

	sessions := session.New(testSigningKey)
	verifier := capability.NewVerifier(testExportSecret)
	sink := &recordingSink{}

	h := handler.New(sessions, verifier, limiter, policy.New(), svc, sink)
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	return &fixture{router: r, sessions: sessions, verifier: verifier, sink: sink}
}

func (f *fixture) get(t *testing.T, path string, asRole session.Role) *http.Request {
	t.Helper()
	req := testutil.NewRequest(t, http.MethodGet, path)
	if asRole != "" {
		token, err := f.sessions.Mint("user-1", asRole, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestExportAuthorization(t *testing.T) {
	t.Run("no session and no token is unauthorized", func(t *testing.T) {
		f := newFixture(t, 3)
		rr := testutil.DoRequest(f.router, f.get(t, "/api/export?type=invoices&format=csv", ""))
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
	})

	t.Run("customer role may not export staff", func(t *testing.T) {
		f := newFixture(t, 3)
		rr := testutil.DoRequest(f.router, f.get(t, "/api/export?type=staff&format=csv", session.RoleCustomer))
		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
	})

	t.Run("valid capability token bypasses the role table", func(t *testing.T) {
		f := newFixture(t, 3)
		token, err := f.verifier.Issue(capability.Payload{SubjectID: "report-bot"})
		require.NoError(t, err)

		rr := testutil.DoRequest(f.router, f.get(t, "/api/export?type=staff&format=csv&token="+token, ""))
		testutil.AssertStatus(t, rr, http.StatusOK)
	})

	t.Run("expired token falls back to the session check", func(t *testing.T) {
		f := newFixture(t, 3)
		token, err := f.verifier.Issue(capability.Payload{
			SubjectID:        "report-bot",
			ExpiresAtEpochMs: time.Now().Add(-time.Millisecond).UnixMilli(),
		})
		require.NoError(t, err)

		rr := testutil.DoRequest(f.router, f.get(t, "/api/export?type=staff&format=csv&token="+token, ""))
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
	})

	t.Run("unsupported type is a bad request", func(t *testing.T) {
		f := newFixture(t, 3)
		rr := testutil.DoRequest(f.router, f.get(t, "/api/export?type=unicorns&format=csv", session.RoleAdmin))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
	})

	t.Run("malformed date is a bad request", func(t *testing.T) {
		f := newFixture(t, 3)
		rr := testutil.DoRequest(f.router, f.get(t, "/api/export?type=invoices&startDate=not-a-date", session.RoleAdmin))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
	})
}

func TestExportBufferedCSV(t *testing.T) {
	f := newFixture(t, 3)
	rr := testutil.DoRequest(f.router, f.get(t, "/api/export?type=invoices&format=csv", session.RoleAdmin))

	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, "text/csv", rr.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=invoices-export.csv", rr.Header().Get("Content-Disposition"))
	assert.Empty(t, rr.Header().Get("X-Export-Skipped"))

	lines := strings.Split(strings.TrimSuffix(rr.Body.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, `"ID","Name"`, lines[0])
	assert.Equal(t, `"1","inv-1"`, lines[1])

	entries := f.sink.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "user-1", entries[0].Identity)
	assert.Equal(t, "invoices", entries[0].Domain)
	assert.Equal(t, "csv", entries[0].Format)
}

func TestExportBufferedPDF(t *testing.T) {
	f := newFixture(t, 3)
	rr := testutil.DoRequest(f.router, f.get(t, "/api/export?type=invoices&format=pdf", session.RoleAdmin))

	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=invoices-export.pdf", rr.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rr.Body.String(), "%PDF"))
}

func TestExportStreamedCSV(t *testing.T) {
	t.Run("plain stream pages through everything", func(t *testing.T) {
		f := newFixture(t, 10)
		rr := testutil.DoRequest(f.router, f.get(t, "/api/export?type=invoices&format=csv&stream=true", session.RoleAdmin))

		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.Empty(t, rr.Header().Get("Content-Encoding"))

		lines := strings.Split(strings.TrimSuffix(rr.Body.String(), "\n"), "\n")
		require.Len(t, lines, 11)
		assert.Equal(t, `"ID","Name"`, lines[0])
		assert.Equal(t, `"10","inv-10"`, lines[10])
	})

	t.Run("gzip when the caller accepts it", func(t *testing.T) {
		f := newFixture(t, 10)
		req := f.get(t, "/api/export?type=invoices&format=csv&stream=true", session.RoleAdmin)
		req.Header.Set("Accept-Encoding", "gzip")
		rr := testutil.DoRequest(f.router, req)

		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.Equal(t, "gzip", rr.Header().Get("Content-Encoding"))

		gz, err := gzip.NewReader(rr.Body)
		require.NoError(t, err)
		body, err := io.ReadAll(gz)
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSuffix(string(body), "\n"), "\n")
		require.Len(t, lines, 11)
		assert.Equal(t, `"ID","Name"`, lines[0])
	})

	t.Run("pdf ignores the stream flag", func(t *testing.T) {
		f := newFixture(t, 3)
		rr := testutil.DoRequest(f.router, f.get(t, "/api/export?type=invoices&format=pdf&stream=true", session.RoleAdmin))
		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.True(t, strings.HasPrefix(rr.Body.String(), "%PDF"))
	})
}

func TestExportRateLimit(t *testing.T) {
	f := newFixture(t, 1)

	for i := 0; i < 20; i++ {
		rr := testutil.DoRequest(f.router, f.get(t, "/api/export?type=invoices&format=csv", session.RoleAdmin))
		testutil.AssertStatus(t, rr, http.StatusOK)
	}

	rr := testutil.DoRequest(f.router, f.get(t, "/api/export?type=invoices&format=csv", session.RoleAdmin))
	testutil.AssertStatusAndError(t, rr, http.StatusTooManyRequests, "rate_limited")
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))

	// Rate limiting rejects before authorization runs, so only the allowed
	// requests were audited.
	assert.Len(t, f.sink.Entries(), 20)
}
