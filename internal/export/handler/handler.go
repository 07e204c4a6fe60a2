// Package handler exposes the export pipeline as an HTTP GET surface. One
// ordered pipeline per request: rate limit, then token-or-session
// authorization, then domain policy, then full parameter parsing, then the
// audit write, then fetch/render/transport.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/klauspost/compress/gzip"

	"fieldbook/internal/audit"
	"fieldbook/internal/auth/capability"
	"fieldbook/internal/auth/session"
	"fieldbook/internal/export/models"
	"fieldbook/internal/export/policy"
	"fieldbook/internal/export/render"
	exportsvc "fieldbook/internal/export/service"
	rlmodels "fieldbook/internal/ratelimit/models"
	"fieldbook/internal/transport/http/shared"
	dErrors "fieldbook/pkg/domain-errors"
	"fieldbook/pkg/platform/middleware/metadata"
)

// RateLimiter decides whether one more export may proceed for an identity.
type RateLimiter interface {
	Allow(ctx context.Context, scope rlmodels.Scope, identity string) (*rlmodels.Result, error)
}

// AuditRecorder accepts fire-and-forget audit entries.
type AuditRecorder interface {
	Record(entry audit.Entry)
}

// Handler wires the export pipeline's collaborators.
type Handler struct {
	sessions *session.Service
	verifier *capability.Verifier
	limiter  RateLimiter
	policy   *policy.Policy
	exports  *exportsvc.Service
	recorder AuditRecorder
	logger   *slog.Logger
}

type Option func(*Handler)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

func New(sessions *session.Service, verifier *capability.Verifier, limiter RateLimiter,
	pol *policy.Policy, exports *exportsvc.Service, recorder AuditRecorder, opts ...Option) *Handler {
	h := &Handler{
		sessions: sessions,
		verifier: verifier,
		limiter:  limiter,
		policy:   pol,
		exports:  exports,
		recorder: recorder,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes mounts the export surface on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/export", h.Export)
}

// Export runs the full export pipeline for one GET request.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	// An invalid or expired capability token is ignored, not fatal: the
	// request falls back to the session/role check.
	var tokenSubject string
	if raw := q.Get("token"); raw != "" {
		if payload, err := h.verifier.Verify(raw); err == nil {
			tokenSubject = payload.SubjectID
		}
	}

	sess := h.sessions.Lookup(r)

	identity := h.identity(ctx, sess, tokenSubject, r)

	result, err := h.limiter.Allow(ctx, rlmodels.ScopeExport, identity)
	if err != nil {
		h.logger.ErrorContext(ctx, "rate limit check failed", "error", err)
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "rate limit check"))
		return
	}
	if !result.Allowed {
		w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
		shared.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "export rate limit exceeded"))
		return
	}

	domain, format, err := models.ParseTarget(q)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	// A valid token bypasses the role table entirely. A rejected domain check
	// says nothing about whether the session itself was valid.
	if tokenSubject == "" {
		if sess == nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
			return
		}
		if !h.policy.IsAllowed(sess.Role, domain) {
			shared.WriteError(w, dErrors.New(dErrors.CodeForbidden, "export of this domain is not permitted"))
			return
		}
	}

	req, err := models.ParseRequest(q, domain, format)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	req.Compress = req.Streamed && acceptsGzip(r)

	h.recorder.Record(audit.Entry{
		Identity:    identity,
		Domain:      string(req.Domain),
		Format:      string(req.Format),
		FiltersJSON: filtersJSON(q),
	})

	if req.Streamed && req.Format == models.FormatCSV {
		h.streamCSV(w, r, req)
		return
	}
	h.buffered(w, r, req)
}

func (h *Handler) buffered(w http.ResponseWriter, r *http.Request, req *models.ExportRequest) {
	ctx := r.Context()

	res, err := h.exports.ExportBuffered(ctx, req)
	if err != nil {
		h.logger.ErrorContext(ctx, "buffered export failed",
			"domain", req.Domain, "format", req.Format, "error", err)
		shared.WriteError(w, err)
		return
	}

	var body []byte
	switch req.Format {
	case models.FormatPDF:
		body, err = render.RenderPDF(exportTitle(req.Domain), res.Headers, res.Rows, res.Summary)
		if err != nil {
			h.logger.ErrorContext(ctx, "pdf rendering failed", "domain", req.Domain, "error", err)
			shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "render pdf"))
			return
		}
	default:
		body = []byte(render.RenderCSV(res.Headers, res.Rows))
	}

	w.Header().Set("Content-Type", req.Format.ContentType())
	w.Header().Set("Content-Disposition", attachment(req))
	if res.Skipped > 0 {
		w.Header().Set("X-Export-Skipped", strconv.Itoa(res.Skipped))
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	_, _ = w.Write(body)
}

func (h *Handler) streamCSV(w http.ResponseWriter, r *http.Request, req *models.ExportRequest) {
	ctx := r.Context()

	w.Header().Set("Content-Type", req.Format.ContentType())
	w.Header().Set("Content-Disposition", attachment(req))

	var out io.Writer = w
	var gz *gzip.Writer
	if req.Compress {
		w.Header().Set("Content-Encoding", "gzip")
		gz = gzip.NewWriter(w)
		out = gz
	}

	// Headers are flushed with the first chunk; a mid-stream failure can only
	// truncate the body, which the client reads as a failed export.
	res, err := h.exports.StreamCSV(ctx, req, out)
	if gz != nil {
		_ = gz.Close()
	}
	if err != nil {
		var emitted int
		if res != nil {
			emitted = res.Rows
		}
		h.logger.ErrorContext(ctx, "streamed export aborted",
			"domain", req.Domain, "rows_emitted", emitted, "error", err)
	}
}

// identity picks the rate-limit and audit identity: session first, then the
// token subject, then the client address for anonymous callers.
func (h *Handler) identity(ctx context.Context, sess *session.Session, tokenSubject string, r *http.Request) string {
	if sess != nil {
		return sess.Identity
	}
	if tokenSubject != "" {
		return tokenSubject
	}
	if ip := metadata.GetClientIP(ctx); ip != "" {
		return ip
	}
	return metadata.ClientIPFromRequest(r)
}

func attachment(req *models.ExportRequest) string {
	return fmt.Sprintf("attachment; filename=%s-export.%s", req.Domain, req.Format.Extension())
}

func exportTitle(domain models.Domain) string {
	name := string(domain)
	return strings.ToUpper(name[:1]) + name[1:] + " Export"
}

func acceptsGzip(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept-Encoding"), "gzip")
}

// filtersJSON captures the request's filter parameters for audit attribution.
func filtersJSON(q url.Values) string {
	filters := map[string]string{}
	for _, key := range []string{"startDate", "endDate", "columns", "locale", "currency", "stream"} {
		if v := q.Get(key); v != "" {
			filters[key] = v
		}
	}
	raw, err := json.Marshal(filters)
	if err != nil {
		return "{}"
	}
	return string(raw)
}
