package audit

import (
	"context"
	"log/slog"
	"time"

	"fieldbook/internal/audit/metrics"
)

const defaultInboxSize = 256

// Recorder queues entries on a bounded inbox and persists them from a single
// background goroutine. Enqueueing never blocks: when the inbox is full the
// entry is dropped and counted.
type Recorder struct {
	store   Store
	inbox   chan Entry
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(*Recorder)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Recorder) {
		r.metrics = m
	}
}

func WithInboxSize(n int) Option {
	return func(r *Recorder) {
		if n > 0 {
			r.inbox = make(chan Entry, n)
		}
	}
}

func NewRecorder(store Store, opts ...Option) *Recorder {
	r := &Recorder{
		store:  store,
		inbox:  make(chan Entry, defaultInboxSize),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record enqueues an entry without blocking. A full inbox drops the entry.
func (r *Recorder) Record(entry Entry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = r.now()
	}
	select {
	case r.inbox <- entry:
	default:
		r.logger.Warn("audit inbox full, dropping entry",
			"identity", entry.Identity,
			"domain", entry.Domain,
		)
		if r.metrics != nil {
			r.metrics.DroppedTotal.Inc()
		}
	}
}

// Run drains the inbox until ctx is cancelled. Persistence failures are
// logged and swallowed.
func (r *Recorder) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case entry := <-r.inbox:
			if err := r.store.Append(ctx, entry); err != nil {
				r.logger.WarnContext(ctx, "failed to persist audit entry",
					"identity", entry.Identity,
					"domain", entry.Domain,
					"error", err,
				)
				if r.metrics != nil {
					r.metrics.FailuresTotal.Inc()
				}
			}
		}
	}
}
