package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"fieldbook/internal/platform/config"
	"fieldbook/internal/ratelimit/metrics"
	"fieldbook/internal/ratelimit/models"
)

// CounterStore is the fixed-window counting contract shared by the Redis
// store and the in-process fallback.
type CounterStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error)
}

// Service decides allow/deny per scoped identity. A primary (shared) store is
// consulted first; when it errors the in-process fallback answers with the
// same semantics so rate limiting survives store outages.
type Service struct {
	primary  CounterStore
	fallback CounterStore
	limits   config.RateLimits
	logger   *slog.Logger
	metrics  *metrics.Metrics
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

// WithPrimaryStore sets the shared counter store. Without one, every check is
// served by the fallback.
func WithPrimaryStore(store CounterStore) Option {
	return func(s *Service) {
		s.primary = store
	}
}

func New(fallback CounterStore, limits config.RateLimits, opts ...Option) (*Service, error) {
	if fallback == nil {
		return nil, errors.New("fallback counter store is required")
	}

	svc := &Service{
		fallback: fallback,
		limits:   limits,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

// Allow checks whether identity may perform one more request in scope's
// current window. Limit exhaustion is a normal Allowed=false result carrying
// a retry-after hint equal to the window length.
func (s *Service) Allow(ctx context.Context, scope models.Scope, identity string) (*models.Result, error) {
	limit, window := s.limitFor(scope)
	key := models.Key(scope, identity)

	if s.metrics != nil {
		s.metrics.RecordCheck(string(scope))
	}

	result, err := s.check(ctx, key, limit, window)
	if err != nil {
		return nil, err
	}

	if !result.Allowed && s.metrics != nil {
		s.metrics.RecordReject(string(scope))
	}
	return result, nil
}

func (s *Service) check(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error) {
	if s.primary != nil {
		result, err := s.primary.Allow(ctx, key, limit, window)
		if err == nil {
			return result, nil
		}
		s.logger.WarnContext(ctx, "shared counter store unavailable, using in-process fallback",
			"error", err,
		)
		if s.metrics != nil {
			s.metrics.RecordFallback()
		}
	}
	return s.fallback.Allow(ctx, key, limit, window)
}

func (s *Service) limitFor(scope models.Scope) (int, time.Duration) {
	var l config.Limit
	switch scope {
	case models.ScopeAuth:
		l = s.limits.Auth
	case models.ScopeUpload:
		l = s.limits.Upload
	case models.ScopeExport:
		l = s.limits.Export
	default:
		l = s.limits.Write
	}
	if l.Requests <= 0 {
		l.Requests = 50
	}
	if l.Window <= 0 {
		l.Window = time.Minute
	}
	return l.Requests, l.Window
}
