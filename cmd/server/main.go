// main wires the export pipeline: config, logging, stores, the rate limiter,
// the audit worker and the HTTP surface. Business logic lives in the internal
// services; this file only assembles and supervises them.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fieldbook/internal/audit"
	auditmetrics "fieldbook/internal/audit/metrics"
	auditpostgres "fieldbook/internal/audit/store/postgres"
	"fieldbook/internal/auth/capability"
	"fieldbook/internal/auth/session"
	"fieldbook/internal/export/adapters"
	exporthandler "fieldbook/internal/export/handler"
	exportmetrics "fieldbook/internal/export/metrics"
	"fieldbook/internal/export/policy"
	exportsvc "fieldbook/internal/export/service"
	"fieldbook/internal/platform/config"
	"fieldbook/internal/platform/httpserver"
	"fieldbook/internal/platform/logger"
	"fieldbook/internal/platform/postgres"
	platformredis "fieldbook/internal/platform/redis"
	rlmetrics "fieldbook/internal/ratelimit/metrics"
	rlservice "fieldbook/internal/ratelimit/service"
	"fieldbook/internal/ratelimit/store/counter"
	httptransport "fieldbook/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := platformredis.New(cfg.Redis())
	if err != nil {
		log.Error("redis unavailable, continuing with in-process rate limiting", "error", err)
	}

	if cfg.DatabaseURL == "" {
		log.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	pool, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	rlOpts := []rlservice.Option{
		rlservice.WithLogger(log),
		rlservice.WithMetrics(rlmetrics.New()),
	}
	if redisClient != nil {
		rlOpts = append(rlOpts, rlservice.WithPrimaryStore(counter.NewRedisCounterStore(redisClient)))
	}
	limiter, err := rlservice.New(counter.NewInMemoryCounterStore(), cfg.RateLimits, rlOpts...)
	if err != nil {
		log.Error("rate limiter init failed", "error", err)
		os.Exit(1)
	}

	registry, err := adapters.NewRegistry(
		adapters.NewServicesAdapter(pool),
		adapters.NewInvoicesAdapter(pool),
		adapters.NewCustomersAdapter(pool),
		adapters.NewVehiclesAdapter(pool),
		adapters.NewPropertiesAdapter(pool),
		adapters.NewInquiriesAdapter(pool),
		adapters.NewEmergenciesAdapter(pool),
		adapters.NewPaymentsAdapter(pool),
		adapters.NewStaffAdapter(pool),
		adapters.NewMessagesAdapter(pool),
	)
	if err != nil {
		log.Error("adapter registry init failed", "error", err)
		os.Exit(1)
	}

	exports, err := exportsvc.New(registry, cfg.Export.BufferedCap, cfg.Export.StreamPageSize,
		exportsvc.WithLogger(log),
		exportsvc.WithMetrics(exportmetrics.New()),
	)
	if err != nil {
		log.Error("export service init failed", "error", err)
		os.Exit(1)
	}

	recorder := audit.NewRecorder(auditpostgres.New(pool),
		audit.WithLogger(log),
		audit.WithMetrics(auditmetrics.New()),
	)
	auditDone := make(chan struct{})
	go func() {
		defer close(auditDone)
		_ = recorder.Run(ctx)
	}()

	handler := exporthandler.New(
		session.New(cfg.JWTSigningKey),
		capability.NewVerifier(cfg.ExportTokenSecret),
		limiter,
		policy.New(),
		exports,
		recorder,
		exporthandler.WithLogger(log),
	)

	checks := map[string]httptransport.HealthChecker{
		"postgres": httptransport.HealthFunc(pool.Ping),
	}
	if redisClient != nil {
		checks["redis"] = redisClient
	}

	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler, checks))

	go func() {
		log.Info("starting fieldbook export server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}

	// The audit worker stops with the root context; wait for it to drain.
	<-auditDone

	if redisClient != nil {
		_ = redisClient.Close()
	}
}
