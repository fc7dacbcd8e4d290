package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"schemematch/internal/platform/config"
	"schemematch/internal/platform/httpserver"
	"schemematch/internal/platform/logger"
	platformmetrics "schemematch/internal/platform/metrics"
	"schemematch/internal/scheme/catalog"
	"schemematch/internal/scheme/handler"
	"schemematch/internal/scheme/matcher"
	"schemematch/internal/scheme/metrics"
	"schemematch/internal/scheme/refresh"
	"schemematch/internal/scheme/service"
	"schemematch/pkg/platform/audit/publishers/ops"
)

// main wires dependencies, serves HTTP and keeps the lifecycle small.
// Matching logic lives in internal/scheme.
func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	infra, err := buildInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer infra.Close()

	schemeMetrics := metrics.New()
	opsAudit := ops.New(infra.audit,
		ops.WithSampler(ops.NewSampler(cfg.Audit.OpsSampleRate)),
		ops.WithMetrics(ops.NewMetrics()),
		ops.WithLogger(log),
	)
	cat := catalog.New()
	svc := service.New(cat, matcher.New(matcher.Config{
		OptionalWeight:  cfg.Matcher.OptionalWeight,
		DeadlineWeight:  cfg.Matcher.DeadlineWeight,
		FarDeadlineDays: cfg.Matcher.FarDeadlineDays,
	}),
		service.WithLogger(log),
		service.WithAuditPublisher(opsAudit),
		service.WithMetrics(schemeMetrics),
	)

	refreshOpts := []refresh.Option{
		refresh.WithSchedule(cfg.Catalog.RefreshSchedule),
		refresh.WithLoadTimeout(cfg.Catalog.LoadTimeout),
		refresh.WithLogger(log),
		refresh.WithAuditPublisher(infra.audit),
		refresh.WithMetrics(schemeMetrics),
	}
	if infra.cache != nil {
		refreshOpts = append(refreshOpts, refresh.WithCache(infra.cache))
	}
	refresher := refresh.New(cat, infra.source, refreshOpts...)
	if err := refresher.Start(ctx); err != nil {
		return err
	}
	defer refresher.Stop(context.Background())

	router := newRouter(routerDeps{
		handler:     handler.New(svc, refresher, log),
		httpMetrics: platformmetrics.New(),
		audit:       infra.audit,
		logger:      log,
		jwtKey:      cfg.Server.JWTSigningKey,
		jwtIssuer:   cfg.Server.JWTIssuer,
		ready:       func() bool { return svc.CatalogVersion() > 0 },
	})
	srv := httpserver.New(cfg.Server.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.InfoContext(ctx, "starting schemematch", "addr", cfg.Server.Addr, "catalog_source", cfg.Catalog.Source)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
