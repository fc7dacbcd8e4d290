package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	platformmetrics "schemematch/internal/platform/metrics"
	"schemematch/internal/scheme/handler"
	"schemematch/internal/scheme/ports"
	"schemematch/pkg/platform/httputil"
	"schemematch/pkg/platform/middleware/admin"
	"schemematch/pkg/platform/middleware/auth"
	"schemematch/pkg/platform/middleware/metadata"
	"schemematch/pkg/platform/middleware/requesttime"
)

type routerDeps struct {
	handler     *handler.Handler
	httpMetrics *platformmetrics.Metrics
	audit       ports.AuditPublisher
	logger      *slog.Logger
	jwtKey      string
	jwtIssuer   string
	ready       func() bool
}

// newRouter mounts public scheme routes, operator routes behind a bearer
// token, and the probe and metrics endpoints.
func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(metadata.RequestMetadata)
	r.Use(requesttime.Middleware)
	r.Use(d.httpMetrics.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if !d.ready() {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "catalog not loaded"})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	d.handler.Register(r)

	if d.jwtKey == "" {
		d.logger.Warn("no JWT signing key configured; admin routes disabled")
		return r
	}
	signer := auth.NewSigner(d.jwtKey, d.jwtIssuer)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(signer, d.logger))
		r.Use(admin.RequireRole(auth.RoleAdmin, d.audit, d.logger))
		d.handler.RegisterAdmin(r)
	})
	return r
}
