// Package admin guards operator-only routes.
package admin

import (
	"context"
	"log/slog"
	"net/http"

	dErrors "schemematch/pkg/domain-errors"
	"schemematch/pkg/platform/audit"
	"schemematch/pkg/platform/httputil"
	"schemematch/pkg/platform/middleware/auth"
	"schemematch/pkg/requestcontext"
)

type auditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// RequireRole lets through requests whose authenticated role equals role.
// It must run after auth.RequireAuth. Denials are audited; publisher may be nil.
func RequireRole(role string, publisher auditPublisher, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			got := auth.GetRole(ctx)
			if got == role {
				next.ServeHTTP(w, r)
				return
			}

			logger.WarnContext(ctx, "admin access denied",
				"actor", requestcontext.Actor(ctx),
				"role", got,
				"path", r.URL.Path,
				"request_id", requestcontext.RequestID(ctx),
			)
			if publisher != nil {
				err := publisher.Emit(ctx, audit.Event{
					Subject:   r.URL.Path,
					Action:    string(audit.EventAdminAccessDenied),
					Decision:  "denied",
					Reason:    "role " + role + " required",
					RequestID: requestcontext.RequestID(ctx),
					ActorID:   requestcontext.Actor(ctx),
				})
				if err != nil {
					logger.WarnContext(ctx, "failed to emit audit event", "error", err)
				}
			}
			httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, role+" role required"))
		})
	}
}
