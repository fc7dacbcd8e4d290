package testutil

import (
	"context"
	"net/http"
	"time"

	"schemematch/pkg/platform/middleware/auth"
	"schemematch/pkg/requestcontext"
)

// WithOperator adds actor and role, simulating what RequireAuth does for a
// valid bearer token.
func WithOperator(req *http.Request, actor, role string) *http.Request {
	ctx := requestcontext.WithActor(req.Context(), actor)
	ctx = auth.WithRole(ctx, role)
	return req.WithContext(ctx)
}

// WithRequestTime pins the request's evaluation clock.
func WithRequestTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
