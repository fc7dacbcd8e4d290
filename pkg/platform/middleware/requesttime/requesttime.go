// Package requesttime pins one "now" per HTTP request, so every deadline
// comparison inside a request uses the same instant.
package requesttime

import (
	"net/http"
	"time"

	"schemematch/pkg/requestcontext"
)

// Middleware stores the request start time. Handlers read it through
// requestcontext.Now.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
