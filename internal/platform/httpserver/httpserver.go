// Package httpserver builds the HTTP server with this project's timeouts.
package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server. Profiles are small, so read and write
// deadlines stay tight.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      45 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
