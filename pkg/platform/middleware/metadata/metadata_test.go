package metadata

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemematch/pkg/requestcontext"
)

func TestRequestMetadata(t *testing.T) {
	var gotID, gotIP string
	h := RequestMetadata(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		gotID = requestcontext.RequestID(r.Context())
		gotIP = GetClientIP(r.Context())
	}))

	t.Run("keeps caller request id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderRequestID, "abc-123")
		req.RemoteAddr = "10.0.0.7:5123"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		assert.Equal(t, "abc-123", gotID)
		assert.Equal(t, "abc-123", rr.Header().Get(HeaderRequestID))
		assert.Equal(t, "10.0.0.7", gotIP)
	})

	t.Run("replaces unusable request id", func(t *testing.T) {
		for _, bad := range []string{"", "has space", strings.Repeat("x", maxRequestIDLen+1)} {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(HeaderRequestID, bad)
			h.ServeHTTP(httptest.NewRecorder(), req)

			_, err := uuid.Parse(gotID)
			require.NoError(t, err, "input %q", bad)
		}
	})
}

func TestClientIPFromRequest(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{name: "forwarded chain", header: map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}, remote: "10.0.0.1:80", want: "203.0.113.9"},
		{name: "real ip", header: map[string]string{"X-Real-IP": " 198.51.100.4 "}, remote: "10.0.0.1:80", want: "198.51.100.4"},
		{name: "ipv6 remote", remote: "[::1]:8080", want: "::1"},
		{name: "remote without port", remote: "192.0.2.1", want: "192.0.2.1"},
		{name: "nothing", remote: "", want: "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIPFromRequest(req))
		})
	}
}
