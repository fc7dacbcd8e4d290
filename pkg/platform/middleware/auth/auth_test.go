package auth

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "schemematch/pkg/domain-errors"
	"schemematch/pkg/requestcontext"
)

const testKey = "0123456789abcdef0123456789abcdef"

func TestSigner(t *testing.T) {
	signer := NewSigner(testKey, "schemematch")

	t.Run("round trip", func(t *testing.T) {
		token, err := signer.IssueToken("ops@example.org", RoleAdmin, time.Minute)
		require.NoError(t, err)

		claims, err := signer.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, "ops@example.org", claims.Subject)
		assert.Equal(t, RoleAdmin, claims.Role)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := signer.IssueToken("ops", RoleAdmin, -time.Minute)
		require.NoError(t, err)

		_, err = signer.ValidateToken(token)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
		assert.Contains(t, err.Error(), "expired")
	})

	t.Run("other key", func(t *testing.T) {
		token, err := NewSigner("another-key-another-key-another!", "schemematch").IssueToken("ops", RoleAdmin, time.Minute)
		require.NoError(t, err)

		_, err = signer.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("other issuer", func(t *testing.T) {
		token, err := NewSigner(testKey, "elsewhere").IssueToken("ops", RoleAdmin, time.Minute)
		require.NoError(t, err)

		_, err = signer.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("no expiry", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
			Role:             RoleAdmin,
			RegisteredClaims: jwt.RegisteredClaims{Subject: "ops", Issuer: "schemematch"},
		}).SignedString([]byte(testKey))
		require.NoError(t, err)

		_, err = signer.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("wrong algorithm", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
			Role: RoleAdmin,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "ops",
				Issuer:    "schemematch",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			},
		}).SignedString([]byte(testKey))
		require.NoError(t, err)

		_, err = signer.ValidateToken(token)
		assert.Error(t, err)
	})
}

func TestRequireAuth(t *testing.T) {
	signer := NewSigner(testKey, "")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var actor, role string
	h := RequireAuth(signer, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor = requestcontext.Actor(r.Context())
		role = GetRole(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("valid token", func(t *testing.T) {
		token, err := signer.IssueToken("ops", RoleAdmin, time.Minute)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/admin/catalog/refresh", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, "ops", actor)
		assert.Equal(t, RoleAdmin, role)
	})

	for name, header := range map[string]string{
		"missing header": "",
		"basic scheme":   "Basic b3BzOnNlY3JldA==",
		"garbage token":  "Bearer not-a-jwt",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/admin/catalog/refresh", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, "unauthorized", body["error"])
			assert.NotEmpty(t, body["error_description"])
		})
	}
}
