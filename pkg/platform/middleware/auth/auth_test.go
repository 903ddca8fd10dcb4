package auth_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrcore/pkg/platform/middleware/auth"
	"hrcore/pkg/requestcontext"
)

var signingKey = []byte("test-signing-key")

func signToken(t *testing.T, sub string, tenantID int64, key []byte) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": sub,
		"tid": tenantID,
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func protected(t *testing.T) (http.Handler, *int64, *int64) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	validator := auth.NewJWTValidator(signingKey)

	var gotActor, gotTenant int64
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotActor = requestcontext.ActorID(r.Context())
		gotTenant = requestcontext.TenantID(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	return auth.RequireAuth(validator, logger)(inner), &gotActor, &gotTenant
}

func TestRequireAuthAcceptsValidToken(t *testing.T) {
	h, actor, tenant := protected(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "9", 3, signingKey))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(9), *actor)
	assert.Equal(t, int64(3), *tenant)
}

func TestRequireAuthRejects(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not.a.token"},
		{"wrong key", "Bearer "},
	}

	h, _, _ := protected(t)
	wrongKey := signTokenWrongKey(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := tt.header
			if tt.name == "wrong key" {
				header = "Bearer " + wrongKey
			}
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestValidateTokenRejectsMissingClaims(t *testing.T) {
	validator := auth.NewJWTValidator(signingKey)

	noTenant, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "9",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(signingKey)
	require.NoError(t, err)
	_, err = validator.ValidateToken(noTenant)
	assert.Error(t, err)

	badSubject := signTokenWith(t, jwt.MapClaims{
		"sub": "alice",
		"tid": int64(3),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	_, err = validator.ValidateToken(badSubject)
	assert.Error(t, err)
}

func signTokenWith(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	require.NoError(t, err)
	return token
}

func signTokenWrongKey(t *testing.T) string {
	t.Helper()
	return signToken(t, "9", 3, []byte("some-other-key"))
}
