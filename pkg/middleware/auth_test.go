package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/AccountsGo/pkg/errors"
)

func okValidator(claims *Claims) TokenValidator {
	return func(token string) (*Claims, error) {
		return claims, nil
	}
}

func echoHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"user_id":  UserIDFromContext(r.Context()),
			"role":     RoleFromContext(r.Context()),
			"token_id": TokenIDFromContext(r.Context()),
		})
	})
}

func doAuth(t *testing.T, validate TokenValidator, check PrincipalChecker, header string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	Auth(validate, check)(echoHandler()).ServeHTTP(rec, req)
	return rec
}

func TestAuth_MissingHeader(t *testing.T) {
	rec := doAuth(t, okValidator(&Claims{}), nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_BadHeaderFormat(t *testing.T) {
	rec := doAuth(t, okValidator(&Claims{}), nil, "Basic abc123")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_InvalidToken(t *testing.T) {
	validate := func(token string) (*Claims, error) {
		return nil, apperrors.Unauthorized("invalid token")
	}
	rec := doAuth(t, validate, nil, "Bearer bad")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "UNAUTHORIZED", body["code"])
}

func TestAuth_ExpiredToken(t *testing.T) {
	validate := func(token string) (*Claims, error) {
		return nil, apperrors.SessionExpired()
	}
	rec := doAuth(t, validate, nil, "Bearer old")

	// Expired sessions get a 400 with a re-login prompt, not a plain 401.
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "SESSION_EXPIRED", body["code"])
}

func TestAuth_ValidToken(t *testing.T) {
	claims := &Claims{AccountID: "acc-1", Role: "user", TokenID: "jti-1"}
	rec := doAuth(t, okValidator(claims), nil, "Bearer good")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "acc-1", body["user_id"])
	assert.Equal(t, "user", body["role"])
	assert.Equal(t, "jti-1", body["token_id"])
}

func TestAuth_CheckerOverridesRole(t *testing.T) {
	claims := &Claims{AccountID: "acc-1", Role: "admin", TokenID: "jti-1"}
	check := func(ctx context.Context, c *Claims) (string, error) {
		// Live role differs from the (stale) token claim.
		return "user", nil
	}
	rec := doAuth(t, okValidator(claims), check, "Bearer good")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "user", body["role"])
}

func TestAuth_CheckerRejectsInactive(t *testing.T) {
	claims := &Claims{AccountID: "acc-1", Role: "user"}
	check := func(ctx context.Context, c *Claims) (string, error) {
		return "", apperrors.AccountInactive()
	}
	rec := doAuth(t, okValidator(claims), check, "Bearer good")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ACCOUNT_INACTIVE", body["code"])
}

func TestAuth_CheckerRejectsRevoked(t *testing.T) {
	claims := &Claims{AccountID: "acc-1", Role: "user", TokenID: "jti-1"}
	check := func(ctx context.Context, c *Claims) (string, error) {
		return "", apperrors.SessionExpired()
	}
	rec := doAuth(t, okValidator(claims), check, "Bearer revoked")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequireRole(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		role       string
		allowed    []string
		wantStatus int
	}{
		{"allowed role", "admin", []string{"admin", "superAdmin"}, http.StatusOK},
		{"second allowed role", "superAdmin", []string{"admin", "superAdmin"}, http.StatusOK},
		{"denied role", "user", []string{"admin", "superAdmin"}, http.StatusForbidden},
		{"no role in context", "", []string{"admin"}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.role != "" {
				req = req.WithContext(context.WithValue(req.Context(), roleKey, tt.role))
			}
			rec := httptest.NewRecorder()
			RequireRole(tt.allowed...)(handler).ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
