package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	apperrors "github.com/utafrali/AccountsGo/pkg/errors"
)

type contextKeyType string

const (
	userIDKey  contextKeyType = "user_id"
	roleKey    contextKeyType = "role"
	tokenIDKey contextKeyType = "token_id"
)

// Claims represents the session claims extracted by the auth middleware.
type Claims struct {
	AccountID string
	Role      string
	TokenID   string
}

// TokenValidator validates a bearer token and returns its claims. Errors are
// classified via the pkg/errors sentinels: wrap apperrors.ErrSessionExpired for
// a token whose validity window has passed, anything else is treated as an
// invalid token.
type TokenValidator func(token string) (*Claims, error)

// PrincipalChecker is consulted after token validation. It reloads the account
// behind the claims and returns its live role, so that deactivation, deletion
// and role changes take effect on the next request rather than at token
// expiry. Implementations signal rejection with pkg/errors values
// (ErrAccountInactive, ErrUnauthorized, ErrSessionExpired for revoked tokens).
type PrincipalChecker func(ctx context.Context, claims *Claims) (role string, err error)

// Auth middleware validates bearer tokens and injects the live principal into
// context. A nil check skips the reload and trusts the token's role claim.
func Auth(validate TokenValidator, check PrincipalChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeAuthError(w, apperrors.Unauthorized("missing authorization header"))
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				writeAuthError(w, apperrors.Unauthorized("invalid authorization header format"))
				return
			}

			claims, err := validate(parts[1])
			if err != nil {
				if errors.Is(err, apperrors.ErrSessionExpired) {
					writeAuthError(w, apperrors.SessionExpired())
					return
				}
				writeAuthError(w, apperrors.Unauthorized("invalid token"))
				return
			}

			role := claims.Role
			if check != nil {
				role, err = check(r.Context(), claims)
				if err != nil {
					writeAuthError(w, err)
					return
				}
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.AccountID)
			ctx = context.WithValue(ctx, roleKey, role)
			ctx = context.WithValue(ctx, tokenIDKey, claims.TokenID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole middleware checks that the authenticated account has one of the
// required roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	roleSet := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		roleSet[r] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			if _, ok := roleSet[role]; !ok {
				writeAuthError(w, apperrors.Forbidden("insufficient permissions"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserIDFromContext extracts the authenticated account ID from the request context.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

// RoleFromContext extracts the account role from the request context.
func RoleFromContext(ctx context.Context) string {
	if role, ok := ctx.Value(roleKey).(string); ok {
		return role
	}
	return ""
}

// TokenIDFromContext extracts the session token ID (jti) from the request
// context. Used by sign-out to revoke the presented token.
func TokenIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(tokenIDKey).(string); ok {
		return id
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)
	code := "UNAUTHORIZED"
	message := "unauthorized"

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		code = appErr.Code
		message = appErr.Message
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    code,
		"message": message,
	})
}
