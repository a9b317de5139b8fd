package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"facepos/pkg/domain"
)

// TokenValidator validates a session token minted at credential login.
type TokenValidator interface {
	ValidateToken(tokenString string) (*SessionClaims, error)
}

// SessionClaims represents the claims we expect from the token validator.
type SessionClaims struct {
	AccountID string
	Role      domain.Role
}

// Context keys for authenticated session information.
type contextKeyAccountID struct{}
type contextKeyRole struct{}

var (
	ContextKeyAccountID = contextKeyAccountID{}
	ContextKeyRole      = contextKeyRole{}
)

// GetAccountID retrieves the authenticated account ID from the context. Bank
// operator sessions carry an empty account ID.
func GetAccountID(ctx context.Context) string {
	accountID, ok := ctx.Value(ContextKeyAccountID).(string)
	if !ok {
		return ""
	}
	return accountID
}

// GetRole retrieves the authenticated role from the context.
func GetRole(ctx context.Context) domain.Role {
	role, ok := ctx.Value(ContextKeyRole).(domain.Role)
	if !ok {
		return ""
	}
	return role
}

// RequireRole validates the bearer token and rejects sessions whose role does
// not match. Biometric resolution is not a substitute for this check: bank and
// business operations are gated on credential-backed sessions.
func RequireRole(validator TokenValidator, role domain.Role, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				writeUnauthorized(w, "missing bearer token")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(r.Context(), "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(r.Context()),
				)
				writeUnauthorized(w, "invalid or expired token")
				return
			}
			if claims.Role != role {
				logger.WarnContext(r.Context(), "forbidden - role mismatch",
					"have", claims.Role.String(),
					"want", role.String(),
					"request_id", GetRequestID(r.Context()),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden"}`))
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, ContextKeyAccountID, claims.AccountID)
			ctx = context.WithValue(ctx, ContextKeyRole, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
