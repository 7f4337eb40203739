// Package middleware provides HTTP middleware components for the API server.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mewshq/mews/internal/auth"
	"github.com/mewshq/mews/internal/identity"
	"github.com/mewshq/mews/internal/scope"
)

// callerKey is the context key for the resolved scope.Caller.
type callerKey struct{}

// AdminLookup loads an admin record by id. Used by the auth middleware to
// reject tokens of deactivated admins; the token alone is not trusted for
// liveness.
type AdminLookup interface {
	GetByID(ctx context.Context, id string) (*identity.Admin, error)
}

// GetCaller retrieves the authenticated caller from context. The boolean is
// false on unauthenticated requests.
func GetCaller(ctx context.Context) (scope.Caller, bool) {
	caller, ok := ctx.Value(callerKey{}).(scope.Caller)
	return caller, ok
}

// SetCaller stores a caller in the context. Exported for handler tests.
func SetCaller(ctx context.Context, caller scope.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// Auth validates the bearer token and places the resulting scope.Caller on
// the request context. Requests without a valid access token are rejected
// with 401. When admins is non-nil, the admin record is re-read so that
// deactivation takes effect before token expiry; role and location still
// come from the stored record, not the token, so demotions are never
// outrun by a stale claim.
func Auth(jwtService *auth.JWTService, admins AdminLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				unauthorized(w, "missing bearer token")
				return
			}

			claims, err := jwtService.ValidateToken(token)
			if err != nil || claims.Type != auth.TokenTypeAccess {
				unauthorized(w, "invalid or expired token")
				return
			}

			caller := scope.Caller{
				AdminID: claims.Subject,
				Role:    identity.Role(claims.Role),
			}
			if claims.AssignedLocationID != "" {
				loc := claims.AssignedLocationID
				caller.AssignedLocationID = &loc
			}

			if admins != nil {
				admin, err := admins.GetByID(r.Context(), claims.Subject)
				if err != nil || !admin.IsActive {
					unauthorized(w, "account is not active")
					return
				}
				caller.Role = admin.Role
				caller.AssignedLocationID = admin.AssignedLocationID
			}

			if !caller.Role.Valid() {
				unauthorized(w, "unknown role")
				return
			}

			ctx := SetCaller(r.Context(), caller)
			ctx = SetCallerID(ctx, caller.AdminID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":{"code":"UNAUTHORIZED","message":"` + message + `"}}`))
}
