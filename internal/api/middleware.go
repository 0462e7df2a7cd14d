package api

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/erazemk/trznica/internal/auth"
	"github.com/erazemk/trznica/internal/demand"
	"github.com/erazemk/trznica/internal/model"
	"github.com/erazemk/trznica/internal/store"
)

type contextKey string

const claimsKey contextKey = "claims"

// authenticate validates the bearer token of r. ok is false when the header
// is missing; a present but unusable token yields an error message.
func authenticate(r *http.Request, secret string, db *sql.DB) (claims *auth.Claims, ok bool, msg string) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, false, ""
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, true, "missing or invalid authorization header"
	}

	claims, err := auth.ValidateToken(secret, strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return nil, true, "invalid token"
	}

	revoked, err := store.IsTokenRevoked(r.Context(), db, claims.ID)
	if err != nil {
		slog.Error("checking token revocation", "error", err)
		return nil, true, "internal error"
	}
	if revoked {
		return nil, true, "token has been revoked"
	}
	return claims, true, ""
}

// AuthMiddleware validates the JWT from the Authorization header and adds
// claims to the context.
func AuthMiddleware(secret string, db *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, present, msg := authenticate(r, secret, db)
			if !present {
				jsonError(w, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}
			if claims == nil {
				jsonError(w, http.StatusUnauthorized, msg)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth is AuthMiddleware for routes that also serve anonymous
// callers. Requests without a token pass through unauthenticated.
func OptionalAuth(secret string, db *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, present, msg := authenticate(r, secret, db)
			if !present {
				next.ServeHTTP(w, r)
				return
			}
			if claims == nil {
				jsonError(w, http.StatusUnauthorized, msg)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole returns middleware that checks the caller has one of roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaims(r.Context())
			if claims == nil {
				jsonError(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			if !model.RoleIn(claims.Role, roles...) {
				jsonError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetClaims retrieves the JWT claims from the context.
func GetClaims(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

// callerFrom returns the demand caller for r, anonymous without claims.
func callerFrom(r *http.Request) demand.Caller {
	claims := GetClaims(r.Context())
	if claims == nil {
		return demand.Anonymous
	}
	return demand.Caller{ID: claims.UserID, Name: claims.Name, Role: claims.Role}
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs HTTP requests with method, path, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Info("request",
			"method", r.Method,
			"uri", r.URL.RequestURI(),
			"status", rec.status,
			"duration", time.Since(start).Round(time.Millisecond),
		)
	})
}
