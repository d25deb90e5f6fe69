package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"planets-engine/internal/auth"
	"planets-engine/internal/shared/cookies"
	"planets-engine/internal/shared/errors"
	"planets-engine/internal/shared/response"
)

type contextKey string

const UserContextKey contextKey = "user"

func JWTMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := slog.With(
			"middleware", "jwt",
			"method", r.Method,
			"path", r.URL.Path,
		)

		token := tokenFromRequest(r)
		if token == "" {
			response.Error(w, r, logger, errors.Unauthorized("authentication required"))
			return
		}

		claims, err := auth.ValidateJWT(token)
		if err != nil {
			response.Error(w, r, logger, errors.Unauthorized("invalid token"))
			return
		}

		logger.Debug("JWT authentication successful", "player_id", claims.PlayerID)
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), claims)))
	})
}

// tokenFromRequest reads the auth cookie, falling back to a bearer header
// for non-browser clients.
func tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(cookies.AuthCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// GetUserFromContext returns nil on routes outside JWTMiddleware.
func GetUserFromContext(r *http.Request) *auth.Claims {
	if claims, ok := r.Context().Value(UserContextKey).(*auth.Claims); ok {
		return claims
	}
	return nil
}

// WithUser returns a copy of ctx carrying claims.
func WithUser(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, UserContextKey, claims)
}
