package middleware

import (
	"log/slog"
	"net/http"

	"planets-engine/internal/shared/errors"
	"planets-engine/internal/shared/response"
)

// adminGate admits admin claims and records every admitted action against
// the session it targets.
func adminGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := slog.With(
			"middleware", "admin",
			"method", r.Method,
			"path", r.URL.Path,
		)

		claims := GetUserFromContext(r)
		if claims == nil {
			response.Error(w, r, logger, errors.Unauthorized("authentication required"))
			return
		}

		if !claims.IsAdmin() {
			logger.Warn("Admin action refused",
				"player_id", claims.PlayerID,
				"role", claims.Role)
			response.Error(w, r, logger, errors.Forbidden("admin access required"))
			return
		}

		logger.Info("Admin action",
			"player_id", claims.PlayerID,
			"session_id", r.PathValue("id"))

		next.ServeHTTP(w, r)
	})
}

// RequireAdmin guards debug and operator routes such as forced ticks and
// empire events.
func RequireAdmin(next http.Handler) http.Handler {
	return JWTMiddleware(adminGate(next))
}
