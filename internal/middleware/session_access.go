package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"planets-engine/internal/shared/errors"
	"planets-engine/internal/shared/response"
)

// OwnerLookup resolves which player owns a session.
type OwnerLookup interface {
	SessionOwner(ctx context.Context, sessionID string) (int, error)
}

// SessionAccessMiddleware admits the session owner and admins to routes
// carrying a {id} session path value.
type SessionAccessMiddleware struct {
	owners OwnerLookup
}

func NewSessionAccessMiddleware(owners OwnerLookup) *SessionAccessMiddleware {
	return &SessionAccessMiddleware{owners: owners}
}

func (m *SessionAccessMiddleware) Require(next http.Handler) http.Handler {
	return JWTMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := slog.With(
			"middleware", "session_access",
			"method", r.Method,
			"path", r.URL.Path,
		)

		claims := GetUserFromContext(r)
		if claims == nil {
			response.Error(w, r, logger, errors.Unauthorized("authentication required"))
			return
		}

		sessionID := r.PathValue("id")
		if sessionID == "" {
			response.Error(w, r, logger, errors.Validation("session ID is required"))
			return
		}

		ownerID, err := m.owners.SessionOwner(r.Context(), sessionID)
		if err != nil {
			response.Error(w, r, logger, err)
			return
		}

		if ownerID != claims.PlayerID && !claims.IsAdmin() {
			response.Error(w, r, logger, errors.Forbidden("session belongs to another player"))
			return
		}

		next.ServeHTTP(w, r)
	}))
}
