package middleware

import (
	"log/slog"
	"net/http"

	"planets-engine/internal/shared/config"

	"github.com/rs/cors"
)

var (
	corsMethods = []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}
	// Snapshot downloads and throttled commands carry headers the browser
	// hides unless exposed.
	corsExposed = []string{"Content-Disposition", "Retry-After"}
)

type CORSMiddleware struct {
	*cors.Cors
}

// NewCORS admits the configured frontend origin with credentials.
func NewCORS(frontend config.FrontendConfig) *CORSMiddleware {
	logger := slog.With("component", "cors", "operation", "setup")

	c := cors.New(corsOptions(frontend))
	logger.Info("CORS middleware configured",
		"allowed_origin", frontend.URL,
		"allowed_methods", corsMethods,
		"exposed_headers", corsExposed,
		"debug_mode", frontend.CORSDebug,
	)

	return &CORSMiddleware{c}
}

func corsOptions(frontend config.FrontendConfig) cors.Options {
	return cors.Options{
		AllowedOrigins:   []string{frontend.URL},
		AllowedMethods:   corsMethods,
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   corsExposed,
		AllowCredentials: true,
		MaxAge:           600,
		Debug:            frontend.CORSDebug,
	}
}

func (c *CORSMiddleware) Middleware(h http.Handler) http.Handler {
	return c.Cors.Handler(h)
}
