package server

import (
	"log/slog"
	"net/http"

	"planets-engine/internal/auth"
	authHandlers "planets-engine/internal/auth/handlers"
	"planets-engine/internal/game"
	gameHandlers "planets-engine/internal/game/handlers"
	"planets-engine/internal/middleware"
	"planets-engine/internal/player"
	playerHandler "planets-engine/internal/player/handlers"
	serverHandlers "planets-engine/internal/server/handlers"
	"planets-engine/internal/shared/database"
	sharedredis "planets-engine/internal/shared/redis"
)

type Routes struct {
	db            *database.DB
	rdb           *sharedredis.Client
	playerService *player.Service
	authService   *auth.Service
	gameService   *game.Service
	oauthConfig   *auth.OAuthConfig
	states        *auth.StateManager
	limiter       *middleware.RateLimiter
	logger        *slog.Logger
}

type Deps struct {
	DB            *database.DB
	Redis         *sharedredis.Client
	PlayerService *player.Service
	AuthService   *auth.Service
	GameService   *game.Service
	OAuthConfig   *auth.OAuthConfig
	States        *auth.StateManager
	Limiter       *middleware.RateLimiter
	Logger        *slog.Logger
}

func NewRoutes(d Deps) *Routes {
	return &Routes{
		db:            d.DB,
		rdb:           d.Redis,
		playerService: d.PlayerService,
		authService:   d.AuthService,
		gameService:   d.GameService,
		oauthConfig:   d.OAuthConfig,
		states:        d.States,
		limiter:       d.Limiter,
		logger:        d.Logger,
	}
}

func (r *Routes) Setup() *http.ServeMux {
	logger := slog.With("component", "routes", "operation", "setup")
	logger.Debug("Setting up application routes")

	mux := http.NewServeMux()

	healthHandler := serverHandlers.NewHealthHandler(r.db, r.rdb)
	gameStatusHandler := gameHandlers.NewGameStatusHandler(r.gameService, r.playerService)
	playersHandler := playerHandler.NewPlayersHandler(r.playerService)
	meHandler := playerHandler.NewMeHandler(r.playerService, r.authService, r.gameService)
	logoutHandler := authHandlers.NewLogoutHandler()

	sessions := gameHandlers.NewSessionsHandler(r.gameService)
	commands := gameHandlers.NewCommandsHandler(r.gameService)
	queries := gameHandlers.NewQueriesHandler(r.gameService)
	admin := gameHandlers.NewAdminHandler(r.gameService)
	access := middleware.NewSessionAccessMiddleware(r.gameService)

	owned := func(h http.HandlerFunc) http.Handler { return access.Require(h) }
	adminOnly := func(h http.HandlerFunc) http.Handler { return middleware.RequireAdmin(h) }

	// Public endpoints
	mux.Handle("GET /api/server/health", healthHandler)
	mux.Handle("GET /api/game/status", gameStatusHandler)
	mux.Handle("GET /api/players", playersHandler)

	// Protected endpoints (authenticated users)
	mux.Handle("GET /api/players/me", middleware.JWTMiddleware(meHandler))
	mux.Handle("POST /api/sessions", middleware.JWTMiddleware(http.HandlerFunc(sessions.Create)))
	mux.Handle("GET /api/sessions", middleware.JWTMiddleware(http.HandlerFunc(sessions.List)))

	// Session endpoints (owner or admin)
	mux.Handle("GET /api/sessions/{id}", owned(sessions.Get))
	mux.Handle("DELETE /api/sessions/{id}", owned(sessions.Delete))
	mux.Handle("GET /api/sessions/{id}/summary", owned(sessions.Summary))
	mux.Handle("GET /api/sessions/{id}/snapshot", owned(sessions.Snapshot))
	mux.Handle("POST /api/sessions/{id}/clock", owned(sessions.Clock))
	mux.Handle("POST /api/sessions/{id}/commands/{command}", access.Require(r.limiter.Middleware(commands)))
	mux.Handle("GET /api/sessions/{id}/research/{branch}/offers", owned(queries.ResearchOffers))
	mux.Handle("GET /api/sessions/{id}/research/{branch}/available", owned(queries.AvailableTechs))
	mux.Handle("GET /api/sessions/{id}/traditions", owned(queries.TraditionChoices))
	mux.Handle("GET /api/sessions/{id}/designs", owned(queries.Designs))

	// Admin-only endpoints (authenticated + admin role)
	mux.Handle("POST /api/admin/sessions/{id}/events", adminOnly(admin.EmpireEvent))
	mux.Handle("POST /api/admin/sessions/{id}/advance", adminOnly(admin.Advance))
	mux.Handle("POST /api/admin/sessions/{id}/unload", adminOnly(admin.Unload))

	// OAuth endpoints
	authEndpoints := []string{"/auth/logout"}
	for _, entry := range r.oauthConfig.Providers {
		name := entry.Provider.Name()
		h := authHandlers.NewOAuthHandler(entry.Provider, r.playerService, r.authService, r.states, entry.Configured)
		mux.HandleFunc("GET /auth/"+name, h.HandleAuth)
		mux.HandleFunc("GET /auth/"+name+"/callback", h.HandleCallback)
		authEndpoints = append(authEndpoints, "/auth/"+name)
	}
	mux.Handle("POST /auth/logout", logoutHandler)

	logger.Info("Routes configured successfully",
		"public_endpoints", []string{"/api/server/health", "/api/game/status", "/api/players"},
		"protected_endpoints", []string{"/api/players/me", "/api/sessions", "/api/sessions/{id}/..."},
		"admin_endpoints", []string{"/api/admin/sessions/{id}/..."},
		"auth_endpoints", authEndpoints,
	)

	return mux
}
