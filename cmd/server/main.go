package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"planets-engine/internal/auth"
	"planets-engine/internal/game"
	"planets-engine/internal/middleware"
	"planets-engine/internal/player"
	"planets-engine/internal/server"
	"planets-engine/internal/shared/config"
	"planets-engine/internal/shared/database"
	"planets-engine/internal/shared/logger"
	sharedredis "planets-engine/internal/shared/redis"
	"planets-engine/internal/sim/catalog"
	"planets-engine/internal/sim/session"
)

func main() {
	if err := config.Init(); err != nil {
		slog.Error("Failed to initialize configuration", "error", err)
		os.Exit(1)
	}
	logger.Init()

	if err := run(); err != nil {
		slog.Error("Server exited", "component", "main", "error", err)
		os.Exit(1)
	}
}

// run owns every resource the server opens so their deferred cleanup runs
// before main decides the exit code.
func run() error {
	cfg := config.GlobalConfig
	log := slog.With("component", "main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	if err := db.RunMigrations(ctx, database.MigrationSource(cfg.Database.MigrationsPath)); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	rdb, err := sharedredis.Connect(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	cat, err := loadCatalog(cfg.Simulation.CatalogPath)
	if err != nil {
		return fmt.Errorf("load game catalog %q: %w", cfg.Simulation.CatalogPath, err)
	}
	log.Info("Game catalog loaded", "digest", cat.Digest(), "ticks_per_second", cat.TicksPerSecond)

	playerService := player.NewService(player.NewRepository(db), slog.With("component", "player_service"))
	authService := auth.NewService(auth.NewRepository(db), slog.With("component", "auth_service"))
	gameService := game.NewService(
		game.NewRepository(db, slog.With("component", "game_repository")),
		session.NewEngine(cat, nil),
		game.NewSummaryCache(rdb, cfg.Simulation.SummaryTTL, slog.Default()),
		cfg.Simulation,
		slog.With("component", "game_service"),
	)

	states := auth.NewStateManager(rdb)
	go states.RunCleanup(ctx)

	driverDone := make(chan struct{})
	go func() {
		defer close(driverDone)
		game.NewDriver(gameService, cfg.Simulation.DriverInterval, slog.Default()).Run(ctx)
	}()

	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		BurstSize:         cfg.RateLimit.BurstSize,
		Enabled:           cfg.RateLimit.Enabled,
		TrustProxy:        cfg.Server.Production(),
	})
	go limiter.RunCleanup(ctx)

	routes := server.NewRoutes(server.Deps{
		DB:            db,
		Redis:         rdb,
		PlayerService: playerService,
		AuthService:   authService,
		GameService:   gameService,
		OAuthConfig:   auth.NewOAuthConfig(cfg.OAuth),
		States:        states,
		Limiter:       limiter,
		Logger:        slog.Default(),
	})
	handler := middleware.NewCORS(cfg.Frontend).Middleware(routes.Setup())

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("Planets! server starting", "port", cfg.Server.Port, "environment", cfg.Server.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", "error", err)
	}
	<-driverDone
	log.Info("Server stopped")
	return nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.Load(path)
}
