package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"planets-engine/internal/shared/database"
	sharedredis "planets-engine/internal/shared/redis"
	"planets-engine/internal/shared/response"
)

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Database  string `json:"database"`
	Redis     string `json:"redis"`
}

type HealthHandler struct {
	db  *database.DB
	rdb *sharedredis.Client
}

func NewHealthHandler(db *database.DB, rdb *sharedredis.Client) *HealthHandler {
	return &HealthHandler{db: db, rdb: rdb}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "health")

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "disconnected"
	if err := h.db.PingContext(ctx); err == nil {
		dbStatus = "connected"
	} else {
		logger.Warn("Database ping failed", "error", err)
	}

	redisStatus := "disabled"
	if h.rdb != nil {
		if err := h.rdb.Ping(ctx).Err(); err == nil {
			redisStatus = "connected"
		} else {
			redisStatus = "disconnected"
			logger.Warn("Redis ping failed", "error", err)
		}
	}

	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Database:  dbStatus,
		Redis:     redisStatus,
	}

	response.Success(w, http.StatusOK, resp)
}
