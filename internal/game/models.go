package game

import (
	"time"

	"planets-engine/internal/sim/galaxy"
)

// GameSession is the stored metadata of one simulation session. The state
// itself travels as a compressed snapshot next to it.
type GameSession struct {
	ID            string    `json:"id"`
	OwnerID       int       `json:"owner_id"`
	Label         string    `json:"label"`
	Seed          string    `json:"seed"`
	CatalogDigest string    `json:"catalog_digest"`
	Tick          int64     `json:"tick"`
	IsRunning     bool      `json:"is_running"`
	Digest        string    `json:"digest"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CreateSessionRequest is the body accepted when a player starts a session.
// Zero values fall back to the catalog's galaxy defaults.
type CreateSessionRequest struct {
	Label       string       `json:"label"`
	Seed        string       `json:"seed"`
	SystemCount int          `json:"system_count"`
	Radius      float64      `json:"radius"`
	Shape       galaxy.Shape `json:"shape"`
	AutoStart   bool         `json:"auto_start"`
}

// Status is the public health view of the session host.
type Status struct {
	LiveSessions   int     `json:"live_sessions"`
	RunningClocks  int     `json:"running_clocks"`
	CatalogDigest  string  `json:"catalog_digest"`
	TicksPerSecond float64 `json:"ticks_per_second"`
}
