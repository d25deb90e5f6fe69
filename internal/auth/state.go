package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	sharedredis "planets-engine/internal/shared/redis"

	"github.com/redis/go-redis/v9"
)

const (
	stateTTL       = 10 * time.Minute
	stateKeyPrefix = "oauth_state:"
)

// StateManager issues one-time OAuth state tokens. Tokens live in Redis
// when a client is configured and in process memory otherwise.
type StateManager struct {
	rdb    *sharedredis.Client
	states map[string]StateEntry
	mutex  sync.Mutex
	now    func() time.Time
}

type StateEntry struct {
	CreatedAt   time.Time `json:"created_at"`
	Provider    string    `json:"provider"`
	UserAgent   string    `json:"user_agent"`
	RedirectURI string    `json:"redirect_uri"`
}

func NewStateManager(rdb *sharedredis.Client) *StateManager {
	return &StateManager{
		rdb:    rdb,
		states: make(map[string]StateEntry),
		now:    time.Now,
	}
}

// GenerateState creates a new state token and stores it for validation
func (sm *StateManager) GenerateState(ctx context.Context, provider, userAgent, redirectURI string) (string, error) {
	logger := slog.With("component", "state_manager", "operation", "generate", "provider", provider)

	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		logger.Error("Failed to generate random bytes for state token", "error", err)
		return "", fmt.Errorf("failed to generate state token: %w", err)
	}
	state := base64.URLEncoding.EncodeToString(b)

	entry := StateEntry{
		CreatedAt:   sm.now(),
		Provider:    provider,
		UserAgent:   userAgent,
		RedirectURI: redirectURI,
	}

	if sm.rdb != nil {
		data, err := json.Marshal(entry)
		if err != nil {
			return "", fmt.Errorf("failed to encode state entry: %w", err)
		}
		if err := sm.rdb.Set(ctx, stateKeyPrefix+state, data, stateTTL).Err(); err != nil {
			logger.Error("Failed to store state token in Redis", "error", err)
			return "", fmt.Errorf("failed to store state token: %w", err)
		}
	} else {
		sm.mutex.Lock()
		sm.states[state] = entry
		sm.mutex.Unlock()
	}

	logger.Debug("OAuth state token generated and stored", "redis", sm.rdb != nil)
	return state, nil
}

// ValidateState checks the token and removes it (one-time use).
func (sm *StateManager) ValidateState(ctx context.Context, state, provider, userAgent string) (StateEntry, error) {
	logger := slog.With("component", "state_manager", "operation", "validate", "provider", provider)

	if state == "" {
		return StateEntry{}, fmt.Errorf("state token is required")
	}

	entry, found, err := sm.take(ctx, state)
	if err != nil {
		logger.Error("Failed to read state token", "error", err)
		return StateEntry{}, err
	}
	if !found {
		logger.Warn("Invalid or expired state token")
		return StateEntry{}, fmt.Errorf("invalid or expired state token")
	}

	if sm.now().Sub(entry.CreatedAt) > stateTTL {
		logger.Warn("Expired state token", "created_at", entry.CreatedAt)
		return StateEntry{}, fmt.Errorf("state token has expired")
	}

	if entry.Provider != provider {
		logger.Warn("State token provider mismatch",
			"expected_provider", entry.Provider,
			"received_provider", provider)
		return StateEntry{}, fmt.Errorf("state token provider mismatch")
	}

	if entry.UserAgent != userAgent {
		logger.Warn("State token user agent mismatch",
			"stored_user_agent", entry.UserAgent,
			"received_user_agent", userAgent)
	}

	return entry, nil
}

func (sm *StateManager) take(ctx context.Context, state string) (StateEntry, bool, error) {
	if sm.rdb != nil {
		data, err := sm.rdb.GetDel(ctx, stateKeyPrefix+state).Bytes()
		if errors.Is(err, redis.Nil) {
			return StateEntry{}, false, nil
		}
		if err != nil {
			return StateEntry{}, false, fmt.Errorf("failed to read state token: %w", err)
		}
		var entry StateEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			return StateEntry{}, false, fmt.Errorf("failed to decode state entry: %w", err)
		}
		return entry, true, nil
	}

	sm.mutex.Lock()
	defer sm.mutex.Unlock()
	entry, ok := sm.states[state]
	delete(sm.states, state)
	return entry, ok, nil
}

// RunCleanup drops expired in-memory tokens until ctx is done. Redis
// expires its keys on its own.
func (sm *StateManager) RunCleanup(ctx context.Context) {
	if sm.rdb != nil {
		return
	}
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sm.cleanupExpiredStates()
		}
	}
}

func (sm *StateManager) cleanupExpiredStates() int {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	now := sm.now()
	expired := 0
	for state, entry := range sm.states {
		if now.Sub(entry.CreatedAt) > stateTTL {
			delete(sm.states, state)
			expired++
		}
	}

	if expired > 0 {
		slog.Debug("Cleaned up expired state tokens",
			"component", "state_manager",
			"expired_count", expired,
			"remaining_count", len(sm.states))
	}
	return expired
}
