package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"planets-engine/internal/shared/errors"
	"planets-engine/internal/shared/response"

	"golang.org/x/time/rate"
)

type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
	Enabled           bool
	TrustProxy        bool
}

// RateLimiter throttles session commands. Authenticated requests share a
// bucket per player so one player cannot spread commands across addresses;
// anonymous ones are keyed by client IP.
type RateLimiter struct {
	config  RateLimitConfig
	clients map[string]*rate.Limiter
	mu      sync.Mutex
	now     func() time.Time
}

func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		config:  config,
		clients: make(map[string]*rate.Limiter),
		now:     time.Now,
	}
}

func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, ok := rl.clients[key]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.BurstSize)
		rl.clients[key] = limiter
	}
	return limiter
}

// RunCleanup drops idle buckets every minute until ctx is cancelled.
func (rl *RateLimiter) RunCleanup(ctx context.Context) {
	if !rl.config.Enabled {
		return
	}
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := rl.prune(); n > 0 {
				slog.Debug("Pruned idle rate limit buckets", "component", "rate_limit", "count", n)
			}
		}
	}
}

// prune removes buckets that have refilled completely.
func (rl *RateLimiter) prune() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	removed := 0
	for key, limiter := range rl.clients {
		if limiter.TokensAt(now) >= float64(rl.config.BurstSize) {
			delete(rl.clients, key)
			removed++
		}
	}
	return removed
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.config.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		key := rl.clientKey(r)
		logger := slog.With(
			"middleware", "rate_limit",
			"client", key,
			"method", r.Method,
			"path", r.URL.Path,
		)

		reservation := rl.limiterFor(key).ReserveN(rl.now(), 1)
		if delay := reservation.DelayFrom(rl.now()); !reservation.OK() || delay > 0 {
			reservation.Cancel()
			retry := max(1, int(delay.Round(time.Second)/time.Second))
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			response.Error(w, r, logger, errors.RateLimited("too many commands, retry later"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) clientKey(r *http.Request) string {
	if claims := GetUserFromContext(r); claims != nil {
		return "player:" + strconv.Itoa(claims.PlayerID)
	}
	return "ip:" + getClientIP(r, rl.config.TrustProxy)
}

func getClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			return strings.TrimSpace(first)
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return xri
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
