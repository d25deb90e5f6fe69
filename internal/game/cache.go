package game

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	sharedredis "planets-engine/internal/shared/redis"
	"planets-engine/internal/sim/session"

	"github.com/redis/go-redis/v9"
)

const summaryKeyPrefix = "session_summary:"

// SummaryCache keeps recent session summaries for listing endpoints. It
// uses Redis when configured and a local map otherwise.
type SummaryCache struct {
	rdb    *sharedredis.Client
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time

	mu    sync.Mutex
	local map[string]cachedSummary
}

type cachedSummary struct {
	summary session.Summary
	expires time.Time
}

func NewSummaryCache(rdb *sharedredis.Client, ttl time.Duration, logger *slog.Logger) *SummaryCache {
	return &SummaryCache{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger.With("component", "summary_cache"),
		now:    time.Now,
		local:  make(map[string]cachedSummary),
	}
}

func (c *SummaryCache) Get(ctx context.Context, id string) (session.Summary, bool) {
	if c.ttl <= 0 {
		return session.Summary{}, false
	}

	if c.rdb != nil {
		data, err := c.rdb.Get(ctx, summaryKeyPrefix+id).Bytes()
		if errors.Is(err, redis.Nil) {
			return session.Summary{}, false
		}
		if err != nil {
			c.logger.Warn("Summary cache read failed", "session_id", id, "error", err)
			return session.Summary{}, false
		}
		var sum session.Summary
		if err := json.Unmarshal(data, &sum); err != nil {
			c.logger.Warn("Summary cache entry corrupt", "session_id", id, "error", err)
			return session.Summary{}, false
		}
		return sum, true
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.local[id]
	if !ok {
		return session.Summary{}, false
	}
	if c.now().After(entry.expires) {
		delete(c.local, id)
		return session.Summary{}, false
	}
	return entry.summary, true
}

func (c *SummaryCache) Set(ctx context.Context, sum session.Summary) {
	if c.ttl <= 0 {
		return
	}

	if c.rdb != nil {
		data, err := json.Marshal(sum)
		if err != nil {
			return
		}
		if err := c.rdb.Set(ctx, summaryKeyPrefix+sum.ID, data, c.ttl).Err(); err != nil {
			c.logger.Warn("Summary cache write failed", "session_id", sum.ID, "error", err)
		}
		return
	}

	c.mu.Lock()
	c.local[sum.ID] = cachedSummary{summary: sum, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *SummaryCache) Invalidate(ctx context.Context, id string) {
	if c.rdb != nil {
		if err := c.rdb.Del(ctx, summaryKeyPrefix+id).Err(); err != nil {
			c.logger.Warn("Summary cache invalidation failed", "session_id", id, "error", err)
		}
		return
	}

	c.mu.Lock()
	delete(c.local, id)
	c.mu.Unlock()
}
