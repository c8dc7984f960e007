// Package cache keeps short-lived leaderboard pages in Redis.
package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"lingo_xp/internal/domain"
	"lingo_xp/internal/logger"

	redis "github.com/redis/go-redis/v9"
)

const genKey = "lb:gen"

// LeaderboardCache stores pages under lb:<generation>:<limit>. Invalidate bumps the
// generation so every cached page is skipped at once; stale pages expire by TTL.
// All errors fail open: a cache miss falls back to the database.
type LeaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLeaderboardCache returns nil when client is nil so callers can skip caching
func NewLeaderboardCache(client *redis.Client, ttl time.Duration) *LeaderboardCache {
	if client == nil {
		return nil
	}
	return &LeaderboardCache{client: client, ttl: ttl}
}

// Get returns the cached page for limit under the current generation. The returned
// generation must be handed to Set on a miss, so a page read before an Invalidate is
// stored under the old generation and never served after it. gen is -1 when the
// generation could not be read; Set ignores such pages.
func (c *LeaderboardCache) Get(ctx context.Context, limit int) (entries []domain.LeaderboardEntry, gen int64, ok bool) {
	if c == nil {
		return nil, -1, false
	}
	gen, err := c.generation(ctx)
	if err != nil {
		logger.Debug("leaderboard cache generation read failed", "error", err)
		return nil, -1, false
	}

	raw, err := c.client.Get(ctx, pageKey(gen, limit)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Debug("leaderboard cache get failed", "error", err)
		}
		return nil, gen, false
	}

	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, gen, false
	}
	return entries, gen, true
}

// Set stores a page under gen, the generation Get returned before the page was read
func (c *LeaderboardCache) Set(ctx context.Context, gen int64, limit int, entries []domain.LeaderboardEntry) {
	if c == nil || gen < 0 {
		return
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, pageKey(gen, limit), raw, c.ttl).Err(); err != nil {
		logger.Debug("leaderboard cache set failed", "error", err)
	}
}

func (c *LeaderboardCache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	if err := c.client.Incr(ctx, genKey).Err(); err != nil {
		logger.Warn("leaderboard cache invalidate failed", "error", err)
	}
}

func (c *LeaderboardCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, genKey).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return gen, err
}

func pageKey(gen int64, limit int) string {
	return "lb:" + strconv.FormatInt(gen, 10) + ":" + strconv.Itoa(limit)
}
