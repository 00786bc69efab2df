package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/acadplan/timetable-api/internal/models"
)

// ScheduleCache keeps the full result set for a (semester, year) key in Redis
// so repeated timetable reads skip the database. Every operation degrades to
// a miss on Redis trouble; the cache is never authoritative.
type ScheduleCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewScheduleCache builds a cache wrapper. A nil client disables caching.
func NewScheduleCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *ScheduleCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ScheduleCache{client: client, ttl: ttl, logger: logger}
}

func resultCacheKey(semester, year int) string {
	return fmt.Sprintf("schedule:results:%d:%d", semester, year)
}

// GetResults returns the cached result set and whether it was present.
func (c *ScheduleCache) GetResults(ctx context.Context, semester, year int) ([]models.ScheduleResult, bool) {
	if c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, resultCacheKey(semester, year)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("schedule cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var results []models.ScheduleResult
	if err := json.Unmarshal(raw, &results); err != nil {
		c.logger.Warn("schedule cache payload corrupt", zap.Error(err))
		return nil, false
	}
	return results, true
}

// SetResults stores a result set under the key's cache entry.
func (c *ScheduleCache) SetResults(ctx context.Context, semester, year int, results []models.ScheduleResult) {
	if c.client == nil {
		return
	}
	raw, err := json.Marshal(results)
	if err != nil {
		c.logger.Warn("schedule cache encode failed", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, resultCacheKey(semester, year), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("schedule cache write failed", zap.Error(err))
	}
}

// Invalidate drops the cached entry for one key.
func (c *ScheduleCache) Invalidate(ctx context.Context, semester, year int) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, resultCacheKey(semester, year)).Err(); err != nil {
		c.logger.Warn("schedule cache invalidate failed", zap.Error(err))
	}
}

// InvalidateAll drops every cached timetable. Used by the full reset.
func (c *ScheduleCache) InvalidateAll(ctx context.Context) {
	if c.client == nil {
		return
	}
	iter := c.client.Scan(ctx, 0, "schedule:results:*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			c.logger.Warn("schedule cache invalidate failed", zap.Error(err))
		}
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("schedule cache scan failed", zap.Error(err))
	}
}
