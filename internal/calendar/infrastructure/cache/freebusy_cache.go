// Package cache wraps the free/busy provider with a Redis read-through cache.
// Attendee schedules barely change within a planning session; caching them
// avoids hammering the provider when several conflicts share attendees.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	availability "untangle/internal/availability/domain"
	calendar "untangle/internal/calendar/domain"
)

const keyPrefix = "untangle:freebusy:"

// FreeBusyCache decorates a FreeBusyProvider. Cache failures are never
// surfaced: a broken Redis degrades to calling the provider directly.
type FreeBusyCache struct {
	next   calendar.FreeBusyProvider
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewFreeBusyCache creates the caching decorator.
func NewFreeBusyCache(next calendar.FreeBusyProvider, client *redis.Client, ttl time.Duration, logger *slog.Logger) *FreeBusyCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &FreeBusyCache{next: next, client: client, ttl: ttl, logger: logger}
}

// GetFreeBusy serves cached views when present, otherwise fetches and stores.
func (c *FreeBusyCache) GetFreeBusy(ctx context.Context, attendees []string, start, end time.Time) ([]availability.FreeBusyView, error) {
	key := cacheKey(attendees, start, end)

	if cached, ok := c.lookup(ctx, key); ok {
		return cached, nil
	}

	views, err := c.next.GetFreeBusy(ctx, attendees, start, end)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, views)
	return views, nil
}

func (c *FreeBusyCache) lookup(ctx context.Context, key string) ([]availability.FreeBusyView, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("freebusy cache read failed", "error", err)
		return nil, false
	}

	var views []availability.FreeBusyView
	if err := json.Unmarshal(data, &views); err != nil {
		c.logger.Warn("freebusy cache entry corrupt", "key", key, "error", err)
		return nil, false
	}
	return views, true
}

func (c *FreeBusyCache) store(ctx context.Context, key string, views []availability.FreeBusyView) {
	data, err := json.Marshal(views)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("freebusy cache write failed", "error", err)
	}
}

func cacheKey(attendees []string, start, end time.Time) string {
	sorted := make([]string, len(attendees))
	copy(sorted, attendees)
	sort.Strings(sorted)

	input := strings.Join(sorted, ",") + "|" +
		start.UTC().Format(time.RFC3339) + "|" +
		end.UTC().Format(time.RFC3339)
	sum := sha256.Sum256([]byte(input))
	return keyPrefix + hex.EncodeToString(sum[:16])
}
