package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"clicktrail/internal/models"

	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"
)

var errLinkMissing = errors.New("link missing")

// LinkCache is a read-through redis cache in front of the link store. Every
// mutation of a link must call Invalidate.
type LinkCache struct {
	store  LinkFinder
	cache  *cache.Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewLinkCache returns a pass-through cache when rdb is nil.
func NewLinkCache(store LinkFinder, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *LinkCache {
	c := &LinkCache{store: store, ttl: ttl, logger: logger}
	if rdb != nil {
		c.cache = cache.New(&cache.Options{Redis: rdb})
	}
	return c
}

func linkCacheKey(code string) string {
	return "link:" + code
}

func (c *LinkCache) FindByCode(ctx context.Context, code string) (*models.Link, error) {
	if c.cache == nil {
		return c.store.FindByCode(ctx, code)
	}

	var link models.Link
	err := c.cache.Once(&cache.Item{
		Ctx:   ctx,
		Key:   linkCacheKey(code),
		Value: &link,
		TTL:   c.ttl,
		Do: func(*cache.Item) (interface{}, error) {
			found, err := c.store.FindByCode(ctx, code)
			if err != nil {
				return nil, err
			}
			if found == nil {
				// Misses are not cached so a newly created code resolves at once
				return nil, errLinkMissing
			}
			return found, nil
		},
	})
	if errors.Is(err, errLinkMissing) {
		return nil, nil
	}
	if err != nil {
		c.logger.Warn("Link cache unavailable, reading store", "code", code, "error", err)
		return c.store.FindByCode(ctx, code)
	}
	return &link, nil
}

func (c *LinkCache) Invalidate(ctx context.Context, code string) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Delete(ctx, linkCacheKey(code)); err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		c.logger.Warn("Failed to invalidate cached link", "code", code, "error", err)
	}
}
