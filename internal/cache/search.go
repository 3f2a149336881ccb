package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopwatch/shopwatch/internal/model"
)

// Cache key prefixes and TTLs for external search results.
const (
	searchKeyPrefix   = "search:"
	negCacheKeySuffix = ":neg"

	// DefaultSearchTTL bounds how stale a cached catalog result may get
	// before the sync worker queries the external API again.
	DefaultSearchTTL = 30 * time.Minute

	// NegativeCacheTTL is the TTL for queries that returned no results.
	NegativeCacheTTL = 5 * time.Minute
)

// Common cache errors.
var (
	ErrCacheMiss = errors.New("cache miss")
)

// GetSearchItem retrieves a cached search result for a query.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetSearchItem(ctx context.Context, query string) (*model.CachedSearchItem, error) {
	key := searchKeyPrefix + hashQuery(query)

	result, err := c.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall failed: %w", err)
	}

	if len(result) == 0 {
		return nil, ErrCacheMiss
	}

	return &model.CachedSearchItem{
		Title:  result["title"],
		Link:   result["link"],
		Image:  result["image"],
		LPrice: result["lprice"],
	}, nil
}

// SetSearchItem stores a search result for a query.
func (c *Cache) SetSearchItem(ctx context.Context, query string, item *model.SearchItem) error {
	key := searchKeyPrefix + hashQuery(query)
	cached := item.ToCachedSearchItem()

	fields := map[string]any{
		"title":  cached.Title,
		"link":   cached.Link,
		"image":  cached.Image,
		"lprice": cached.LPrice,
	}

	pipe := c.client.Pipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, DefaultSearchTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache search item: %w", err)
	}

	// Remove negative cache if exists
	c.client.Del(ctx, key+negCacheKeySuffix)

	return nil
}

// IsNegativelyCached checks if a query is known to have no results.
func (c *Cache) IsNegativelyCached(ctx context.Context, query string) (bool, error) {
	key := searchKeyPrefix + hashQuery(query) + negCacheKeySuffix

	exists, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check negative cache: %w", err)
	}

	return exists > 0, nil
}

// SetNegativeCache marks a query as having no results.
func (c *Cache) SetNegativeCache(ctx context.Context, query string) error {
	key := searchKeyPrefix + hashQuery(query) + negCacheKeySuffix

	if err := c.client.SetEx(ctx, key, "", NegativeCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to set negative cache: %w", err)
	}

	return nil
}
