package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shopwatch/shopwatch/internal/model"
)

const (
	// sessionPrefix is the Redis key prefix for login sessions.
	sessionPrefix = "session:"
	// SessionTTL is the time-to-live for login sessions.
	SessionTTL = 24 * time.Hour
)

// cachedSession represents a login session stored in Redis.
type cachedSession struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// GetSession retrieves a session by token hash.
// Returns nil if not found (expired or never issued). A Redis failure
// is surfaced as an error so callers can tell an outage apart from a
// missing session.
func (c *Cache) GetSession(ctx context.Context, tokenHash string) (*model.AuthContext, error) {
	key := sessionPrefix + tokenHash

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("session lookup: %w", err)
	}

	var cached cachedSession
	if err := json.Unmarshal(data, &cached); err != nil {
		// Corrupted entry - treat as miss
		return nil, nil //nolint:nilerr
	}

	return &model.AuthContext{
		UserID:   cached.UserID,
		Username: cached.Username,
		Role:     model.ParseRole(cached.Role),
	}, nil
}

// SetSession stores a session under the token hash.
func (c *Cache) SetSession(ctx context.Context, tokenHash string, authCtx *model.AuthContext) error {
	key := sessionPrefix + tokenHash

	cached := cachedSession{
		UserID:   authCtx.UserID,
		Username: authCtx.Username,
		Role:     string(authCtx.Role),
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	return c.client.Set(ctx, key, data, SessionTTL).Err()
}

// DeleteSession removes a session. Used on logout.
func (c *Cache) DeleteSession(ctx context.Context, tokenHash string) error {
	key := sessionPrefix + tokenHash
	return c.client.Del(ctx, key).Err()
}
