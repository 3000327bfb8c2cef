package property

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mchlbschmdt/ai-concierge/pkg/logging"
)

// DefaultCacheTTL bounds how stale a cached property can be.
const DefaultCacheTTL = 10 * time.Minute

// CachedDirectory is a read-through Redis cache in front of another Directory.
// Cache failures fall back to the underlying directory.
type CachedDirectory struct {
	next   Directory
	redis  *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewCachedDirectory wraps next with a Redis cache.
func NewCachedDirectory(next Directory, client *redis.Client, ttl time.Duration, logger *logging.Logger) *CachedDirectory {
	if next == nil {
		panic("property: directory required")
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &CachedDirectory{next: next, redis: client, ttl: ttl, logger: logger}
}

func codeKey(code string) string { return fmt.Sprintf("property:code:%s", code) }
func idKey(id string) string     { return fmt.Sprintf("property:id:%s", id) }

// GetByCode implements Directory.
func (c *CachedDirectory) GetByCode(ctx context.Context, code string) (*Property, error) {
	return c.load(ctx, codeKey(code), func() (*Property, error) { return c.next.GetByCode(ctx, code) })
}

// GetByID implements Directory.
func (c *CachedDirectory) GetByID(ctx context.Context, id string) (*Property, error) {
	return c.load(ctx, idKey(id), func() (*Property, error) { return c.next.GetByID(ctx, id) })
}

// Invalidate drops both cache entries for p.
func (c *CachedDirectory) Invalidate(ctx context.Context, p *Property) error {
	if c.redis == nil || p == nil {
		return nil
	}
	if err := c.redis.Del(ctx, codeKey(p.Code), idKey(p.ID)).Err(); err != nil {
		return fmt.Errorf("property: invalidate cache: %w", err)
	}
	return nil
}

func (c *CachedDirectory) load(ctx context.Context, key string, miss func() (*Property, error)) (*Property, error) {
	if c.redis != nil {
		data, err := c.redis.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var p Property
			if jsonErr := json.Unmarshal(data, &p); jsonErr == nil {
				p.Hydrate()
				return &p, nil
			}
			c.logger.Warn("property cache entry unreadable", "key", key)
		case !errors.Is(err, redis.Nil):
			c.logger.Warn("property cache read failed", "key", key, "error", err)
		}
	}

	p, err := miss()
	if err != nil {
		return nil, err
	}
	c.store(ctx, p)
	return p, nil
}

func (c *CachedDirectory) store(ctx context.Context, p *Property) {
	if c.redis == nil || p == nil {
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	pipe := c.redis.TxPipeline()
	pipe.Set(ctx, codeKey(p.Code), data, c.ttl)
	pipe.Set(ctx, idKey(p.ID), data, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("property cache write failed", "property_id", p.ID, "error", err)
	}
}
