package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alanyoungcy/marketsbot/internal/domain"
	"github.com/redis/go-redis/v9"
)

// DefaultBrowseTTL bounds how long a result set can be paged through.
const DefaultBrowseTTL = 30 * time.Minute

// BrowseCache implements domain.BrowseCache using Redis hashes holding the
// JSON-serialised entry, plus a per-user pointer to the latest label.
//
// Key schema:
//
//	browse:{user}:{label}  - hash with field "data" containing JSON
//	browse:{user}:latest   - string value of the latest label
type BrowseCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewBrowseCache creates a BrowseCache backed by the given Client. A
// non-positive ttl uses DefaultBrowseTTL.
func NewBrowseCache(c *Client, ttl time.Duration) *BrowseCache {
	if ttl <= 0 {
		ttl = DefaultBrowseTTL
	}
	return &BrowseCache{rdb: c.Underlying(), ttl: ttl}
}

func browseKey(k domain.BrowseKey) string { return "browse:" + k.UserID + ":" + k.Label }
func latestKey(userID string) string     { return "browse:" + userID + ":latest" }

// Put stores entry and moves the user's latest pointer to it, both with the
// cache TTL.
func (bc *BrowseCache) Put(ctx context.Context, key domain.BrowseKey, entry domain.BrowseEntry) error {
	if entry.StoredAt.IsZero() {
		entry.StoredAt = time.Now().UTC()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("redis: marshal browse entry %s: %w", key.Label, err)
	}

	k := browseKey(key)

	pipe := bc.rdb.TxPipeline()
	pipe.HSet(ctx, k, "data", data)
	pipe.Expire(ctx, k, bc.ttl)
	pipe.Set(ctx, latestKey(key.UserID), key.Label, bc.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: put browse entry %s: %w", key.Label, err)
	}
	return nil
}

// Get returns the entry for key. It returns domain.ErrCacheMiss when the key
// does not exist or has expired.
func (bc *BrowseCache) Get(ctx context.Context, key domain.BrowseKey) (domain.BrowseEntry, error) {
	data, err := bc.rdb.HGet(ctx, browseKey(key), "data").Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.BrowseEntry{}, domain.ErrCacheMiss
		}
		return domain.BrowseEntry{}, fmt.Errorf("redis: get browse entry %s: %w", key.Label, err)
	}

	var entry domain.BrowseEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return domain.BrowseEntry{}, fmt.Errorf("redis: unmarshal browse entry %s: %w", key.Label, err)
	}
	return entry, nil
}

// Latest follows the user's latest pointer.
func (bc *BrowseCache) Latest(ctx context.Context, userID string) (domain.BrowseEntry, error) {
	label, err := bc.rdb.Get(ctx, latestKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.BrowseEntry{}, domain.ErrCacheMiss
		}
		return domain.BrowseEntry{}, fmt.Errorf("redis: get latest browse label for %s: %w", userID, err)
	}
	return bc.Get(ctx, domain.BrowseKey{UserID: userID, Label: label})
}

// Compile-time interface check.
var _ domain.BrowseCache = (*BrowseCache)(nil)
