// Package memory keeps browse results in process memory.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/alanyoungcy/marketsbot/internal/domain"
)

// Defaults used when the config leaves limits unset.
const (
	DefaultMaxAge     = 30 * time.Minute
	DefaultMaxEntries = 10_000
)

type item struct {
	entry   domain.BrowseEntry
	written time.Time
	seq     uint64
}

// BrowseCache is a mutex-guarded map with two eviction rules: entries older
// than maxAge are never returned, and once maxEntries is exceeded the oldest
// writes are dropped.
type BrowseCache struct {
	mu         sync.Mutex
	items      map[domain.BrowseKey]*item
	latest     map[string]domain.BrowseKey
	seq        uint64
	maxAge     time.Duration
	maxEntries int
	now        func() time.Time
}

// Option configures a BrowseCache.
type Option func(*BrowseCache)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *BrowseCache) { c.now = now }
}

// NewBrowseCache creates a cache. Non-positive limits use the defaults.
func NewBrowseCache(maxAge time.Duration, maxEntries int, opts ...Option) *BrowseCache {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	c := &BrowseCache{
		items:      make(map[domain.BrowseKey]*item),
		latest:     make(map[string]domain.BrowseKey),
		maxAge:     maxAge,
		maxEntries: maxEntries,
		now:        time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Put stores entry under key, replacing what was there, and marks it as the
// user's latest result set.
func (c *BrowseCache) Put(_ context.Context, key domain.BrowseKey, entry domain.BrowseEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if entry.StoredAt.IsZero() {
		entry.StoredAt = now
	}
	c.seq++
	c.items[key] = &item{entry: entry, written: now, seq: c.seq}
	c.latest[key.UserID] = key

	c.evictLocked(now)
	return nil
}

// Get returns the entry for key, or domain.ErrCacheMiss.
func (c *BrowseCache) Get(_ context.Context, key domain.BrowseKey) (domain.BrowseEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getLocked(key)
}

// Latest returns the user's most recently written entry, or
// domain.ErrCacheMiss.
func (c *BrowseCache) Latest(_ context.Context, userID string) (domain.BrowseEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key, ok := c.latest[userID]
	if !ok {
		return domain.BrowseEntry{}, domain.ErrCacheMiss
	}
	return c.getLocked(key)
}

// Len reports the number of stored entries, expired ones included until the
// next write.
func (c *BrowseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *BrowseCache) getLocked(key domain.BrowseKey) (domain.BrowseEntry, error) {
	it, ok := c.items[key]
	if !ok || c.now().Sub(it.written) > c.maxAge {
		return domain.BrowseEntry{}, domain.ErrCacheMiss
	}
	return it.entry, nil
}

func (c *BrowseCache) evictLocked(now time.Time) {
	for k, it := range c.items {
		if now.Sub(it.written) > c.maxAge {
			c.removeLocked(k)
		}
	}
	for len(c.items) > c.maxEntries {
		var (
			oldest    domain.BrowseKey
			oldestSeq uint64
			found     bool
		)
		for k, it := range c.items {
			if !found || it.seq < oldestSeq {
				oldest, oldestSeq, found = k, it.seq, true
			}
		}
		c.removeLocked(oldest)
	}
}

func (c *BrowseCache) removeLocked(key domain.BrowseKey) {
	delete(c.items, key)
	if c.latest[key.UserID] == key {
		delete(c.latest, key.UserID)
	}
}

var _ domain.BrowseCache = (*BrowseCache)(nil)
