// Package memory provides in-process implementations of the cache, bus and
// limiter interfaces for single-instance deployments.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

type entry struct {
	qs        domain.QuoteSet
	expiresAt time.Time
}

// QuoteCache is a TTL map of quote sets. Expired entries are dropped lazily on
// read and by Set.
type QuoteCache struct {
	mu      sync.Mutex
	entries map[domain.Pair]entry
	now     func() time.Time
}

// NewQuoteCache creates an empty QuoteCache.
func NewQuoteCache() *QuoteCache {
	return &QuoteCache{entries: make(map[domain.Pair]entry), now: time.Now}
}

// Get returns domain.ErrCacheMiss when nothing fresh is stored for pair.
func (c *QuoteCache) Get(_ context.Context, pair domain.Pair) (domain.QuoteSet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[pair]
	if !ok {
		return domain.QuoteSet{}, domain.ErrCacheMiss
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, pair)
		return domain.QuoteSet{}, domain.ErrCacheMiss
	}
	return e.qs, nil
}

// Set stores qs for ttl.
func (c *QuoteCache) Set(_ context.Context, qs domain.QuoteSet, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for p, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, p)
		}
	}
	c.entries[qs.Pair] = entry{qs: qs, expiresAt: now.Add(ttl)}
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *QuoteCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

var _ domain.QuoteCache = (*QuoteCache)(nil)
