// Package pricecache memoizes the current-price lookup behind a short
// wall-clock TTL so bursts of signal generation do not hammer the upstream
// market data API.
package pricecache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tradewinds/internal/domain"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a fetched price stays valid.
const DefaultTTL = 5 * time.Second

// Fetcher is the upstream price lookup the cache fronts.
type Fetcher interface {
	FetchPrice(ctx context.Context, symbol, exchange string) (float64, error)
}

type entry struct {
	price     float64
	fetchedAt time.Time
}

// Cache is a TTL-memoized front for a single current-price lookup, keyed by
// (symbol, exchange). Entries are overwritten on refresh, never evicted.
// Concurrent misses on the same key are coalesced into one upstream fetch.
type Cache struct {
	fetcher Fetcher
	ttl     time.Duration

	mu      sync.Mutex
	entries map[string]entry
	group   singleflight.Group

	now func() time.Time
}

func New(fetcher Fetcher, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		fetcher: fetcher,
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns the cached price while it is fresh, otherwise fetches
// upstream, stores (price, now) and returns it. Overlapping misses for the
// same key share a single in-flight fetch.
func (c *Cache) Get(ctx context.Context, symbol, exchange string) (float64, error) {
	key := symbol + "@" + exchange

	c.mu.Lock()
	if e, ok := c.entries[key]; ok && c.now().Sub(e.fetchedAt) < c.ttl {
		c.mu.Unlock()
		return e.price, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(key, func() (any, error) {
		// Re-check under the flight: a caller that queued behind the
		// winner must not trigger a second fetch for a fresh entry.
		c.mu.Lock()
		if e, ok := c.entries[key]; ok && c.now().Sub(e.fetchedAt) < c.ttl {
			c.mu.Unlock()
			return e.price, nil
		}
		c.mu.Unlock()

		price, err := c.fetcher.FetchPrice(ctx, symbol, exchange)
		if err != nil {
			return 0, fmt.Errorf("%w: price for %s on %s: %v", domain.ErrDataUnavailable, symbol, exchange, err)
		}

		c.mu.Lock()
		c.entries[key] = entry{price: price, fetchedAt: c.now()}
		c.mu.Unlock()
		return price, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}
