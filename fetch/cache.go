package fetch

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// CacheOptions bound the memoization cache.
type CacheOptions struct {
	MaxEntries int
	TTL        time.Duration
}

// CacheHooks are optional callbacks for cache metrics.
type CacheHooks struct {
	OnHit  func()
	OnMiss func()
}

// Cache memoizes successful responses by request signature. Entries are
// evicted by size (LRU) and age (TTL). Concurrent loads of the same key
// share one upstream call. Errors are never cached.
type Cache struct {
	items *expirable.LRU[string, []byte]
	sf    singleflight.Group
	hooks CacheHooks
}

// NewCache creates a bounded cache. Non-positive options fall back to 256
// entries and one hour.
func NewCache(opts CacheOptions, hooks CacheHooks) *Cache {
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = 256
	}
	if opts.TTL <= 0 {
		opts.TTL = time.Hour
	}
	return &Cache{
		items: expirable.NewLRU[string, []byte](opts.MaxEntries, nil, opts.TTL),
		hooks: hooks,
	}
}

// Loader produces the value for a cache miss.
type Loader func(ctx context.Context) ([]byte, error)

// Get returns the cached value for key, calling load on a miss.
// The returned bool reports a cache hit. A caller whose ctx ends stops
// waiting without failing other callers sharing the load.
func (c *Cache) Get(ctx context.Context, key string, load Loader) ([]byte, bool, error) {
	if v, ok := c.items.Get(key); ok {
		if c.hooks.OnHit != nil {
			c.hooks.OnHit()
		}
		return v, true, nil
	}
	if c.hooks.OnMiss != nil {
		c.hooks.OnMiss()
	}

	// The shared load outlives any single caller, so it runs detached from
	// the caller's cancellation and is bounded by the client's timeout.
	loadCtx := context.WithoutCancel(ctx)
	ch := c.sf.DoChan(key, func() (interface{}, error) {
		if cached, ok := c.items.Get(key); ok {
			return cached, nil
		}
		data, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		c.items.Add(key, data)
		return data, nil
	})
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val.([]byte), false, nil
	}
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	return c.items.Len()
}

// Purge removes all entries.
func (c *Cache) Purge() {
	c.items.Purge()
}
