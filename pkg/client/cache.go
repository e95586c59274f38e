package client

import (
	"encoding/json"
	"sort"
	"sync"
	"time"
)

const (
	defaultCacheTTL      = 5 * time.Minute
	defaultCacheCapacity = 20
	defaultEvictBatch    = 5
)

type cacheEntry struct {
	page     *ArticlePage
	storedAt time.Time
}

// ArticleCache memoizes list pages keyed by their filter params. Entries
// expire after the TTL; once the cache is full, storing a new key drops
// the oldest entries in one batch.
type ArticleCache struct {
	mu         sync.Mutex
	entries    map[string]cacheEntry
	ttl        time.Duration
	capacity   int
	evictBatch int
	now        func() time.Time
}

type CacheOption func(*ArticleCache)

func WithTTL(ttl time.Duration) CacheOption {
	return func(c *ArticleCache) { c.ttl = ttl }
}

func WithCapacity(capacity, evictBatch int) CacheOption {
	return func(c *ArticleCache) {
		c.capacity = capacity
		c.evictBatch = evictBatch
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) CacheOption {
	return func(c *ArticleCache) { c.now = now }
}

func NewArticleCache(opts ...CacheOption) *ArticleCache {
	c := &ArticleCache{
		entries:    make(map[string]cacheEntry),
		ttl:        defaultCacheTTL,
		capacity:   defaultCacheCapacity,
		evictBatch: defaultEvictBatch,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.evictBatch < 1 {
		c.evictBatch = 1
	}
	return c
}

// Key is the canonical form of params: a JSON object of the non-empty
// fields with sorted keys.
func Key(params ListParams) string {
	m := map[string]any{}
	if params.Tag != "" {
		m["tag"] = params.Tag
	}
	if params.Author != "" {
		m["author"] = params.Author
	}
	if params.Favorited != "" {
		m["favorited"] = params.Favorited
	}
	if params.Search != "" {
		m["search"] = params.Search
	}
	if params.Limit != nil {
		m["limit"] = *params.Limit
	}
	if params.Offset != nil {
		m["offset"] = *params.Offset
	}
	// Map keys are marshaled in sorted order.
	b, _ := json.Marshal(m)
	return string(b)
}

func (c *ArticleCache) Get(params ListParams) (*ArticlePage, bool) {
	key := Key(params)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.expired(e) {
		delete(c.entries, key)
		return nil, false
	}
	return e.page, true
}

func (c *ArticleCache) Put(params ListParams, page *ArticlePage) {
	key := Key(params)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		c.evictOldest()
	}
	c.entries[key] = cacheEntry{page: page, storedAt: c.now()}
}

func (c *ArticleCache) Invalidate(params ListParams) {
	key := Key(params)
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

func (c *ArticleCache) Clear() {
	c.mu.Lock()
	clear(c.entries)
	c.mu.Unlock()
}

// Prune drops expired entries and returns how many were removed.
func (c *ArticleCache) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if c.expired(e) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

func (c *ArticleCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *ArticleCache) expired(e cacheEntry) bool {
	return c.now().Sub(e.storedAt) >= c.ttl
}

// evictOldest must be called with mu held.
func (c *ArticleCache) evictOldest() {
	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return c.entries[keys[i]].storedAt.Before(c.entries[keys[j]].storedAt)
	})
	for i := 0; i < c.evictBatch && i < len(keys); i++ {
		delete(c.entries, keys[i])
	}
}
