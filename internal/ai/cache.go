package ai

import (
	"sync"
	"time"
)

// Cache holds AI answers for a fixed time so repeated questions do not hit
// the API again.
type Cache struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	items map[string]cacheItem
}

type cacheItem struct {
	value      any
	expiration time.Time
}

func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{ttl: ttl, now: time.Now, items: make(map[string]cacheItem)}
}

func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = cacheItem{value: value, expiration: c.now().Add(c.ttl)}
}

func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if c.now().After(item.expiration) {
		delete(c.items, key)
		return nil, false
	}
	return item.value, true
}

// Purge drops expired entries.
func (c *Cache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	n := 0
	for key, item := range c.items {
		if now.After(item.expiration) {
			delete(c.items, key)
			n++
		}
	}
	return n
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
