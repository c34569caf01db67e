package geocode

import "sync"

// cache memoizes results by exact place name. Entries are never evicted:
// place coordinates do not change during the process lifetime.
type cache struct {
	mu      sync.RWMutex
	entries map[string]Result
}

func newCache() *cache {
	return &cache{entries: make(map[string]Result)}
}

func (c *cache) get(name string) (Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.entries[name]
	return r, ok
}

// put overwrites any existing entry; concurrent misses for the same name
// settle on the last write.
func (c *cache) put(name string, r Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[name] = r
}

func (c *cache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
