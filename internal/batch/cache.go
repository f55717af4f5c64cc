package batch

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

type cacheEntry struct {
	hash   uint64
	result Result
}

// Cache remembers results by file content so unchanged files are not parsed again.
// Entries are keyed by path and validated against an xxhash of the content.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	hits    int
	misses  int
}

// NewCache creates an empty cache
func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

// Hash is the content fingerprint used by the cache
func Hash(content []byte) uint64 {
	return xxhash.Sum64(content)
}

// Get returns the cached result for path when its content hash still matches
func (c *Cache) Get(path string, hash uint64) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[path]
	if !ok || entry.hash != hash {
		c.misses++
		return Result{}, false
	}
	c.hits++
	return entry.result, true
}

// Put stores a result. Failed results are not cached so they are retried.
func (c *Cache) Put(path string, hash uint64, result Result) {
	if result.Err != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[path] = cacheEntry{hash: hash, result: result}
}

// Invalidate drops the entry for path
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, path)
}

// Clear drops every entry
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
	c.hits, c.misses = 0, 0
}

// Len returns the number of entries
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns hit and miss counts
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
