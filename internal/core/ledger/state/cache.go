package state

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// EntryCache keeps the encoded form of recently read entries in front of the
// key/value store.
type EntryCache struct {
	mu sync.Mutex

	// Key: storage key as string
	recent *lru.Cache[string, []byte]

	// Metrics
	hits   uint64
	misses uint64
}

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Size   int
	Hits   uint64
	Misses uint64
}

const defaultCacheSize = 4096

// NewEntryCache creates a cache holding up to size entries.
func NewEntryCache(size int) (*EntryCache, error) {
	if size <= 0 {
		size = defaultCacheSize
	}

	recent, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &EntryCache{recent: recent}, nil
}

// Get returns the cached encoding of key. Callers must not modify it.
func (c *EntryCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	val, found := c.recent.Get(key)
	if found {
		c.hits++
		return val, true
	}
	c.misses++
	return nil, false
}

// Add caches the encoding of key.
func (c *EntryCache) Add(key string, val []byte) {
	c.recent.Add(key, val)
}

// Remove evicts key.
func (c *EntryCache) Remove(key string) {
	c.recent.Remove(key)
}

// Stats returns a snapshot of the cache counters.
func (c *EntryCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Size: c.recent.Len(), Hits: c.hits, Misses: c.misses}
}
