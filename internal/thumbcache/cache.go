package thumbcache

import (
	"container/list"
	"path/filepath"
	"sync"

	"image-browser/internal/logging"
	"image-browser/internal/metrics"
)

// DefaultMaxSize is the cache capacity used when none is configured.
const DefaultMaxSize = 200

// Cache is a fixed-capacity FIFO-with-refresh store mapping canonical
// image paths to encoded thumbnail data URIs.
//
// Eviction follows insertion order: when the cache is full, the entry
// inserted longest ago is dropped first. Re-inserting an existing key
// resets its position to newest. Lookups never reorder entries; this is
// deliberately not an LRU, which keeps the policy predictable for the
// scan-forward access pattern of a paginated gallery.
//
// All methods are safe for concurrent use: decode workers write while
// the coordination layer reads.
type Cache struct {
	mu      sync.Mutex
	maxSize int
	entries map[string]*list.Element
	order   *list.List // front = oldest, back = newest
}

type cacheEntry struct {
	key     string
	dataURI string
}

// New creates a Cache holding at most maxSize entries.
// A maxSize <= 0 falls back to DefaultMaxSize.
func New(maxSize int) *Cache {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	logging.Info("thumbnail cache created, capacity: %d", maxSize)
	return &Cache{
		maxSize: maxSize,
		entries: make(map[string]*list.Element, maxSize),
		order:   list.New(),
	}
}

// Get returns the cached thumbnail for path, if present.
// A miss has no side effects on eviction order.
func (c *Cache) Get(path string) (string, bool) {
	key := canonicalKey(path)

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		metrics.CacheMissesTotal.Inc()
		return "", false
	}

	metrics.CacheHitsTotal.Inc()
	return elem.Value.(*cacheEntry).dataURI, true
}

// Put inserts or replaces the thumbnail for path. Replacing an existing
// key refreshes its age to newest. When the cache is at capacity the
// oldest remaining entry is evicted before the insert.
func (c *Cache) Put(path, dataURI string) {
	key := canonicalKey(path)

	c.mu.Lock()
	defer c.mu.Unlock()

	// Delete-then-reinsert so an existing key moves to the back.
	if elem, ok := c.entries[key]; ok {
		c.order.Remove(elem)
		delete(c.entries, key)
	}

	if c.order.Len() >= c.maxSize {
		oldest := c.order.Front()
		if oldest != nil {
			evicted := oldest.Value.(*cacheEntry)
			c.order.Remove(oldest)
			delete(c.entries, evicted.key)
			metrics.CacheEvictionsTotal.Inc()
			logging.Debug("cache full, evicted oldest entry: %s (%d/%d)",
				filepath.Base(evicted.key), c.order.Len(), c.maxSize)
		}
	}

	c.entries[key] = c.order.PushBack(&cacheEntry{key: key, dataURI: dataURI})
	metrics.CacheSize.Set(float64(c.order.Len()))
}

// Contains reports whether path has a cached thumbnail, without
// affecting eviction order.
func (c *Cache) Contains(path string) bool {
	key := canonicalKey(path)

	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

// Len returns the current number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := c.order.Len()
	c.entries = make(map[string]*list.Element, c.maxSize)
	c.order.Init()
	metrics.CacheSize.Set(0)
	logging.Info("thumbnail cache cleared, %d entries removed", count)
}

// canonicalKey resolves path to its canonical absolute form so that
// equivalent relative paths share one cache entry.
func canonicalKey(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
