// ABOUTME: In-memory document cache that wraps a render function with sha256-keyed caching.
// ABOUTME: Supports TTL-based expiry, concurrent access, and manual cache clearing.
package render

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"sync"
	"time"
)

// RenderFunc is the signature of the document render function the cache wraps.
type RenderFunc func(ctx context.Context, src []byte, opts Options) (*Result, error)

type cacheEntry struct {
	result    *Result
	createdAt time.Time
}

// Cache wraps a render function with an in-memory cache keyed by the sha256
// of the document and the render options. Entries expire after the TTL.
// Results with failed blocks are not stored, and a hit whose images are no
// longer on disk counts as a miss so the engine regenerates them.
type Cache struct {
	renderFn RenderFunc
	ttl      time.Duration
	entries  map[string]*cacheEntry
	mu       sync.RWMutex
}

// NewCache creates a Cache around renderFn.
func NewCache(renderFn RenderFunc, ttl time.Duration) *Cache {
	return &Cache{
		renderFn: renderFn,
		ttl:      ttl,
		entries:  make(map[string]*cacheEntry),
	}
}

// Render returns a cached result when one is available and not expired.
// Errors are never cached. The second return value reports a cache hit.
func (c *Cache) Render(ctx context.Context, src []byte, opts Options) (*Result, bool, error) {
	key := cacheKey(src, opts)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && time.Since(entry.createdAt) < c.ttl && imagesExist(entry.result) {
		return entry.result, true, nil
	}

	res, err := c.renderFn(ctx, src, opts)
	if err != nil {
		return nil, false, err
	}

	c.mu.Lock()
	if res.Failed == 0 {
		c.entries[key] = &cacheEntry{result: res, createdAt: time.Now()}
	} else {
		delete(c.entries, key)
	}
	c.mu.Unlock()

	return res, false, nil
}

// Len returns the number of entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}

func imagesExist(res *Result) bool {
	for _, src := range res.Images {
		if _, err := os.Stat(src); err != nil {
			return false
		}
	}
	return true
}

func cacheKey(src []byte, opts Options) string {
	return fmt.Sprintf("%x:%s:%s:%t", sha256.Sum256(src), opts.Mode, opts.Format, opts.HTML)
}
