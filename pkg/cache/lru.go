// Package cache memoises decoded root-input blobs so a parameter read by
// many cells of a mapped function, or by more than one downstream
// function, is decoded from disk exactly once per run.
package cache

import (
	"fmt"
	"os"
	"time"

	"github.com/pipedag-dev/pipedag/pkg/alg/lru"
)

// DefaultCapacity is the entry count NewBlobCache uses for a capacity
// <= 0, and the size of the cache scheduler.Run creates when it is given
// no BlobCache.
const DefaultCapacity = 128

// BlobKey identifies one cached decode by the file's path, modification
// time, and size — cheap to stat, and sufficient to invalidate the entry
// if the blob is rewritten between loads within the same run.
type BlobKey struct {
	Path    string
	ModTime time.Time
	Size    int64
}

// KeyForFile stats path and builds the BlobKey a BlobCache should use for
// it.
func KeyForFile(path string) (BlobKey, error) {
	info, err := os.Stat(path)
	if err != nil {
		return BlobKey{}, fmt.Errorf("stat %q for cache key: %w", path, err)
	}

	return BlobKey{Path: path, ModTime: info.ModTime(), Size: info.Size()}, nil
}

// BlobCache is a fixed-capacity, least-recently-used cache from BlobKey
// to an arbitrary decoded value, backed by pkg/alg/lru's generic cache.
type BlobCache struct {
	inner *lru.Cache[BlobKey, any]
}

// NewBlobCache creates a BlobCache holding at most capacity entries.
// capacity <= 0 falls back to DefaultCapacity.
func NewBlobCache(capacity int) *BlobCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &BlobCache{inner: lru.New[BlobKey, any](lru.WithMaxEntries[BlobKey, any](capacity))}
}

// Get returns the cached value for key, promoting it to most-recently
// used.
func (c *BlobCache) Get(key BlobKey) (any, bool) {
	return c.inner.Get(key)
}

// Put records value for key, evicting the least-recently used entry if
// the cache is at capacity.
func (c *BlobCache) Put(key BlobKey, value any) {
	c.inner.Put(key, value)
}

// Stats returns the current cache statistics.
func (c *BlobCache) Stats() lru.Stats {
	return c.inner.Stats()
}

// Clear removes every entry from the cache.
func (c *BlobCache) Clear() {
	c.inner.Clear()
}
