// Package tilecache bounds the number of rendered PNG tiles kept in memory
// with a simple least-recently-used eviction policy.
package tilecache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCapacity is the number of tiles cached when no override is given.
const DefaultCapacity = 128

// Key identifies one cached render: a tile coordinate plus the aggregation
// parameters that influenced its pixels. Two requests for the same tile but
// different windows or QC settings must never collide.
type Key struct {
	Z, X, Y   int
	WindowMs  int64
	EndMs     int64 // 0 means "now" at render time
	QCStrict  bool
	Geodetic  bool // true selects the geodetic grid variant, false ABI
}

// String renders the key as the cache-key string used in logs and metrics.
func (k Key) String() string {
	grid := "abi"
	if k.Geodetic {
		grid = "geodetic"
	}
	qc := 0
	if k.QCStrict {
		qc = 1
	}
	return fmt.Sprintf("%d/%d/%d?w=%d&t=%d&qc=%d&g=%s", k.Z, k.X, k.Y, k.WindowMs, k.EndMs, qc, grid)
}

// Cache is a bounded LRU of rendered tile PNGs.
type Cache struct {
	inner *lru.Cache[string, []byte]
}

// New builds a tile cache with room for capacity entries. A non-positive
// capacity falls back to DefaultCapacity.
func New(capacity int) (*Cache, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	inner, err := lru.New[string, []byte](capacity)
	if err != nil {
		return nil, fmt.Errorf("tilecache: new lru: %w", err)
	}
	return &Cache{inner: inner}, nil
}

// Get returns a previously rendered tile's PNG bytes, if still cached.
func (c *Cache) Get(key Key) ([]byte, bool) {
	return c.inner.Get(key.String())
}

// Put stores a rendered tile's PNG bytes, evicting the least-recently-used
// entry if the cache is already at capacity.
func (c *Cache) Put(key Key, png []byte) {
	c.inner.Add(key.String(), png)
}

// Len reports how many tiles are currently cached.
func (c *Cache) Len() int {
	return c.inner.Len()
}

// Purge discards every cached tile. Called whenever an ingest appends new
// events (the HTTP ingest paths, and the poller's per-granule OnIngested hook
// wired in cmd/api), since new events can change any tile's pixels.
func (c *Cache) Purge() {
	c.inner.Purge()
}
