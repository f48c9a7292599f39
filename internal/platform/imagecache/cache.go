// Package imagecache keeps recently fetched image bytes in memory.
package imagecache

import (
	"bytes"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/phrazzld/graphfeed/internal/redact"
)

// Cache is a bounded, goroutine-safe LRU of raw image data keyed by URL.
type Cache struct {
	entries *lru.Cache[string, []byte]
	logger  *slog.Logger
}

// New creates a cache holding at most size images.
func New(size int, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "image_cache")

	entries, err := lru.NewWithEvict(size, func(key string, _ []byte) {
		log.Debug("image evicted", "url", redact.URL(key))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create image cache: %w", err)
	}
	return &Cache{entries: entries, logger: log}, nil
}

// Get returns a copy of the data stored for url.
func (c *Cache) Get(url string) ([]byte, bool) {
	data, ok := c.entries.Get(url)
	if !ok {
		return nil, false
	}
	return bytes.Clone(data), true
}

// Set stores a copy of data for url, evicting the least recently used entry when full.
func (c *Cache) Set(url string, data []byte) {
	if c.entries.Add(url, bytes.Clone(data)) {
		c.logger.Debug("image cache full, evicted oldest entry")
	}
}

// Contains reports whether url is cached without updating its recency.
func (c *Cache) Contains(url string) bool {
	return c.entries.Contains(url)
}

// Remove drops url from the cache.
func (c *Cache) Remove(url string) {
	c.entries.Remove(url)
}

// Len returns the number of cached images.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Purge empties the cache.
func (c *Cache) Purge() {
	c.entries.Purge()
}
