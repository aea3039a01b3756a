// Package cache stores transcoded outputs so identical inputs encoded with
// identical settings are not re-encoded.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
)

// ErrCacheMiss indicates a cache miss.
var ErrCacheMiss = errors.New("cache miss")

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Key identifies the output of encoding source with the given settings.
func Key(source []byte, format string, quality, maxWidth int) string {
	sum := sha256.Sum256(source)
	return fmt.Sprintf("%s:%s:q%d:w%d", hex.EncodeToString(sum[:]), format, quality, maxWidth)
}

type MemoryCache struct {
	mu         sync.RWMutex
	entries    map[string][]byte
	order      []string
	maxEntries int
}

// NewMemoryCache keeps at most maxEntries values, evicting the oldest first.
// maxEntries <= 0 means unbounded.
func NewMemoryCache(maxEntries int) *MemoryCache {
	return &MemoryCache{
		entries:    make(map[string][]byte),
		maxEntries: maxEntries,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	value, ok := c.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return append([]byte(nil), value...), nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = append([]byte(nil), value...)

	for c.maxEntries > 0 && len(c.order) > c.maxEntries {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	return nil
}

func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
