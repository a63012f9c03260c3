package resolver

import (
	"context"
	"log/slog"
	"sync"
)

// Cache memoizes successful resolutions for the lifetime of a session.
// Entries are never evicted; resolved URLs are stable for as long as the
// agent runs. Failures are not cached, so transient backend errors retry on
// the next lookup.
type Cache struct {
	inner  Resolver
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[string]string
}

func NewCache(inner Resolver, logger *slog.Logger) *Cache {
	return &Cache{
		inner:   inner,
		logger:  logger,
		entries: make(map[string]string),
	}
}

func (c *Cache) Resolve(ctx context.Context, mediaID string) (string, error) {
	c.mu.RLock()
	url, ok := c.entries[mediaID]
	c.mu.RUnlock()
	if ok {
		return url, nil
	}

	url, err := c.inner.Resolve(ctx, mediaID)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.entries[mediaID] = url
	c.mu.Unlock()
	return url, nil
}

// Len returns the number of cached resolutions.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
