// Package secretcache implements the process-lifetime, read-through cache
// over the secret store described in spec §4.13 / §9: initialized on first
// use, never invalidated, safe under the per-invocation single-owner model.
package secretcache

import (
	"context"
	"sync"
)

// Fetcher fetches a secret's raw string value; normally backed by
// internal/awsx/secretsmanager.
type Fetcher interface {
	GetSecretString(ctx context.Context, secretID string) (string, error)
}

// Cache mirrors the teacher's configurationLock sync.RWMutex pattern: reads
// take the read lock and only escalate to a write lock on a cache miss.
type Cache struct {
	fetcher Fetcher

	mu     sync.RWMutex
	values map[string]string
}

func New(fetcher Fetcher) *Cache {
	return &Cache{fetcher: fetcher, values: make(map[string]string)}
}

// Get returns the cached value for secretID, fetching and caching it on
// first access.
func (c *Cache) Get(ctx context.Context, secretID string) (string, error) {
	c.mu.RLock()
	if v, ok := c.values[secretID]; ok {
		c.mu.RUnlock()
		return v, nil
	}
	c.mu.RUnlock()

	v, err := c.fetcher.GetSecretString(ctx, secretID)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.values[secretID] = v
	c.mu.Unlock()

	return v, nil
}
