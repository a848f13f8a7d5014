package rules

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// CachedProvider wraps a Provider with a per-tenant TTL cache. Rule profiles
// change rarely, so fetched profiles are reused for the TTL window instead of
// hitting the upstream per job.
type CachedProvider struct {
	inner Provider
	ttl   time.Duration
	now   func() time.Time

	mu      sync.RWMutex
	entries map[uuid.UUID]cacheEntry
}

type cacheEntry struct {
	rule      *ValidationRule
	expiresAt time.Time
}

// NewCachedProvider wraps inner with a TTL cache.
func NewCachedProvider(inner Provider, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		inner:   inner,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[uuid.UUID]cacheEntry),
	}
}

// Rules returns the cached profile for the tenant, fetching from the wrapped
// provider on a miss or after expiry. Fetch errors are not cached.
func (c *CachedProvider) Rules(ctx context.Context, tenantID uuid.UUID) (*ValidationRule, error) {
	c.mu.RLock()
	entry, ok := c.entries[tenantID]
	c.mu.RUnlock()
	if ok && c.now().Before(entry.expiresAt) {
		return entry.rule, nil
	}

	rule, err := c.inner.Rules(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[tenantID] = cacheEntry{rule: rule, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()

	return rule, nil
}

// Invalidate drops the cached profile for a tenant.
func (c *CachedProvider) Invalidate(tenantID uuid.UUID) {
	c.mu.Lock()
	delete(c.entries, tenantID)
	c.mu.Unlock()
}
