package tenant

import (
	"context"
	"sync"
	"time"

	"github.com/gosuda/folio/internal/domain"
)

type cachedProfile struct {
	profile   domain.Profile
	expiresAt time.Time
}

// MemoryCache is an in-process domain.ProfileCache with a fixed TTL.
// A zero TTL keeps entries until evicted.
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cachedProfile
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cachedProfile),
	}
}

func (c *MemoryCache) Lookup(_ context.Context, slug string) (*domain.Profile, error) {
	key := domain.NormalizeSlug(slug)

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, nil
	}

	p := e.profile
	return &p, nil
}

func (c *MemoryCache) Store(_ context.Context, p *domain.Profile) error {
	if p == nil || p.Slug == "" {
		return domain.ErrInvalidSlug
	}

	e := cachedProfile{profile: *p}
	e.profile.Slug = domain.NormalizeSlug(p.Slug)
	if c.ttl > 0 {
		e.expiresAt = c.now().Add(c.ttl)
	}

	c.mu.Lock()
	c.entries[e.profile.Slug] = e
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Evict(_ context.Context, slug string) error {
	c.mu.Lock()
	delete(c.entries, domain.NormalizeSlug(slug))
	c.mu.Unlock()
	return nil
}

// Len returns the number of entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
