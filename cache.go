package overlaypost

import (
	"sync"
	"time"
)

// TemplateCache is an in-memory cache of the template library listing with TTL.
type TemplateCache struct {
	mu        sync.RWMutex
	templates []Template
	fetched   time.Time
	ttl       time.Duration
	store     *Store
}

// NewTemplateCache creates a TemplateCache backed by the given Store.
func NewTemplateCache(s *Store, ttl time.Duration) *TemplateCache {
	return &TemplateCache{store: s, ttl: ttl}
}

func (c *TemplateCache) valid() bool {
	return c.templates != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *TemplateCache) Invalidate() {
	c.mu.Lock()
	c.templates = nil
	c.mu.Unlock()
}

// ListTemplates returns the cached listing, reloading it once the TTL passes.
// It tries a read lock first; only takes a write lock if a reload is needed.
func (c *TemplateCache) ListTemplates() ([]Template, error) {
	c.mu.RLock()
	if c.valid() {
		templates := c.templates
		c.mu.RUnlock()
		return templates, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid() {
		return c.templates, nil
	}
	templates, err := c.store.ListTemplates()
	if err != nil {
		return nil, err
	}
	if templates == nil {
		templates = []Template{}
	}
	c.templates = templates
	c.fetched = time.Now()
	return c.templates, nil
}
