package enrich

import (
	"context"
	"sync"

	"github.com/pfrederiksen/seminar-cal/internal/fetch"
)

// PageCache memoizes detail-page fetches for the lifetime of one pipeline
// run. Failed fetches are cached too, so a dead URL is requested once.
// Create a fresh cache per run; it is never shared between runs.
type PageCache struct {
	mu    sync.Mutex
	pages map[string]cachedPage
	hits  int
}

type cachedPage struct {
	body []byte
	err  error
}

// NewPageCache creates an empty cache.
func NewPageCache() *PageCache {
	return &PageCache{pages: make(map[string]cachedPage)}
}

// Get returns the cached page for url, fetching it with f on first use.
func (c *PageCache) Get(ctx context.Context, f fetch.Fetcher, url string) ([]byte, error) {
	c.mu.Lock()
	if p, ok := c.pages[url]; ok {
		c.hits++
		c.mu.Unlock()
		return p.body, p.err
	}
	c.mu.Unlock()

	body, err := f.Fetch(ctx, url)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages[url] = cachedPage{body: body, err: err}
	return body, err
}

// Size returns the number of cached URLs.
func (c *PageCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pages)
}

// Hits returns how many lookups were served from the cache.
func (c *PageCache) Hits() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits
}
