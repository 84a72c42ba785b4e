package stats

import (
	"context"
	"sync"
	"time"

	"github.com/cliptube/backend/internal/models"
)

// Provider computes platform-wide totals.
type Provider interface {
	Totals(ctx context.Context) (models.Stats, error)
}

// CachingProvider wraps another Provider with a TTL-based in-memory cache.
// Dashboard counts tolerate staleness, so every request within the TTL is
// served from the last computed snapshot.
type CachingProvider struct {
	base Provider
	ttl  time.Duration

	mu      sync.RWMutex
	cached  models.Stats
	expires time.Time
}

// NewCachingProvider returns a Provider that caches totals for the provided TTL.
func NewCachingProvider(base Provider, ttl time.Duration) *CachingProvider {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachingProvider{base: base, ttl: ttl}
}

// Totals returns the cached snapshot when fresh, otherwise it delegates to
// the underlying provider and stores the result.
func (c *CachingProvider) Totals(ctx context.Context) (models.Stats, error) {
	now := time.Now()

	c.mu.RLock()
	cached, expires := c.cached, c.expires
	c.mu.RUnlock()
	if now.Before(expires) {
		return cached, nil
	}

	totals, err := c.base.Totals(ctx)
	if err != nil {
		return models.Stats{}, err
	}

	c.mu.Lock()
	c.cached = totals
	c.expires = now.Add(c.ttl)
	c.mu.Unlock()

	return totals, nil
}
