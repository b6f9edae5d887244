package ncdot

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/samuelramdial/cumberland-storm-status/internal/domain"
	"github.com/samuelramdial/cumberland-storm-status/internal/observability"
)

// incidentSource is the method set the cache decorates.
type incidentSource interface {
	CountyIncidents(ctx context.Context, countyID int) ([]domain.RawIncident, error)
	Counties(ctx context.Context) ([]domain.County, error)
}

// CachedClient wraps a feed client with a short-TTL per-county memo of
// incident batches. A hit returns the previous batch unchanged; a miss
// fetches and repopulates. Concurrent misses on the same county may fetch
// redundantly, which is fine: the fetch is idempotent and side-effect-free.
// The county directory passes through uncached.
type CachedClient struct {
	inner   incidentSource
	ttl     time.Duration
	clock   clockwork.Clock
	metrics *observability.Metrics

	mu      sync.Mutex
	entries map[int]cacheEntry
}

type cacheEntry struct {
	incidents []domain.RawIncident
	expires   time.Time
}

// NewCachedClient creates a cache decorator around a feed client.
func NewCachedClient(inner incidentSource, ttl time.Duration, metrics *observability.Metrics) *CachedClient {
	return &CachedClient{
		inner:   inner,
		ttl:     ttl,
		clock:   clockwork.NewRealClock(),
		metrics: metrics,
		entries: make(map[int]cacheEntry),
	}
}

func (c *CachedClient) CountyIncidents(ctx context.Context, countyID int) ([]domain.RawIncident, error) {
	c.mu.Lock()
	if e, ok := c.entries[countyID]; ok && c.clock.Now().Before(e.expires) {
		c.mu.Unlock()
		c.metrics.FeedCache.WithLabelValues("hit").Inc()
		return e.incidents, nil
	}
	c.mu.Unlock()
	c.metrics.FeedCache.WithLabelValues("miss").Inc()

	incidents, err := c.inner.CountyIncidents(ctx, countyID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[countyID] = cacheEntry{
		incidents: incidents,
		expires:   c.clock.Now().Add(c.ttl),
	}
	c.mu.Unlock()
	return incidents, nil
}

func (c *CachedClient) Counties(ctx context.Context) ([]domain.County, error) {
	return c.inner.Counties(ctx)
}
