package provider

import (
	"context"
	"sync"
	"time"

	"nexusflow/pkg/model"
)

type cacheEntry struct {
	candles   []model.Candle
	fetchedAt time.Time
}

// CachingProvider wraps a Provider with an in-memory cache for GetCandles.
// One scan can ask for the same series more than once (analysis and
// heatmap); Reset clears the cache between scans. Entries older than the
// TTL are fetched again.
type CachingProvider struct {
	inner   Provider
	cache   map[string]cacheEntry
	mu      sync.Mutex
	maxBars int
	ttl     time.Duration
	now     func() time.Time
}

// NewCachingProvider creates a caching wrapper. maxBars is the number of
// bars always fetched so that smaller requests are served from one call.
// A ttl of zero keeps entries until Reset.
func NewCachingProvider(inner Provider, maxBars int, ttl time.Duration) *CachingProvider {
	return &CachingProvider{
		inner:   inner,
		cache:   make(map[string]cacheEntry),
		maxBars: maxBars,
		ttl:     ttl,
		now:     time.Now,
	}
}

func (p *CachingProvider) Name() string      { return p.inner.Name() }
func (p *CachingProvider) IsAvailable() bool { return p.inner.IsAvailable() }
func (p *CachingProvider) RateLimit() int    { return p.inner.RateLimit() }

func (p *CachingProvider) GetCandles(ctx context.Context, symbol string, interval model.Interval, bars int) ([]model.Candle, error) {
	key := symbol + "|" + string(interval)

	p.mu.Lock()
	entry, ok := p.cache[key]
	fresh := ok && (p.ttl <= 0 || p.now().Sub(entry.fetchedAt) < p.ttl)
	p.mu.Unlock()
	if fresh {
		return lastBars(entry.candles, bars), nil
	}

	fetchBars := max(p.maxBars, bars)
	candles, err := p.inner.GetCandles(ctx, symbol, interval, fetchBars)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.cache[key] = cacheEntry{candles: candles, fetchedAt: p.now()}
	p.mu.Unlock()

	return lastBars(candles, bars), nil
}

// Reset drops every cached series
func (p *CachingProvider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache = make(map[string]cacheEntry)
}
