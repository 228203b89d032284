package data

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/quantfarm/regime-trader/pkg/types"
)

// MemoryCache is a simple map-backed Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string][]types.OHLCV
}

// NewMemoryCache creates an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string][]types.OHLCV)}
}

func (c *MemoryCache) Get(key string) ([]types.OHLCV, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	bars, ok := c.entries[key]
	return bars, ok
}

func (c *MemoryCache) Set(key string, bars []types.OHLCV) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = bars
}

func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]types.OHLCV)
}

func (c *MemoryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// CachedProvider wraps a Provider with an in-memory cache so the live
// analyzer does not refetch unchanged history on every poll.
type CachedProvider struct {
	inner Provider
	cache Cache
}

// NewCachedProvider wraps a provider with a fresh memory cache.
func NewCachedProvider(inner Provider) *CachedProvider {
	return &CachedProvider{inner: inner, cache: NewMemoryCache()}
}

func (p *CachedProvider) Name() string { return p.inner.Name() + " (cached)" }

func (p *CachedProvider) Fetch(ctx context.Context, symbol string, start, end time.Time, interval string) ([]types.OHLCV, error) {
	key := fmt.Sprintf("%s|%s|%d|%d", symbol, interval, start.UnixMilli(), end.UnixMilli())
	if bars, ok := p.cache.Get(key); ok {
		return bars, nil
	}
	bars, err := p.inner.Fetch(ctx, symbol, start, end, interval)
	if err != nil {
		return nil, err
	}
	p.cache.Set(key, bars)
	return bars, nil
}
