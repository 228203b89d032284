package data

import (
	"context"
	"testing"
	"time"

	"github.com/quantfarm/regime-trader/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingProvider records how many times Fetch reaches the backend.
type countingProvider struct {
	bars  []types.OHLCV
	calls int
}

func (p *countingProvider) Name() string { return "counting" }

func (p *countingProvider) Fetch(_ context.Context, _ string, _, _ time.Time, _ string) ([]types.OHLCV, error) {
	p.calls++
	return p.bars, nil
}

func TestMemoryCache(t *testing.T) {
	cache := NewMemoryCache()
	bars := hourlyBars(3)

	_, ok := cache.Get("k")
	assert.False(t, ok)

	cache.Set("k", bars)
	got, ok := cache.Get("k")
	require.True(t, ok)
	assert.Len(t, got, 3)
	assert.Equal(t, 1, cache.Size())

	cache.Clear()
	assert.Equal(t, 0, cache.Size())
}

func TestCachedProvider_HitsBackendOnce(t *testing.T) {
	inner := &countingProvider{bars: hourlyBars(5)}
	provider := NewCachedProvider(inner)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(10 * time.Hour)

	for i := 0; i < 3; i++ {
		bars, err := provider.Fetch(context.Background(), "BTCUSDT", start, end, "1h")
		require.NoError(t, err)
		assert.Len(t, bars, 5)
	}
	assert.Equal(t, 1, inner.calls)
}

func TestCachedProvider_DistinctRangesMiss(t *testing.T) {
	inner := &countingProvider{bars: hourlyBars(5)}
	provider := NewCachedProvider(inner)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := provider.Fetch(context.Background(), "BTCUSDT", start, start.Add(time.Hour), "1h")
	require.NoError(t, err)
	_, err = provider.Fetch(context.Background(), "BTCUSDT", start, start.Add(2*time.Hour), "1h")
	require.NoError(t, err)
	_, err = provider.Fetch(context.Background(), "ETHUSDT", start, start.Add(time.Hour), "1h")
	require.NoError(t, err)

	assert.Equal(t, 3, inner.calls)
}

func TestCachedProvider_Name(t *testing.T) {
	provider := NewCachedProvider(&countingProvider{})
	assert.Equal(t, "counting (cached)", provider.Name())
}
