package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/signalengine/internal/contracts"
	"github.com/wonny/signalengine/internal/testutil"
	"github.com/wonny/signalengine/pkg/logger"
)

type countingProvider struct {
	prices []contracts.PricePoint
	err    error
	calls  int
}

func (p *countingProvider) History(context.Context, string, int) ([]contracts.PricePoint, error) {
	p.calls++
	return p.prices, p.err
}

// mapCache mimics redis.Cache by round-tripping values through JSON
type mapCache struct {
	data    map[string][]byte
	ttls    map[string]time.Duration
	failGet bool
	failSet bool
}

func newMapCache() *mapCache {
	return &mapCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *mapCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	if c.failGet {
		return false, errors.New("connection refused")
	}
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *mapCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.failSet {
		return errors.New("connection refused")
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	c.ttls[key] = ttl
	return nil
}

func fixedNow() time.Time { return time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC) }

func TestCachedProvider_HitAfterMiss(t *testing.T) {
	upstream := &countingProvider{prices: testutil.Flat(12, 50)}
	cache := newMapCache()

	p := NewCachedProvider(upstream, cache, 15*time.Minute, logger.NewNop())
	p.now = fixedNow

	first, err := p.History(context.Background(), "AAPL", 30)
	require.NoError(t, err)
	second, err := p.History(context.Background(), "AAPL", 30)
	require.NoError(t, err)

	assert.Equal(t, 1, upstream.calls)
	assert.Equal(t, len(first), len(second))
	assert.True(t, first[0].Date.Equal(second[0].Date))
	assert.Equal(t, 15*time.Minute, cache.ttls["history:AAPL:30:2024-03-04"])
}

func TestCachedProvider_KeysBySymbolAndWindow(t *testing.T) {
	upstream := &countingProvider{prices: testutil.Flat(12, 50)}
	p := NewCachedProvider(upstream, newMapCache(), time.Minute, logger.NewNop())
	p.now = fixedNow

	_, _ = p.History(context.Background(), "AAPL", 30)
	_, _ = p.History(context.Background(), "AAPL", 365)
	_, _ = p.History(context.Background(), "MSFT", 30)

	assert.Equal(t, 3, upstream.calls)
}

func TestCachedProvider_CacheFailuresFallThrough(t *testing.T) {
	upstream := &countingProvider{prices: testutil.Flat(12, 50)}
	cache := newMapCache()
	cache.failGet, cache.failSet = true, true

	p := NewCachedProvider(upstream, cache, time.Minute, logger.NewNop())

	prices, err := p.History(context.Background(), "AAPL", 30)
	require.NoError(t, err)
	assert.Len(t, prices, 12)
}

func TestCachedProvider_UpstreamErrorNotCached(t *testing.T) {
	upstream := &countingProvider{err: errors.New("timeout")}
	cache := newMapCache()

	p := NewCachedProvider(upstream, cache, time.Minute, logger.NewNop())

	_, err := p.History(context.Background(), "AAPL", 30)
	assert.EqualError(t, err, "timeout")
	assert.Empty(t, cache.data)
}

func TestCachedProvider_ZeroTTLBypasses(t *testing.T) {
	upstream := &countingProvider{prices: testutil.Flat(12, 50)}
	cache := newMapCache()

	p := NewCachedProvider(upstream, cache, 0, logger.NewNop())
	_, _ = p.History(context.Background(), "AAPL", 30)
	_, _ = p.History(context.Background(), "AAPL", 30)

	assert.Equal(t, 2, upstream.calls)
	assert.Empty(t, cache.data)
}
