// Package marketdata layers a Redis cache over a market data provider.
package marketdata

import (
	"context"
	"time"

	"github.com/wonny/signalengine/internal/contracts"
	"github.com/wonny/signalengine/pkg/logger"
	"github.com/wonny/signalengine/pkg/metrics"
	"github.com/wonny/signalengine/pkg/redis"
)

// Cache is the subset of redis.Cache the provider needs
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

var _ Cache = (*redis.Cache)(nil)

// CachedProvider serves History from cache, falling through to the upstream
// provider on a miss or any cache failure
type CachedProvider struct {
	upstream contracts.MarketDataProvider
	cache    Cache
	ttl      time.Duration
	metrics  *metrics.Recorder
	logger   *logger.Logger
	now      func() time.Time
}

// NewCachedProvider wraps upstream. A zero ttl disables caching.
func NewCachedProvider(upstream contracts.MarketDataProvider, cache Cache, ttl time.Duration, log *logger.Logger) *CachedProvider {
	return &CachedProvider{
		upstream: upstream,
		cache:    cache,
		ttl:      ttl,
		logger:   log.WithField("module", "marketdata"),
		now:      time.Now,
	}
}

// WithMetrics attaches a metrics recorder
func (p *CachedProvider) WithMetrics(m *metrics.Recorder) *CachedProvider {
	p.metrics = m
	return p
}

var _ contracts.MarketDataProvider = (*CachedProvider)(nil)

// History returns cached bars when present. Keys include the UTC date so a
// new session never reads yesterday's window.
func (p *CachedProvider) History(ctx context.Context, symbol string, days int) ([]contracts.PricePoint, error) {
	if p.cache == nil || p.ttl <= 0 {
		return p.fetch(ctx, symbol, days)
	}

	key := redis.HistoryKey(symbol, days, p.now().UTC().Format("2006-01-02"))

	var cached []contracts.PricePoint
	found, err := p.cache.Get(ctx, key, &cached)
	if err != nil {
		p.metrics.RecordError("cache")
		p.logger.WithError(err).WithField("symbol", symbol).Warn("Cache read failed")
	}
	if found && len(cached) > 0 {
		return cached, nil
	}

	prices, err := p.fetch(ctx, symbol, days)
	if err != nil {
		return nil, err
	}

	if err := p.cache.Set(ctx, key, prices, p.ttl); err != nil {
		p.metrics.RecordError("cache")
		p.logger.WithError(err).WithField("symbol", symbol).Warn("Cache write failed")
	}

	return prices, nil
}

func (p *CachedProvider) fetch(ctx context.Context, symbol string, days int) ([]contracts.PricePoint, error) {
	start := time.Now()
	prices, err := p.upstream.History(ctx, symbol, days)
	p.metrics.RecordLatency("market_data", time.Since(start))
	return prices, err
}
