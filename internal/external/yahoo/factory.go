package yahoo

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/wonny/signalengine/pkg/config"
	"github.com/wonny/signalengine/pkg/httputil"
	"github.com/wonny/signalengine/pkg/logger"
)

// NewFromConfig builds a throttled chart client. The local token bucket
// always applies; shared, when non-nil, adds a cross-process limit.
func NewFromConfig(cfg config.MarketDataConfig, shared httputil.Limiter, log *logger.Logger) *Client {
	limiters := chain{rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), max(cfg.Burst, 1))}
	if shared != nil {
		limiters = append(limiters, shared)
	}

	httpClient := httputil.NewWithTimeout(log, cfg.Timeout).
		WithRetry(cfg.MaxRetries, httputil.DefaultInitialDelay).
		WithLimiter(limiters).
		WithHeader("User-Agent", cfg.UserAgent)

	return NewClient(httpClient, cfg.BaseURL, log)
}

// chain waits on every limiter in order
type chain []httputil.Limiter

func (c chain) Wait(ctx context.Context) error {
	for _, l := range c {
		if err := l.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}
