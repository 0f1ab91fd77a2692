package jobs

import (
	"context"

	"github.com/wonny/signalengine/pkg/logger"
)

// Expirer drops stored signals past their TTL
type Expirer interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// SignalCleanupJob removes expired signals from the store
type SignalCleanupJob struct {
	store  Expirer
	logger *logger.Logger
}

// NewSignalCleanupJob creates a new cleanup job
func NewSignalCleanupJob(store Expirer, log *logger.Logger) *SignalCleanupJob {
	return &SignalCleanupJob{
		store:  store,
		logger: log,
	}
}

// Name returns the job name
func (j *SignalCleanupJob) Name() string {
	return "signal_cleanup"
}

// Schedule returns the cron schedule (hourly)
func (j *SignalCleanupJob) Schedule() string {
	return "0 0 * * * *"
}

// Run deletes expired signals
func (j *SignalCleanupJob) Run(ctx context.Context) error {
	count, err := j.store.DeleteExpired(ctx)
	if err != nil {
		return err
	}

	if count > 0 {
		j.logger.WithField("removed", count).Info("Signal cleanup completed")
	}

	return nil
}

// ExpiringCache drops expired entries
type ExpiringCache interface {
	CleanExpired() int
}

// CacheCleanupJob evicts expired entries from the in-process market data cache
type CacheCleanupJob struct {
	cache  ExpiringCache
	logger *logger.Logger
}

// NewCacheCleanupJob creates a new cache cleanup job
func NewCacheCleanupJob(cache ExpiringCache, log *logger.Logger) *CacheCleanupJob {
	return &CacheCleanupJob{
		cache:  cache,
		logger: log,
	}
}

// Name returns the job name
func (j *CacheCleanupJob) Name() string {
	return "cache_cleanup"
}

// Schedule returns the cron schedule (every 5 minutes)
func (j *CacheCleanupJob) Schedule() string {
	return "0 */5 * * * *"
}

// Run removes expired cache entries
func (j *CacheCleanupJob) Run(ctx context.Context) error {
	count := j.cache.CleanExpired()

	j.logger.WithField("removed", count).Debug("Cache cleanup completed")

	return nil
}
