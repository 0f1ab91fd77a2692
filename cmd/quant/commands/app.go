package commands

import (
	"context"
	"fmt"

	"github.com/wonny/signalengine/internal/api"
	"github.com/wonny/signalengine/internal/backtest"
	"github.com/wonny/signalengine/internal/contracts"
	"github.com/wonny/signalengine/internal/external/yahoo"
	"github.com/wonny/signalengine/internal/indicators"
	"github.com/wonny/signalengine/internal/marketclock"
	"github.com/wonny/signalengine/internal/marketdata"
	"github.com/wonny/signalengine/internal/notify"
	"github.com/wonny/signalengine/internal/publish"
	"github.com/wonny/signalengine/internal/scanner"
	"github.com/wonny/signalengine/internal/scoring"
	"github.com/wonny/signalengine/internal/sentiment"
	"github.com/wonny/signalengine/internal/store"
	"github.com/wonny/signalengine/pkg/config"
	"github.com/wonny/signalengine/pkg/database"
	"github.com/wonny/signalengine/pkg/httputil"
	"github.com/wonny/signalengine/pkg/logger"
	"github.com/wonny/signalengine/pkg/metrics"
	"github.com/wonny/signalengine/pkg/redis"
)

// storeBackend is a signal store that can also expire old rows
type storeBackend interface {
	contracts.SignalStore
	DeleteExpired(ctx context.Context) (int64, error)
}

// app holds the collaborators shared by every command.
// Wiring order: config, logger, redis, market data, store, metrics.
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	metrics *metrics.Recorder

	redis    *redis.Client
	db       *database.DB
	producer *publish.Producer

	marketData contracts.MarketDataProvider
	store      storeBackend

	// memCache replaces Redis for history when Redis is disabled
	memCache *marketdata.MemoryCache
}

// newApp loads configuration and connects the shared infrastructure
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)
	a := &app{cfg: cfg, log: log}

	if cfg.MetricsEnabled {
		a.metrics = metrics.New()
	}

	a.redis, err = redis.New(ctx, cfg.Redis)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, continuing without cache and shared rate limit")
		a.redis = redis.NewDisabled()
	}

	var shared httputil.Limiter
	var cache marketdata.Cache
	if a.redis.Enabled() {
		perSecond := int(cfg.MarketData.RequestsPerSecond)
		shared = redis.NewRateLimiter(a.redis, "signalengine").For(redis.ChartRateLimit(perSecond))
		cache = redis.NewCache(a.redis, "signalengine")
	} else {
		a.memCache = marketdata.NewMemoryCache(log)
		cache = a.memCache
	}
	chart := yahoo.NewFromConfig(cfg.MarketData, shared, log)
	a.marketData = marketdata.NewCachedProvider(chart, cache, cfg.MarketData.CacheTTL, log).
		WithMetrics(a.metrics)

	switch cfg.Store {
	case config.StorePostgres:
		a.db, err = database.New(ctx, cfg.Database)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		pg := store.NewPostgres(a.db.Pool, cfg.Scan.SignalTTL)
		if err := pg.EnsureSchema(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		a.store = pg
	default:
		a.store = store.NewMemory(cfg.Scan.SignalTTL)
	}

	log.WithFields(map[string]interface{}{
		"env":   cfg.Env,
		"store": cfg.Store,
		"redis": a.redis.Enabled(),
		"kafka": cfg.Kafka.Enabled,
	}).Debug("Application initialized")

	return a, nil
}

// Close releases every connection opened by newApp or newScanner
func (a *app) Close() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.log.WithError(err).Warn("Failed to close Kafka producer")
		}
	}
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
}

// healthChecks lists the connected dependencies probed by /health
func (a *app) healthChecks() []api.HealthCheck {
	var checks []api.HealthCheck
	if a.db != nil {
		checks = append(checks, api.HealthCheck{Name: "postgres", Ping: a.db.Ping})
	}
	if a.redis.Enabled() {
		checks = append(checks, api.HealthCheck{Name: "redis", Ping: func(ctx context.Context) error {
			return a.redis.Redis().Ping(ctx).Err()
		}})
	}
	return checks
}

// newScanner builds the live scanner. profileName and profilePath override
// the configured profile when non-empty.
func (a *app) newScanner(profileName, profilePath string, symbols []string) (*scanner.Scanner, error) {
	scan := a.cfg.Scan
	if profileName == "" && profilePath == "" {
		profileName, profilePath = scan.Profile, scan.ProfilePath
	}
	profile, err := scoring.Resolve(profileName, profilePath)
	if err != nil {
		return nil, fmt.Errorf("resolve scoring profile: %w", err)
	}

	var sent contracts.SentimentProvider = sentiment.None{}
	if scan.SentimentFile != "" {
		static, err := sentiment.LoadFile(scan.SentimentFile)
		if err != nil {
			return nil, fmt.Errorf("load sentiment: %w", err)
		}
		a.log.WithField("symbols", static.Symbols()).Info("Loaded sentiment snapshot")
		sent = static
	}

	var notifier contracts.Notifier = notify.NewLog(a.log)
	if a.cfg.Notify.WebhookURL != "" {
		client := httputil.NewWithTimeout(a.log, a.cfg.Notify.Timeout)
		notifier = notify.NewWebhook(client, a.cfg.Notify.WebhookURL, a.log)
	}

	var publisher contracts.SignalPublisher = publish.Nop{}
	if a.cfg.Kafka.Enabled {
		if a.producer == nil {
			a.producer = publish.NewProducer(a.cfg.Kafka.Brokers, a.cfg.Kafka.Topic)
		}
		publisher = a.producer
	}

	if len(symbols) == 0 {
		symbols = scan.Symbols
	}

	s, err := scanner.New(scanner.Deps{
		MarketData: a.marketData,
		Sentiment:  sent,
		Scorer:     scoring.NewScorer(*profile),
		Store:      a.store,
		Publisher:  publisher,
		Notifier:   notifier,
		Clock:      marketclock.NewNewYork(),
	}, indicators.New(), scanner.Config{
		Symbols:        symbols,
		HistoryDays:    scan.HistoryDays,
		Workers:        scan.Workers,
		HighConfidence: scan.HighConfidence,
		DigestSize:     scan.DigestSize,
	}, a.log)
	if err != nil {
		return nil, err
	}

	a.log.WithFields(map[string]interface{}{
		"profile": profile.Name,
		"symbols": len(symbols),
	}).Info("Scanner ready")

	return s.WithMetrics(a.metrics), nil
}

// newBacktestEngine builds the backtest engine from configuration
func (a *app) newBacktestEngine(profileName, profilePath string) (*backtest.Engine, error) {
	bt := a.cfg.Backtest
	if profileName == "" && profilePath == "" {
		profileName, profilePath = bt.Profile, bt.ProfilePath
	}
	profile, err := scoring.Resolve(profileName, profilePath)
	if err != nil {
		return nil, fmt.Errorf("resolve scoring profile: %w", err)
	}

	engine, err := backtest.NewEngine(indicators.New(), scoring.NewScorer(*profile), backtest.Config{
		Thresholds:    bt.Thresholds,
		Lookback:      bt.Lookback,
		HoldDays:      bt.HoldDays,
		SuccessReturn: bt.SuccessReturn,
		Workers:       bt.Workers,
	}, a.log)
	if err != nil {
		return nil, err
	}

	return engine.WithMetrics(a.metrics), nil
}
