// Package scanner runs a live scan: fetch, score, store, publish and notify.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/signalengine/internal/contracts"
	"github.com/wonny/signalengine/internal/indicators"
	"github.com/wonny/signalengine/internal/notify"
	"github.com/wonny/signalengine/internal/sentiment"
	"github.com/wonny/signalengine/internal/workpool"
	"github.com/wonny/signalengine/pkg/logger"
	"github.com/wonny/signalengine/pkg/metrics"
)

// Execution modes reported for a scan
const (
	ModeImmediate = "immediate"
	ModeQueued    = "queued"
)

// StatusSuccess is the report status of a completed scan
const StatusSuccess = "success"

var (
	// ErrNoData marks a symbol whose provider returned no bars
	ErrNoData = errors.New("no market data")

	// ErrScanInProgress is returned when Run is called while another scan runs
	ErrScanInProgress = errors.New("scan already in progress")
)

// Scorer is the part of the signal scorer a scan needs
type Scorer interface {
	Score(symbol string, fv contracts.FeatureVector, sentiment *contracts.SentimentVector) (*contracts.Signal, bool)
}

// Config holds scan configuration
type Config struct {
	Symbols        []string
	HistoryDays    int
	Workers        int
	HighConfidence float64 // digest floor
	DigestSize     int     // signals detailed in a digest
}

// DefaultConfig returns the live scan defaults
func DefaultConfig() Config {
	return Config{
		Symbols:        []string{"AAPL", "GOOGL", "MSFT", "TSLA", "AMZN", "NVDA", "META", "SPY", "QQQ"},
		HistoryDays:    30,
		Workers:        4,
		HighConfidence: notify.DefaultMinConfidence,
		DigestSize:     notify.DefaultSize,
	}
}

// Deps are the collaborators of a scan. Sentiment, Publisher and Notifier
// are optional.
type Deps struct {
	MarketData contracts.MarketDataProvider
	Sentiment  contracts.SentimentProvider
	Scorer     Scorer
	Store      contracts.SignalStore
	Publisher  contracts.SignalPublisher
	Notifier   contracts.Notifier
	Clock      contracts.MarketClock
}

// Report summarizes one scan
type Report struct {
	Status            string             `json:"status"`
	SignalsFound      int                `json:"signals_found"`
	SignalsStored     int                `json:"signals_stored"`
	HighConfidence    int                `json:"high_confidence_signals"`
	NotificationsSent int                `json:"notifications_sent"`
	Skipped           []string           `json:"skipped"`
	MarketOpen        bool               `json:"market_open"`
	ExecutionMode     string             `json:"execution_mode"`
	Signals           []contracts.Signal `json:"signals"`
	Timestamp         time.Time          `json:"timestamp"`
}

// Scanner scores the configured symbols on demand
type Scanner struct {
	deps    Deps
	calc    *indicators.Calculator
	config  Config
	metrics *metrics.Recorder
	logger  *logger.Logger
	now     func() time.Time
	running sync.Mutex
}

// New creates a scanner
func New(deps Deps, calc *indicators.Calculator, config Config, log *logger.Logger) (*Scanner, error) {
	if deps.MarketData == nil || deps.Scorer == nil || deps.Store == nil || deps.Clock == nil {
		return nil, fmt.Errorf("market data, scorer, store and clock are required")
	}
	if len(config.Symbols) == 0 {
		return nil, fmt.Errorf("at least one symbol is required")
	}
	if deps.Sentiment == nil {
		deps.Sentiment = sentiment.None{}
	}
	if config.HistoryDays <= 0 {
		config.HistoryDays = DefaultConfig().HistoryDays
	}

	return &Scanner{
		deps:   deps,
		calc:   calc,
		config: config,
		logger: log.WithField("module", "scanner"),
		now:    time.Now,
	}, nil
}

// WithMetrics attaches a metrics recorder
func (s *Scanner) WithMetrics(m *metrics.Recorder) *Scanner {
	s.metrics = m
	return s
}

// Run scans every symbol once. Per-symbol, store, publish and notify
// failures are logged and counted; only cancellation returns an error.
func (s *Scanner) Run(ctx context.Context) (*Report, error) {
	if !s.running.TryLock() {
		return nil, ErrScanInProgress
	}
	defer s.running.Unlock()

	start := time.Now()
	now := s.now()
	marketOpen := s.deps.Clock.IsOpen(now)

	s.logger.WithFields(map[string]interface{}{
		"symbols":     len(s.config.Symbols),
		"market_open": marketOpen,
	}).Info("Starting scan")

	results := workpool.Map(ctx, s.config.Symbols, s.config.Workers, s.scanSymbol)

	if err := ctx.Err(); err != nil {
		s.metrics.RecordScan("cancelled", time.Since(start))
		return nil, err
	}

	report := &Report{
		Status:        StatusSuccess,
		Skipped:       make([]string, 0),
		Signals:       make([]contracts.Signal, 0),
		MarketOpen:    marketOpen,
		ExecutionMode: ModeQueued,
		Timestamp:     now,
	}
	if marketOpen {
		report.ExecutionMode = ModeImmediate
	}

	for i, r := range results {
		symbol := s.config.Symbols[i]
		if r.Err != nil {
			s.logger.WithError(r.Err).WithField("symbol", symbol).Warn("Skipped symbol")
			report.Skipped = append(report.Skipped, symbol)
			continue
		}
		if r.Value == nil {
			continue
		}

		sig := r.Value.WithExecution(marketOpen)
		sig.GeneratedAt = now
		report.Signals = append(report.Signals, sig)
		s.metrics.RecordSignal(sig.Profile, string(sig.Type))
	}
	report.SignalsFound = len(report.Signals)

	for _, sig := range report.Signals {
		if err := s.deps.Store.Save(ctx, sig); err != nil {
			s.metrics.RecordError("store")
			s.logger.WithError(err).WithField("symbol", sig.Symbol).Error("Failed to store signal")
			continue
		}
		report.SignalsStored++
	}

	if s.deps.Publisher != nil && len(report.Signals) > 0 {
		if err := s.deps.Publisher.Publish(ctx, report.Signals); err != nil {
			s.metrics.RecordError("publish")
			s.logger.WithError(err).Error("Failed to publish signals")
		}
	}

	high := notify.HighConfidence(report.Signals, s.config.HighConfidence)
	report.HighConfidence = len(high)
	if s.deps.Notifier != nil {
		if digest, ok := notify.FormatDigest(high, marketOpen, s.config.DigestSize, now); ok {
			if err := s.deps.Notifier.Notify(ctx, digest); err != nil {
				s.metrics.RecordError("notify")
				s.logger.WithError(err).Error("Failed to send digest")
			} else {
				report.NotificationsSent = 1
			}
		}
	}

	s.metrics.RecordScan(StatusSuccess, time.Since(start))
	s.logger.WithFields(map[string]interface{}{
		"signals_found":   report.SignalsFound,
		"signals_stored":  report.SignalsStored,
		"high_confidence": report.HighConfidence,
		"skipped":         len(report.Skipped),
		"execution_mode":  report.ExecutionMode,
	}).Info("Scan completed")

	return report, nil
}

// scanSymbol returns the symbol's signal, nil when the gates reject it
func (s *Scanner) scanSymbol(ctx context.Context, symbol string) (*contracts.Signal, error) {
	prices, err := s.deps.MarketData.History(ctx, symbol, s.config.HistoryDays)
	if err != nil {
		s.metrics.RecordError("market_data")
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	if len(prices) == 0 {
		return nil, ErrNoData
	}

	sv, err := s.deps.Sentiment.Sentiment(ctx, symbol)
	if err != nil {
		s.metrics.RecordError("sentiment")
		s.logger.WithError(err).WithField("symbol", symbol).Warn("Sentiment unavailable, scoring technicals only")
		sv = nil
	}

	window := prices
	if n := indicators.DefaultLookback + 1; len(window) > n {
		window = window[len(window)-n:]
	}

	fv, err := s.calc.Compute(window)
	if err != nil {
		return nil, fmt.Errorf("compute indicators: %w", err)
	}

	sig, ok := s.deps.Scorer.Score(symbol, fv, sv)
	if !ok {
		return nil, nil
	}

	s.logger.WithFields(map[string]interface{}{
		"symbol":      symbol,
		"signal_type": sig.Type,
		"confidence":  sig.Confidence,
	}).Debug("Signal generated")

	return sig, nil
}
