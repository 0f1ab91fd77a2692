package backtest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/wonny/signalengine/internal/contracts"
	"github.com/wonny/signalengine/internal/indicators"
	"github.com/wonny/signalengine/internal/workpool"
	"github.com/wonny/signalengine/pkg/logger"
	"github.com/wonny/signalengine/pkg/metrics"
)

// ErrInsufficientData is returned when a series cannot produce a single trade
var ErrInsufficientData = errors.New("insufficient history for backtest")

// Scorer is the part of the signal scorer the engine replays
type Scorer interface {
	ScoreAt(symbol string, fv contracts.FeatureVector, sentiment *contracts.SentimentVector, minConfidence float64) (*contracts.Signal, bool)
}

// Config holds backtest configuration
type Config struct {
	Thresholds    []float64 // candidate confidence gates
	Lookback      int       // trailing sessions before the scored day
	HoldDays      int       // sessions a position is held
	SuccessReturn float64   // % a trade must exceed to count as a win
	Workers       int       // symbols processed concurrently
}

// DefaultConfig returns the calibrated defaults
func DefaultConfig() Config {
	return Config{
		Thresholds:    []float64{60, 70, 80, 90},
		Lookback:      indicators.DefaultLookback,
		HoldDays:      5,
		SuccessReturn: 2.0,
		Workers:       4,
	}
}

// Validate checks the configuration
func (c Config) Validate() error {
	if len(c.Thresholds) == 0 {
		return fmt.Errorf("at least one threshold is required")
	}
	for _, th := range c.Thresholds {
		if th < 0 || th > 100 {
			return fmt.Errorf("threshold %.1f out of range [0, 100]", th)
		}
	}
	if c.Lookback < indicators.MinHistory-1 {
		return fmt.Errorf("lookback must be >= %d", indicators.MinHistory-1)
	}
	if c.HoldDays <= 0 {
		return fmt.Errorf("hold days must be > 0")
	}
	return nil
}

// Engine replays the scorer over history at several confidence thresholds
type Engine struct {
	calc      *indicators.Calculator
	scorer    Scorer
	simulator *Simulator
	config    Config
	metrics   *metrics.Recorder
	logger    *logger.Logger
}

// NewEngine creates a new backtest engine
func NewEngine(calc *indicators.Calculator, scorer Scorer, config Config, log *logger.Logger) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid backtest config: %w", err)
	}

	thresholds := append([]float64(nil), config.Thresholds...)
	sort.Float64s(thresholds)
	config.Thresholds = thresholds

	return &Engine{
		calc:      calc,
		scorer:    scorer,
		simulator: NewSimulator(config.HoldDays, config.SuccessReturn),
		config:    config,
		logger:    log.WithField("module", "backtest"),
	}, nil
}

// WithMetrics attaches a metrics recorder
func (e *Engine) WithMetrics(m *metrics.Recorder) *Engine {
	e.metrics = m
	return e
}

// Config returns the effective configuration, thresholds ascending
func (e *Engine) Config() Config {
	return e.config
}

// RunSymbol backtests one symbol and returns one result per threshold.
// Each day is scored using only data up to and including that day; the
// close HoldDays sessions later is read as the exit.
func (e *Engine) RunSymbol(symbol string, prices []contracts.PricePoint) ([]contracts.BacktestResult, error) {
	lookback, hold := e.config.Lookback, e.config.HoldDays
	if len(prices) < lookback+hold+1 {
		return nil, fmt.Errorf("%s: %d sessions, need %d: %w", symbol, len(prices), lookback+hold+1, ErrInsufficientData)
	}

	series := e.calc.Series(prices, lookback)

	results := make([]contracts.BacktestResult, 0, len(e.config.Thresholds))
	for _, threshold := range e.config.Thresholds {
		trades := make([]contracts.Signal, 0)

		for k, fv := range series {
			day := lookback + k
			if day+hold >= len(prices) {
				break
			}

			sig, ok := e.scorer.ScoreAt(symbol, fv, nil, threshold)
			if !ok || sig.Confidence < threshold {
				continue
			}

			trades = append(trades, e.simulator.Close(*sig, prices[day+hold]))
		}

		results = append(results, e.simulator.Aggregate(symbol, threshold, trades))
	}

	return results, nil
}

// SymbolResult holds every threshold result for one symbol
type SymbolResult struct {
	Symbol  string                     `json:"symbol"`
	Results []contracts.BacktestResult `json:"results"`
}

// At returns the result for threshold
func (r SymbolResult) At(threshold float64) (contracts.BacktestResult, bool) {
	for _, res := range r.Results {
		if res.Threshold == threshold {
			return res, true
		}
	}
	return contracts.BacktestResult{}, false
}

// SymbolFailure records why a symbol was left out of a batch
type SymbolFailure struct {
	Symbol string `json:"symbol"`
	Error  string `json:"error"`
}

// BatchResult is the outcome of a multi-symbol backtest
type BatchResult struct {
	Thresholds []float64       `json:"thresholds"`
	Symbols    []SymbolResult  `json:"symbols"`
	Failed     []SymbolFailure `json:"failed"`
	StartedAt  time.Time       `json:"started_at"`
	Duration   time.Duration   `json:"duration"`
}

// RunBatch fetches history through provider and backtests every symbol.
// Symbols are independent: a failure is recorded and the batch continues.
// Results keep the order of symbols.
func (e *Engine) RunBatch(ctx context.Context, provider contracts.MarketDataProvider, symbols []string, days int) (*BatchResult, error) {
	e.logger.WithFields(map[string]interface{}{
		"symbols":    len(symbols),
		"days":       days,
		"thresholds": e.config.Thresholds,
		"workers":    e.config.Workers,
	}).Info("Starting backtest")

	start := time.Now()
	batch := &BatchResult{
		Thresholds: e.config.Thresholds,
		Symbols:    make([]SymbolResult, 0, len(symbols)),
		Failed:     make([]SymbolFailure, 0),
		StartedAt:  start,
	}

	runs := workpool.Map(ctx, symbols, e.config.Workers, func(ctx context.Context, symbol string) ([]contracts.BacktestResult, error) {
		prices, err := provider.History(ctx, symbol, days)
		if err != nil {
			e.metrics.RecordError("market_data")
			return nil, fmt.Errorf("fetch history: %w", err)
		}
		return e.RunSymbol(symbol, prices)
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i, run := range runs {
		symbol := symbols[i]
		if run.Err != nil {
			e.logger.WithError(run.Err).WithField("symbol", symbol).Warn("Backtest skipped symbol")
			batch.Failed = append(batch.Failed, SymbolFailure{Symbol: symbol, Error: run.Err.Error()})
			continue
		}
		batch.Symbols = append(batch.Symbols, SymbolResult{Symbol: symbol, Results: run.Value})
	}

	batch.Duration = time.Since(start)

	e.logger.WithFields(map[string]interface{}{
		"tested":   len(batch.Symbols),
		"failed":   len(batch.Failed),
		"duration": batch.Duration.Seconds(),
	}).Info("Backtest completed")

	return batch, nil
}
