package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/signalengine/internal/backtest"
	"github.com/wonny/signalengine/internal/contracts"
	"github.com/wonny/signalengine/internal/optimizer"
	"github.com/wonny/signalengine/pkg/logger"
	"github.com/wonny/signalengine/pkg/metrics"
)

// DefaultBacktestSchedule runs Saturdays at 06:00
const DefaultBacktestSchedule = "0 0 6 * * 6"

// BacktestJob replays the scorer over a symbol list and logs the threshold
// recommendation
type BacktestJob struct {
	engine    *backtest.Engine
	provider  contracts.MarketDataProvider
	symbols   []string
	days      int
	reference float64
	schedule  string
	metrics   *metrics.Recorder
	logger    *logger.Logger

	last *optimizer.Summary
}

// NewBacktestJob creates a new backtest job. An empty schedule uses the default.
func NewBacktestJob(engine *backtest.Engine, provider contracts.MarketDataProvider, symbols []string, days int, reference float64, schedule string, log *logger.Logger) *BacktestJob {
	if schedule == "" {
		schedule = DefaultBacktestSchedule
	}
	return &BacktestJob{
		engine:    engine,
		provider:  provider,
		symbols:   symbols,
		days:      days,
		reference: reference,
		schedule:  schedule,
		logger:    log,
	}
}

// WithMetrics attaches a metrics recorder
func (j *BacktestJob) WithMetrics(m *metrics.Recorder) *BacktestJob {
	j.metrics = m
	return j
}

// Name returns the job name
func (j *BacktestJob) Name() string {
	return "threshold_backtest"
}

// Schedule returns the cron schedule
func (j *BacktestJob) Schedule() string {
	return j.schedule
}

// Last returns the most recent summary, nil before the first run
func (j *BacktestJob) Last() *optimizer.Summary {
	return j.last
}

// Run executes the batch backtest
func (j *BacktestJob) Run(ctx context.Context) error {
	batch, err := j.engine.RunBatch(ctx, j.provider, j.symbols, j.days)
	if err != nil {
		return fmt.Errorf("run batch backtest: %w", err)
	}
	if len(batch.Symbols) == 0 {
		return fmt.Errorf("no symbol could be backtested (%d failed)", len(batch.Failed))
	}

	summary := optimizer.Summarize(batch, j.reference)
	for _, st := range summary.PerThreshold {
		j.metrics.RecordBacktest(st.Threshold, st.TotalTrades, st.WinRate)
	}
	j.last = &summary

	j.logger.WithFields(map[string]interface{}{
		"symbols_tested":        summary.SymbolsTested,
		"total_trades":          summary.TotalTrades,
		"win_rate":              summary.WinRate,
		"avg_return":            summary.AvgReturn,
		"recommended_threshold": summary.RecommendedThreshold,
	}).Info("Scheduled backtest completed")

	for _, rec := range summary.Recommendations {
		j.logger.WithField("recommendation", rec).Info("Backtest recommendation")
	}

	return nil
}
