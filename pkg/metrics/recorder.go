package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "signalengine"

// Recorder records engine metrics on its own registry.
// All methods are no-ops on a nil Recorder.
type Recorder struct {
	registry *prometheus.Registry

	signals        *prometheus.CounterVec
	scans          *prometheus.CounterVec
	scanDuration   prometheus.Histogram
	errorsTotal    *prometheus.CounterVec
	latency        *prometheus.HistogramVec
	backtestTrades *prometheus.GaugeVec
	backtestWins   *prometheus.GaugeVec
}

// New creates a recorder with a fresh registry
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		signals: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "signals_generated_total",
				Help:      "Signals emitted by the scorer",
			},
			[]string{"profile", "signal_type"},
		),
		scans: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scans_total",
				Help:      "Completed market scans",
			},
			[]string{"status"},
		),
		scanDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "scan_duration_seconds",
				Help:      "Duration of market scans",
				Buckets:   prometheus.DefBuckets,
			},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Errors by collaborator",
			},
			[]string{"source"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of collaborator operations",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		backtestTrades: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "backtest_trades",
				Help:      "Trades in the latest backtest by confidence threshold",
			},
			[]string{"threshold"},
		),
		backtestWins: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "backtest_win_rate",
				Help:      "Win rate % in the latest backtest by confidence threshold",
			},
			[]string{"threshold"},
		),
	}
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus text format
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// RecordSignal counts an emitted signal
func (r *Recorder) RecordSignal(profile, signalType string) {
	if r == nil {
		return
	}
	r.signals.WithLabelValues(profile, signalType).Inc()
}

// RecordScan counts a finished scan and its duration
func (r *Recorder) RecordScan(status string, d time.Duration) {
	if r == nil {
		return
	}
	r.scans.WithLabelValues(status).Inc()
	r.scanDuration.Observe(d.Seconds())
}

// RecordError counts an error from source (market_data, sentiment, store, notify, publish)
func (r *Recorder) RecordError(source string) {
	if r == nil {
		return
	}
	r.errorsTotal.WithLabelValues(source).Inc()
}

// RecordLatency records operation latency
func (r *Recorder) RecordLatency(op string, d time.Duration) {
	if r == nil {
		return
	}
	r.latency.WithLabelValues(op).Observe(d.Seconds())
}

// RecordBacktest publishes aggregate stats for one threshold
func (r *Recorder) RecordBacktest(threshold float64, trades int, winRate float64) {
	if r == nil {
		return
	}
	label := strconv.FormatFloat(threshold, 'f', -1, 64)
	r.backtestTrades.WithLabelValues(label).Set(float64(trades))
	r.backtestWins.WithLabelValues(label).Set(winRate)
}
