// Package optimizer turns backtest output into a threshold recommendation and advisory text.
package optimizer

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/wonny/signalengine/internal/backtest"
)

const (
	// ReferenceThreshold is the confidence gate the overall summary reports on
	ReferenceThreshold = 70.0

	// TradesPerYear converts average return per trade into an annual estimate
	TradesPerYear = 50

	highWinRate       = 70.0
	lowWinRate        = 60.0
	goodAvgReturn     = 3.0
	weakAvgReturn     = 1.0
	topPerformerBar   = 20.0
	maxTopPerformers  = 5
	minWinRateToAdopt = lowWinRate
	minAvgToAdopt     = weakAvgReturn
)

// ThresholdStats aggregates every symbol's trades at one threshold
type ThresholdStats struct {
	Threshold     float64 `json:"threshold"`
	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	WinRate       float64 `json:"win_rate"`
	AvgReturn     float64 `json:"avg_return"`
	TotalReturn   float64 `json:"total_return"`
}

// Summary is the overall performance report of a batch backtest
type Summary struct {
	ReferenceThreshold    float64          `json:"reference_threshold"`
	SymbolsTested         int              `json:"symbols_tested"`
	TotalTrades           int              `json:"total_trades"`
	WinningTrades         int              `json:"winning_trades"`
	TotalReturn           float64          `json:"total_return"`
	WinRate               float64          `json:"win_rate"`
	AvgReturn             float64          `json:"avg_return"`
	EstimatedAnnualReturn float64          `json:"estimated_annual_return"`
	RecommendedThreshold  float64          `json:"recommended_threshold"`
	PerThreshold          []ThresholdStats `json:"per_threshold"`
	Risk                  TradeRisk        `json:"risk"`
	TopPerformers         []string         `json:"top_performers"`
	Recommendations       []string         `json:"recommendations"`
}

// Summarize builds the overall report at reference, compares every candidate
// threshold and derives recommendations. Pure and deterministic.
func Summarize(batch *backtest.BatchResult, reference float64) Summary {
	s := Summary{ReferenceThreshold: reference}
	if batch == nil {
		s.RecommendedThreshold = reference
		s.Recommendations = Recommendations(s)
		return s
	}

	for _, sym := range batch.Symbols {
		for _, r := range sym.Results {
			if r.TotalTrades > 0 {
				s.SymbolsTested++
				break
			}
		}
	}

	ref := Aggregate(batch.Symbols, reference)
	s.TotalTrades = ref.TotalTrades
	s.WinningTrades = ref.WinningTrades
	s.TotalReturn = ref.TotalReturn
	s.WinRate = ref.WinRate
	s.AvgReturn = ref.AvgReturn
	if ref.TotalTrades > 0 {
		s.EstimatedAnnualReturn = decimal.NewFromFloat(ref.AvgReturn).Mul(decimal.NewFromInt(TradesPerYear)).Round(2).InexactFloat64()
	}

	s.Risk = Risk(PooledTrades(batch.Symbols, reference))

	s.PerThreshold = make([]ThresholdStats, 0, len(batch.Thresholds))
	for _, th := range batch.Thresholds {
		s.PerThreshold = append(s.PerThreshold, Aggregate(batch.Symbols, th))
	}
	s.RecommendedThreshold = RecommendThreshold(s.PerThreshold, reference)
	s.TopPerformers = TopPerformers(batch.Symbols)
	s.Recommendations = Recommendations(s)

	return s
}

// Aggregate pools all symbols' trades at threshold
func Aggregate(symbols []backtest.SymbolResult, threshold float64) ThresholdStats {
	stats := ThresholdStats{Threshold: threshold}
	total := decimal.Zero

	for _, sym := range symbols {
		r, ok := sym.At(threshold)
		if !ok {
			continue
		}
		stats.TotalTrades += r.TotalTrades
		stats.WinningTrades += r.WinningTrades
		total = total.Add(decimal.NewFromFloat(r.TotalReturn))
	}

	stats.TotalReturn = total.Round(2).InexactFloat64()
	if stats.TotalTrades > 0 {
		n := decimal.NewFromInt(int64(stats.TotalTrades))
		stats.WinRate = decimal.NewFromInt(int64(stats.WinningTrades * 100)).Div(n).Round(2).InexactFloat64()
		stats.AvgReturn = total.Div(n).Round(2).InexactFloat64()
	}
	return stats
}

// RecommendThreshold picks from the fixed candidate set: the lowest threshold
// whose pooled win rate and average return clear the adoption bars, else the
// one with the best win rate, else reference when nothing traded.
func RecommendThreshold(stats []ThresholdStats, reference float64) float64 {
	for _, st := range stats {
		if st.TotalTrades > 0 && st.WinRate >= minWinRateToAdopt && st.AvgReturn >= minAvgToAdopt {
			return st.Threshold
		}
	}

	best, found := reference, false
	bestRate := -1.0
	for _, st := range stats {
		if st.TotalTrades > 0 && st.WinRate > bestRate {
			best, bestRate, found = st.Threshold, st.WinRate, true
		}
	}
	if !found {
		return reference
	}
	return best
}

// TopPerformers lists symbols whose best threshold returned more than 20% in total,
// in input order, at most five
func TopPerformers(symbols []backtest.SymbolResult) []string {
	out := make([]string, 0, maxTopPerformers)
	for _, sym := range symbols {
		best := 0.0
		for _, r := range sym.Results {
			if r.TotalReturn > best {
				best = r.TotalReturn
			}
		}
		if best > topPerformerBar {
			out = append(out, sym.Symbol)
			if len(out) == maxTopPerformers {
				break
			}
		}
	}
	return out
}

// Recommendations produces advisory text from fixed win rate and return bands
func Recommendations(s Summary) []string {
	var recs []string

	switch {
	case s.TotalTrades == 0:
		recs = append(recs, "No trades at the reference threshold; widen the symbol list or the history window.")
		return recs
	case s.WinRate > highWinRate:
		recs = append(recs, fmt.Sprintf("Win rate %.1f%% is high; a lower confidence threshold may surface more opportunities.", s.WinRate))
	case s.WinRate < lowWinRate:
		recs = append(recs, fmt.Sprintf("Win rate %.1f%% is low; consider raising the confidence threshold.", s.WinRate))
	}

	switch {
	case s.AvgReturn > goodAvgReturn:
		recs = append(recs, fmt.Sprintf("Average return %.2f%% per trade is strong.", s.AvgReturn))
	case s.AvgReturn < weakAvgReturn:
		recs = append(recs, fmt.Sprintf("Average return %.2f%% per trade is weak; favor higher momentum symbols.", s.AvgReturn))
	}

	if len(s.TopPerformers) > 0 {
		recs = append(recs, fmt.Sprintf("Top performers: %s.", strings.Join(s.TopPerformers, ", ")))
	}

	if s.RecommendedThreshold != s.ReferenceThreshold {
		recs = append(recs, fmt.Sprintf("Recommended threshold %.0f differs from the reference %.0f.", s.RecommendedThreshold, s.ReferenceThreshold))
	}

	return recs
}
