package optimizer

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/wonny/signalengine/internal/backtest"
	"github.com/wonny/signalengine/internal/contracts"
)

// TradeRisk describes the distribution of pooled trade returns (all in %)
type TradeRisk struct {
	AvgWin       float64 `json:"avg_win"`
	AvgLoss      float64 `json:"avg_loss"`
	ProfitFactor float64 `json:"profit_factor"` // 0 when nothing lost
	Volatility   float64 `json:"volatility"`    // sample stddev per trade
	MaxDrawdown  float64 `json:"max_drawdown"`  // <= 0, trades compounded in entry order
}

// PooledTrades returns every trade at threshold, ordered by entry date then symbol
func PooledTrades(symbols []backtest.SymbolResult, threshold float64) []contracts.Signal {
	var trades []contracts.Signal
	for _, sym := range symbols {
		r, ok := sym.At(threshold)
		if !ok {
			continue
		}
		for _, t := range r.Trades {
			if t.Outcome != nil {
				trades = append(trades, t)
			}
		}
	}

	sort.SliceStable(trades, func(i, j int) bool {
		if !trades[i].Date.Equal(trades[j].Date) {
			return trades[i].Date.Before(trades[j].Date)
		}
		return trades[i].Symbol < trades[j].Symbol
	})
	return trades
}

// Risk measures trades. Returns the zero value for no trades.
func Risk(trades []contracts.Signal) TradeRisk {
	var risk TradeRisk
	if len(trades) == 0 {
		return risk
	}

	returns := make([]float64, len(trades))
	var sumWin, sumLoss float64
	var countWin, countLoss int
	for i, t := range trades {
		r := t.Outcome.Return
		returns[i] = r
		switch {
		case r > 0:
			sumWin += r
			countWin++
		case r < 0:
			sumLoss += r
			countLoss++
		}
	}

	if countWin > 0 {
		risk.AvgWin = round2(sumWin / float64(countWin))
	}
	if countLoss > 0 {
		risk.AvgLoss = round2(sumLoss / float64(countLoss))
		risk.ProfitFactor = round2(sumWin / math.Abs(sumLoss))
	}
	risk.Volatility = round2(stddev(returns))
	risk.MaxDrawdown = round2(maxDrawdown(returns))

	return risk
}

func stddev(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		diff := r - mean
		variance += diff * diff
	}
	variance /= float64(len(returns) - 1)

	return math.Sqrt(variance)
}

// maxDrawdown compounds percentage returns and reports the deepest fall from a peak, in %
func maxDrawdown(returns []float64) float64 {
	value, peak, maxDD := 1.0, 1.0, 0.0
	for _, r := range returns {
		value *= 1 + r/100
		if value > peak {
			peak = value
		}
		if dd := (value - peak) / peak; dd < maxDD {
			maxDD = dd
		}
	}
	return maxDD * 100
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
