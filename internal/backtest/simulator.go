package backtest

import (
	"github.com/shopspring/decimal"

	"github.com/wonny/signalengine/internal/contracts"
)

// Simulator closes positions after a fixed holding period and tallies results
type Simulator struct {
	holdDays      int
	successReturn float64
}

// NewSimulator creates a simulator holding each position for holdDays sessions.
// A trade counts as a win when its return is strictly above successReturn %.
func NewSimulator(holdDays int, successReturn float64) *Simulator {
	return &Simulator{
		holdDays:      holdDays,
		successReturn: successReturn,
	}
}

// HoldDays returns the holding period in sessions
func (s *Simulator) HoldDays() int {
	return s.holdDays
}

// Close exits sig at exit and attaches the outcome.
// Returns are rounded to 2 decimals before the success test.
func (s *Simulator) Close(sig contracts.Signal, exit contracts.PricePoint) contracts.Signal {
	ret := round2(contracts.TradeReturn(sig.Type, sig.EntryPrice, exit.Close))

	return sig.WithOutcome(contracts.Outcome{
		ExitDate:   exit.Date,
		ExitPrice:  exit.Close,
		Return:     ret,
		Successful: ret > s.successReturn,
	})
}

// Aggregate summarizes closed trades for one (symbol, threshold) pair
func (s *Simulator) Aggregate(symbol string, threshold float64, trades []contracts.Signal) contracts.BacktestResult {
	result := contracts.BacktestResult{
		Symbol:    symbol,
		Threshold: threshold,
		Trades:    trades,
	}
	if len(trades) == 0 {
		return result
	}

	total := decimal.Zero
	best := trades[0].Outcome.Return
	worst := best

	for _, t := range trades {
		r := t.Outcome.Return
		total = total.Add(decimal.NewFromFloat(r))
		if t.Outcome.Successful {
			result.WinningTrades++
		}
		if r > best {
			best = r
		}
		if r < worst {
			worst = r
		}
	}

	n := decimal.NewFromInt(int64(len(trades)))
	result.TotalTrades = len(trades)
	result.LosingTrades = result.TotalTrades - result.WinningTrades
	result.TotalReturn = total.Round(2).InexactFloat64()
	result.AvgReturn = total.Div(n).Round(2).InexactFloat64()
	result.WinRate = decimal.NewFromInt(int64(result.WinningTrades * 100)).Div(n).Round(2).InexactFloat64()
	result.BestTrade = best
	result.WorstTrade = worst

	return result
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
