package optimizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/signalengine/internal/backtest"
	"github.com/wonny/signalengine/internal/contracts"
)

func trade(symbol string, day int, ret float64) contracts.Signal {
	return contracts.Signal{
		Symbol:  symbol,
		Date:    time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC),
		Outcome: &contracts.Outcome{Return: ret, Successful: ret >= 2},
	}
}

func riskSymbols() []backtest.SymbolResult {
	return []backtest.SymbolResult{
		{Symbol: "AAPL", Results: []contracts.BacktestResult{
			{Symbol: "AAPL", Threshold: 70, TotalTrades: 2, Trades: []contracts.Signal{trade("AAPL", 2, 4), trade("AAPL", 6, 1)}},
		}},
		{Symbol: "TSLA", Results: []contracts.BacktestResult{
			{Symbol: "TSLA", Threshold: 70, TotalTrades: 2, Trades: []contracts.Signal{trade("TSLA", 3, -2), trade("TSLA", 8, -3)}},
		}},
	}
}

func TestPooledTrades_OrderedByEntry(t *testing.T) {
	trades := PooledTrades(riskSymbols(), 70)
	require.Len(t, trades, 4)

	var returns []float64
	for _, tr := range trades {
		returns = append(returns, tr.Outcome.Return)
	}
	assert.Equal(t, []float64{4, -2, 1, -3}, returns)

	assert.Empty(t, PooledTrades(riskSymbols(), 90))
}

func TestRisk(t *testing.T) {
	risk := Risk(PooledTrades(riskSymbols(), 70))

	assert.Equal(t, TradeRisk{
		AvgWin:       2.5,
		AvgLoss:      -2.5,
		ProfitFactor: 1,
		Volatility:   3.16,
		MaxDrawdown:  -3.99,
	}, risk)
}

func TestRisk_Edges(t *testing.T) {
	assert.Equal(t, TradeRisk{}, Risk(nil))

	onlyWins := Risk([]contracts.Signal{trade("NVDA", 2, 3), trade("NVDA", 9, 5)})
	assert.Equal(t, 4.0, onlyWins.AvgWin)
	assert.Zero(t, onlyWins.ProfitFactor, "no losses")
	assert.Zero(t, onlyWins.MaxDrawdown)
}

func TestSummarize_IncludesRisk(t *testing.T) {
	batch := &backtest.BatchResult{Thresholds: []float64{70}, Symbols: riskSymbols()}
	s := Summarize(batch, 70)
	assert.Equal(t, -3.99, s.Risk.MaxDrawdown)
}
