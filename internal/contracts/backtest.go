package contracts

// BacktestResult aggregates trades for one (symbol, threshold) pair
type BacktestResult struct {
	Symbol        string   `json:"symbol"`
	Threshold     float64  `json:"threshold"`
	TotalTrades   int      `json:"total_trades"`
	WinningTrades int      `json:"winning_trades"`
	LosingTrades  int      `json:"losing_trades"`
	WinRate       float64  `json:"win_rate"`   // %
	AvgReturn     float64  `json:"avg_return"` // % per trade
	TotalReturn   float64  `json:"total_return"`
	BestTrade     float64  `json:"best_trade"`
	WorstTrade    float64  `json:"worst_trade"`
	Trades        []Signal `json:"trades,omitempty"`
}

// HasTrades reports whether any trade passed the threshold
func (r *BacktestResult) HasTrades() bool {
	return r.TotalTrades > 0
}
