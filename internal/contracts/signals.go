package contracts

import "time"

// SignalType is the categorical direction and strength of a signal
type SignalType string

const (
	SignalStrongBuy  SignalType = "STRONG_BUY"
	SignalBuy        SignalType = "BUY"
	SignalWeakBuy    SignalType = "WEAK_BUY"
	SignalStrongSell SignalType = "STRONG_SELL"
	SignalSell       SignalType = "SELL"
	SignalWeakSell   SignalType = "WEAK_SELL"
)

// IsLong reports whether the signal opens a long position
func (t SignalType) IsLong() bool {
	switch t {
	case SignalStrongBuy, SignalBuy, SignalWeakBuy:
		return true
	}
	return false
}

// Valid reports whether t is one of the known signal types
func (t SignalType) Valid() bool {
	switch t {
	case SignalStrongBuy, SignalBuy, SignalWeakBuy, SignalStrongSell, SignalSell, SignalWeakSell:
		return true
	}
	return false
}

// Execution statuses set from the market clock
const (
	ExecutionReady  = "ready"
	ExecutionQueued = "queued"
)

// Signal is a scored trading signal for one symbol on one day
type Signal struct {
	Symbol      string        `json:"symbol"`
	Date        time.Time     `json:"date"`
	Type        SignalType    `json:"signal_type"`
	Confidence  float64       `json:"confidence"` // 0 ~ 95
	EntryPrice  float64       `json:"entry_price"`
	Score       float64       `json:"score"`
	Reasons     []string      `json:"reasons"`
	Features    FeatureVector `json:"features"`
	Profile     string        `json:"profile"`
	GeneratedAt time.Time     `json:"generated_at"`

	// Execution is attached by the scanner, never by the scorer
	Execution *Execution `json:"execution,omitempty"`
	// Outcome is only filled in backtest mode
	Outcome *Outcome `json:"outcome,omitempty"`
}

// Execution records market state at the time the signal was created
type Execution struct {
	MarketOpen bool   `json:"market_open_at_creation"`
	Status     string `json:"execution_status"` // ready, queued
}

// Outcome is the forward result of a backtested signal
type Outcome struct {
	ExitDate   time.Time `json:"exit_date"`
	ExitPrice  float64   `json:"exit_price"`
	Return     float64   `json:"trade_return"` // %
	Successful bool      `json:"successful"`
}

// WithExecution returns a copy of the signal annotated with market state
func (s Signal) WithExecution(marketOpen bool) Signal {
	status := ExecutionQueued
	if marketOpen {
		status = ExecutionReady
	}
	s.Execution = &Execution{MarketOpen: marketOpen, Status: status}
	return s
}

// WithOutcome returns a copy of the signal with a backtest outcome
func (s Signal) WithOutcome(o Outcome) Signal {
	s.Outcome = &o
	return s
}

// KeyReason returns the highest priority reason, or an empty string
func (s Signal) KeyReason() string {
	if len(s.Reasons) == 0 {
		return ""
	}
	return s.Reasons[0]
}

// TradeReturn computes the % return of a position opened by signal type t.
// Long positions gain when price rises, short positions when it falls.
func TradeReturn(t SignalType, entry, exit float64) float64 {
	if entry == 0 {
		return 0
	}
	if t.IsLong() {
		return (exit - entry) / entry * 100
	}
	return (entry - exit) / entry * 100
}
