package contracts

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalType_IsLong(t *testing.T) {
	tests := []struct {
		signal SignalType
		want   bool
	}{
		{SignalStrongBuy, true},
		{SignalBuy, true},
		{SignalWeakBuy, true},
		{SignalStrongSell, false},
		{SignalSell, false},
		{SignalWeakSell, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.signal), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.signal.IsLong())
			assert.True(t, tt.signal.Valid())
		})
	}

	assert.False(t, SignalType("HOLD").Valid())
}

func TestTradeReturn(t *testing.T) {
	tests := []struct {
		name   string
		signal SignalType
		entry  float64
		exit   float64
		want   float64
	}{
		{"buy with rising price", SignalBuy, 100, 103, 3},
		{"buy with falling price", SignalWeakBuy, 100, 97, -3},
		{"sell with falling price", SignalSell, 100, 95, 5},
		{"sell with rising price", SignalStrongSell, 100, 110, -10},
		{"zero entry", SignalBuy, 0, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, TradeReturn(tt.signal, tt.entry, tt.exit), 1e-9)
		})
	}
}

func TestSignal_WithExecution(t *testing.T) {
	sig := Signal{Symbol: "AAPL", Type: SignalBuy, Reasons: []string{"Oversold RSI (22.1)"}}

	ready := sig.WithExecution(true)
	queued := sig.WithExecution(false)

	require.NotNil(t, ready.Execution)
	assert.Equal(t, ExecutionReady, ready.Execution.Status)
	assert.True(t, ready.Execution.MarketOpen)

	require.NotNil(t, queued.Execution)
	assert.Equal(t, ExecutionQueued, queued.Execution.Status)

	// original left untouched
	assert.Nil(t, sig.Execution)
	assert.Equal(t, "Oversold RSI (22.1)", sig.KeyReason())
	assert.Equal(t, "", Signal{}.KeyReason())
}

func TestSignal_JSON(t *testing.T) {
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	sig := Signal{
		Symbol:     "MSFT",
		Date:       date,
		Type:       SignalStrongBuy,
		Confidence: 91.5,
		EntryPrice: 410.25,
		Score:      105,
	}.WithOutcome(Outcome{ExitDate: date.AddDate(0, 0, 7), ExitPrice: 420, Return: 2.38, Successful: true})

	data, err := json.Marshal(sig)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.Equal(t, "STRONG_BUY", raw["signal_type"])
	assert.NotContains(t, raw, "execution")
	outcome, ok := raw["outcome"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, outcome["successful"])
}
