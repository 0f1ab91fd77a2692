package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/signalengine/internal/contracts"
	"github.com/wonny/signalengine/pkg/httputil"
	"github.com/wonny/signalengine/pkg/logger"
)

func signal(symbol string, confidence float64) contracts.Signal {
	return contracts.Signal{
		Symbol:     symbol,
		Type:       contracts.SignalBuy,
		Confidence: confidence,
		EntryPrice: 123.456,
		Reasons:    []string{"Oversold (RSI 28.0)", "High volume (1.6x)"},
		Features:   contracts.FeatureVector{RSI: 28.04, Momentum5: 3.21},
	}
}

var generated = time.Date(2024, 3, 4, 10, 15, 0, 0, time.UTC)

func TestHighConfidence(t *testing.T) {
	in := []contracts.Signal{
		signal("AAPL", 79.9),
		signal("TSLA", 85),
		signal("NVDA", 92),
		signal("MSFT", 85),
		signal("META", 80),
	}

	got := HighConfidence(in, DefaultMinConfidence)

	var symbols []string
	for _, s := range got {
		symbols = append(symbols, s.Symbol)
	}
	assert.Equal(t, []string{"NVDA", "TSLA", "MSFT", "META"}, symbols)
}

func TestFormatDigest(t *testing.T) {
	ranked := []contracts.Signal{signal("NVDA", 92), signal("TSLA", 85), signal("MSFT", 84), signal("META", 80)}

	digest, ok := FormatDigest(ranked, false, DefaultSize, generated)
	require.True(t, ok)

	assert.Equal(t, "4 Trading Signals - QUEUED FOR MARKET OPEN", digest.Subject)
	assert.Len(t, digest.Signals, 3)
	assert.False(t, digest.MarketOpen)
	assert.Equal(t, generated, digest.CreatedAt)

	assert.Contains(t, digest.Message, "HIGH CONFIDENCE TRADING SIGNALS - QUEUED FOR MARKET OPEN")
	assert.Contains(t, digest.Message, "1. NVDA - BUY\n")
	assert.Contains(t, digest.Message, "Current Price: $123.46")
	assert.Contains(t, digest.Message, "Confidence: 92.0%")
	assert.Contains(t, digest.Message, "RSI: 28.0")
	assert.Contains(t, digest.Message, "5-Day Change: +3.2%")
	assert.Contains(t, digest.Message, "Key Reason: Oversold (RSI 28.0)")
	assert.Contains(t, digest.Message, "Generated: 2024-03-04 10:15:00")
	assert.Contains(t, digest.Message, "Market Status: CLOSED - signals queued")
	assert.NotContains(t, digest.Message, "META")
}

func TestFormatDigest_MarketOpen(t *testing.T) {
	digest, ok := FormatDigest([]contracts.Signal{signal("SPY", 88)}, true, 0, generated)
	require.True(t, ok)
	assert.Equal(t, "1 Trading Signals - READY FOR EXECUTION", digest.Subject)
	assert.Contains(t, digest.Message, "OPEN - execute immediately")
}

func TestFormatDigest_Empty(t *testing.T) {
	_, ok := FormatDigest(nil, true, 3, generated)
	assert.False(t, ok)
}

func TestWebhook_Notify(t *testing.T) {
	var received webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	digest, _ := FormatDigest([]contracts.Signal{signal("NVDA", 92)}, true, 3, generated)
	hook := NewWebhook(httputil.New(logger.NewNop()).DisableRetry(), server.URL, logger.NewNop())

	require.NoError(t, hook.Notify(context.Background(), digest))
	assert.Equal(t, digest.Subject, received.Subject)
	assert.True(t, received.MarketOpen)
	require.Len(t, received.Signals, 1)
	assert.Equal(t, "NVDA", received.Signals[0].Symbol)
}

func TestWebhook_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	hook := NewWebhook(httputil.New(logger.NewNop()).DisableRetry(), server.URL, logger.NewNop())
	err := hook.Notify(context.Background(), contracts.Digest{Subject: "x"})
	assert.ErrorContains(t, err, "status 403")
}

func TestLog_Notify(t *testing.T) {
	var buf bytes.Buffer
	n := NewLog(logger.NewWithWriter(&buf, "info"))

	require.NoError(t, n.Notify(context.Background(), contracts.Digest{Subject: "2 Trading Signals - READY FOR EXECUTION"}))
	assert.Contains(t, buf.String(), "Signal digest")
	assert.Contains(t, buf.String(), "READY FOR EXECUTION")
}
