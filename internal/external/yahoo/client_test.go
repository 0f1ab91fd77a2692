package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/signalengine/pkg/config"
	"github.com/wonny/signalengine/pkg/httputil"
	"github.com/wonny/signalengine/pkg/logger"
)

const chartFixture = `{
  "chart": {
    "result": [{
      "meta": {"symbol": "AAPL", "gmtoffset": -18000},
      "timestamp": [1704205800, 1704292200, 1704378600],
      "indicators": {"quote": [{
        "open":   [187.15, null, 182.15],
        "high":   [188.44, 185.88, 183.09],
        "low":    [183.89, 183.43, 180.88],
        "close":  [185.64, 184.25, 181.91],
        "volume": [82488700, 58414500, 71983600]
      }]}
    }],
    "error": null
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	httpClient := httputil.New(logger.NewNop()).DisableRetry()
	return NewClient(httpClient, server.URL, logger.NewNop())
}

func TestFetchChart(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/AAPL", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.Equal(t, "1704067200", r.URL.Query().Get("period1"))
		assert.Equal(t, "1704412800", r.URL.Query().Get("period2"))
		w.Write([]byte(chartFixture))
	})

	prices, err := client.FetchChart(context.Background(), "AAPL", from, to)
	require.NoError(t, err)
	require.Len(t, prices, 2, "the row with a null open is skipped")

	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), prices[0].Date)
	assert.Equal(t, 185.64, prices[0].Close)
	assert.Equal(t, int64(82488700), prices[0].Volume)
	assert.Equal(t, time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), prices[1].Date)
	assert.Equal(t, 181.91, prices[1].Close)
}

func TestHistory_UsesClock(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1706702400", r.URL.Query().Get("period1"), "30 days before now")
		assert.Equal(t, "1709294400", r.URL.Query().Get("period2"))
		w.Write([]byte(chartFixture))
	}).WithClock(func() time.Time { return now })

	prices, err := client.History(context.Background(), "AAPL", 30)
	require.NoError(t, err)
	assert.Len(t, prices, 2)
}

func TestFetchChart_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		noData  bool
		message string
	}{
		{
			name:    "unknown symbol",
			status:  http.StatusNotFound,
			body:    `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`,
			noData:  true,
			message: "symbol may be delisted",
		},
		{
			name:   "empty result",
			status: http.StatusOK,
			body:   `{"chart":{"result":[],"error":null}}`,
			noData: true,
		},
		{
			name:   "only null rows",
			status: http.StatusOK,
			body:   `{"chart":{"result":[{"timestamp":[1704205800],"indicators":{"quote":[{"open":[null],"high":[1],"low":[1],"close":[1],"volume":[1]}]}}]}}`,
			noData: true,
		},
		{
			name:    "server error",
			status:  http.StatusBadGateway,
			body:    `<html>bad gateway</html>`,
			message: "unexpected status code: 502",
		},
		{
			name:    "malformed body",
			status:  http.StatusOK,
			body:    `{"chart":`,
			message: "parse response failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := client.History(context.Background(), "ZZZZ", 30)
			require.Error(t, err)
			if tt.noData {
				assert.ErrorIs(t, err, ErrNoData)
			}
			if tt.message != "" {
				assert.Contains(t, err.Error(), tt.message)
			}
		})
	}
}

func TestNewFromConfig(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "signalengine-test", r.Header.Get("User-Agent"))
		w.Write([]byte(chartFixture))
	}))
	defer server.Close()

	client := NewFromConfig(config.MarketDataConfig{
		BaseURL:           server.URL,
		UserAgent:         "signalengine-test",
		Timeout:           5 * time.Second,
		MaxRetries:        0,
		RequestsPerSecond: 100,
		Burst:             1,
	}, nil, logger.NewNop())

	prices, err := client.History(context.Background(), "AAPL", 10)
	require.NoError(t, err)
	assert.Len(t, prices, 2)
}
