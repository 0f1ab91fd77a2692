// Package yahoo fetches daily bars from the Yahoo Finance chart API.
package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/signalengine/internal/contracts"
	"github.com/wonny/signalengine/pkg/httputil"
	"github.com/wonny/signalengine/pkg/logger"
)

// DefaultBaseURL is the public chart API host
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// ErrNoData is returned when the chart has no usable bars
var ErrNoData = errors.New("no chart data")

// Client handles communication with the chart API.
// It implements contracts.MarketDataProvider.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	now        func() time.Time
}

// NewClient creates a new chart client
func NewClient(httpClient *httputil.Client, baseURL string, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("module", "yahoo"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		now:        time.Now,
	}
}

// WithClock overrides the clock used to compute the request window
func (c *Client) WithClock(now func() time.Time) *Client {
	c.now = now
	return c
}

var _ contracts.MarketDataProvider = (*Client)(nil)

// History returns up to days calendar days of daily bars ending now, oldest first
func (c *Client) History(ctx context.Context, symbol string, days int) ([]contracts.PricePoint, error) {
	to := c.now()
	from := to.AddDate(0, 0, -days)
	return c.FetchChart(ctx, symbol, from, to)
}

// FetchChart fetches daily bars between from and to.
// Rows with any missing OHLCV field are skipped.
func (c *Client) FetchChart(ctx context.Context, symbol string, from, to time.Time) ([]contracts.PricePoint, error) {
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("period1", fmt.Sprintf("%d", from.Unix()))
	params.Set("period2", fmt.Sprintf("%d", to.Unix()))

	fullURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode())

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	var body chartResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&body)

	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && body.Chart.Error != nil {
			return nil, fmt.Errorf("%s: %s: %w", symbol, body.Chart.Error.Description, ErrNoData)
		}
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("parse response failed: %w", decodeErr)
	}

	prices, err := parseChart(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", symbol, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"count":  len(prices),
	}).Debug("Fetched chart")

	return prices, nil
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		GMTOffset int64 `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []quote `json:"quote"`
	} `json:"indicators"`
}

type quote struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}

func parseChart(body chartResponse) ([]contracts.PricePoint, error) {
	if body.Chart.Error != nil {
		return nil, fmt.Errorf("%s: %w", body.Chart.Error.Description, ErrNoData)
	}
	if len(body.Chart.Result) == 0 {
		return nil, ErrNoData
	}

	result := body.Chart.Result[0]
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return nil, ErrNoData
	}
	q := result.Indicators.Quote[0]

	prices := make([]contracts.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		open, high, low, closePrice, volume := at(q.Open, i), at(q.High, i), at(q.Low, i), at(q.Close, i), at(q.Volume, i)
		if open == nil || high == nil || low == nil || closePrice == nil || volume == nil {
			continue
		}

		// bars are dated in exchange local time
		date := time.Unix(ts+result.Meta.GMTOffset, 0).UTC().Truncate(24 * time.Hour)

		prices = append(prices, contracts.PricePoint{
			Date:   date,
			Open:   *open,
			High:   *high,
			Low:    *low,
			Close:  *closePrice,
			Volume: int64(*volume),
		})
	}

	if len(prices) == 0 {
		return nil, ErrNoData
	}
	return prices, nil
}

func at(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}
