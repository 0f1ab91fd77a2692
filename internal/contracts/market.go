package contracts

import "time"

// PricePoint is one trading day of OHLCV data
type PricePoint struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// FeatureVector holds the technical indicators derived from a trailing price window.
// Every field is finite; degenerate inputs resolve to neutral defaults.
type FeatureVector struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`

	RSI float64 `json:"rsi"` // 0 ~ 100

	SMA5  float64 `json:"sma_5"`
	SMA10 float64 `json:"sma_10"`
	SMA20 float64 `json:"sma_20"`
	SMA50 float64 `json:"sma_50"`

	Momentum3  float64 `json:"momentum_3"` // % change
	Momentum5  float64 `json:"momentum_5"`
	Momentum10 float64 `json:"momentum_10"`

	Volatility10 float64 `json:"volatility_10"` // stdev of closes
	Volatility20 float64 `json:"volatility_20"`

	VolumeRatio   float64 `json:"volume_ratio"`   // latest / avg-10
	PricePosition float64 `json:"price_position"` // 0 ~ 1 within 20-day range
	MACD          float64 `json:"macd"`           // close - SMA26
}

// SentimentVector is the optional social/news sentiment input for a symbol
type SentimentVector struct {
	Overall         float64 `json:"overall_sentiment" yaml:"overall_sentiment"` // -1.0 ~ 1.0
	RedditMentions  int     `json:"reddit_mentions" yaml:"reddit_mentions"`
	RedditSentiment float64 `json:"reddit_sentiment" yaml:"reddit_sentiment"`
	NewsArticles    int     `json:"news_articles" yaml:"news_articles"`
	NewsSentiment   float64 `json:"news_sentiment" yaml:"news_sentiment"`
	Trending        bool    `json:"trending" yaml:"trending"`
}

// Closes extracts closing prices in order
func Closes(prices []PricePoint) []float64 {
	out := make([]float64, len(prices))
	for i, p := range prices {
		out[i] = p.Close
	}
	return out
}
