package contracts

import (
	"context"
	"time"
)

// MarketDataProvider supplies daily price history for a symbol.
// An empty slice means no data and callers skip the symbol.
type MarketDataProvider interface {
	History(ctx context.Context, symbol string, days int) ([]PricePoint, error)
}

// SentimentProvider supplies sentiment for a symbol.
// A nil vector with a nil error means no sentiment is available.
type SentimentProvider interface {
	Sentiment(ctx context.Context, symbol string) (*SentimentVector, error)
}

// SignalStore persists generated signals keyed by (symbol, generated_at)
type SignalStore interface {
	Save(ctx context.Context, signal Signal) error
	Recent(ctx context.Context, limit int) ([]Signal, error)
}

// Digest is the ranked set of high-confidence signals sent to a notifier
type Digest struct {
	Subject    string    `json:"subject"`
	Message    string    `json:"message"`
	MarketOpen bool      `json:"market_open"`
	Signals    []Signal  `json:"signals"`
	CreatedAt  time.Time `json:"created_at"`
}

// Notifier delivers a digest to humans
type Notifier interface {
	Notify(ctx context.Context, digest Digest) error
}

// SignalPublisher fans signals out to downstream consumers
type SignalPublisher interface {
	Publish(ctx context.Context, signals []Signal) error
}

// MarketClock reports whether the market is trading at t
type MarketClock interface {
	IsOpen(t time.Time) bool
}
