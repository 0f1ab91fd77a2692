// Package sentiment provides the sentiment inputs for live scans.
package sentiment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wonny/signalengine/internal/contracts"
)

// None reports no sentiment for every symbol
type None struct{}

// Sentiment always returns nil
func (None) Sentiment(context.Context, string) (*contracts.SentimentVector, error) {
	return nil, nil
}

// Static serves a fixed snapshot keyed by symbol
type Static struct {
	data map[string]contracts.SentimentVector
}

// NewStatic creates a provider from a symbol map. Symbols are matched case-insensitively.
func NewStatic(data map[string]contracts.SentimentVector) *Static {
	s := &Static{data: make(map[string]contracts.SentimentVector, len(data))}
	for sym, v := range data {
		s.data[strings.ToUpper(sym)] = v
	}
	return s
}

// Sentiment returns a copy of the symbol's vector, nil when absent
func (s *Static) Sentiment(_ context.Context, symbol string) (*contracts.SentimentVector, error) {
	v, ok := s.data[strings.ToUpper(symbol)]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

// Symbols returns how many symbols carry sentiment
func (s *Static) Symbols() int {
	return len(s.data)
}

var (
	_ contracts.SentimentProvider = None{}
	_ contracts.SentimentProvider = (*Static)(nil)
)

// snapshotFile is the on-disk layout:
//
//	symbols:
//	  AAPL:
//	    overall_sentiment: 0.35
//	    reddit_mentions: 120
//	    reddit_sentiment: 0.4
//	    trending: true
type snapshotFile struct {
	Symbols map[string]contracts.SentimentVector `yaml:"symbols"`
}

// LoadFile reads a YAML sentiment snapshot
func LoadFile(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sentiment file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML snapshot. Unknown fields and out-of-range values are rejected.
func Parse(data []byte) (*Static, error) {
	var file snapshotFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse sentiment file: %w", err)
	}

	for sym, v := range file.Symbols {
		if err := validate(v); err != nil {
			return nil, fmt.Errorf("sentiment %s: %w", sym, err)
		}
	}

	return NewStatic(file.Symbols), nil
}

func validate(v contracts.SentimentVector) error {
	for name, score := range map[string]float64{
		"overall_sentiment": v.Overall,
		"reddit_sentiment":  v.RedditSentiment,
		"news_sentiment":    v.NewsSentiment,
	} {
		if math.IsNaN(score) || score < -1 || score > 1 {
			return fmt.Errorf("%s must be within [-1, 1], got %v", name, score)
		}
	}
	if v.RedditMentions < 0 || v.NewsArticles < 0 {
		return fmt.Errorf("counts must be >= 0")
	}
	return nil
}
