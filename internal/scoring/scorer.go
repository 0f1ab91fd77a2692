package scoring

import (
	"fmt"
	"math"

	"github.com/wonny/signalengine/internal/contracts"
)

// Scorer turns a FeatureVector, and optionally a SentimentVector, into a Signal.
// It is a pure function of its inputs and safe for concurrent use.
type Scorer struct {
	profile Profile
}

// NewScorer creates a scorer for profile
func NewScorer(profile Profile) *Scorer {
	return &Scorer{profile: profile}
}

// Profile returns the profile the scorer was built with
func (s *Scorer) Profile() Profile {
	return s.profile
}

// Evaluation is the full breakdown of one scoring pass, gated or not
type Evaluation struct {
	Technical  float64
	Sentiment  float64
	Score      float64 // blended score the gates apply to
	Multiplier float64
	Confidence float64
	Reasons    []string // untruncated, in priority order
	Blended    bool     // sentiment contributed
}

// Score applies the profile's confidence floor
func (s *Scorer) Score(symbol string, fv contracts.FeatureVector, sentiment *contracts.SentimentVector) (*contracts.Signal, bool) {
	return s.ScoreAt(symbol, fv, sentiment, s.profile.MinConfidence)
}

// ScoreAt scores with minConfidence in place of the profile floor.
// A false return is a normal gate rejection.
func (s *Scorer) ScoreAt(symbol string, fv contracts.FeatureVector, sentiment *contracts.SentimentVector, minConfidence float64) (*contracts.Signal, bool) {
	ev := s.Evaluate(fv, sentiment)

	if math.Abs(ev.Score) < s.profile.MinScore || ev.Score == 0 {
		return nil, false
	}
	if ev.Confidence < minConfidence {
		return nil, false
	}

	reasons := ev.Reasons
	if len(reasons) > s.profile.MaxReasons {
		reasons = reasons[:s.profile.MaxReasons]
	}

	return &contracts.Signal{
		Symbol:     symbol,
		Date:       fv.Date,
		Type:       s.classify(ev.Score),
		Confidence: ev.Confidence,
		EntryPrice: fv.Close,
		Score:      ev.Score,
		Reasons:    append([]string(nil), reasons...),
		Features:   fv,
		Profile:    s.profile.Name,
	}, true
}

// Evaluate computes score, multiplier and confidence without applying gates
func (s *Scorer) Evaluate(fv contracts.FeatureVector, sentiment *contracts.SentimentVector) Evaluation {
	ev := Evaluation{Multiplier: 1.0}

	ev.Technical = s.technical(fv, &ev)
	ev.Score = ev.Technical

	rules := s.profile.Sentiment
	if rules.Enabled && sentiment != nil {
		ev.Sentiment = s.sentiment(sentiment, &ev)
		ev.Score = rules.TechnicalWeight*ev.Technical + rules.SentimentWeight*ev.Sentiment
		ev.Blended = true
	}

	ev.Confidence = s.confidence(ev.Score, ev.Multiplier, sentiment)
	return ev
}

// technical applies the fixed-weight rules in priority order
func (s *Scorer) technical(fv contracts.FeatureVector, ev *Evaluation) float64 {
	m := s.profile.Multipliers
	score := 0.0

	// Trend
	if fv.Close > fv.SMA5 {
		score += 15
		ev.add("Above 5-day trend ($%.2f)", fv.SMA5)
	}
	if fv.Close > fv.SMA10 {
		score += 20
		ev.add("Above 10-day trend ($%.2f)", fv.SMA10)
	}
	if fv.Close > fv.SMA20 {
		score += 25
		ev.add("Above 20-day trend ($%.2f)", fv.SMA20)
	}

	// RSI
	switch rsi := fv.RSI; {
	case rsi < 25:
		score += 50
		ev.Multiplier += m.ExtremeOversold
		ev.add("Extremely oversold (RSI %.1f)", rsi)
	case rsi < 35:
		score += 35
		ev.Multiplier += m.Oversold
		ev.add("Oversold (RSI %.1f)", rsi)
	case rsi > 75:
		score -= 45
		ev.add("Extremely overbought (RSI %.1f)", rsi)
	case rsi > 65:
		score -= 30
		ev.add("Overbought (RSI %.1f)", rsi)
	case rsi >= 45 && rsi <= 55:
		score += 10
		ev.add("RSI in optimal zone (%.1f)", rsi)
	}

	// Momentum
	if fv.Momentum3 > 2 {
		score += 20
		ev.add("Strong 3-day momentum (+%.1f%%)", fv.Momentum3)
	}
	if fv.Momentum5 > 3 {
		score += 25
		ev.add("Strong 5-day momentum (+%.1f%%)", fv.Momentum5)
	}
	if fv.Momentum10 > 5 {
		score += 30
		ev.Multiplier += m.Momentum10
		ev.add("Exceptional 10-day momentum (+%.1f%%)", fv.Momentum10)
	}

	// Volume
	switch vr := fv.VolumeRatio; {
	case vr > 3.0:
		score += 35
		ev.Multiplier += m.VolumeSpike
		ev.add("Massive volume spike (%.1fx)", vr)
	case vr > 2.0:
		score += 25
		ev.Multiplier += m.HighVolume
		ev.add("High volume (%.1fx)", vr)
	case vr > 1.5:
		score += 15
		ev.add("Volume support (%.1fx)", vr)
	}

	// Price position
	switch {
	case fv.PricePosition < 0.2:
		score += 20
		ev.add("Near support level")
	case fv.PricePosition > 0.8:
		score -= 15
		ev.add("Near resistance")
	}

	// Volatility expansion
	if fv.Volatility10 > fv.Volatility20*1.5 {
		score += 15
		ev.Multiplier += m.Volatility
		ev.add("High volatility opportunity")
	}

	if fv.MACD > 0 {
		score += 15
		ev.add("MACD bullish")
	}

	return score
}

// sentiment scores social and news inputs; buzz rules follow the sign of their source
func (s *Scorer) sentiment(sv *contracts.SentimentVector, ev *Evaluation) float64 {
	r := s.profile.Sentiment
	score := 0.0

	switch o := sv.Overall; {
	case o > 0.5:
		score += 40
		ev.Multiplier += r.StrongOverall
		ev.add("Very positive sentiment (%.2f)", o)
	case o > 0.2:
		score += 25
		ev.Multiplier += r.Overall
		ev.add("Positive sentiment (%.2f)", o)
	case o < -0.5:
		score -= 40
		ev.Multiplier += r.StrongOverall
		ev.add("Very negative sentiment (%.2f)", o)
	case o < -0.2:
		score -= 25
		ev.Multiplier += r.Overall
		ev.add("Negative sentiment (%.2f)", o)
	}

	if sign := signOf(sv.RedditSentiment); sign != 0 {
		switch {
		case sv.RedditMentions > 100:
			score += sign * 20
			ev.Multiplier += r.HeavyBuzz
			ev.add("Heavy Reddit buzz (%d mentions)", sv.RedditMentions)
		case sv.RedditMentions > 50:
			score += sign * 10
			ev.add("Reddit buzz (%d mentions)", sv.RedditMentions)
		}
	}

	if sign := signOf(sv.NewsSentiment); sign != 0 {
		switch {
		case sv.NewsArticles > 10:
			score += sign * 15
			ev.Multiplier += r.BroadCoverage
			ev.add("Broad news coverage (%d articles)", sv.NewsArticles)
		case sv.NewsArticles > 5:
			score += sign * 8
			ev.add("News coverage (%d articles)", sv.NewsArticles)
		}
	}

	if sign := signOf(sv.Overall); sv.Trending && sign != 0 {
		score += sign * 10
		ev.Multiplier += r.Trending
		ev.add("Trending on social media")
	}

	return score
}

func (s *Scorer) confidence(score, multiplier float64, sentiment *contracts.SentimentVector) float64 {
	p := s.profile

	base := math.Min(p.MaxConfidence, math.Abs(score)*p.ConfidenceK)
	conf := math.Min(p.MaxConfidence, base*multiplier)

	if p.Sentiment.Enabled && sentiment != nil {
		switch o := math.Abs(sentiment.Overall); {
		case o > p.Sentiment.BonusHighThreshold:
			conf += p.Sentiment.BonusHigh
		case o > p.Sentiment.BonusLowThreshold:
			conf += p.Sentiment.BonusLow
		}
	}

	return math.Max(0, math.Min(p.MaxConfidence, conf))
}

func (s *Scorer) classify(score float64) contracts.SignalType {
	b := s.profile.Breakpoints
	if score > 0 {
		switch {
		case score > b.StrongBuy:
			return contracts.SignalStrongBuy
		case score > b.Buy:
			return contracts.SignalBuy
		default:
			return contracts.SignalWeakBuy
		}
	}
	switch {
	case score < b.StrongSell:
		return contracts.SignalStrongSell
	case score < b.Sell:
		return contracts.SignalSell
	default:
		return contracts.SignalWeakSell
	}
}

func (ev *Evaluation) add(format string, args ...interface{}) {
	ev.Reasons = append(ev.Reasons, fmt.Sprintf(format, args...))
}

func signOf(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
