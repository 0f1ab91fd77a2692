package scoring

import (
	"fmt"
	"math"
)

// ValidationError describes the first invalid profile field
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks a profile before it is used for scoring
func Validate(p *Profile) error {
	if p.Name == "" {
		return ValidationError{"name", "required"}
	}

	// === Gates ===
	if p.MinScore < 0 {
		return ValidationError{"min_score", "must be >= 0"}
	}
	if p.ConfidenceK <= 0 {
		return ValidationError{"confidence_k", "must be > 0"}
	}
	if p.MaxConfidence <= 0 || p.MaxConfidence > MaxConfidence {
		return ValidationError{"max_confidence", fmt.Sprintf("must be in (0, %.0f]", MaxConfidence)}
	}
	if p.MinConfidence < 0 || p.MinConfidence > p.MaxConfidence {
		return ValidationError{"min_confidence", "must be in [0, max_confidence]"}
	}
	if p.MaxReasons < 1 || p.MaxReasons > MaxReasonsLimit {
		return ValidationError{"max_reasons", fmt.Sprintf("must be in [1, %d]", MaxReasonsLimit)}
	}

	// === Labels ===
	b := p.Breakpoints
	if b.Buy < 0 || b.StrongBuy < b.Buy {
		return ValidationError{"breakpoints", "require 0 <= buy <= strong_buy"}
	}
	if b.Sell > 0 || b.StrongSell > b.Sell {
		return ValidationError{"breakpoints", "require strong_sell <= sell <= 0"}
	}

	// === Multipliers ===
	m := p.Multipliers
	increments := []struct {
		field string
		value float64
	}{
		{"multipliers.extreme_oversold", m.ExtremeOversold},
		{"multipliers.oversold", m.Oversold},
		{"multipliers.momentum_10", m.Momentum10},
		{"multipliers.volume_spike", m.VolumeSpike},
		{"multipliers.high_volume", m.HighVolume},
		{"multipliers.volatility", m.Volatility},
	}
	for _, inc := range increments {
		if inc.value < 0 {
			return ValidationError{inc.field, "must be >= 0"}
		}
	}

	// === Sentiment ===
	s := p.Sentiment
	if !s.Enabled {
		return nil
	}
	if s.TechnicalWeight < 0 || s.SentimentWeight < 0 {
		return ValidationError{"sentiment", "weights must be >= 0"}
	}
	if math.Abs(s.TechnicalWeight+s.SentimentWeight-1.0) > 1e-6 {
		return ValidationError{"sentiment", fmt.Sprintf("weights must sum to 1.0, got %.4f", s.TechnicalWeight+s.SentimentWeight)}
	}
	if s.BonusLowThreshold < 0 || s.BonusHighThreshold < s.BonusLowThreshold {
		return ValidationError{"sentiment", "require 0 <= bonus_low_threshold <= bonus_high_threshold"}
	}
	if s.BonusLow < 0 || s.BonusHigh < 0 {
		return ValidationError{"sentiment", "bonuses must be >= 0"}
	}

	return nil
}
