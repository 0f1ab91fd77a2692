package scoring

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// Preset profile names
const (
	ProfileBase         = "base"
	ProfileConservative = "conservative"
	ProfileStrict       = "strict"
	ProfileSentiment    = "sentiment"

	// DefaultProfile is used when no profile is configured
	DefaultProfile = ProfileSentiment

	// MaxConfidence is the hard ceiling for any signal's confidence
	MaxConfidence = 95.0
	// MaxReasonsLimit caps the reason list of any profile
	MaxReasonsLimit = 6
)

// ErrUnknownProfile is returned for a preset name that does not exist
var ErrUnknownProfile = errors.New("unknown scoring profile")

// Profile parameterizes the Scorer.
// Rule point weights are fixed; a profile tunes gates, calibration and labels.
type Profile struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`

	MinScore      float64 `json:"min_score" yaml:"min_score"`           // |score| gate
	ConfidenceK   float64 `json:"confidence_k" yaml:"confidence_k"`     // |score| -> confidence
	MinConfidence float64 `json:"min_confidence" yaml:"min_confidence"` // confidence floor
	MaxConfidence float64 `json:"max_confidence" yaml:"max_confidence"`
	MaxReasons    int     `json:"max_reasons" yaml:"max_reasons"`

	Breakpoints Breakpoints    `json:"breakpoints" yaml:"breakpoints"`
	Multipliers Multipliers    `json:"multipliers" yaml:"multipliers"`
	Sentiment   SentimentRules `json:"sentiment" yaml:"sentiment"`
}

// Breakpoints map a signed score to a label.
// score > StrongBuy is STRONG_BUY, score > Buy is BUY, other positives WEAK_BUY.
// score < StrongSell is STRONG_SELL, score < Sell is SELL, other negatives WEAK_SELL.
type Breakpoints struct {
	StrongBuy  float64 `json:"strong_buy" yaml:"strong_buy"`
	Buy        float64 `json:"buy" yaml:"buy"`
	StrongSell float64 `json:"strong_sell" yaml:"strong_sell"`
	Sell       float64 `json:"sell" yaml:"sell"`
}

// Multipliers are the confidence multiplier increments per technical rule
type Multipliers struct {
	ExtremeOversold float64 `json:"extreme_oversold" yaml:"extreme_oversold"`
	Oversold        float64 `json:"oversold" yaml:"oversold"`
	Momentum10      float64 `json:"momentum_10" yaml:"momentum_10"`
	VolumeSpike     float64 `json:"volume_spike" yaml:"volume_spike"`
	HighVolume      float64 `json:"high_volume" yaml:"high_volume"`
	Volatility      float64 `json:"volatility" yaml:"volatility"`
}

// SentimentRules control the sentiment sub-score
type SentimentRules struct {
	Enabled         bool    `json:"enabled" yaml:"enabled"`
	TechnicalWeight float64 `json:"technical_weight" yaml:"technical_weight"`
	SentimentWeight float64 `json:"sentiment_weight" yaml:"sentiment_weight"`

	// multiplier increments
	StrongOverall float64 `json:"strong_overall" yaml:"strong_overall"`
	Overall       float64 `json:"overall" yaml:"overall"`
	HeavyBuzz     float64 `json:"heavy_buzz" yaml:"heavy_buzz"`
	BroadCoverage float64 `json:"broad_coverage" yaml:"broad_coverage"`
	Trending      float64 `json:"trending" yaml:"trending"`

	// flat confidence bonus when |overall| exceeds the threshold
	BonusLowThreshold  float64 `json:"bonus_low_threshold" yaml:"bonus_low_threshold"`
	BonusLow           float64 `json:"bonus_low" yaml:"bonus_low"`
	BonusHighThreshold float64 `json:"bonus_high_threshold" yaml:"bonus_high_threshold"`
	BonusHigh          float64 `json:"bonus_high" yaml:"bonus_high"`
}

func defaultMultipliers() Multipliers {
	return Multipliers{
		ExtremeOversold: 0.3,
		Oversold:        0.2,
		Momentum10:      0.2,
		VolumeSpike:     0.3,
		HighVolume:      0.2,
		Volatility:      0.1,
	}
}

func defaultSentimentRules(enabled bool) SentimentRules {
	return SentimentRules{
		Enabled:            enabled,
		TechnicalWeight:    0.6,
		SentimentWeight:    0.4,
		StrongOverall:      0.2,
		Overall:            0.1,
		HeavyBuzz:          0.1,
		BroadCoverage:      0.1,
		Trending:           0.1,
		BonusLowThreshold:  0.15,
		BonusLow:           5,
		BonusHighThreshold: 0.3,
		BonusHigh:          10,
	}
}

var presets = map[string]func() Profile{
	ProfileBase: func() Profile {
		return Profile{
			Name:          ProfileBase,
			Description:   "Technical scorer calibrated on the historical backtest",
			MinScore:      30,
			ConfidenceK:   1.3,
			MinConfidence: 60,
			MaxConfidence: MaxConfidence,
			MaxReasons:    3,
			Breakpoints:   Breakpoints{StrongBuy: 100, Buy: 60, StrongSell: -80, Sell: -50},
			Multipliers:   defaultMultipliers(),
			Sentiment:     defaultSentimentRules(false),
		}
	},
	ProfileConservative: func() Profile {
		return Profile{
			Name:          ProfileConservative,
			Description:   "Live scanner gate with moderate calibration",
			MinScore:      40,
			ConfidenceK:   1.2,
			MinConfidence: 65,
			MaxConfidence: MaxConfidence,
			MaxReasons:    4,
			Breakpoints:   Breakpoints{StrongBuy: 100, Buy: 0, StrongSell: -100, Sell: 0},
			Multipliers:   defaultMultipliers(),
			Sentiment:     defaultSentimentRules(false),
		}
	},
	ProfileStrict: func() Profile {
		return Profile{
			Name:          ProfileStrict,
			Description:   "High gate, conservative calibration, no weak labels",
			MinScore:      50,
			ConfidenceK:   1.1,
			MinConfidence: 75,
			MaxConfidence: MaxConfidence,
			MaxReasons:    4,
			Breakpoints:   Breakpoints{StrongBuy: 80, Buy: 0, StrongSell: -80, Sell: 0},
			// confidence is |score| x K with no multiplier
			Multipliers: Multipliers{},
			Sentiment:   defaultSentimentRules(false),
		}
	},
	ProfileSentiment: func() Profile {
		return Profile{
			Name:          ProfileSentiment,
			Description:   "Technical score blended with social and news sentiment",
			MinScore:      35,
			ConfidenceK:   1.2,
			MinConfidence: 70,
			MaxConfidence: MaxConfidence,
			MaxReasons:    MaxReasonsLimit,
			Breakpoints:   Breakpoints{StrongBuy: 100, Buy: 60, StrongSell: -80, Sell: -50},
			Multipliers:   defaultMultipliers(),
			Sentiment:     defaultSentimentRules(true),
		}
	},
}

// Preset returns a fresh copy of the named preset profile
func Preset(name string) (Profile, error) {
	build, ok := presets[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
	return build(), nil
}

// MustPreset is Preset for names known at compile time
func MustPreset(name string) Profile {
	p, err := Preset(name)
	if err != nil {
		panic(err)
	}
	return p
}

// PresetNames lists the preset names in sorted order
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Hash fingerprints a profile so results can be traced to exact parameters
func (p Profile) Hash() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
