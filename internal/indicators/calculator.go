package indicators

import (
	"errors"
	"math"

	"github.com/wonny/signalengine/internal/contracts"
)

const (
	// MinHistory is the absolute floor of points needed to compute a FeatureVector
	MinHistory = 10

	// DefaultLookback is the trailing window used when replaying history
	DefaultLookback = 50

	rsiPeriod      = 14
	macdSlowPeriod = 26
	volumePeriod   = 10
	rangePeriod    = 20
)

// ErrInsufficientData is returned when a window is shorter than MinHistory
var ErrInsufficientData = errors.New("insufficient price history")

// Option configures a Calculator
type Option func(*Calculator)

// WithLegacyFlatRSI maps a window with no losses to RSI 100 even when it also
// has no gains. Older signal histories were produced this way.
func WithLegacyFlatRSI() Option {
	return func(c *Calculator) {
		c.legacyFlatRSI = true
	}
}

// Calculator derives FeatureVectors from trailing price windows
type Calculator struct {
	legacyFlatRSI bool
}

// New creates a new indicator calculator
func New(opts ...Option) *Calculator {
	c := &Calculator{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compute builds the FeatureVector for the last point of window.
// Only data inside window is read.
func (c *Calculator) Compute(window []contracts.PricePoint) (contracts.FeatureVector, error) {
	if len(window) < MinHistory {
		return contracts.FeatureVector{}, ErrInsufficientData
	}

	closes := contracts.Closes(window)
	latest := window[len(window)-1]

	fv := contracts.FeatureVector{
		Date:  latest.Date,
		Close: latest.Close,

		RSI: c.rsi(closes, rsiPeriod),

		SMA5:  sma(closes, 5),
		SMA10: sma(closes, 10),
		SMA20: sma(closes, 20),
		SMA50: sma(closes, 50),

		Momentum3:  momentum(closes, 3),
		Momentum5:  momentum(closes, 5),
		Momentum10: momentum(closes, 10),

		Volatility10: volatility(closes, 10),
		Volatility20: volatility(closes, 20),

		VolumeRatio:   volumeRatio(window),
		PricePosition: pricePosition(window),
	}

	// Fast line is the latest close, slow line a 26-day simple average
	fv.MACD = latest.Close - sma(closes, macdSlowPeriod)

	return fv, nil
}

// Series computes one FeatureVector per day i >= lookback, each from
// prices[i-lookback : i+1]. Element k belongs to prices[lookback+k].
func (c *Calculator) Series(prices []contracts.PricePoint, lookback int) []contracts.FeatureVector {
	if lookback < MinHistory-1 {
		lookback = MinHistory - 1
	}
	if len(prices) <= lookback {
		return nil
	}

	out := make([]contracts.FeatureVector, 0, len(prices)-lookback)
	for i := lookback; i < len(prices); i++ {
		fv, err := c.Compute(prices[i-lookback : i+1])
		if err != nil {
			// unreachable: every window has lookback+1 >= MinHistory points
			continue
		}
		out = append(out, fv)
	}
	return out
}

// rsi uses simple averages of the trailing period deltas
func (c *Calculator) rsi(closes []float64, period int) float64 {
	if len(closes) < period+1 {
		return 50.0 // Neutral
	}

	var gains, losses float64
	for i := len(closes) - period; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains += change
		} else {
			losses += -change
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	if avgLoss == 0 {
		if avgGain == 0 && !c.legacyFlatRSI {
			return 50.0
		}
		return 100.0
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// sma averages the last n closes; shorter histories degrade to the latest close
func sma(closes []float64, n int) float64 {
	if len(closes) < n {
		return closes[len(closes)-1]
	}
	var sum float64
	for _, v := range closes[len(closes)-n:] {
		sum += v
	}
	return sum / float64(n)
}

// momentum is the % change against the close n sessions earlier
func momentum(closes []float64, n int) float64 {
	if len(closes) < n+1 {
		return 0
	}
	base := closes[len(closes)-1-n]
	if base <= 0 {
		return 0
	}
	return (closes[len(closes)-1] - base) / base * 100
}

// volatility is the sample standard deviation of the last n closes
func volatility(closes []float64, n int) float64 {
	if len(closes) < n || n < 2 {
		return 0
	}
	tail := closes[len(closes)-n:]

	var mean float64
	for _, v := range tail {
		mean += v
	}
	mean /= float64(n)

	var ss float64
	for _, v := range tail {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}

func volumeRatio(window []contracts.PricePoint) float64 {
	n := volumePeriod
	if len(window) < n {
		n = len(window)
	}

	var sum float64
	for _, p := range window[len(window)-n:] {
		sum += float64(p.Volume)
	}
	avg := sum / float64(n)
	if avg <= 0 {
		return 1.0
	}
	return float64(window[len(window)-1].Volume) / avg
}

// pricePosition locates the close within the trailing high/low range, clamped to [0, 1]
func pricePosition(window []contracts.PricePoint) float64 {
	tail := window[len(window)-1:]
	if len(window) >= rangePeriod {
		tail = window[len(window)-rangePeriod:]
	}

	high, low := tail[0].High, tail[0].Low
	for _, p := range tail[1:] {
		high = math.Max(high, p.High)
		low = math.Min(low, p.Low)
	}

	if high == low {
		return 0.5
	}

	pos := (window[len(window)-1].Close - low) / (high - low)
	return math.Max(0, math.Min(1, pos))
}
