package indicators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/signalengine/internal/testutil"
)

func TestCompute_InsufficientData(t *testing.T) {
	calc := New()

	_, err := calc.Compute(testutil.Flat(MinHistory-1, 100))
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = calc.Compute(nil)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = calc.Compute(testutil.Flat(MinHistory, 100))
	assert.NoError(t, err)
}

func TestCompute_FlatSeries(t *testing.T) {
	fv, err := New().Compute(testutil.Flat(30, 50))
	require.NoError(t, err)

	assert.Equal(t, 50.0, fv.RSI, "flat prices are neutral")
	assert.Equal(t, 0.0, fv.Volatility10)
	assert.Equal(t, 0.0, fv.Volatility20)
	assert.Equal(t, 0.5, fv.PricePosition)
	assert.Equal(t, 1.0, fv.VolumeRatio)
	assert.Equal(t, 0.0, fv.MACD)
	assert.Equal(t, 0.0, fv.Momentum3)
	assert.Equal(t, 0.0, fv.Momentum10)
	assert.Equal(t, 50.0, fv.SMA20)
}

func TestCompute_LegacyFlatRSI(t *testing.T) {
	fv, err := New(WithLegacyFlatRSI()).Compute(testutil.Flat(30, 50))
	require.NoError(t, err)
	assert.Equal(t, 100.0, fv.RSI)
}

func TestCompute_RisingSeries(t *testing.T) {
	prices := testutil.Rising(60, 100, 1.0)
	fv, err := New().Compute(prices[9:])
	require.NoError(t, err)

	last := prices[len(prices)-1]
	assert.Equal(t, last.Date, fv.Date)
	assert.Equal(t, last.Close, fv.Close)

	assert.Equal(t, 100.0, fv.RSI, "gains with no losses")
	assert.InDelta(t, (math.Pow(1.01, 3)-1)*100, fv.Momentum3, 1e-9)
	assert.InDelta(t, (math.Pow(1.01, 5)-1)*100, fv.Momentum5, 1e-9)
	assert.InDelta(t, (math.Pow(1.01, 10)-1)*100, fv.Momentum10, 1e-9)

	assert.Greater(t, fv.Close, fv.SMA5)
	assert.Greater(t, fv.SMA5, fv.SMA10)
	assert.Greater(t, fv.SMA10, fv.SMA20)
	assert.Greater(t, fv.MACD, 0.0)
	assert.Less(t, fv.Volatility10, fv.Volatility20)
	assert.Equal(t, 1.0, fv.VolumeRatio)
	assert.Greater(t, fv.PricePosition, 0.8)
	assert.LessOrEqual(t, fv.PricePosition, 1.0)
}

func TestRSI(t *testing.T) {
	calc := New()

	tests := []struct {
		name   string
		closes []float64
		want   float64
	}{
		{
			name:   "alternating gains and losses",
			closes: []float64{10, 11, 10, 11, 10, 11, 10, 11, 10, 11, 10, 11, 10, 11, 10},
			want:   50,
		},
		{
			name:   "only losses",
			closes: []float64{25, 24, 23, 22, 21, 20, 19, 18, 17, 16, 15, 14, 13, 12, 11},
			want:   0,
		},
		{
			name:   "too short",
			closes: []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
			want:   50,
		},
		{
			// 3 gains of 2, 11 losses of 1
			name:   "more losses than gains",
			closes: []float64{20, 22, 24, 26, 25, 24, 23, 22, 21, 20, 19, 18, 17, 16, 15},
			want:   100 - 100/(1+6.0/11.0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, calc.rsi(tt.closes, rsiPeriod), 1e-9)
		})
	}
}

func TestSMA_ShortHistoryFallsBackToLatestClose(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}

	assert.InDelta(t, 10.0, sma(closes, 5), 1e-9)
	assert.InDelta(t, 7.5, sma(closes, 10), 1e-9)
	assert.Equal(t, 12.0, sma(closes, 20))
	assert.Equal(t, 12.0, sma(closes, 50))
}

func TestMomentum(t *testing.T) {
	closes := []float64{100, 0, 100, 100, 110}

	assert.InDelta(t, 10.0, momentum(closes, 1), 1e-9)
	assert.InDelta(t, 10.0, momentum(closes, 2), 1e-9)
	assert.Equal(t, 0.0, momentum(closes, 3), "zero base close")
	assert.Equal(t, 0.0, momentum(closes, 10), "insufficient history")
}

func TestVolatility(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	assert.InDelta(t, math.Sqrt(55.0/6.0), volatility(closes, 10), 1e-9)
	assert.Equal(t, 0.0, volatility(closes, 20))
}

func TestVolumeRatio(t *testing.T) {
	prices := testutil.Flat(12, 10)
	for i := range prices {
		prices[i].Volume = 0
	}
	assert.Equal(t, 1.0, volumeRatio(prices), "zero average volume")

	prices = testutil.Flat(12, 10)
	prices[len(prices)-1].Volume = 10_900_000 // avg over 10 = 1.99M
	ratio := volumeRatio(prices)
	assert.InDelta(t, 10.9/1.99, ratio, 1e-9)
	assert.GreaterOrEqual(t, ratio, 0.0)
}

func TestPricePosition(t *testing.T) {
	t.Run("zero range", func(t *testing.T) {
		assert.Equal(t, 0.5, pricePosition(testutil.Flat(25, 10)))
	})

	t.Run("within range", func(t *testing.T) {
		prices := testutil.FromCloses(10, 12, 14, 16, 18, 20, 18, 16, 14, 12, 10, 12, 14, 16, 18, 20, 18, 16, 14, 15)
		assert.InDelta(t, 0.5, pricePosition(prices), 1e-9)
	})

	t.Run("clamped when close escapes the range", func(t *testing.T) {
		prices := testutil.FromCloses(10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 40)
		prices[len(prices)-1].High = 30
		prices[len(prices)-1].Low = 30
		assert.Equal(t, 1.0, pricePosition(prices))
	})
}

func TestSeries(t *testing.T) {
	calc := New()
	prices := testutil.Rising(60, 100, 1.0)

	series := calc.Series(prices, DefaultLookback)
	require.Len(t, series, 10)
	assert.Equal(t, prices[50].Date, series[0].Date)
	assert.Equal(t, prices[59].Date, series[9].Date)

	t.Run("no look-ahead", func(t *testing.T) {
		altered := make([]float64, 0)
		mutated := append(prices[:0:0], prices...)
		mutated[59].Close = 1
		mutated[59].Low = 1
		for _, fv := range calc.Series(mutated, DefaultLookback)[:9] {
			altered = append(altered, fv.RSI)
		}
		for i, rsi := range altered {
			assert.Equal(t, series[i].RSI, rsi)
		}
	})

	t.Run("too short", func(t *testing.T) {
		assert.Empty(t, calc.Series(prices[:50], DefaultLookback))
	})
}

func TestCompute_FeaturesAreFinite(t *testing.T) {
	calc := New()
	inputs := [][]float64{
		{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
		{1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0},
		{1e-9, 1e9, 1e-9, 1e9, 1e-9, 1e9, 1e-9, 1e9, 1e-9, 1e9},
	}

	for _, closes := range inputs {
		fv, err := calc.Compute(testutil.FromCloses(closes...))
		require.NoError(t, err)
		for _, v := range []float64{fv.RSI, fv.Momentum3, fv.Momentum5, fv.Momentum10, fv.VolumeRatio, fv.PricePosition, fv.MACD, fv.Volatility10} {
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
		}
		assert.GreaterOrEqual(t, fv.RSI, 0.0)
		assert.LessOrEqual(t, fv.RSI, 100.0)
	}
}
