package marketclock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClock_IsOpen(t *testing.T) {
	ny, err := time.LoadLocation(DefaultLocation)
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	clock := NewNewYork()

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"before open", time.Date(2024, 3, 4, 9, 29, 59, 0, ny), false},
		{"at open", time.Date(2024, 3, 4, 9, 30, 0, 0, ny), true},
		{"midday", time.Date(2024, 3, 4, 12, 0, 0, 0, ny), true},
		{"at close", time.Date(2024, 3, 4, 16, 0, 0, 0, ny), true},
		{"after close", time.Date(2024, 3, 4, 16, 0, 1, 0, ny), false},
		{"saturday", time.Date(2024, 3, 9, 12, 0, 0, 0, ny), false},
		{"sunday", time.Date(2024, 3, 10, 12, 0, 0, 0, ny), false},
		{"utc input converted", time.Date(2024, 7, 1, 14, 0, 0, 0, time.UTC), true},
		{"utc evening", time.Date(2024, 7, 1, 21, 0, 0, 0, time.UTC), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, clock.IsOpen(tt.at))
		})
	}
}

func TestClock_UnknownZoneIsClosed(t *testing.T) {
	clock := New("Mars/Olympus_Mons")
	require.NotNil(t, clock)
	assert.False(t, clock.IsOpen(time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC)))

	var nilClock *Clock
	assert.False(t, nilClock.IsOpen(time.Now()))
}

func TestFixed(t *testing.T) {
	assert.True(t, Fixed(true).IsOpen(time.Time{}))
	assert.False(t, Fixed(false).IsOpen(time.Time{}))
}
