// Package marketclock decides whether the US equity market is trading.
package marketclock

import (
	"time"

	"github.com/wonny/signalengine/internal/contracts"
)

// DefaultLocation is the exchange timezone
const DefaultLocation = "America/New_York"

// Regular session bounds in exchange local time, both inclusive
var (
	openAt  = 9*time.Hour + 30*time.Minute
	closeAt = 16 * time.Hour
)

// Clock reports regular session hours on weekdays. Holidays are not modelled.
type Clock struct {
	loc *time.Location
}

// New loads the exchange timezone. When it cannot be loaded the clock
// reports the market closed for every instant.
func New(location string) *Clock {
	loc, err := time.LoadLocation(location)
	if err != nil {
		return &Clock{}
	}
	return &Clock{loc: loc}
}

// NewNewYork returns the clock for the default exchange
func NewNewYork() *Clock {
	return New(DefaultLocation)
}

var _ contracts.MarketClock = (*Clock)(nil)

// IsOpen reports whether t falls inside 09:30-16:00 local on a weekday
func (c *Clock) IsOpen(t time.Time) bool {
	if c == nil || c.loc == nil {
		return false
	}

	local := t.In(c.loc)
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}

	sinceMidnight := time.Duration(local.Hour())*time.Hour +
		time.Duration(local.Minute())*time.Minute +
		time.Duration(local.Second())*time.Second +
		time.Duration(local.Nanosecond())

	return sinceMidnight >= openAt && sinceMidnight <= closeAt
}

// Fixed is a clock with a constant answer
type Fixed bool

// IsOpen returns the fixed answer
func (f Fixed) IsOpen(time.Time) bool { return bool(f) }
