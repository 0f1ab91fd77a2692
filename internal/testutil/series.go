// Package testutil builds deterministic price series for tests.
package testutil

import (
	"time"

	"github.com/wonny/signalengine/internal/contracts"
)

// StartDate is the first session of every generated series
var StartDate = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

// Rising returns n sessions compounding by pct (1.0 = 1%) per day with stable volume.
// High and low sit 0.5% around the close.
func Rising(n int, start, pct float64) []contracts.PricePoint {
	prices := make([]contracts.PricePoint, n)
	c := start
	for i := 0; i < n; i++ {
		prices[i] = bar(i, c, 1_000_000)
		prices[i].High = c * 1.005
		prices[i].Low = c * 0.995
		c *= 1 + pct/100
	}
	return prices
}

// Flat returns n identical sessions
func Flat(n int, price float64) []contracts.PricePoint {
	prices := make([]contracts.PricePoint, n)
	for i := 0; i < n; i++ {
		prices[i] = bar(i, price, 1_000_000)
	}
	return prices
}

// FromCloses builds sessions with open/high/low equal to close
func FromCloses(closes ...float64) []contracts.PricePoint {
	prices := make([]contracts.PricePoint, len(closes))
	for i, c := range closes {
		prices[i] = bar(i, c, 1_000_000)
	}
	return prices
}

func bar(i int, c float64, volume int64) contracts.PricePoint {
	return contracts.PricePoint{
		Date:   StartDate.AddDate(0, 0, i),
		Open:   c,
		High:   c,
		Low:    c,
		Close:  c,
		Volume: volume,
	}
}
