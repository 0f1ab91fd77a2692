// Package notify formats high-confidence signals into digests and delivers them.
package notify

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/wonny/signalengine/internal/contracts"
)

// Digest defaults
const (
	DefaultMinConfidence = 80.0
	DefaultSize          = 3
)

// Execution headers
const (
	StatusReady  = "READY FOR EXECUTION"
	StatusQueued = "QUEUED FOR MARKET OPEN"
)

// HighConfidence keeps signals at or above minConfidence, ranked by
// confidence descending. Ties keep their input order.
func HighConfidence(signals []contracts.Signal, minConfidence float64) []contracts.Signal {
	out := make([]contracts.Signal, 0, len(signals))
	for _, s := range signals {
		if s.Confidence >= minConfidence {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out
}

// FormatDigest builds the message for already ranked high-confidence signals.
// Only the first size signals are detailed; the subject counts all of them.
// ok is false when there is nothing to send.
func FormatDigest(ranked []contracts.Signal, marketOpen bool, size int, now time.Time) (contracts.Digest, bool) {
	if len(ranked) == 0 {
		return contracts.Digest{}, false
	}
	if size <= 0 {
		size = DefaultSize
	}

	status := StatusQueued
	marketLine := "CLOSED - signals queued"
	if marketOpen {
		status = StatusReady
		marketLine = "OPEN - execute immediately"
	}

	top := ranked
	if len(top) > size {
		top = top[:size]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "HIGH CONFIDENCE TRADING SIGNALS - %s\n\n", status)
	for i, s := range top {
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, s.Symbol, s.Type)
		fmt.Fprintf(&b, "   Current Price: $%.2f\n", s.EntryPrice)
		fmt.Fprintf(&b, "   Confidence: %.1f%%\n", s.Confidence)
		fmt.Fprintf(&b, "   RSI: %.1f\n", s.Features.RSI)
		fmt.Fprintf(&b, "   5-Day Change: %+.1f%%\n", s.Features.Momentum5)
		if reason := s.KeyReason(); reason != "" {
			fmt.Fprintf(&b, "   Key Reason: %s\n", reason)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Generated: %s\n", now.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Market Status: %s\n", marketLine)

	return contracts.Digest{
		Subject:    fmt.Sprintf("%d Trading Signals - %s", len(ranked), status),
		Message:    b.String(),
		MarketOpen: marketOpen,
		Signals:    append([]contracts.Signal(nil), top...),
		CreatedAt:  now,
	}, true
}
