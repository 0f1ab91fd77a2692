package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wonny/signalengine/internal/contracts"
)

type memoryKey struct {
	symbol      string
	generatedAt int64
}

type memoryEntry struct {
	signal    contracts.Signal
	expiresAt time.Time
}

// Memory keeps signals in process, for dry runs and tests
type Memory struct {
	mu      sync.RWMutex
	entries map[memoryKey]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemory creates an in-memory signal store
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{
		entries: make(map[memoryKey]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Save upserts a signal keyed by (symbol, generated_at)
func (m *Memory) Save(_ context.Context, s contracts.Signal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s.GeneratedAt.IsZero() {
		s.GeneratedAt = m.now()
	}
	s.Reasons = append([]string(nil), s.Reasons...)

	key := memoryKey{symbol: s.Symbol, generatedAt: s.GeneratedAt.UnixNano()}
	m.entries[key] = memoryEntry{signal: s, expiresAt: s.GeneratedAt.Add(m.ttl)}
	return nil
}

// Recent returns unexpired signals, newest first
func (m *Memory) Recent(_ context.Context, limit int) ([]contracts.Signal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.now()
	out := make([]contracts.Signal, 0, len(m.entries))
	for _, e := range m.entries {
		if e.expiresAt.After(now) {
			out = append(out, e.signal)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].GeneratedAt.Equal(out[j].GeneratedAt) {
			return out[i].GeneratedAt.After(out[j].GeneratedAt)
		}
		return out[i].Symbol < out[j].Symbol
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DeleteExpired drops signals past their expiry
func (m *Memory) DeleteExpired(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var n int64
	for k, e := range m.entries {
		if !e.expiresAt.After(now) {
			delete(m.entries, k)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored signals, expired ones included
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

var (
	_ contracts.SignalStore = (*Memory)(nil)
	_ contracts.SignalStore = (*Postgres)(nil)
)
