package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/benefactorum/authotp/internal/pkg/clock"
)

// sweepEvery bounds how often Allow scans the whole map for expired windows.
const sweepEvery = time.Minute

type window struct {
	count   int64
	resetAt time.Time
}

// Memory is a single-process Limiter for local runs and tests.
type Memory struct {
	clock clock.Clocker

	mu        sync.Mutex
	windows   map[string]*window
	nextSweep time.Time
}

// NewMemory returns an in-process limiter reading time from c.
func NewMemory(c clock.Clocker) *Memory {
	return &Memory{clock: c, windows: make(map[string]*window)}
}

func (m *Memory) Allow(_ context.Context, key string, p Policy) (Decision, error) {
	if !p.valid() {
		return Decision{}, ErrInvalidPolicy
	}

	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if !now.Before(m.nextSweep) {
		m.sweep(now)
	}

	w, ok := m.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(p.Window)}
		m.windows[key] = w
	}

	if w.count >= p.Limit {
		return decide(w.count, p.Limit, false, w.resetAt.Sub(now)), nil
	}

	w.count++
	return decide(w.count, p.Limit, true, w.resetAt.Sub(now)), nil
}

// Sweep drops expired windows. Allow also sweeps on its own at most once per
// sweepEvery, so keys seen once do not pile up.
func (m *Memory) Sweep() {
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweep(now)
}

func (m *Memory) sweep(now time.Time) {
	m.nextSweep = now.Add(sweepEvery)
	for k, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, k)
		}
	}
}
