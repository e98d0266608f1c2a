// Package idempotency implements the Idempotency Guard (spec §4.4): a
// check-and-mark gate in front of the dispatch pipeline that absorbs
// duplicate order_ids within a time-to-live window.
package idempotency

import (
	"context"
	"sync"
	"time"
)

// Outcome is the result of a check-and-mark call.
type Outcome int

const (
	Fresh Outcome = iota
	Duplicate
)

// Guard is satisfied by both the in-memory implementation and the
// external_kv (Redis) backend from spec §6's idempotency.backend config.
type Guard interface {
	// CheckAndMark atomically reports whether id has been seen within
	// the TTL window and marks it seen. Must be safe for concurrent use
	// when shared across symbol-sharded workers (spec §5).
	CheckAndMark(ctx context.Context, id string) (Outcome, error)
}

// InMemory is a TTL-bounded set guarded by a mutex, with a periodic
// sweep to bound memory (spec §4.4's eviction policy). Losing a mark
// after its TTL elapses is acceptable; a replay beyond that window is
// treated as a fresh order.
type InMemory struct {
	mu   sync.Mutex
	ttl  time.Duration
	seen map[string]time.Time

	stop chan struct{}
	once sync.Once
}

// NewInMemory creates a guard with the given TTL and starts its
// background sweep goroutine at the given interval. Call Close to stop
// the sweep.
func NewInMemory(ttl, sweepInterval time.Duration) *InMemory {
	g := &InMemory{
		ttl:  ttl,
		seen: make(map[string]time.Time),
		stop: make(chan struct{}),
	}
	go g.sweepLoop(sweepInterval)
	return g
}

func (g *InMemory) CheckAndMark(_ context.Context, id string) (Outcome, error) {
	now := time.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	if expiresAt, ok := g.seen[id]; ok && now.Before(expiresAt) {
		return Duplicate, nil
	}
	g.seen[id] = now.Add(g.ttl)
	return Fresh, nil
}

func (g *InMemory) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-g.stop:
			return
		case now := <-ticker.C:
			g.sweep(now)
		}
	}
}

func (g *InMemory) sweep(now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for id, expiresAt := range g.seen {
		if now.After(expiresAt) {
			delete(g.seen, id)
		}
	}
}

// Close stops the background sweep. Safe to call more than once.
func (g *InMemory) Close() {
	g.once.Do(func() { close(g.stop) })
}
