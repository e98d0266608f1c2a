package dispatch

import (
	"sync"
	"time"
)

// symbolClock assigns strictly increasing per-symbol acceptance
// timestamps (spec §4.5): wall-clock milliseconds, with a disambiguating
// counter so two orders accepted within the same millisecond still sort
// deterministically.
type symbolClock struct {
	mu      sync.Mutex
	lastMs  int64
	counter int64
}

// next returns a monotonically increasing stamp. The low bits carry the
// disambiguating counter so ties in wall-clock time never produce equal
// stamps; callers only ever compare these for ordering, never convert
// them back to wall-clock time.
func (c *symbolClock) next(now time.Time) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	ms := now.UnixMilli()
	if ms <= c.lastMs {
		c.counter++
	} else {
		c.lastMs = ms
		c.counter = 0
	}
	return c.lastMs*1_000_000 + c.counter
}
