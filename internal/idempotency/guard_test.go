package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemory_FirstSeenIsFresh(t *testing.T) {
	g := NewInMemory(time.Hour, time.Hour)
	defer g.Close()

	outcome, err := g.CheckAndMark(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, Fresh, outcome)
}

func TestInMemory_SecondSeenIsDuplicate(t *testing.T) {
	g := NewInMemory(time.Hour, time.Hour)
	defer g.Close()

	ctx := context.Background()
	_, err := g.CheckAndMark(ctx, "order-1")
	require.NoError(t, err)

	outcome, err := g.CheckAndMark(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, Duplicate, outcome)
}

func TestInMemory_DistinctIDsAreBothFresh(t *testing.T) {
	g := NewInMemory(time.Hour, time.Hour)
	defer g.Close()

	ctx := context.Background()
	a, err := g.CheckAndMark(ctx, "order-a")
	require.NoError(t, err)
	b, err := g.CheckAndMark(ctx, "order-b")
	require.NoError(t, err)

	assert.Equal(t, Fresh, a)
	assert.Equal(t, Fresh, b)
}

func TestInMemory_ExpiredMarkIsTreatedAsFresh(t *testing.T) {
	g := NewInMemory(20*time.Millisecond, time.Hour)
	defer g.Close()

	ctx := context.Background()
	_, err := g.CheckAndMark(ctx, "order-1")
	require.NoError(t, err)

	time.Sleep(40 * time.Millisecond)

	outcome, err := g.CheckAndMark(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, Fresh, outcome, "a replay arriving after TTL is out of SLA and treated as new")
}

func TestInMemory_SweepEvictsExpiredEntries(t *testing.T) {
	g := NewInMemory(10*time.Millisecond, 15*time.Millisecond)
	defer g.Close()

	ctx := context.Background()
	_, err := g.CheckAndMark(ctx, "order-1")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		g.mu.Lock()
		defer g.mu.Unlock()
		_, present := g.seen["order-1"]
		return !present
	}, time.Second, 5*time.Millisecond)
}

func TestInMemory_ConcurrentCheckAndMark(t *testing.T) {
	g := NewInMemory(time.Hour, time.Hour)
	defer g.Close()

	ctx := context.Background()
	const n = 50
	results := make(chan Outcome, n)
	for i := 0; i < n; i++ {
		go func() {
			outcome, err := g.CheckAndMark(ctx, "shared-id")
			require.NoError(t, err)
			results <- outcome
		}()
	}

	freshCount := 0
	for i := 0; i < n; i++ {
		if <-results == Fresh {
			freshCount++
		}
	}
	assert.Equal(t, 1, freshCount, "exactly one caller should observe Fresh for a racing duplicate id")
}
