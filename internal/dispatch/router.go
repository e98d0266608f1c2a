package dispatch

import (
	"context"
	"fmt"
)

// Router fans inbound records out to the shard responsible for each
// symbol (spec §6's symbols.workers mapping), and collects every
// shard's results into one channel.
type Router struct {
	shards      map[int]*Shard
	symbolShard map[string]int
	results     chan Result
}

// NewRouter builds a router from an explicit symbol -> shard id mapping
// and the already-constructed shards.
func NewRouter(shards map[int]*Shard, symbolShard map[string]int) *Router {
	results := make(chan Result, 256)
	for _, shard := range shards {
		shard := shard
		go func() {
			for r := range shard.Results() {
				results <- r
			}
		}()
	}
	return &Router{shards: shards, symbolShard: symbolShard, results: results}
}

// Start launches every shard's worker goroutine.
func (router *Router) Start(ctx context.Context) {
	for _, shard := range router.shards {
		shard.Start(ctx)
	}
}

// Stop stops every shard and waits for them to exit.
func (router *Router) Stop() error {
	var firstErr error
	for _, shard := range router.shards {
		if err := shard.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Results returns the merged stream of per-record outcomes across all
// shards.
func (router *Router) Results() <-chan Result {
	return router.results
}

// Submit routes one inbound record to the shard owning its symbol. The
// symbol must already be known (it comes from the decoded envelope the
// transport layer peeks at, or is assigned by the caller).
func (router *Router) Submit(ctx context.Context, symbol string, rec Record) error {
	shardID, ok := router.symbolShard[symbol]
	if !ok {
		return fmt.Errorf("no shard assigned for symbol %s", symbol)
	}
	shard, ok := router.shards[shardID]
	if !ok {
		return fmt.Errorf("shard %d not found for symbol %s", shardID, symbol)
	}
	return shard.Submit(ctx, rec)
}
