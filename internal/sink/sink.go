// Package sink implements the durable trade sink and the best-effort
// analytics sink from spec §4.5 step 5 and §6.
package sink

import (
	"context"

	"ironbook/internal/domain"
)

// DurableTradeSink persists a trade durably before it is considered
// committed. A failure here is fatal for the record (spec §4.5 step 5 /
// §7: SinkFatal crashes the worker, SinkTransient becomes a batch item
// failure — callers decide which by inspecting the returned error).
type DurableTradeSink interface {
	WriteTrade(ctx context.Context, tradeID string, trade domain.Trade) error
}

// AnalyticsSink is best-effort: Publish returns its error, and the
// dispatch pipeline logs and swallows it rather than failing the record
// (spec §7).
type AnalyticsSink interface {
	Publish(ctx context.Context, tradeID string, trade domain.Trade) error
}

// InMemory is a DurableTradeSink and AnalyticsSink used in tests — it
// never fails. matcherd itself always wires the Redis sinks.
type InMemory struct {
	Trades []domain.Trade
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) WriteTrade(_ context.Context, _ string, trade domain.Trade) error {
	s.Trades = append(s.Trades, trade)
	return nil
}

func (s *InMemory) Publish(_ context.Context, _ string, trade domain.Trade) error {
	s.Trades = append(s.Trades, trade)
	return nil
}
