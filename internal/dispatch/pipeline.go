// Package dispatch implements the Dispatch Pipeline (spec §4.5): a
// symbol-sharded worker pool where each shard owns a disjoint set of
// symbols and is the single writer for their book pairs, processing
// records in arrival order per symbol (spec §5).
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"ironbook/internal/domain"
	"ironbook/internal/idempotency"
	"ironbook/internal/matcher"
	"ironbook/internal/sink"
	"ironbook/internal/validate"
	"ironbook/internal/wire"
)

// OutboundPublisher delivers a matched trade to the outbound stream,
// keyed by symbol so downstream consumers preserve per-symbol order
// (spec §6).
type OutboundPublisher interface {
	Publish(ctx context.Context, symbol string, trade []byte) error
}

// TradeIDGenerator assigns the trade_id spec §4.5 step 5 requires before
// a trade is persisted or published.
type TradeIDGenerator func() string

// Record is one inbound message together with an identifier the caller
// can use to report a batch item failure (spec §4.5's partial batch
// failure contract). ID is opaque to this package — a broker sequence
// number, a Kafka offset, whatever the transport uses.
type Record struct {
	ID      string
	Symbol  string
	Payload []byte
}

// Outcome classifies how a Record was resolved, for callers building an
// ack/batch-item-failure response.
type Outcome int

const (
	Acked Outcome = iota
	BatchItemFailure
)

// Result is what ProcessRecord reports back per record.
type Result struct {
	RecordID string
	Outcome  Outcome
	Err      error
}

// Shard owns a disjoint set of symbols' book pairs and processes their
// records one at a time — the spec §5 single-writer requirement applies
// per shard, not globally.
type Shard struct {
	id      int
	inbox   chan Record
	results chan Result

	books  map[string]*matcher.BookPair
	clocks map[string]*symbolClock

	guard     idempotency.Guard
	durable   sink.DurableTradeSink
	analytics sink.AnalyticsSink
	publisher OutboundPublisher
	newTradeID TradeIDGenerator

	tomb tomb.Tomb
}

// NewShard creates a shard responsible for the given symbols. inboxSize
// bounds how many records may queue before a sender blocks.
func NewShard(id int, symbols []string, guard idempotency.Guard, durable sink.DurableTradeSink, analytics sink.AnalyticsSink, publisher OutboundPublisher, newTradeID TradeIDGenerator, inboxSize int) *Shard {
	books := make(map[string]*matcher.BookPair, len(symbols))
	clocks := make(map[string]*symbolClock, len(symbols))
	for _, s := range symbols {
		books[s] = matcher.NewBookPair(s)
		clocks[s] = &symbolClock{}
	}
	return &Shard{
		id:         id,
		inbox:      make(chan Record, inboxSize),
		results:    make(chan Result, inboxSize),
		books:      books,
		clocks:     clocks,
		guard:      guard,
		durable:    durable,
		analytics:  analytics,
		publisher:  publisher,
		newTradeID: newTradeID,
	}
}

// Start launches the shard's single worker goroutine under its tomb.
func (s *Shard) Start(ctx context.Context) {
	s.tomb.Go(func() error {
		return s.run(ctx)
	})
}

// Submit enqueues a record for processing. Blocks if the shard's inbox
// is full; returns ctx.Err() if ctx is cancelled first.
func (s *Shard) Submit(ctx context.Context, r Record) error {
	select {
	case s.inbox <- r:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.tomb.Dying():
		return s.tomb.Err()
	}
}

// Results returns the channel of per-record outcomes. Callers drain it
// to build broker acks / batch-item-failure lists.
func (s *Shard) Results() <-chan Result {
	return s.results
}

// Stop signals the shard to exit and waits for it.
func (s *Shard) Stop() error {
	s.tomb.Kill(nil)
	return s.tomb.Wait()
}

func (s *Shard) run(ctx context.Context) error {
	log.Info().Int("shard", s.id).Msg("dispatch shard starting")
	for {
		select {
		case <-s.tomb.Dying():
			return nil
		case rec := <-s.inbox:
			result := s.processRecord(ctx, rec)
			select {
			case s.results <- result:
			case <-s.tomb.Dying():
				return nil
			}
			if result.Outcome == BatchItemFailure && (errors.Is(result.Err, domain.ErrBookInvariant) || errors.Is(result.Err, domain.ErrSinkFatal)) {
				log.Error().Int("shard", s.id).Err(result.Err).Msg("fatal error, crashing shard")
				return result.Err
			}
		}
	}
}

// processRecord runs the per-record procedure from spec §4.5 steps 1-6.
// A record carrying "action":"cancel" takes the shorter cancel path
// instead (spec §9 Open Question 3).
func (s *Shard) processRecord(ctx context.Context, rec Record) Result {
	if wire.PeekAction(rec.Payload) == "cancel" {
		return s.processCancel(rec)
	}

	raw, err := wire.DecodeInbound(rec.Payload)
	if err != nil {
		return Result{RecordID: rec.ID, Outcome: BatchItemFailure, Err: err}
	}

	order, err := validate.Validate(raw)
	if err != nil {
		// A validation failure rejects the order but still acks the
		// record: the record was well-formed, just invalid (spec §7).
		log.Warn().Str("order_id", raw.OrderID).Err(err).Msg("order rejected: validation")
		return Result{RecordID: rec.ID, Outcome: Acked, Err: err}
	}
	if order.ID == "" {
		order.ID = rec.ID
	}

	outcome, err := s.guard.CheckAndMark(ctx, order.ID)
	if err != nil {
		return Result{RecordID: rec.ID, Outcome: BatchItemFailure, Err: fmt.Errorf("%w: idempotency guard: %v", domain.ErrSinkTransient, err)}
	}
	if outcome == idempotency.Duplicate {
		return Result{RecordID: rec.ID, Outcome: Acked}
	}

	pair, ok := s.books[order.Symbol]
	if !ok {
		return Result{RecordID: rec.ID, Outcome: Acked, Err: fmt.Errorf("%w: symbol %s not assigned to shard %d", domain.ErrValidation, order.Symbol, s.id)}
	}
	acceptedAt := time.Now()
	order.Timestamp = s.clocks[order.Symbol].next(acceptedAt)

	trades, matchErr := pair.Match(&order)
	if matchErr != nil && !errors.Is(matchErr, domain.ErrNoLiquidity) {
		log.Error().Str("order_id", order.ID).Err(matchErr).Msg("book invariant violated")
		return Result{RecordID: rec.ID, Outcome: BatchItemFailure, Err: matchErr}
	}
	if matchErr != nil {
		log.Warn().Str("order_id", order.ID).Err(matchErr).Msg("order rejected: no liquidity")
	}

	for i := range trades {
		tradeID := s.newTradeID()
		trades[i].ID = tradeID
		trades[i].Timestamp = acceptedAt.UnixMilli()

		if err := s.durable.WriteTrade(ctx, tradeID, trades[i]); err != nil {
			return Result{RecordID: rec.ID, Outcome: BatchItemFailure, Err: fmt.Errorf("durable sink: %w", err)}
		}

		payload, err := wire.EncodeTrade(tradeID, trades[i].Timestamp, trades[i])
		if err != nil {
			return Result{RecordID: rec.ID, Outcome: BatchItemFailure, Err: err}
		}
		if err := s.publisher.Publish(ctx, trades[i].Symbol, payload); err != nil {
			return Result{RecordID: rec.ID, Outcome: BatchItemFailure, Err: fmt.Errorf("outbound publish: %w", err)}
		}

		if s.analytics != nil {
			if err := s.analytics.Publish(ctx, tradeID, trades[i]); err != nil {
				log.Warn().Str("trade_id", tradeID).Err(err).Msg("analytics sink failed, ignoring")
			}
		}
	}

	return Result{RecordID: rec.ID, Outcome: Acked, Err: matchErr}
}

// processCancel removes a resting order from its book by id, if found.
// A miss is not an error — the order may already have traded or never
// existed — so it is acked either way.
func (s *Shard) processCancel(rec Record) Result {
	req, err := wire.DecodeCancel(rec.Payload)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return Result{RecordID: rec.ID, Outcome: Acked, Err: err}
		}
		return Result{RecordID: rec.ID, Outcome: BatchItemFailure, Err: err}
	}

	pair, ok := s.books[req.Symbol]
	if !ok {
		return Result{RecordID: rec.ID, Outcome: Acked, Err: fmt.Errorf("%w: symbol %s not assigned to shard %d", domain.ErrValidation, req.Symbol, s.id)}
	}

	if _, found := pair.Cancel(req.OrderID); !found {
		log.Debug().Str("order_id", req.OrderID).Str("symbol", req.Symbol).Msg("cancel found no resting order")
	}
	return Result{RecordID: rec.ID, Outcome: Acked}
}
