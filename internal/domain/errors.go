package domain

import "errors"

// Sentinel errors matching the taxonomy in spec §7. Callers use
// errors.Is against these to decide how a failure propagates: ack,
// batch-item failure, or crash.
var (
	// ErrValidation marks a structurally or semantically invalid order.
	// The order is rejected; the inbound record is still acked.
	ErrValidation = errors.New("validation")

	// ErrDecode marks a record that could not be parsed off the wire.
	// The record is reported as a batch-item failure; other records
	// keep progressing.
	ErrDecode = errors.New("decode")

	// ErrDuplicate marks a record whose order id was already processed.
	// Silent success; acked, no trades, no state change.
	ErrDuplicate = errors.New("duplicate")

	// ErrBookInvariant marks a broken book invariant — a programming
	// error. Fatal: the worker owning the book should crash rather
	// than continue operating on a book it can no longer trust.
	ErrBookInvariant = errors.New("book invariant violated")

	// ErrSinkTransient marks a retryable failure writing to a sink.
	// Surfaces as a batch-item failure so the broker redelivers.
	ErrSinkTransient = errors.New("sink transient failure")

	// ErrSinkFatal marks a non-retryable sink failure (auth, schema).
	// Fatal: crash the worker.
	ErrSinkFatal = errors.New("sink fatal failure")

	// ErrNoLiquidity marks a market order that found no resting
	// counter-liquidity. The order is rejected; acked.
	ErrNoLiquidity = errors.New("no liquidity")
)
