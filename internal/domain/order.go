// Package domain holds the core types shared across the matching engine:
// orders, trades, and the small enums that describe them. Nothing here
// touches I/O or concurrency — it is the vocabulary the rest of the engine
// is built from.
package domain

import (
	"github.com/shopspring/decimal"
)

// Side is which side of the book an order rests on.
type Side int8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}

// Kind distinguishes limit orders (which may rest) from market orders
// (which never rest — see settleResidual in matcher/engine.go).
type Kind int8

const (
	Limit Kind = iota
	Market
)

func (k Kind) String() string {
	if k == Limit {
		return "limit"
	}
	return "market"
}

// Status tracks an order along the monotone sequence described in
// spec §3: New -> (PartiallyFilled | Filled | Resting | Rejected), with
// Resting -> PartiallyFilled -> Filled thereafter.
type Status int8

const (
	New Status = iota
	PartiallyFilled
	Filled
	Resting
	Rejected
	// Cancelled marks an order removed from the book by the cancel
	// extension (spec §9 Open Question 3) rather than fully matched.
	Cancelled
)

func (s Status) String() string {
	switch s {
	case New:
		return "new"
	case PartiallyFilled:
		return "partially_filled"
	case Filled:
		return "filled"
	case Resting:
		return "resting"
	case Rejected:
		return "rejected"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// RejectReason qualifies a Rejected status (§7 error taxonomy).
type RejectReason string

const (
	RejectNone          RejectReason = ""
	RejectValidation    RejectReason = "validation"
	RejectNoLiquidity   RejectReason = "no_liquidity"
	RejectBookInvariant RejectReason = "book_invariant"
)

// Order is an intent to trade. Quantity is always the REMAINING quantity
// as the order is worked; OriginalQuantity is fixed at acceptance and is
// used only for the conservation-of-quantity invariant and for reporting.
//
// Price is the zero Decimal for Market orders; callers must not read it
// for anything other than Limit orders (see spec §3 invariant: "price is
// absent only when kind = Market").
type Order struct {
	ID               string
	Symbol           string
	Side             Side
	Kind             Kind
	Price            decimal.Decimal
	Quantity         decimal.Decimal
	OriginalQuantity decimal.Decimal
	Timestamp        int64 // acceptance-time monotonic stamp, see dispatch package
	UserID           string
	Status           Status
	RejectReason     RejectReason
}

// Remaining reports whether the order still has quantity to work.
func (o *Order) Remaining() bool {
	return o.Quantity.Sign() > 0
}

// IsFilled returns true once the order has no quantity left to work and
// was not rejected outright.
func (o *Order) IsFilled() bool {
	return o.Status == Filled
}
