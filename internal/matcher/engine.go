// Package matcher implements the Matching Engine (spec §4.3): given an
// incoming taker order and the book pair for its symbol, it walks the
// opposite side's book while prices cross, emitting trades at the
// maker's price, and returns whatever remains of the taker.
package matcher

import (
	"fmt"

	"github.com/shopspring/decimal"

	"ironbook/internal/book"
	"ironbook/internal/domain"
)

// BookPair holds one symbol's buy and sell books. A pair has exactly one
// writer at a time (spec §5); nothing in this package introduces its own
// locking — callers (the dispatch pipeline's per-symbol shard) own that.
type BookPair struct {
	Symbol string
	Buy    *book.OrderBook
	Sell   *book.OrderBook
}

// NewBookPair creates an empty book pair for a symbol.
func NewBookPair(symbol string) *BookPair {
	return &BookPair{
		Symbol: symbol,
		Buy:    book.New(domain.Buy),
		Sell:   book.New(domain.Sell),
	}
}

// Match runs taker against the opposite side of pair until it stops
// crossing or is exhausted, then applies residual handling. It mutates
// pair (inserting the taker's residual if it rests) and returns every
// trade produced. The taker is updated in place: its remaining Quantity
// and its final status (Filled, Resting, PartiallyFilled, or Rejected; a
// rejected market order also yields ErrNoLiquidity).
func (pair *BookPair) Match(taker *domain.Order) ([]domain.Trade, error) {
	var makers *book.OrderBook
	switch taker.Side {
	case domain.Buy:
		makers = pair.Sell
	case domain.Sell:
		makers = pair.Buy
	default:
		return nil, fmt.Errorf("%w: unknown side for order %s", domain.ErrBookInvariant, taker.ID)
	}

	var trades []domain.Trade

	for taker.Quantity.IsPositive() {
		maker, ok := makers.PeekBest()
		if !ok {
			break
		}
		if !crosses(taker, maker) {
			break
		}

		tradePrice := maker.Price
		tradeQty := decimal.Min(taker.Quantity, maker.Quantity)

		trade, err := buildTrade(taker, maker, tradePrice, tradeQty)
		if err != nil {
			return trades, err
		}
		trades = append(trades, trade)

		taker.Quantity = taker.Quantity.Sub(tradeQty)
		if _, _, err := makers.DecrementHead(tradeQty); err != nil {
			return trades, err
		}
	}

	if err := settleResidual(pair, taker, len(trades) > 0); err != nil {
		return trades, err
	}
	return trades, nil
}

// Cancel removes a resting order from whichever side of pair holds it
// (spec §9 Open Question 3's plain-removal extension). Reports false if
// the order is not currently resting — already filled, already
// cancelled, or never existed.
func (pair *BookPair) Cancel(orderID string) (*domain.Order, bool) {
	if order, ok := pair.Buy.Remove(orderID); ok {
		order.Status = domain.Cancelled
		return order, true
	}
	if order, ok := pair.Sell.Remove(orderID); ok {
		order.Status = domain.Cancelled
		return order, true
	}
	return nil, false
}

// crosses reports whether taker and the book's head maker are compatible
// for a trade, per spec §4.3 step 2.
func crosses(taker, maker *domain.Order) bool {
	if taker.Kind == domain.Market {
		return true
	}
	if taker.Side == domain.Buy {
		return taker.Price.GreaterThanOrEqual(maker.Price)
	}
	return taker.Price.LessThanOrEqual(maker.Price)
}

// buildTrade emits a trade with buy/sell fields assigned by side — the
// Buy-side order is always buy_order_id/buyer_id regardless of which one
// is taker or maker. ID and Timestamp are left zero: the dispatch
// pipeline assigns trade_id and the wall-clock stamp when it persists
// and publishes the trade (spec §4.5 step 5).
func buildTrade(taker, maker *domain.Order, price, quantity decimal.Decimal) (domain.Trade, error) {
	var buyOrder, sellOrder *domain.Order
	switch taker.Side {
	case domain.Buy:
		buyOrder, sellOrder = taker, maker
	case domain.Sell:
		buyOrder, sellOrder = maker, taker
	default:
		return domain.Trade{}, fmt.Errorf("%w: unknown side for order %s", domain.ErrBookInvariant, taker.ID)
	}

	return domain.Trade{
		Symbol:      taker.Symbol,
		BuyOrderID:  buyOrder.ID,
		SellOrderID: sellOrder.ID,
		BuyerID:     buyOrder.UserID,
		SellerID:    sellOrder.UserID,
		Price:       price,
		Quantity:    quantity,
	}, nil
}

// settleResidual applies spec §4.3's residual handling after the match
// loop stops: Filled when fully consumed, Resting in the taker's own
// book for a Limit order with quantity left, or discarded (Rejected
// NoLiquidity, or PartiallyFilled if something traded first) for Market.
func settleResidual(pair *BookPair, taker *domain.Order, traded bool) error {
	if !taker.Quantity.IsPositive() {
		taker.Status = domain.Filled
		return nil
	}

	if taker.Kind == domain.Limit {
		var own *book.OrderBook
		switch taker.Side {
		case domain.Buy:
			own = pair.Buy
		case domain.Sell:
			own = pair.Sell
		default:
			return fmt.Errorf("%w: unknown side for order %s", domain.ErrBookInvariant, taker.ID)
		}
		return own.Insert(taker)
	}

	// Market order with quantity remaining: never rests.
	if traded {
		taker.Status = domain.PartiallyFilled
		return nil
	}
	taker.Status = domain.Rejected
	taker.RejectReason = domain.RejectNoLiquidity
	return fmt.Errorf("%w: market order %s found no resting liquidity", domain.ErrNoLiquidity, taker.ID)
}
