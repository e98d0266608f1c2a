// Package book implements the per-(symbol, side) order book (spec §4.2):
// a price-time-priority queue of resting orders, with O(log n) lookup by
// order id.
//
// The priority-ordered index is a tidwall/btree of price levels, each
// level a FIFO list of orders at that price — NASDAQ-ITCH-style
// HashMap+List layered on top of a balanced tree instead of a single
// linked list, so price levels don't need a full rescan to find the best
// price (spec §9's "two cooperating structures" recommendation). A plain
// map from order id to a (level, list element) handle gives O(log n)
// removal: the handle already points at the level, so the element is
// spliced out of its list in O(1), and the tree is touched (O(log n))
// only to delete a level that became empty.
package book

import (
	"container/list"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"

	"ironbook/internal/domain"
)

// handle locates a resting order within its book for O(1) removal once
// the owning price level is known.
type handle struct {
	level *priceLevel
	elem  *list.Element
}

type OrderBook struct {
	side   domain.Side
	levels *btree.BTreeG[*priceLevel]
	index  map[string]handle
}

// New creates an order book for one side of one symbol. Buy books order
// price levels highest-first; sell books order lowest-first. Within a
// level, orders are FIFO by acceptance time (spec §3: "Buy side: higher
// price first, ties broken by earlier timestamp").
func New(side domain.Side) *OrderBook {
	var less func(a, b *priceLevel) bool
	if side == domain.Buy {
		less = func(a, b *priceLevel) bool { return a.price.GreaterThan(b.price) }
	} else {
		less = func(a, b *priceLevel) bool { return a.price.LessThan(b.price) }
	}
	return &OrderBook{
		side:   side,
		levels: btree.NewBTreeG(less),
		index:  make(map[string]handle),
	}
}

// Insert places a resting order. Precondition: order.Quantity > 0 and
// order.Side matches the book. Postcondition: Lookup(order.ID) returns
// it and the head invariant (best price/earliest time at Min()) holds.
func (b *OrderBook) Insert(order *domain.Order) error {
	if !order.Quantity.IsPositive() {
		return fmt.Errorf("%w: insert of %s with non-positive quantity %s", domain.ErrBookInvariant, order.ID, order.Quantity)
	}
	if order.Side != b.side {
		return fmt.Errorf("%w: order %s side %s does not match book side %s", domain.ErrBookInvariant, order.ID, order.Side, b.side)
	}
	if _, exists := b.index[order.ID]; exists {
		return fmt.Errorf("%w: order %s already resting", domain.ErrBookInvariant, order.ID)
	}

	level, ok := b.levels.GetMut(&priceLevel{price: order.Price})
	if !ok {
		level = newPriceLevel(order.Price)
		b.levels.Set(level)
	}
	elem := level.orders.PushBack(order)
	b.index[order.ID] = handle{level: level, elem: elem}
	order.Status = domain.Resting
	return nil
}

// PeekBest returns the head order — the one an opposing taker would
// cross first — without mutating the book.
func (b *OrderBook) PeekBest() (*domain.Order, bool) {
	level, ok := b.levels.Min()
	if !ok {
		return nil, false
	}
	return frontOrder(level)
}

// BestPrice returns the price of the head order, if any.
func (b *OrderBook) BestPrice() (decimal.Decimal, bool) {
	level, ok := b.levels.Min()
	if !ok {
		return decimal.Decimal{}, false
	}
	return level.price, true
}

// Depth returns the number of resting orders across all price levels.
func (b *OrderBook) Depth() int {
	return len(b.index)
}

// Lookup finds a resting order by id in O(1).
func (b *OrderBook) Lookup(orderID string) (*domain.Order, bool) {
	h, ok := b.index[orderID]
	if !ok {
		return nil, false
	}
	return h.elem.Value.(*domain.Order), true
}

// DecrementHead subtracts delta from the head order's remaining quantity.
// If the head becomes fully filled it is removed from the book (and its
// price level, if now empty, is removed from the tree) and returned with
// removed=true. delta greater than the head's quantity is a caller bug
// per spec §4.2 and returns ErrBookInvariant rather than silently
// clamping — silently clamping would hide a matching-engine bug as a
// smaller, wrong fill.
func (b *OrderBook) DecrementHead(delta decimal.Decimal) (order *domain.Order, removed bool, err error) {
	level, ok := b.levels.Min()
	if !ok {
		return nil, false, fmt.Errorf("%w: decrement on empty book", domain.ErrBookInvariant)
	}
	order, ok = frontOrder(level)
	if !ok {
		return nil, false, fmt.Errorf("%w: price level %s has no orders", domain.ErrBookInvariant, level.price)
	}
	if delta.GreaterThan(order.Quantity) {
		return nil, false, fmt.Errorf("%w: decrement %s exceeds head quantity %s for order %s",
			domain.ErrBookInvariant, delta, order.Quantity, order.ID)
	}

	order.Quantity = order.Quantity.Sub(delta)
	if order.Quantity.IsZero() {
		level.orders.Remove(level.orders.Front())
		delete(b.index, order.ID)
		order.Status = domain.Filled
		removed = true
		if level.orders.Len() == 0 {
			b.levels.Delete(level)
		}
	}
	return order, removed, nil
}

// Remove deletes a resting order by id; the cancel path
// (matcher.BookPair.Cancel, spec §9 Open Question 3) is built on it.
func (b *OrderBook) Remove(orderID string) (*domain.Order, bool) {
	h, ok := b.index[orderID]
	if !ok {
		return nil, false
	}
	order := h.elem.Value.(*domain.Order)
	h.level.orders.Remove(h.elem)
	delete(b.index, orderID)
	if h.level.orders.Len() == 0 {
		b.levels.Delete(h.level)
	}
	return order, true
}

// frontOrder returns the order at the front of a price level's FIFO
// list — the earliest-accepted order still resting at that price.
func frontOrder(level *priceLevel) (*domain.Order, bool) {
	front := level.orders.Front()
	if front == nil {
		return nil, false
	}
	return front.Value.(*domain.Order), true
}
