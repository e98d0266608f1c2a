package book

import (
	"container/list"

	"github.com/shopspring/decimal"
)

// priceLevel holds every order resting at one price, in FIFO (time
// priority) order. It is stored by pointer in the price tree so that
// mutating the list in place never requires re-inserting into the tree.
type priceLevel struct {
	price  decimal.Decimal
	orders *list.List
}

func newPriceLevel(price decimal.Decimal) *priceLevel {
	return &priceLevel{price: price, orders: list.New()}
}
