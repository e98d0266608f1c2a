package domain

import "github.com/shopspring/decimal"

// Trade is the result of one match between a taker and a resting maker.
// Price is always the maker's price (spec §3/§4.3: price improvement goes
// to the taker, never the maker).
type Trade struct {
	ID          string
	Symbol      string
	BuyOrderID  string
	SellOrderID string
	BuyerID     string
	SellerID    string
	Price       decimal.Decimal
	Quantity    decimal.Decimal
	Timestamp   int64
}

// TotalValue returns price * quantity, computed on demand rather than
// stored, so it can never drift out of sync with its inputs.
func (t Trade) TotalValue() decimal.Decimal {
	return t.Price.Mul(t.Quantity)
}
