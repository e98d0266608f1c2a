package validate

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ironbook/internal/domain"
)

func TestValidate_LimitOrder(t *testing.T) {
	order, err := Validate(RawOrder{
		OrderID:   "abc-1",
		Symbol:    " btc-usd ",
		Side:      "Buy",
		OrderType: "LIMIT",
		Quantity:  "1.5",
		Price:     100.25,
	})
	require.NoError(t, err)
	assert.Equal(t, "BTC-USD", order.Symbol)
	assert.Equal(t, domain.Buy, order.Side)
	assert.Equal(t, domain.Limit, order.Kind)
	assert.True(t, order.Quantity.Equal(decimal.RequireFromString("1.5")))
	assert.True(t, order.Price.Equal(decimal.RequireFromString("100.25")))
	assert.Equal(t, domain.New, order.Status)
}

func TestValidate_MarketOrder_NoPriceRequired(t *testing.T) {
	order, err := Validate(RawOrder{
		Symbol:    "ETH-USD",
		Side:      "sell",
		OrderType: "market",
		Quantity:  2,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.Market, order.Kind)
	assert.True(t, order.Price.IsZero())
}

func TestValidate_MissingSymbol(t *testing.T) {
	_, err := Validate(RawOrder{Side: "buy", OrderType: "market", Quantity: 1})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestValidate_InvalidSide(t *testing.T) {
	_, err := Validate(RawOrder{Symbol: "BTC-USD", Side: "hold", OrderType: "limit", Quantity: 1, Price: 1})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestValidate_InvalidOrderType(t *testing.T) {
	_, err := Validate(RawOrder{Symbol: "BTC-USD", Side: "buy", OrderType: "stop", Quantity: 1, Price: 1})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestValidate_NonPositiveQuantity(t *testing.T) {
	_, err := Validate(RawOrder{Symbol: "BTC-USD", Side: "buy", OrderType: "market", Quantity: "0"})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestValidate_NegativeQuantity(t *testing.T) {
	_, err := Validate(RawOrder{Symbol: "BTC-USD", Side: "buy", OrderType: "market", Quantity: -5})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestValidate_LimitMissingPrice(t *testing.T) {
	_, err := Validate(RawOrder{Symbol: "BTC-USD", Side: "buy", OrderType: "limit", Quantity: 1})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestValidate_NonPositivePrice(t *testing.T) {
	_, err := Validate(RawOrder{Symbol: "BTC-USD", Side: "buy", OrderType: "limit", Quantity: 1, Price: "-1"})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestValidate_NaNQuantity(t *testing.T) {
	_, err := Validate(RawOrder{Symbol: "BTC-USD", Side: "buy", OrderType: "market", Quantity: math.NaN()})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestValidate_InfinitePrice(t *testing.T) {
	_, err := Validate(RawOrder{Symbol: "BTC-USD", Side: "buy", OrderType: "limit", Quantity: 1, Price: math.Inf(1)})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestValidate_NumericStringAccepted(t *testing.T) {
	order, err := Validate(RawOrder{Symbol: "BTC-USD", Side: "buy", OrderType: "limit", Quantity: "3.00000001", Price: "50000.5"})
	require.NoError(t, err)
	assert.Equal(t, "3.00000001", order.Quantity.String())
}
