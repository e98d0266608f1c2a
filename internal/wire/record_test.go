package wire

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ironbook/internal/domain"
)

func TestDecodeInbound_ValidLimitOrder(t *testing.T) {
	line := []byte(`{"order_id":"abc","symbol":"BTC-USD","side":"buy","order_type":"limit","quantity":"1.5","price":"100"}`)
	raw, err := DecodeInbound(line)
	require.NoError(t, err)
	assert.Equal(t, "abc", raw.OrderID)
	assert.Equal(t, "BTC-USD", raw.Symbol)
}

func TestDecodeInbound_MalformedJSON(t *testing.T) {
	_, err := DecodeInbound([]byte(`{not json`))
	require.ErrorIs(t, err, domain.ErrDecode)
}

func TestPeekAction_DefaultsToPlace(t *testing.T) {
	assert.Equal(t, "place", PeekAction([]byte(`{"order_id":"abc"}`)))
	assert.Equal(t, "cancel", PeekAction([]byte(`{"action":"cancel","order_id":"abc"}`)))
	assert.Equal(t, "place", PeekAction([]byte(`{not json`)))
}

func TestDecodeCancel_RequiresOrderID(t *testing.T) {
	_, err := DecodeCancel([]byte(`{"action":"cancel","symbol":"BTC-USD"}`))
	require.ErrorIs(t, err, domain.ErrValidation)

	req, err := DecodeCancel([]byte(`{"action":"cancel","order_id":"abc","symbol":"BTC-USD"}`))
	require.NoError(t, err)
	assert.Equal(t, "abc", req.OrderID)
	assert.Equal(t, "BTC-USD", req.Symbol)
}

func TestEncodeTrade_DecimalFieldsAreStrings(t *testing.T) {
	trade := domain.Trade{
		Symbol:      "BTC-USD",
		BuyOrderID:  "b1",
		SellOrderID: "s1",
		BuyerID:     "alice",
		SellerID:    "bob",
		Price:       decimal.RequireFromString("100.50"),
		Quantity:    decimal.RequireFromString("2"),
	}
	data, err := EncodeTrade("trade-1", 1234, trade)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"trade_id":"trade-1",
		"symbol":"BTC-USD",
		"buy_order_id":"b1",
		"sell_order_id":"s1",
		"buyer_id":"alice",
		"seller_id":"bob",
		"price":"100.5",
		"quantity":"2",
		"total_value":"201",
		"timestamp":1234
	}`, string(data))
}
