package sink

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ironbook/internal/domain"
)

func TestInMemory_WriteTradeAppends(t *testing.T) {
	s := NewInMemory()
	trade := domain.Trade{Symbol: "BTC-USD", Price: decimal.RequireFromString("100"), Quantity: decimal.RequireFromString("1")}

	require.NoError(t, s.WriteTrade(context.Background(), "t1", trade))
	require.Len(t, s.Trades, 1)
	assert.Equal(t, "BTC-USD", s.Trades[0].Symbol)
}

func TestInMemory_PublishAppends(t *testing.T) {
	s := NewInMemory()
	trade := domain.Trade{Symbol: "ETH-USD"}

	require.NoError(t, s.Publish(context.Background(), "t1", trade))
	require.Len(t, s.Trades, 1)
}
