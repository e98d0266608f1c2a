package sink

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"ironbook/internal/domain"
)

// RedisDurableSink persists trades to a Redis Stream via XADD, standing
// in for the durable store named in spec §6's sink.durable endpoint.
// Streams give an append-only, replayable log with at-least-once
// consumer semantics, the same property spec §5 assumes of the durable
// sink.
type RedisDurableSink struct {
	client *redis.Client
	stream string
}

func NewRedisDurableSink(client *redis.Client, stream string) *RedisDurableSink {
	return &RedisDurableSink{client: client, stream: stream}
}

func (s *RedisDurableSink) WriteTrade(ctx context.Context, tradeID string, trade domain.Trade) error {
	err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{
			"trade_id":      tradeID,
			"symbol":        trade.Symbol,
			"buy_order_id":  trade.BuyOrderID,
			"sell_order_id": trade.SellOrderID,
			"buyer_id":      trade.BuyerID,
			"seller_id":     trade.SellerID,
			"price":         trade.Price.String(),
			"quantity":      trade.Quantity.String(),
			"total_value":   trade.TotalValue().String(),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("%w: xadd trade %s to stream %s: %v", domain.ErrSinkTransient, tradeID, s.stream, err)
	}
	return nil
}

// RedisAnalyticsSink forwards trades over Redis pub/sub. Publish failures
// are best-effort by contract (spec §7) — callers must log and swallow,
// never propagate, whatever this returns.
type RedisAnalyticsSink struct {
	client  *redis.Client
	channel string
}

func NewRedisAnalyticsSink(client *redis.Client, channel string) *RedisAnalyticsSink {
	return &RedisAnalyticsSink{client: client, channel: channel}
}

func (s *RedisAnalyticsSink) Publish(ctx context.Context, tradeID string, trade domain.Trade) error {
	payload := fmt.Sprintf(`{"trade_id":%q,"symbol":%q,"price":%q,"quantity":%q}`,
		tradeID, trade.Symbol, trade.Price.String(), trade.Quantity.String())
	if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
		return fmt.Errorf("analytics publish trade %s: %w", tradeID, err)
	}
	return nil
}
