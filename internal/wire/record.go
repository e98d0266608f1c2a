// Package wire implements the on-the-wire JSON shapes from spec §6: the
// inbound order record and the outbound trade record, plus the
// encode/decode functions the transport and dispatch layers use.
package wire

import (
	"encoding/json"
	"fmt"

	"ironbook/internal/domain"
	"ironbook/internal/validate"
)

// InboundRecord mirrors spec §6's inbound order record JSON shape
// exactly (before canonicalization, which validate.Validate performs).
type InboundRecord = validate.RawOrder

// OutboundTrade is spec §6's outbound trade record: decimal fields are
// strings so transports that coerce numerics never lose precision.
type OutboundTrade struct {
	TradeID     string `json:"trade_id"`
	Symbol      string `json:"symbol"`
	BuyOrderID  string `json:"buy_order_id"`
	SellOrderID string `json:"sell_order_id"`
	BuyerID     string `json:"buyer_id"`
	SellerID    string `json:"seller_id"`
	Price       string `json:"price"`
	Quantity    string `json:"quantity"`
	TotalValue  string `json:"total_value"`
	Timestamp   int64  `json:"timestamp"`
}

// DecodeInbound parses one line of inbound JSON into a RawOrder. A
// malformed line maps to domain.ErrDecode (spec §4.5 step 1 / §7).
func DecodeInbound(line []byte) (InboundRecord, error) {
	var raw InboundRecord
	if err := json.Unmarshal(line, &raw); err != nil {
		return InboundRecord{}, fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}
	return raw, nil
}

// CancelRequest is the optional cancel extension from spec §9 Open
// Question 3: a plain removal by order id, distinguished from a new
// order record by its "action" field.
type CancelRequest struct {
	Action  string `json:"action"`
	OrderID string `json:"order_id"`
	Symbol  string `json:"symbol"`
}

type actionEnvelope struct {
	Action string `json:"action"`
}

// PeekAction reports the record's action field, defaulting to "place"
// when absent — most records are new orders and don't carry one.
func PeekAction(line []byte) string {
	var env actionEnvelope
	if err := json.Unmarshal(line, &env); err != nil || env.Action == "" {
		return "place"
	}
	return env.Action
}

// DecodeCancel parses one line of inbound JSON into a CancelRequest.
func DecodeCancel(line []byte) (CancelRequest, error) {
	var req CancelRequest
	if err := json.Unmarshal(line, &req); err != nil {
		return CancelRequest{}, fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}
	if req.OrderID == "" {
		return CancelRequest{}, fmt.Errorf("%w: cancel request missing order_id", domain.ErrValidation)
	}
	return req, nil
}

// EncodeTrade renders a domain.Trade as spec §6's outbound JSON shape,
// with the assigned trade_id and acceptance-derived timestamp.
func EncodeTrade(tradeID string, timestampMs int64, trade domain.Trade) ([]byte, error) {
	out := OutboundTrade{
		TradeID:     tradeID,
		Symbol:      trade.Symbol,
		BuyOrderID:  trade.BuyOrderID,
		SellOrderID: trade.SellOrderID,
		BuyerID:     trade.BuyerID,
		SellerID:    trade.SellerID,
		Price:       trade.Price.String(),
		Quantity:    trade.Quantity.String(),
		TotalValue:  trade.TotalValue().String(),
		Timestamp:   timestampMs,
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode trade %s: %w", tradeID, err)
	}
	return data, nil
}
