// Package validate implements the Order Validator (spec §4.1): a pure
// function turning a wire-level RawOrder into a domain.Order, or
// rejecting it with a specific error kind.
package validate

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"ironbook/internal/domain"
)

// RawOrder is the inbound order record shape from spec §6, before
// canonicalization. Quantity and Price accept either a native JSON
// number or a numeric string, since transports may coerce either way.
type RawOrder struct {
	OrderID   string `json:"order_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	Symbol    string `json:"symbol"`
	Side      string `json:"side"`
	OrderType string `json:"order_type"`
	Quantity  any    `json:"quantity"`
	Price     any    `json:"price,omitempty"`
}

// Validate checks a RawOrder and returns the canonicalized domain.Order,
// or a wrapped domain.ErrValidation describing the first failing check.
// Checks run in the order given by spec §4.1 so the error a caller sees
// is always the first one that would have fired.
func Validate(raw RawOrder) (domain.Order, error) {
	symbol := strings.ToUpper(strings.TrimSpace(raw.Symbol))
	if symbol == "" {
		return domain.Order{}, fmt.Errorf("%w: symbol is required", domain.ErrValidation)
	}

	side, ok := parseSide(raw.Side)
	if !ok {
		return domain.Order{}, fmt.Errorf("%w: side must be buy or sell, got %q", domain.ErrValidation, raw.Side)
	}

	kind, ok := parseKind(raw.OrderType)
	if !ok {
		return domain.Order{}, fmt.Errorf("%w: order_type must be limit or market, got %q", domain.ErrValidation, raw.OrderType)
	}

	if raw.Quantity == nil {
		return domain.Order{}, fmt.Errorf("%w: quantity is required", domain.ErrValidation)
	}
	quantity, err := parsePositiveDecimal(raw.Quantity)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%w: quantity %v", domain.ErrValidation, err)
	}

	var price decimal.Decimal
	if kind == domain.Limit {
		if raw.Price == nil {
			return domain.Order{}, fmt.Errorf("%w: price is required for limit orders", domain.ErrValidation)
		}
		price, err = parsePositiveDecimal(raw.Price)
		if err != nil {
			return domain.Order{}, fmt.Errorf("%w: price %v", domain.ErrValidation, err)
		}
	}

	return domain.Order{
		ID:               raw.OrderID,
		Symbol:           symbol,
		Side:             side,
		Kind:             kind,
		Price:            price,
		Quantity:         quantity,
		OriginalQuantity: quantity,
		UserID:           raw.UserID,
		Status:           domain.New,
	}, nil
}

func parseSide(s string) (domain.Side, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy":
		return domain.Buy, true
	case "sell":
		return domain.Sell, true
	default:
		return 0, false
	}
}

func parseKind(s string) (domain.Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "limit":
		return domain.Limit, true
	case "market":
		return domain.Market, true
	default:
		return 0, false
	}
}

// parsePositiveDecimal accepts a JSON number (float64), a json.Number, or
// a numeric string, and rejects NaN, infinity, and non-positive values.
func parsePositiveDecimal(v any) (decimal.Decimal, error) {
	var d decimal.Decimal
	var err error

	switch val := v.(type) {
	case string:
		d, err = decimal.NewFromString(strings.TrimSpace(val))
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return decimal.Decimal{}, fmt.Errorf("must be a finite number, got %v", val)
		}
		d = decimal.NewFromFloat(val)
	case int:
		d = decimal.NewFromInt(int64(val))
	case int64:
		d = decimal.NewFromInt(val)
	case json.Number:
		d, err = decimal.NewFromString(val.String())
	default:
		return decimal.Decimal{}, fmt.Errorf("unsupported numeric type %T", v)
	}
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid decimal: %w", err)
	}
	if !d.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("must be greater than 0, got %s", d.String())
	}
	return d, nil
}
