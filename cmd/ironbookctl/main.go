// Command ironbookctl is a small operator CLI for exercising a running
// matcherd instance: it connects to the TCP ingest and submits one order
// as a line-delimited JSON record, adapted from the teacher's binary
// debug client but speaking the JSON wire format (internal/wire).
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"os"
	"time"
)

type orderPayload struct {
	OrderID   string `json:"order_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	Symbol    string `json:"symbol"`
	Side      string `json:"side"`
	OrderType string `json:"order_type"`
	Quantity  string `json:"quantity"`
	Price     string `json:"price,omitempty"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "ironbookctl:", err)
		os.Exit(1)
	}
}

func run() error {
	serverAddr := flag.String("server", "127.0.0.1:9001", "address of the matcherd TCP ingest")
	orderID := flag.String("order-id", "", "client-assigned order id, used for idempotency")
	userID := flag.String("user", "", "owning user id")
	symbol := flag.String("symbol", "BTC-USD", "traded symbol")
	side := flag.String("side", "buy", "order side: 'buy' or 'sell'")
	orderType := flag.String("type", "limit", "order type: 'limit' or 'market'")
	quantity := flag.String("qty", "1", "order quantity")
	price := flag.String("price", "", "limit price (required for limit orders)")
	timeout := flag.Duration("timeout", 5*time.Second, "connection timeout")
	flag.Parse()

	payload := orderPayload{
		OrderID:   *orderID,
		UserID:    *userID,
		Symbol:    *symbol,
		Side:      *side,
		OrderType: *orderType,
		Quantity:  *quantity,
		Price:     *price,
	}

	line, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode order: %w", err)
	}

	conn, err := net.DialTimeout("tcp", *serverAddr, *timeout)
	if err != nil {
		return fmt.Errorf("dial %s: %w", *serverAddr, err)
	}
	defer conn.Close()

	writer := bufio.NewWriter(conn)
	if _, err := writer.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write order: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush order: %w", err)
	}

	fmt.Printf("submitted: %s\n", line)
	return nil
}
