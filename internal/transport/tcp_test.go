package transport

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ironbook/internal/dispatch"
)

type fakeRouter struct {
	mu      sync.Mutex
	records []dispatch.Record
	symbols []string
}

func (f *fakeRouter) Submit(_ context.Context, symbol string, rec dispatch.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	f.symbols = append(f.symbols, symbol)
	return nil
}

func (f *fakeRouter) snapshot() ([]dispatch.Record, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]dispatch.Record(nil), f.records...), append([]string(nil), f.symbols...)
}

func TestTCPIngest_RoutesLineDelimitedRecordsBySymbol(t *testing.T) {
	router := &fakeRouter{}
	ing := NewTCPIngest("127.0.0.1:0", router)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	ing.address = addr

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErrCh := make(chan error, 1)
	go func() { runErrCh <- ing.Run(ctx) }()

	require.Eventually(t, func() bool {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, time.Second, 10*time.Millisecond)

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("{\"symbol\":\"BTC-USD\",\"side\":\"buy\",\"order_type\":\"market\",\"quantity\":\"1\"}\n"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		records, _ := router.snapshot()
		return len(records) == 1
	}, time.Second, 10*time.Millisecond)

	_, symbols := router.snapshot()
	require.Equal(t, []string{"BTC-USD"}, symbols)

	require.NoError(t, ing.Stop())
}
