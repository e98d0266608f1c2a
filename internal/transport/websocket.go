package transport

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

// TradeHub fans outbound trade records out to subscribed websocket
// clients, keyed by symbol, so a client watching one symbol's feed never
// sees another's — and so per-symbol order is preserved end to end (spec
// §6: "the outbound transport receives trades keyed by symbol").
type TradeHub struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]map[*wsClient]struct{} // symbol -> client set

	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan symbolMessage
}

type symbolMessage struct {
	symbol  string
	payload []byte
}

type wsClient struct {
	conn   *websocket.Conn
	symbol string
	send   chan []byte
}

// NewTradeHub creates an idle hub; call Run to start its event loop.
func NewTradeHub() *TradeHub {
	return &TradeHub{
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients:    make(map[string]map[*wsClient]struct{}),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan symbolMessage, 256),
	}
}

// Run drives the hub's register/unregister/broadcast loop until ctx is
// cancelled.
func (h *TradeHub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case c := <-h.register:
			h.mu.Lock()
			if h.clients[c.symbol] == nil {
				h.clients[c.symbol] = make(map[*wsClient]struct{})
			}
			h.clients[c.symbol][c] = struct{}{}
			h.mu.Unlock()
		case c := <-h.unregister:
			h.mu.Lock()
			if set, ok := h.clients[c.symbol]; ok {
				if _, present := set[c]; present {
					delete(set, c)
					close(c.send)
				}
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients[msg.symbol] {
				select {
				case c.send <- msg.payload:
				default:
					log.Warn().Str("symbol", msg.symbol).Msg("websocket client send buffer full, dropping client")
					delete(h.clients[msg.symbol], c)
					close(c.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *TradeHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, set := range h.clients {
		for c := range set {
			close(c.send)
		}
	}
	h.clients = make(map[string]map[*wsClient]struct{})
}

// Publish implements dispatch.OutboundPublisher: it is the concrete
// outbound trade stream named in spec §6.
func (h *TradeHub) Publish(_ context.Context, symbol string, trade []byte) error {
	h.broadcast <- symbolMessage{symbol: symbol, payload: trade}
	return nil
}

// ServeHTTP upgrades a request into a client subscribed to one symbol's
// trade feed, given by the "symbol" query parameter.
func (h *TradeHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		http.Error(w, "symbol query parameter is required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &wsClient{conn: conn, symbol: symbol, send: make(chan []byte, 256)}
	h.register <- client

	go client.writePump()
	go client.readPump(h)
}

func (c *wsClient) readPump(h *TradeHub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
