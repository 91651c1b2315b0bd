// Package stream pushes trade records to websocket subscribers.
package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/quantumtrade/tradebot/internal/core"
	"github.com/quantumtrade/tradebot/internal/metrics"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 256
)

// Message is the envelope written to subscribers
type Message struct {
	Type string     `json:"type"`
	Data core.Trade `json:"data"`
}

// Hub manages websocket clients and fans trade records out to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex

	upgrader websocket.Upgrader
	logger   *zap.Logger
	metrics  *metrics.Registry
}

// NewHub creates a hub. An empty allowedOrigins only admits same-host
// browsers; "*" admits any origin.
func NewHub(allowedOrigins []string, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, sendBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

// SetMetrics enables the connected-clients gauge
func (h *Hub) SetMetrics(m *metrics.Registry) { h.metrics = m }

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		if len(allowed) > 0 {
			return false
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}

// Run starts the hub's event loop and closes every client on return.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.stopOnce.Do(func() { close(h.done) })
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.updateGauge()
			return nil

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.updateGauge()
			h.logger.Debug("websocket client registered", zap.String("remote", client.conn.RemoteAddr().String()))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.updateGauge()
			h.logger.Debug("websocket client unregistered")

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer: drop it rather than stall the fan-out.
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
			h.updateGauge()
		}
	}
}

func (h *Hub) updateGauge() {
	if h.metrics != nil {
		h.metrics.SetStreamClients(h.Clients())
	}
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues a trade record for every client. It never blocks the
// caller; records are dropped when the queue is full.
func (h *Hub) Broadcast(t core.Trade) {
	data, err := json.Marshal(Message{Type: "trade", Data: t})
	if err != nil {
		h.logger.Error("failed to encode trade", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("stream queue full, dropping trade", zap.String("trade_id", t.ID))
	}
}

// ServeWs upgrades the request and attaches a client to the hub.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	client := &Client{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}

	select {
	case h.register <- client:
	case <-r.Context().Done():
		conn.Close()
		return
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
