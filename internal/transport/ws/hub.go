package ws

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/playersession/internal/api/apierr"
	"github.com/mcoot/playersession/internal/metrics"
	"github.com/mcoot/playersession/internal/model"
)

// ErrSendBufferFull is returned when a client is not keeping up with its messages
var ErrSendBufferFull = errors.New("client send buffer full")

// Handler receives connection events. Messages from one connection are
// delivered in order on that connection's goroutine; different connections
// are handled in parallel.
type Handler interface {
	Connected(id model.ConnectionID)
	Disconnected(id model.ConnectionID)
	HandleMessage(ctx context.Context, id model.ConnectionID, data []byte)
}

// Config holds hub settings
type Config struct {
	MaxConnections int
	MaxMessageSize int64
	SendBufferSize int
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
}

// DefaultConfig returns the default hub configuration
func DefaultConfig() Config {
	return Config{
		MaxConnections: 100,
		MaxMessageSize: 4096,
		SendBufferSize: 64,
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     54 * time.Second,
	}
}

// withDefaults fills zero fields from DefaultConfig
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxConnections <= 0 {
		c.MaxConnections = d.MaxConnections
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = d.MaxMessageSize
	}
	if c.SendBufferSize <= 0 {
		c.SendBufferSize = d.SendBufferSize
	}
	if c.WriteWait <= 0 {
		c.WriteWait = d.WriteWait
	}
	if c.PongWait <= 0 {
		c.PongWait = d.PongWait
	}
	if c.PingPeriod <= 0 || c.PingPeriod >= c.PongWait {
		c.PingPeriod = c.PongWait * 9 / 10
	}
	return c
}

// Hub owns every open websocket connection and assigns connection ids
type Hub struct {
	config   Config
	handler  Handler
	metrics  *metrics.Metrics
	logger   *slog.Logger
	upgrader websocket.Upgrader

	clients  map[model.ConnectionID]*Client
	reserved int
	mu       sync.RWMutex
	nextID   atomic.Uint64

	// Channels for managing clients
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopped    chan struct{}
	started    atomic.Bool
	closeOnce  sync.Once

	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub creates a hub. Start it with Run before serving connections.
func NewHub(handler Handler, m *metrics.Metrics, logger *slog.Logger, cfg Config) *Hub {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		config:  cfg,
		handler: handler,
		metrics: m,
		logger:  logger.With(slog.String("component", "ws")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// game clients are not browsers
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
		clients:    make(map[model.ConnectionID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	if !h.started.CompareAndSwap(false, true) {
		return
	}
	defer close(h.stopped)
	h.logger.Info("ws hub started", slog.Int("max_connections", h.config.MaxConnections))
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			clientCount := len(h.clients)
			h.mu.Unlock()

			h.metrics.ConnectionOpened()
			h.logger.Debug("ws client registered",
				slog.Uint64("connection_id", uint64(client.id)),
				slog.Int("total_clients", clientCount))
			h.handler.Connected(client.id)
			close(client.registered)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				close(client.send)
				h.reserved--
				clientCount := len(h.clients)
				h.mu.Unlock()

				h.metrics.ConnectionClosed()
				h.logger.Debug("ws client unregistered",
					slog.Uint64("connection_id", uint64(client.id)),
					slog.Duration("connection_duration", time.Since(client.connectedAt)),
					slog.Int("total_clients", clientCount))
				h.handler.Disconnected(client.id)
			} else {
				h.mu.Unlock()
			}

		case <-h.done:
			h.mu.Lock()
			clientCount := len(h.clients)
			closed := make([]model.ConnectionID, 0, clientCount)
			for id, client := range h.clients {
				close(client.send)
				delete(h.clients, id)
				closed = append(closed, id)
			}
			h.reserved = 0
			h.mu.Unlock()

			for _, id := range closed {
				h.metrics.ConnectionClosed()
				h.handler.Disconnected(id)
			}
			h.logger.Info("ws hub stopped", slog.Int("disconnected_clients", clientCount))
			return
		}
	}
}

// ServeWS upgrades the request and serves the connection until it closes
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	if !h.acquire() {
		h.metrics.ConnectionRejected()
		h.logger.Warn("ws connection rejected: server full",
			slog.String("remote_addr", r.RemoteAddr),
			slog.Int("max_connections", h.config.MaxConnections))
		apierr.WriteError(w, model.ErrTooManyConnections)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.release()
		// Upgrade has already written an HTTP error
		h.logger.Warn("ws upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := newClient(h, model.ConnectionID(h.nextID.Add(1)), conn)
	if !h.registerClient(client) {
		h.release()
		_ = conn.Close()
		return
	}

	go client.writePump()
	client.readPump()
}

// Send queues data for the connection id
func (h *Hub) Send(id model.ConnectionID, data []byte) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, ok := h.clients[id]
	if !ok {
		return model.ErrConnectionNotFound
	}
	select {
	case client.send <- data:
		return nil
	default:
		h.logger.Warn("ws message dropped - client buffer full",
			slog.Uint64("connection_id", uint64(id)))
		return ErrSendBufferFull
	}
}

// Close disconnects every client and stops the hub
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		h.cancel()
		close(h.done)
	})
	if h.started.Load() {
		<-h.stopped
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// acquire reserves a connection slot. Slots are taken before the upgrade so
// the limit holds while handshakes are in flight.
func (h *Hub) acquire() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.reserved >= h.config.MaxConnections {
		return false
	}
	h.reserved++
	return true
}

func (h *Hub) release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.reserved > 0 {
		h.reserved--
	}
}

// registerClient blocks until the client is addressable, so replies to its
// first message cannot miss it
func (h *Hub) registerClient(c *Client) bool {
	select {
	case h.register <- c:
	case <-h.done:
		return false
	}
	<-c.registered
	return true
}

func (h *Hub) unregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
