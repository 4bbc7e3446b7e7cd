package ws

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/playersession/internal/middleware"
	"github.com/mcoot/playersession/internal/model"
)

// Client is one websocket connection
type Client struct {
	hub         *Hub
	id          model.ConnectionID
	conn        *websocket.Conn
	send        chan []byte
	registered  chan struct{}
	connectedAt time.Time
}

func newClient(hub *Hub, id model.ConnectionID, conn *websocket.Conn) *Client {
	return &Client{
		hub:         hub,
		id:          id,
		conn:        conn,
		send:        make(chan []byte, hub.config.SendBufferSize),
		registered:  make(chan struct{}),
		connectedAt: time.Now(),
	}
}

// ID returns the connection id
func (c *Client) ID() model.ConnectionID {
	return c.id
}

// readPump hands inbound messages to the hub's handler until the connection fails
func (c *Client) readPump() {
	defer func() {
		c.hub.unregisterClient(c)
		_ = c.conn.Close()
	}()

	cfg := c.hub.config
	c.conn.SetReadLimit(cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("ws read error",
					slog.Uint64("connection_id", uint64(c.id)),
					slog.String("error", err.Error()))
			}
			return
		}
		middleware.Guard(c.hub.logger, func() {
			c.hub.handler.HandleMessage(c.hub.ctx, c.id, data)
		}, slog.Uint64("connection_id", uint64(c.id)))
	}
}

// writePump is the only writer on the connection
func (c *Client) writePump() {
	cfg := c.hub.config
	ticker := time.NewTicker(cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			if !ok {
				// Hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
