package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/playersession/internal/protocol"
)

// GameClient speaks the game protocol over one websocket connection
type GameClient struct {
	conn    *websocket.Conn
	timeout time.Duration
}

// Dial opens a websocket connection to the server
func Dial(ctx context.Context, serverURL string, timeout time.Duration) (*GameClient, error) {
	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = timeout

	conn, resp, err := dialer.DialContext(ctx, serverURL, nil)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("connect to %s: HTTP %d", serverURL, resp.StatusCode)
		}
		return nil, fmt.Errorf("connect to %s: %w", serverURL, err)
	}
	return &GameClient{conn: conn, timeout: timeout}, nil
}

// Request sends a sign_up or authenticate request and waits for its response
func (c *GameClient) Request(requestType string, creds protocol.Credentials) (protocol.Response, error) {
	data, err := protocol.EncodeRequest(requestType, creds)
	if err != nil {
		return protocol.Response{}, fmt.Errorf("failed to encode request: %w", err)
	}

	_ = c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return protocol.Response{}, fmt.Errorf("failed to send request: %w", err)
	}

	for {
		env, err := c.Next()
		if err != nil {
			return protocol.Response{}, err
		}
		if env.Type != protocol.TypeResponse {
			continue
		}
		var resp protocol.Response
		if err := json.Unmarshal(env.Payload, &resp); err != nil {
			return protocol.Response{}, fmt.Errorf("failed to parse response: %w", err)
		}
		return resp, nil
	}
}

// Next reads the next message from the server
func (c *GameClient) Next() (protocol.Envelope, error) {
	_ = c.conn.SetReadDeadline(time.Now().Add(c.timeout))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return protocol.Envelope{}, fmt.Errorf("failed to read message: %w", err)
	}
	env, err := protocol.DecodeEnvelope(data)
	if err != nil {
		return protocol.Envelope{}, fmt.Errorf("failed to parse message: %w", err)
	}
	return env, nil
}

// NextInitialization waits for the initialize_player push after a login
func (c *GameClient) NextInitialization() (protocol.InitializePlayer, error) {
	env, err := c.Next()
	if err != nil {
		return protocol.InitializePlayer{}, err
	}
	if env.Type != protocol.TypeInitializePlayer {
		return protocol.InitializePlayer{}, fmt.Errorf("expected %s, got %s", protocol.TypeInitializePlayer, env.Type)
	}
	var init protocol.InitializePlayer
	if err := json.Unmarshal(env.Payload, &init); err != nil {
		return protocol.InitializePlayer{}, fmt.Errorf("failed to parse initialization: %w", err)
	}
	return init, nil
}

// Wait blocks until the server closes the connection or ctx is done
func (c *GameClient) Wait(ctx context.Context) error {
	closed := make(chan error, 1)
	go func() {
		for {
			_ = c.conn.SetReadDeadline(time.Time{})
			if _, _, err := c.conn.ReadMessage(); err != nil {
				closed <- err
				return
			}
		}
	}()

	select {
	case <-ctx.Done():
		_ = c.Close()
		<-closed
		return nil
	case err := <-closed:
		var closeErr *websocket.CloseError
		if errors.As(err, &closeErr) {
			return nil
		}
		return err
	}
}

// Close sends a close frame and closes the connection
func (c *GameClient) Close() error {
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.conn.Close()
}
