package ws

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mcoot/playersession/internal/metrics"
	"github.com/mcoot/playersession/internal/model"
	"github.com/mcoot/playersession/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// echoHandler replies to every message on the same connection
type echoHandler struct {
	hub *Hub

	mu           sync.Mutex
	connected    []model.ConnectionID
	disconnected []model.ConnectionID
}

func (h *echoHandler) Connected(id model.ConnectionID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connected = append(h.connected, id)
}

func (h *echoHandler) Disconnected(id model.ConnectionID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.disconnected = append(h.disconnected, id)
}

func (h *echoHandler) HandleMessage(_ context.Context, id model.ConnectionID, data []byte) {
	_ = h.hub.Send(id, append([]byte(id.String()+":"), data...))
}

func (h *echoHandler) disconnectedIDs() []model.ConnectionID {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]model.ConnectionID(nil), h.disconnected...)
}

type fixture struct {
	hub     *Hub
	handler *echoHandler
	metrics *metrics.Metrics
	server  *httptest.Server
	url     string
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	handler := &echoHandler{}
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	hub := NewHub(handler, m, testutil.NopLogger(), cfg)
	handler.hub = hub
	go hub.Run()

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(func() {
		hub.Close()
		server.Close()
	})

	return &fixture{
		hub:     hub,
		handler: handler,
		metrics: m,
		server:  server,
		url:     "ws" + strings.TrimPrefix(server.URL, "http"),
	}
}

func (f *fixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(f.url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readText(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	return string(data)
}

func TestEchoRoundTrip(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	conn := f.dial(t)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hello")))

	assert.Equal(t, "1:hello", readText(t, conn))
}

func TestConnectionsGetDistinctIDs(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	a := f.dial(t)
	b := f.dial(t)
	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte("a")))
	require.NoError(t, b.WriteMessage(websocket.TextMessage, []byte("b")))

	replyA := readText(t, a)
	replyB := readText(t, b)
	assert.NotEqual(t, strings.Split(replyA, ":")[0], strings.Split(replyB, ":")[0])
	assert.Equal(t, 2, f.hub.ClientCount())
	assert.Equal(t, 2.0, promtest.ToFloat64(f.metrics.ActiveConnections))
}

func TestMaxConnectionsRejectsWithUnavailable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxConnections = 1
	f := newFixture(t, cfg)

	f.dial(t)

	_, resp, err := websocket.DefaultDialer.Dial(f.url, nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Contains(t, string(body), `"code":"UNAVAILABLE"`)
	assert.Equal(t, 1.0, promtest.ToFloat64(f.metrics.ConnectionsTotal.WithLabelValues("rejected")))
}

func TestSlotFreedAfterDisconnect(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxConnections = 1
	f := newFixture(t, cfg)

	first := f.dial(t)
	require.NoError(t, first.Close())
	require.Eventually(t, func() bool { return f.hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)

	second := f.dial(t)
	require.NoError(t, second.WriteMessage(websocket.TextMessage, []byte("again")))
	assert.Equal(t, "2:again", readText(t, second))
}

func TestDisconnectNotifiesHandler(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	conn := f.dial(t)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hi")))
	readText(t, conn)
	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		return len(f.handler.disconnectedIDs()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []model.ConnectionID{1}, f.handler.disconnectedIDs())
	assert.Equal(t, 0.0, promtest.ToFloat64(f.metrics.ActiveConnections))
}

func TestSendUnknownConnection(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	err := f.hub.Send(42, []byte("nobody"))
	assert.ErrorIs(t, err, model.ErrConnectionNotFound)
}

func TestCloseDisconnectsClients(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	conn := f.dial(t)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hi")))
	readText(t, conn)

	f.hub.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	assert.Equal(t, 0, f.hub.ClientCount())
	assert.Len(t, f.handler.disconnectedIDs(), 1)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{PongWait: 10 * time.Second}.withDefaults()

	assert.Equal(t, 100, cfg.MaxConnections)
	assert.Equal(t, 9*time.Second, cfg.PingPeriod)
	assert.Equal(t, DefaultConfig().WriteWait, cfg.WriteWait)
}

// panicHandler blows up on every message
type panicHandler struct {
	echoHandler
}

func (h *panicHandler) HandleMessage(_ context.Context, id model.ConnectionID, data []byte) {
	if string(data) == "boom" {
		panic("handler failure")
	}
	h.echoHandler.HandleMessage(context.Background(), id, data)
}

func TestHandlerPanicKeepsConnection(t *testing.T) {
	handler := &panicHandler{}
	hub := NewHub(handler, nil, testutil.NopLogger(), DefaultConfig())
	handler.hub = hub
	go hub.Run()
	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(func() {
		hub.Close()
		server.Close()
	})

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("boom")))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("still here")))

	assert.Equal(t, "1:still here", readText(t, conn))
}
