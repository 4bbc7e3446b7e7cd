package gateway

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/mcoot/playersession/internal/metrics"
	"github.com/mcoot/playersession/internal/model"
	"github.com/mcoot/playersession/internal/protocol"
	"github.com/mcoot/playersession/internal/services/auth"
)

// Sender delivers a message to one open connection
type Sender interface {
	Send(id model.ConnectionID, data []byte) error
}

// Config holds gateway policy
type Config struct {
	// LogoutOnDisconnect releases a connection's sessions when it closes.
	// Without it a dropped client stays logged in until restart.
	LogoutOnDisconnect bool
}

// DefaultConfig returns the default gateway configuration
func DefaultConfig() Config {
	return Config{LogoutOnDisconnect: true}
}

// Gateway turns transport events into AuthService calls and replies to the
// originating connection
type Gateway struct {
	auth    *auth.Service
	metrics *metrics.Metrics
	logger  *slog.Logger
	config  Config

	mu     sync.RWMutex
	sender Sender
}

// New creates a gateway. SetSender must be called before messages arrive.
func New(authService *auth.Service, m *metrics.Metrics, logger *slog.Logger, cfg Config) *Gateway {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Gateway{
		auth:    authService,
		metrics: m,
		logger:  logger.With(slog.String("component", "gateway")),
		config:  cfg,
	}
}

// SetSender sets the transport used for replies
func (g *Gateway) SetSender(s Sender) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sender = s
}

// Connected is called by the transport when a connection opens
func (g *Gateway) Connected(id model.ConnectionID) {
	g.logger.Info("client connected", slog.Uint64("connection_id", uint64(id)))
}

// Disconnected is called by the transport after a connection closes
func (g *Gateway) Disconnected(id model.ConnectionID) {
	log := g.logger.With(slog.Uint64("connection_id", uint64(id)))
	log.Info("client disconnected")

	if !g.config.LogoutOnDisconnect {
		return
	}
	for _, username := range g.auth.Disconnect(id) {
		log.Info("session released on disconnect", slog.String("username", username))
	}
}

// HandleMessage answers one inbound message from id
func (g *Gateway) HandleMessage(ctx context.Context, id model.ConnectionID, data []byte) {
	log := g.logger.With(slog.Uint64("connection_id", uint64(id)))

	req, err := protocol.DecodeRequest(data)
	if err != nil {
		requestType := req.Type
		if !protocol.KnownRequestType(requestType) {
			requestType = ""
		}
		log.Warn("invalid request", slog.String("error", err.Error()))
		g.metrics.RequestCompleted(metricsType(requestType), metrics.StatusError)
		g.respond(id, protocol.ResponseFromError(requestType, err))
		return
	}

	switch req.Type {
	case protocol.TypeSignUp:
		g.handleSignUp(ctx, id, req.Credentials)
	case protocol.TypeAuthenticate:
		g.handleAuthenticate(ctx, id, req.Credentials)
	}
}

func (g *Gateway) handleSignUp(ctx context.Context, id model.ConnectionID, creds protocol.Credentials) {
	if err := g.auth.SignUp(ctx, creds.Username, creds.Password); err != nil {
		g.metrics.RequestCompleted(protocol.TypeSignUp, metrics.StatusError)
		g.respond(id, protocol.ResponseFromError(protocol.TypeSignUp, err))
		return
	}
	g.metrics.RequestCompleted(protocol.TypeSignUp, metrics.StatusSuccess)
	g.respond(id, protocol.Success(protocol.TypeSignUp, protocol.MessageAccountCreated))
}

func (g *Gateway) handleAuthenticate(ctx context.Context, id model.ConnectionID, creds protocol.Credentials) {
	pos, err := g.auth.Authenticate(ctx, id, creds.Username, creds.Password)
	if err != nil {
		g.metrics.RequestCompleted(protocol.TypeAuthenticate, metrics.StatusError)
		g.respond(id, protocol.ResponseFromError(protocol.TypeAuthenticate, err))
		return
	}
	g.metrics.RequestCompleted(protocol.TypeAuthenticate, metrics.StatusSuccess)
	g.respond(id, protocol.Success(protocol.TypeAuthenticate, protocol.MessageLoginSuccessful))

	data, err := protocol.EncodeInitializePlayer(protocol.InitializePlayer{ConnectionID: id, Position: pos})
	if err != nil {
		g.logger.Error("failed to encode initialization", slog.String("error", err.Error()))
		return
	}
	g.send(id, data)
}

func (g *Gateway) respond(id model.ConnectionID, resp protocol.Response) {
	data, err := protocol.EncodeResponse(resp)
	if err != nil {
		g.logger.Error("failed to encode response", slog.String("error", err.Error()))
		return
	}
	g.send(id, data)
}

func (g *Gateway) send(id model.ConnectionID, data []byte) {
	g.mu.RLock()
	sender := g.sender
	g.mu.RUnlock()

	if sender == nil {
		g.logger.Error("no sender configured, dropping message",
			slog.Uint64("connection_id", uint64(id)))
		return
	}
	if err := sender.Send(id, data); err != nil {
		g.logger.Warn("failed to send message",
			slog.Uint64("connection_id", uint64(id)),
			slog.String("error", err.Error()))
	}
}

func metricsType(requestType string) string {
	if requestType == "" {
		return "invalid"
	}
	return requestType
}
