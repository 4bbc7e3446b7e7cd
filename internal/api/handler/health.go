package handler

import (
	"net/http"

	"github.com/mcoot/playersession/internal/api/response"
	"github.com/mcoot/playersession/internal/services/auth"
)

// ClientCounter reports the number of open connections
type ClientCounter interface {
	ClientCount() int
}

// HealthHandler reports liveness plus connection and session counts
type HealthHandler struct {
	clients     ClientCounter
	authService *auth.Service
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(clients ClientCounter, authService *auth.Service) *HealthHandler {
	return &HealthHandler{
		clients:     clients,
		authService: authService,
	}
}

// Get handles GET /api/v1/health
func (h *HealthHandler) Get(w http.ResponseWriter, _ *http.Request) {
	resp := response.Health{Status: "ok"}
	if h.clients != nil {
		resp.Connections = h.clients.ClientCount()
	}
	if h.authService != nil {
		resp.LoggedIn = len(h.authService.Sessions())
	}
	response.JSON(w, http.StatusOK, resp)
}
