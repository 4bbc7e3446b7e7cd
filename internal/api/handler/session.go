package handler

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/playersession/internal/api/apierr"
	"github.com/mcoot/playersession/internal/api/response"
	"github.com/mcoot/playersession/internal/model"
	"github.com/mcoot/playersession/internal/services/auth"
)

// SessionHandler serves the operator view of logged-in players
type SessionHandler struct {
	authService *auth.Service
	logger      *slog.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(authService *auth.Service, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		authService: authService,
		logger:      logger,
	}
}

// List handles GET /api/v1/sessions
func (h *SessionHandler) List(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.SessionListFromModel(h.authService.Sessions()))
}

// Get handles GET /api/v1/sessions/{username}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, err := h.authService.Session(mux.Vars(r)["username"])
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.SessionFromModel(session))
}

// Delete handles DELETE /api/v1/sessions/{username}
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]
	if username == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("username is required"))
		return
	}

	if !h.authService.Logout(username) {
		apierr.WriteError(w, model.ErrSessionNotFound)
		return
	}

	h.logger.Info("session ended by operator", slog.String("username", username))
	response.NoContent(w)
}
