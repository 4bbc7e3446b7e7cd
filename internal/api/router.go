package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mcoot/playersession/internal/api/handler"
	"github.com/mcoot/playersession/internal/api/middleware"
	"github.com/mcoot/playersession/internal/metrics"
	"github.com/mcoot/playersession/internal/services/auth"
)

// Hub is the websocket transport as seen by the router
type Hub interface {
	ServeWS(w http.ResponseWriter, r *http.Request)
	ClientCount() int
}

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	AuthService *auth.Service
	Hub         Hub
	Metrics     *metrics.Metrics
	// AdminToken protects the session endpoints. They are not served without one.
	AdminToken string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	sessionHandler := handler.NewSessionHandler(cfg.AuthService, cfg.Logger)
	healthHandler := handler.NewHealthHandler(cfg.Hub, cfg.AuthService)

	// Create middleware
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)
	adminMiddleware := middleware.AdminToken(cfg.AdminToken)

	// Game client endpoint
	if cfg.Hub != nil {
		r.Handle("/ws", recoveryMiddleware(loggingMiddleware(http.HandlerFunc(cfg.Hub.ServeWS)))).
			Methods(http.MethodGet)
	}

	// Prometheus scrape endpoint
	if reg := cfg.Metrics.Registry(); reg != nil {
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	api.HandleFunc("/health", healthHandler.Get).Methods(http.MethodGet)

	// Session routes (operator only)
	if cfg.AdminToken == "" {
		cfg.Logger.Warn("no admin token configured, session endpoints disabled")
	} else {
		sessions := api.PathPrefix("/sessions").Subrouter()
		sessions.Use(adminMiddleware)
		sessions.HandleFunc("", sessionHandler.List).Methods(http.MethodGet)
		sessions.HandleFunc("/{username}", sessionHandler.Get).Methods(http.MethodGet)
		sessions.HandleFunc("/{username}", sessionHandler.Delete).Methods(http.MethodDelete)
	}

	return r
}
