package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/mcoot/playersession/internal/metrics"
	"github.com/mcoot/playersession/internal/model"
	"github.com/mcoot/playersession/internal/services/credentials"
	"github.com/mcoot/playersession/internal/services/positions"
	"github.com/mcoot/playersession/internal/services/session"
)

// Service answers sign-up and authenticate requests.
// Each request stands alone; the only shared state is the three stores.
type Service struct {
	credentials *credentials.Store
	positions   *positions.Store
	sessions    *session.Tracker
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// New creates a new AuthService. m may be nil.
func New(creds *credentials.Store, pos *positions.Store, sessions *session.Tracker, m *metrics.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Service{
		credentials: creds,
		positions:   pos,
		sessions:    sessions,
		metrics:     m,
		logger:      logger.With(slog.String("component", "auth")),
	}
}

// SignUp creates an account. Existing accounts are never overwritten.
func (s *Service) SignUp(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return model.ErrValidation
	}

	if s.credentials.Exists(username) {
		s.logger.Info("sign up rejected: username taken", slog.String("username", username))
		return model.ErrUsernameExists
	}

	// Insert re-checks under the store lock in case of a concurrent sign-up
	if err := s.credentials.Insert(ctx, username, password); err != nil {
		if errors.Is(err, model.ErrUsernameExists) {
			s.logger.Info("sign up rejected: username taken", slog.String("username", username))
		} else {
			s.logger.Error("sign up failed",
				slog.String("username", username),
				slog.String("error", err.Error()))
		}
		return err
	}

	s.logger.Info("account created", slog.String("username", username))
	return nil
}

// Authenticate logs username in from conn and returns the spawn position
func (s *Service) Authenticate(ctx context.Context, conn model.ConnectionID, username, password string) (model.Position, error) {
	if username == "" || password == "" {
		return model.Position{}, model.ErrValidation
	}

	log := s.logger.With(
		slog.String("username", username),
		slog.Uint64("connection_id", uint64(conn)))

	// Both checks are always evaluated; the session check takes precedence
	loggedIn := s.sessions.IsLoggedIn(username)
	valid := s.credentials.Exists(username) && s.credentials.Verify(username, password)

	if loggedIn {
		log.Info("login rejected: already logged in")
		return model.Position{}, model.ErrAlreadyLoggedIn
	}
	if !valid {
		log.Info("login rejected: invalid credentials")
		return model.Position{}, model.ErrInvalidCredentials
	}

	pos, err := s.positions.GetOrAssign(ctx, username)
	if err != nil {
		log.Error("login failed: could not assign position", slog.String("error", err.Error()))
		return model.Position{}, err
	}

	if !s.sessions.TryLogin(username, conn) {
		log.Info("login rejected: concurrent login won")
		return model.Position{}, model.ErrAlreadyLoggedIn
	}
	s.metrics.SetLoggedIn(s.sessions.Count())

	log.Info("login successful", slog.Float64("x", pos.X), slog.Float64("y", pos.Y))
	return pos, nil
}

// Logout ends a session. Reports whether one existed.
func (s *Service) Logout(username string) bool {
	ok := s.sessions.Logout(username)
	if ok {
		s.metrics.SetLoggedIn(s.sessions.Count())
		s.logger.Info("logged out", slog.String("username", username))
	}
	return ok
}

// Disconnect ends every session opened from conn
func (s *Service) Disconnect(conn model.ConnectionID) []string {
	released := s.sessions.LogoutConnection(conn)
	if len(released) > 0 {
		s.metrics.SetLoggedIn(s.sessions.Count())
	}
	return released
}

// Session returns the session for username, or model.ErrSessionNotFound
func (s *Service) Session(username string) (model.Session, error) {
	session, ok := s.sessions.Get(username)
	if !ok {
		return model.Session{}, model.ErrSessionNotFound
	}
	return session, nil
}

// Sessions lists logged-in players
func (s *Service) Sessions() []model.Session {
	return s.sessions.List()
}
