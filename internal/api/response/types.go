package response

import (
	"time"

	"github.com/mcoot/playersession/internal/model"
)

// Health is the response for the health endpoint
type Health struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
	LoggedIn    int    `json:"logged_in"`
}

// Session represents a logged-in player in API responses
type Session struct {
	Username     string    `json:"username"`
	ConnectionID uint64    `json:"connection_id"`
	LoggedInAt   time.Time `json:"logged_in_at"`
}

// SessionFromModel converts a model.Session to a response Session
func SessionFromModel(s model.Session) Session {
	return Session{
		Username:     s.Username,
		ConnectionID: uint64(s.ConnectionID),
		LoggedInAt:   s.LoggedInAt,
	}
}

// SessionList is the response for the session listing endpoint
type SessionList struct {
	Sessions []Session `json:"sessions"`
	Count    int       `json:"count"`
}

// SessionListFromModel converts a slice of sessions
func SessionListFromModel(sessions []model.Session) SessionList {
	out := make([]Session, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, SessionFromModel(s))
	}
	return SessionList{Sessions: out, Count: len(out)}
}
