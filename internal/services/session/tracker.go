package session

import (
	"sort"
	"sync"

	"github.com/mcoot/playersession/internal/dependencies/clock"
	"github.com/mcoot/playersession/internal/model"
)

// Tracker is the in-memory set of logged-in usernames.
// It starts empty on every boot; nothing here is persisted.
type Tracker struct {
	clock clock.Clock

	mu       sync.RWMutex
	sessions map[string]model.Session
	byConn   map[model.ConnectionID]map[string]struct{}
}

// NewTracker creates an empty tracker
func NewTracker(clk clock.Clock) *Tracker {
	return &Tracker{
		clock:    clk,
		sessions: make(map[string]model.Session),
		byConn:   make(map[model.ConnectionID]map[string]struct{}),
	}
}

// TryLogin marks username as logged in from conn.
// Returns false without changing anything if it is already logged in.
func (t *Tracker) TryLogin(username string, conn model.ConnectionID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.sessions[username]; ok {
		return false
	}

	t.sessions[username] = model.Session{
		Username:     username,
		ConnectionID: conn,
		LoggedInAt:   t.clock.Now(),
	}
	names, ok := t.byConn[conn]
	if !ok {
		names = make(map[string]struct{})
		t.byConn[conn] = names
	}
	names[username] = struct{}{}
	return true
}

// Logout removes username. Safe to call for usernames that are not logged in.
func (t *Tracker) Logout(username string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.logoutLocked(username)
}

// LogoutConnection removes every username logged in from conn and returns them sorted
func (t *Tracker) LogoutConnection(conn model.ConnectionID) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	names := t.byConn[conn]
	released := make([]string, 0, len(names))
	for username := range names {
		released = append(released, username)
	}
	for _, username := range released {
		t.logoutLocked(username)
	}
	sort.Strings(released)
	return released
}

// IsLoggedIn reports whether username currently has a session
func (t *Tracker) IsLoggedIn(username string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.sessions[username]
	return ok
}

// Get returns the session for username
func (t *Tracker) Get(username string) (model.Session, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.sessions[username]
	return s, ok
}

// List returns all sessions ordered by username
func (t *Tracker) List() []model.Session {
	t.mu.RLock()
	defer t.mu.RUnlock()

	list := make([]model.Session, 0, len(t.sessions))
	for _, s := range t.sessions {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Username < list[j].Username
	})
	return list
}

// Count returns the number of logged-in usernames
func (t *Tracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions)
}

func (t *Tracker) logoutLocked(username string) bool {
	s, ok := t.sessions[username]
	if !ok {
		return false
	}
	delete(t.sessions, username)
	if names, ok := t.byConn[s.ConnectionID]; ok {
		delete(names, username)
		if len(names) == 0 {
			delete(t.byConn, s.ConnectionID)
		}
	}
	return true
}
