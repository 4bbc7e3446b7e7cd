package model

import (
	"strconv"
	"time"
)

// ConnectionID is the transport-assigned address of an open connection.
// It carries no ownership over accounts or sessions.
type ConnectionID uint64

// String formats the id for logs and HTTP responses
func (id ConnectionID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Session records a logged-in username
type Session struct {
	Username     string
	ConnectionID ConnectionID
	LoggedInAt   time.Time
}
