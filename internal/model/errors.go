package model

import "errors"

// Common errors used across the application
var (
	// Request errors
	ErrValidation = errors.New("invalid request format")

	// Account errors
	ErrUsernameExists     = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAlreadyLoggedIn    = errors.New("user already logged in")
	ErrSessionNotFound    = errors.New("user not logged in")

	// Persistence errors
	ErrDocumentNotFound = errors.New("document not found")
	ErrCorruptStore     = errors.New("persisted document is corrupt")
	ErrPersist          = errors.New("failed to persist document")

	// Connection errors
	ErrConnectionNotFound = errors.New("connection not found")
	ErrTooManyConnections = errors.New("too many connections")
)
