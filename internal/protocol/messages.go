package protocol

import (
	"encoding/json"

	"github.com/mcoot/playersession/internal/model"
)

// Inbound request types
const (
	TypeSignUp       = "sign_up"
	TypeAuthenticate = "authenticate"
)

// Outbound message types
const (
	TypeResponse         = "response"
	TypeInitializePlayer = "initialize_player"
)

// Response statuses
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// User-facing response messages
const (
	MessageAccountCreated     = "Account created successfully."
	MessageLoginSuccessful    = "Login successful."
	MessageInvalidRequest     = "Invalid request format."
	MessageUsernameExists     = "Username already exists."
	MessageAlreadyLoggedIn    = "User already logged in."
	MessageInvalidCredentials = "Invalid username or password."
	MessageInternalError      = "Internal server error."
)

// KnownRequestType reports whether t is a request type the server answers
func KnownRequestType(t string) bool {
	return t == TypeSignUp || t == TypeAuthenticate
}

// Envelope wraps every message in both directions
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Credentials is the payload of sign_up and authenticate requests
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Request is a decoded inbound message
type Request struct {
	Type        string
	Credentials Credentials
}

// Response answers a single request
type Response struct {
	Request string `json:"request,omitempty"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// OK reports whether the response is a success
func (r Response) OK() bool {
	return r.Status == StatusSuccess
}

// InitializePlayer is pushed to a connection after it logs in
type InitializePlayer struct {
	ConnectionID model.ConnectionID `json:"connection_id"`
	Position     model.Position     `json:"position"`
}

// Success builds a success response to requestType
func Success(requestType, message string) Response {
	return Response{Request: requestType, Status: StatusSuccess, Message: message}
}

// Failure builds an error response to requestType
func Failure(requestType, message string) Response {
	return Response{Request: requestType, Status: StatusError, Message: message}
}
