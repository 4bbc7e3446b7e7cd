package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mcoot/playersession/internal/model"
)

// DecodeRequest parses an inbound message. Anything other than a well-formed
// sign_up or authenticate request with non-empty fields yields model.ErrValidation.
func DecodeRequest(data []byte) (Request, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Request{}, fmt.Errorf("%w: %v", model.ErrValidation, err)
	}

	if !KnownRequestType(env.Type) {
		return Request{Type: env.Type}, fmt.Errorf("%w: unknown request type %q", model.ErrValidation, env.Type)
	}

	payload := bytes.TrimSpace(env.Payload)
	if len(payload) == 0 || payload[0] != '{' {
		return Request{Type: env.Type}, fmt.Errorf("%w: payload must be an object", model.ErrValidation)
	}

	var creds Credentials
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&creds); err != nil {
		return Request{Type: env.Type}, fmt.Errorf("%w: %v", model.ErrValidation, err)
	}
	if creds.Username == "" || creds.Password == "" {
		return Request{Type: env.Type}, fmt.Errorf("%w: username and password are required", model.ErrValidation)
	}

	return Request{Type: env.Type, Credentials: creds}, nil
}

// EncodeRequest builds an inbound message. Used by clients.
func EncodeRequest(requestType string, creds Credentials) ([]byte, error) {
	return encode(requestType, creds)
}

// EncodeResponse builds a response message
func EncodeResponse(r Response) ([]byte, error) {
	return encode(TypeResponse, r)
}

// EncodeInitializePlayer builds an initialization push
func EncodeInitializePlayer(p InitializePlayer) ([]byte, error) {
	return encode(TypeInitializePlayer, p)
}

// DecodeEnvelope splits an outbound message into its type and raw payload
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, err
	}
	if env.Type == "" {
		return Envelope{}, errors.New("message has no type")
	}
	return env, nil
}

// ResponseFromError maps a service error to the user-facing response.
// Unknown users and wrong passwords deliberately share one message.
func ResponseFromError(requestType string, err error) Response {
	switch {
	case errors.Is(err, model.ErrValidation):
		return Failure(requestType, MessageInvalidRequest)
	case errors.Is(err, model.ErrUsernameExists):
		return Failure(requestType, MessageUsernameExists)
	case errors.Is(err, model.ErrAlreadyLoggedIn):
		return Failure(requestType, MessageAlreadyLoggedIn)
	case errors.Is(err, model.ErrInvalidCredentials):
		return Failure(requestType, MessageInvalidCredentials)
	default:
		return Failure(requestType, MessageInternalError)
	}
}

func encode(messageType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: messageType, Payload: raw})
}
