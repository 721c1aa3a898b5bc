package service

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized matches any response that rejected the bearer token.
var ErrUnauthorized = errors.New("platform: token rejected")

// APIError is a non-success response. Message is the server's text verbatim.
type APIError struct {
	Op      string
	Status  int
	Message string

	authz bool // the response rejected the credential we sent
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.authz
}

// Unauthorized reports whether this error should end the session.
func (e *APIError) Unauthorized() bool { return e.authz }

func newAPIError(op string, status int, msg string, withToken bool) *APIError {
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{
		Op:      op,
		Status:  status,
		Message: msg,
		// flask-jwt answers 401 for missing/expired tokens, 422 for malformed ones
		authz: withToken && (status == http.StatusUnauthorized || status == http.StatusUnprocessableEntity),
	}
}

// TransportError covers everything that kept us from reading a valid
// response: dialing, timeouts, unreadable or undecodable bodies.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
