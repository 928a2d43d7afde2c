package client

import (
	"errors"
	"fmt"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrForbidden    = errors.New("forbidden")
	ErrTokenExpired = errors.New("session token expired")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrBadRequest   = errors.New("bad request")
	ErrServer       = errors.New("server error")
)

// APIError is a rejected request together with the message the server gave.
// It matches one of the sentinels above with errors.Is.
type APIError struct {
	Status  int
	Message string
	Field   string
	kind    error
}

func (e *APIError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	return fmt.Sprintf("%s (%d): %s", e.kind, e.Status, msg)
}

func (e *APIError) Unwrap() error {
	return e.kind
}
