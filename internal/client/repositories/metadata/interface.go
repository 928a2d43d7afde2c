// Package metadata keeps the authctl session in the local metadata table.
package metadata

import (
	"context"
	"errors"
)

// Key names a row of the metadata table.
type Key string

const (
	KeyJWT          Key = "jwt"
	KeyRenewalToken Key = "renewal_token"
	KeyAccountName  Key = "account_name"
)

var sessionKeys = []Key{KeyJWT, KeyRenewalToken, KeyAccountName}

// ErrIncompleteSession is returned when a session without both tokens is saved.
var ErrIncompleteSession = errors.New("session needs both a session token and a renewal token")

// Session is what the client remembers between runs.
type Session struct {
	JWT          string
	RenewalToken string
	AccountName  string
}

// Repository stores the current session. LoadSession returns nil, nil when
// nobody is logged in.
type Repository interface {
	LoadSession(ctx context.Context) (*Session, error)
	SaveSession(ctx context.Context, s Session) error
	ClearSession(ctx context.Context) error
}
