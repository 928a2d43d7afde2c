// Package services contains the application services of the authctl client:
// keeping the session and running account commands with it.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/authapi/internal/client/client"
	"github.com/dmitrijs2005/authapi/internal/client/repositories/metadata"
	"github.com/golang-jwt/jwt/v5"
)

var ErrNotLoggedIn = errors.New("not logged in")

// SessionService logs in against the server and keeps the resulting token
// pair in the local session database.
type SessionService struct {
	client client.Client
	db     *sql.DB
}

func NewSessionService(c client.Client, db *sql.DB) *SessionService {
	return &SessionService{client: c, db: db}
}

func (s *SessionService) sessionRepo() metadata.Repository {
	return metadata.NewSQLiteRepository(s.db)
}

// current returns the stored session or ErrNotLoggedIn.
func (s *SessionService) current(ctx context.Context) (*metadata.Session, error) {
	sess, err := s.sessionRepo().LoadSession(ctx)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrNotLoggedIn
	}
	return sess, nil
}

// LoginAPIKey authenticates with an API key and stores the session.
func (s *SessionService) LoginAPIKey(ctx context.Context, apiKey []byte) (string, error) {
	pair, err := s.client.LoginAPIKey(ctx, string(apiKey))
	if err != nil {
		return "", fmt.Errorf("login error: %w", err)
	}
	return s.save(ctx, pair)
}

// LoginPassword authenticates with name and password and stores the session.
func (s *SessionService) LoginPassword(ctx context.Context, name string, password []byte) (string, error) {
	pair, err := s.client.LoginPassword(ctx, name, string(password))
	if err != nil {
		return "", fmt.Errorf("login error: %w", err)
	}
	return s.save(ctx, pair)
}

// Renew exchanges the stored renewal token for a new pair.
func (s *SessionService) Renew(ctx context.Context) error {
	sess, err := s.current(ctx)
	if err != nil {
		return err
	}

	pair, err := s.client.Renew(ctx, sess.RenewalToken)
	if err != nil {
		if errors.Is(err, client.ErrForbidden) {
			_ = s.Logout(ctx)
			return fmt.Errorf("%w: session can no longer be renewed", ErrNotLoggedIn)
		}
		return fmt.Errorf("renew error: %w", err)
	}
	_, err = s.save(ctx, pair)
	return err
}

// AccountName returns the name of the logged in account, or "" when there
// is no session.
func (s *SessionService) AccountName(ctx context.Context) (string, error) {
	sess, err := s.sessionRepo().LoadSession(ctx)
	if err != nil || sess == nil {
		return "", err
	}
	return sess.AccountName, nil
}

// Logout forgets the stored session.
func (s *SessionService) Logout(ctx context.Context) error {
	return s.sessionRepo().ClearSession(ctx)
}

// Do calls fn with the current session token. When the server reports the
// token as expired the session is renewed once and fn retried.
func (s *SessionService) Do(ctx context.Context, fn func(ctx context.Context, jwt string) error) error {
	sess, err := s.current(ctx)
	if err != nil {
		return err
	}

	err = fn(ctx, sess.JWT)
	if !errors.Is(err, client.ErrTokenExpired) {
		return err
	}

	if err := s.Renew(ctx); err != nil {
		return err
	}
	if sess, err = s.current(ctx); err != nil {
		return err
	}
	return fn(ctx, sess.JWT)
}

func (s *SessionService) save(ctx context.Context, pair *client.TokenPair) (string, error) {
	name := accountNameOf(pair.JWT)

	err := s.sessionRepo().SaveSession(ctx, metadata.Session{
		JWT:          pair.JWT,
		RenewalToken: pair.RenewalToken,
		AccountName:  name,
	})
	if err != nil {
		return "", fmt.Errorf("session saving error: %w", err)
	}
	return name, nil
}

// accountNameOf reads the accountName claim without checking the signature.
func accountNameOf(token string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	name, _ := claims["accountName"].(string)
	return name
}
