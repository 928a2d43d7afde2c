package services

import (
	"context"

	"github.com/dmitrijs2005/authapi/internal/client/client"
	"github.com/dmitrijs2005/authapi/internal/server/models"
)

// AccountService runs the administrator account commands with the stored
// session.
type AccountService struct {
	client   client.Client
	sessions *SessionService
}

func NewAccountService(c client.Client, sessions *SessionService) *AccountService {
	return &AccountService{client: c, sessions: sessions}
}

func (s *AccountService) List(ctx context.Context) ([]*models.Account, error) {
	var out []*models.Account
	err := s.sessions.Do(ctx, func(ctx context.Context, jwt string) error {
		var err error
		out, err = s.client.ListAccounts(ctx, jwt)
		return err
	})
	return out, err
}

func (s *AccountService) Get(ctx context.Context, id string) (*models.Account, error) {
	var out *models.Account
	err := s.sessions.Do(ctx, func(ctx context.Context, jwt string) error {
		var err error
		out, err = s.client.GetAccount(ctx, jwt, id)
		return err
	})
	return out, err
}

func (s *AccountService) Create(ctx context.Context, name string, password []byte, fields models.Fields) (*models.Account, error) {
	var out *models.Account
	err := s.sessions.Do(ctx, func(ctx context.Context, jwt string) error {
		var err error
		out, err = s.client.CreateAccount(ctx, jwt, name, string(password), fields)
		return err
	})
	return out, err
}

func (s *AccountService) ReplaceFields(ctx context.Context, id string, fields models.Fields) (*models.Account, error) {
	var out *models.Account
	err := s.sessions.Do(ctx, func(ctx context.Context, jwt string) error {
		var err error
		out, err = s.client.ReplaceFields(ctx, jwt, id, fields)
		return err
	})
	return out, err
}

func (s *AccountService) Delete(ctx context.Context, id string) error {
	return s.sessions.Do(ctx, func(ctx context.Context, jwt string) error {
		return s.client.DeleteAccount(ctx, jwt, id)
	})
}
